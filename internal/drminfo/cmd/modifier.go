package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"drminfo/internal/drminfo/styles"
	"drminfo/internal/modifier"
	"drminfo/internal/ui/colorize"
)

var modifierCmd = &cobra.Command{
	Use:   "modifier <value>...",
	Short: "Decode format modifiers",
	Long: `Decode one or more DRM format modifiers into their vendor specific
layout. Values may be hex (0x...), decimal, or a named modifier such as LINEAR.`,
	Example: `
# Decode an AMD modifier
drminfo modifier 0x0200000000603901

# Explain the fields of an NVIDIA block linear modifier
drminfo modifier --explain 0x0300000000606014

# Machine readable output
drminfo modifier --json LINEAR 0x0100000000000002
  `,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		explain, _ := cmd.Flags().GetBool("explain")

		mods, err := parseModifiers(args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		tty := isTerminal(out)
		switch {
		case asJSON:
			return runModifierJSON(out, mods, tty && colorize.Enabled())
		case explain:
			md := modifierMarkdown(mods)
			if tty {
				width, _, err := term.GetSize(os.Stdout.Fd())
				if err != nil {
					width = 80
				}
				md = styles.RenderMarkdown(md, width-2)
			}
			_, err := fmt.Fprintln(out, md)
			return err
		}
		for _, m := range mods {
			if _, err := fmt.Fprintln(out, modifier.Format(m)); err != nil {
				return err
			}
		}
		return nil
	},
}

func parseModifiers(args []string) ([]uint64, error) {
	mods := make([]uint64, 0, len(args))
	for _, a := range args {
		m, err := modifier.Parse(a)
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, nil
}

func runModifierJSON(w io.Writer, mods []uint64, color bool) error {
	decoded := make([]modifier.Decoded, len(mods))
	for i, m := range mods {
		decoded[i] = modifier.Decode(m)
	}
	bts, err := json.MarshalIndent(decoded, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	out := string(bts)
	if color {
		if hl, err := colorize.JSON(out); err == nil {
			out = hl
		}
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func modifierMarkdown(mods []uint64) string {
	parts := make([]string, len(mods))
	for i, m := range mods {
		parts[i] = modifier.Decode(m).Markdown()
	}
	return strings.Join(parts, "\n")
}

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

func init() {
	modifierCmd.Flags().BoolP("json", "j", false, "Output decoded fields as JSON")
	modifierCmd.Flags().BoolP("explain", "e", false, "Render a field table for each modifier")
	rootCmd.AddCommand(modifierCmd)
}

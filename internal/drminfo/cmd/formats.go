package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"drminfo/internal/fourcc"
)

var formatsCmd = &cobra.Command{
	Use:   "formats [code...]",
	Short: "List or look up pixel formats",
	Long: `List every pixel format drminfo knows by name, or look up the given
fourcc codes. Codes may be numeric (0x34325258) or four characters (XR24).`,
	Example: `
# List all known formats
drminfo formats

# Look up a code seen in a plane's format list
drminfo formats 0x3231564e XR24
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return listFormats(cmd.OutOrStdout())
		}
		for _, a := range args {
			code, err := parseFourcc(a)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fourcc.Format(code))
		}
		return nil
	},
}

func listFormats(w io.Writer) error {
	for _, code := range fourcc.Known() {
		if _, err := fmt.Fprintln(w, fourcc.Format(code)); err != nil {
			return err
		}
	}
	return nil
}

// parseFourcc accepts a number or exactly four characters.
func parseFourcc(s string) (uint32, error) {
	if v, err := strconv.ParseUint(s, 0, 32); err == nil {
		return uint32(v), nil
	}
	if len(s) == 4 {
		return fourcc.Code(s[0], s[1], s[2], s[3]), nil
	}
	return 0, fmt.Errorf("invalid fourcc %q", s)
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	drminfolog "drminfo/internal/drminfo/log"
	"drminfo/internal/logging"
	"drminfo/internal/ui/colorize"
)

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("json", "j", false, "Output the report as JSON")
	rootCmd.Flags().BoolP("yaml", "y", false, "Output the report as YAML")
	rootCmd.Flags().BoolP("no-tui", "n", false, "Print a text tree without the TUI")
	rootCmd.Flags().BoolP("egl", "g", false, "List EGL devices and their dmabuf formats and modifiers")
	rootCmd.Flags().StringP("input", "i", "", "Render a JSON report saved with --json ('-' for stdin)")
	rootCmd.Flags().String("sysfs", "/sys", "Sysfs mount point used for node discovery")
	rootCmd.Flags().String("cpuprofile", "", "Write CPU profile to file")
	rootCmd.Flags().String("memprofile", "", "Write memory profile to file")
	rootCmd.MarkFlagsMutuallyExclusive("json", "yaml", "no-tui")
}

var rootCmd = &cobra.Command{
	Use:   "drminfo [node...]",
	Short: "Dump information about DRM devices",
	Long: `Drminfo queries the kernel modesetting interface of each DRM node and
reports its driver, device, connectors, encoders, CRTCs and planes, with
format modifiers decoded into their vendor specific fields.`,
	Example: `
# Browse every card in the interactive pager
drminfo

# Dump one node as JSON
drminfo -j /dev/dri/card1 > card1.json

# Render a saved dump as a text tree
drminfo -n -i card1.json

# List dmabuf formats and modifiers EGL can import
drminfo -g
  `,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromFlags(cmd, args)
		if err != nil {
			return err
		}

		if cfg.CPUProfile != "" {
			f, err := os.Create(cfg.CPUProfile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		if cfg.MemProfile != "" {
			defer func() {
				f, err := os.Create(cfg.MemProfile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
					return
				}
				defer f.Close()
				if err := pprof.WriteHeapProfile(f); err != nil {
					fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
				}
			}()
		}

		logger := logging.NewLogger()
		defer logger.Close()
		drminfolog.Setup(logger.Logger, cfg.Debug || logging.IsDebug())

		out := cmd.OutOrStdout()
		tty := isTerminal(out)
		color := tty && colorize.Enabled()
		if cfg.EGL {
			return runEGL(cmd.Context(), out, cfg, logger.Logger, color)
		}

		rep, err := loadReport(cmd.Context(), cfg, logger.Logger)
		if err != nil {
			return err
		}

		switch {
		case cfg.JSON:
			return runJSON(out, rep, color)
		case cfg.YAML:
			return runYAML(out, rep, color)
		case !cfg.Interactive() || !tty:
			return runNoTUI(out, rep, color)
		}

		program := tea.NewProgram(
			newModel(rep),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure. fang is
// used only when stdout is a terminal and a human readable view is wanted.
func Execute() {
	plain := !term.IsTerminal(os.Stdout.Fd())
	for _, arg := range os.Args[1:] {
		switch arg {
		case "-n", "--no-tui", "-j", "--json", "-y", "--yaml":
			plain = true
		}
	}

	if plain {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

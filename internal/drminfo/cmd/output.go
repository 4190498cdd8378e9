package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"drminfo/internal/egl"
	"drminfo/internal/report"
	"drminfo/internal/ui/colorize"
)

// loadReport reads a saved dump when cfg.Input is set and queries the kernel
// otherwise.
func loadReport(ctx context.Context, cfg Config, logger *log.Logger) (report.Report, error) {
	if cfg.Input != "" {
		return readReport(cfg.Input)
	}
	c := &report.Collector{SysfsRoot: cfg.SysfsRoot, Logger: logger}
	rep, err := c.Collect(ctx, cfg.Nodes)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	if len(rep) == 0 {
		logger.Warn("no DRM nodes could be read")
	}
	return rep, nil
}

func readReport(path string) (report.Report, error) {
	if path == "-" {
		return report.Load(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return report.Load(f)
}

// runJSON writes rep as JSON, highlighted when color is set.
func runJSON(w io.Writer, rep report.Report, color bool) error {
	return writeEncoded(w, rep, report.WriteJSON, colorize.JSON, color)
}

// runYAML writes rep as YAML, highlighted when color is set.
func runYAML(w io.Writer, rep report.Report, color bool) error {
	return writeEncoded(w, rep, report.WriteYAML, colorize.YAML, color)
}

func writeEncoded[R any](
	w io.Writer,
	rep R,
	encode func(io.Writer, R) error,
	highlight func(string) (string, error),
	color bool,
) error {
	if !color {
		return encode(w, rep)
	}
	var buf bytes.Buffer
	if err := encode(&buf, rep); err != nil {
		return err
	}
	out, err := highlight(buf.String())
	if err != nil {
		out = buf.String()
	}
	_, err = io.WriteString(w, out)
	return err
}

// eglBackend replaces libEGL when set.
var eglBackend egl.Backend

// runEGL lists EGL devices in the format selected by cfg.
func runEGL(ctx context.Context, w io.Writer, cfg Config, logger *log.Logger, color bool) error {
	c := &egl.Collector{Backend: eglBackend, Logger: logger}
	rep, err := c.Collect(ctx, cfg.Nodes)
	if err != nil {
		return fmt.Errorf("collect egl: %w", err)
	}
	if len(rep) == 0 {
		logger.Warn("no EGL devices found")
	}
	switch {
	case cfg.JSON:
		return writeEncoded(w, rep, egl.WriteJSON, colorize.JSON, color)
	case cfg.YAML:
		return writeEncoded(w, rep, egl.WriteYAML, colorize.YAML, color)
	}
	st := report.PlainStyles()
	if color {
		st = report.DefaultStyles()
	}
	_, err = fmt.Fprintln(w, egl.Text(rep, st))
	return err
}

// runNoTUI prints the text tree.
func runNoTUI(w io.Writer, rep report.Report, color bool) error {
	st := report.PlainStyles()
	if color {
		st = report.DefaultStyles()
	}
	_, err := fmt.Fprintln(w, report.Text(rep, st))
	return err
}

package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

// Config is the resolved set of options for one drminfo invocation.
type Config struct {
	Nodes      []string `json:"nodes,omitempty" jsonschema:"title=Nodes,description=DRM nodes to inspect; every card in sysfs when empty"`
	JSON       bool     `json:"json" jsonschema:"title=JSON,description=Print the report as JSON"`
	YAML       bool     `json:"yaml" jsonschema:"title=YAML,description=Print the report as YAML"`
	NoTUI      bool     `json:"noTui" jsonschema:"title=No TUI,description=Print a text tree instead of the pager"`
	EGL        bool     `json:"egl" jsonschema:"title=EGL,description=List EGL devices and their dmabuf formats instead of KMS state"`
	Input      string   `json:"input,omitempty" jsonschema:"title=Input,description=Render a saved JSON report instead of querying the kernel ('-' for stdin)"`
	SysfsRoot  string   `json:"sysfsRoot" jsonschema:"title=Sysfs Root,description=Mount point of sysfs,default=/sys"`
	Debug      bool     `json:"debug" jsonschema:"title=Debug,description=Enable debug logging"`
	CPUProfile string   `json:"cpuProfile,omitempty" jsonschema:"title=CPU Profile,description=Path for CPU profile output"`
	MemProfile string   `json:"memProfile,omitempty" jsonschema:"title=Memory Profile,description=Path for heap profile output"`
}

var (
	errInputWithNodes = errors.New("--input cannot be combined with node arguments")
	errInputWithEGL   = errors.New("--input cannot be combined with --egl")
)

func configFromFlags(cmd *cobra.Command, args []string) (Config, error) {
	flags := cmd.Flags()
	cfg := Config{Nodes: args}
	cfg.JSON, _ = flags.GetBool("json")
	cfg.YAML, _ = flags.GetBool("yaml")
	cfg.NoTUI, _ = flags.GetBool("no-tui")
	cfg.EGL, _ = flags.GetBool("egl")
	cfg.Input, _ = flags.GetString("input")
	cfg.SysfsRoot, _ = flags.GetString("sysfs")
	cfg.Debug, _ = flags.GetBool("debug")
	cfg.CPUProfile, _ = flags.GetString("cpuprofile")
	cfg.MemProfile, _ = flags.GetString("memprofile")

	if cfg.Input != "" && len(cfg.Nodes) > 0 {
		return cfg, errInputWithNodes
	}
	if cfg.Input != "" && cfg.EGL {
		return cfg, errInputWithEGL
	}
	return cfg, nil
}

// Interactive reports whether the pager should be used on a terminal. The
// EGL listing has no pager view.
func (c Config) Interactive() bool {
	return !c.JSON && !c.YAML && !c.NoTUI && !c.EGL
}

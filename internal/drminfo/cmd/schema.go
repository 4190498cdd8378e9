package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"drminfo/internal/report"
)

var schemaCmd = &cobra.Command{
	Use:       "schema [config|report]",
	Short:     "Generate JSON schema for configuration or the JSON report",
	Long:      "Generate JSON schema for the drminfo configuration, or for the report written by --json",
	Hidden:    true,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"config", "report"},
	RunE: func(cmd *cobra.Command, args []string) error {
		which := "config"
		if len(args) == 1 {
			which = args[0]
		}
		bts, err := schemaJSON(which)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(bts))
		return nil
	},
}

func schemaJSON(which string) ([]byte, error) {
	reflector := new(jsonschema.Reflector)
	var s *jsonschema.Schema
	switch which {
	case "config":
		s = reflector.Reflect(&Config{})
	case "report":
		s = reflector.Reflect(report.Report{})
	default:
		return nil, fmt.Errorf("unknown schema %q: want config or report", which)
	}
	bts, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return bts, nil
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

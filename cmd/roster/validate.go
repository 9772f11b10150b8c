package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a Roster configuration file without starting the server.

This command parses the YAML, expands environment variables, applies
ROSTER_* overrides and validates all fields. It's useful for CI/CD
pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  roster validate -c config.yaml
  roster validate --config /etc/roster/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	decoder := cfg.Decoder.Type
	if decoder == "" {
		decoder = "default"
	}
	if cfg.Decoder.Type == "json" {
		decoder = "json:" + cfg.Decoder.Path
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:          %d\n", cfg.Port)
	fmt.Fprintf(out, "  Base URL:      %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "  Criteria:      %s\n", cfg.Criteria)
	fmt.Fprintf(out, "  Page sizes:    %v (selected %d)\n", cfg.PageSizes, cfg.PageSize)
	fmt.Fprintf(out, "  Debounce:      %s\n", cfg.Debounce.Duration())
	fmt.Fprintf(out, "  Fetch timeout: %s\n", cfg.FetchTimeout.Duration())
	fmt.Fprintf(out, "  Decoder:       %s\n", decoder)
	fmt.Fprintf(out, "  Headers:       %d\n", len(cfg.Headers))

	return nil
}

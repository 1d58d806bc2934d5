package main

import (
	"fmt"

	"github.com/jpalmerr/infopulse/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting to poll.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate an InfoPulse configuration file without polling.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  infopulse validate -c config.yaml
  infopulse validate --config /etc/infopulse/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	timeout := "none"
	if cfg.Timeout != 0 {
		timeout = cfg.Timeout.Duration().String()
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Target:        %s%s\n", cfg.BaseURL, cfg.Path)
	fmt.Printf("  Interval:      %s\n", cfg.Interval.Duration())
	fmt.Printf("  Timeout:       %s\n", timeout)
	fmt.Printf("  Overlap:       %s\n", cfg.Overlap)
	fmt.Printf("  Port:          %d\n", cfg.Port)

	return nil
}

package main

import (
	"fmt"

	"github.com/jpalmerr/pollwait/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without waiting for anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a pollwait configuration file without waiting for any target.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  pollwait validate -c targets.yaml
  pollwait validate --config /etc/pollwait/targets.yaml`,
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

	fileTargets := 0
	tcpTargets := 0
	for _, t := range cfg.Targets {
		if t.File != "" {
			fileTargets++
		} else {
			tcpTargets++
		}
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Max poll delay:          %s\n", cfg.MaxPollDelay.Duration())
	fmt.Printf("  Initial retry increment: %s\n", cfg.InitialRetryIncrement.Duration())
	fmt.Printf("  Targets:                 %d file + %d tcp = %d total\n",
		fileTargets, tcpTargets, fileTargets+tcpTargets)

	return nil
}

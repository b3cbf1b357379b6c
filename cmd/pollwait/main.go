// Package main is the entry point for the pollwait CLI.
//
// pollwait can be used either as a library (SDK) or as a standalone
// wait-for utility that blocks until files appear or TCP endpoints accept
// connections. This CLI provides the standalone approach.
//
// Usage:
//
//	pollwait wait --tcp localhost:5432    # Wait for a single target
//	pollwait wait -c targets.yaml         # Wait for configured targets
//	pollwait validate -c targets.yaml     # Validate configuration
//	pollwait version                      # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "pollwait",
	Short: "Wait for files and TCP endpoints with adaptive backoff",
	Long: `pollwait blocks until its targets become available, probing each one
with an adaptive backoff: the wait between empty checks starts at zero
and doubles up to a cap, so targets that appear quickly are seen quickly
and slow ones are not hammered.

Quick start:
  1. Wait for a port:  pollwait wait --tcp localhost:5432
  2. Wait for a file:  pollwait wait --file /var/run/app/ready
  3. Or define several targets in YAML and run: pollwait wait -c targets.yaml

Example config:
  max_poll_delay: 5s
  initial_retry_increment: 100ms
  timeout: 2m
  targets:
    - name: database
      tcp: localhost:5432
    - name: ready marker
      file: /var/run/app/ready`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this pollwait binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pollwait %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}

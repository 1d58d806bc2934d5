// Package main is the entry point for the infopulse CLI.
//
// InfoPulse can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	infopulse serve -c config.yaml    # Poll and serve the web view
//	infopulse watch -c config.yaml    # Poll and show the terminal view
//	infopulse validate -c config.yaml # Validate configuration
//	infopulse version                 # Show version info
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
	Use:   "infopulse",
	Short: "Poll a server's info endpoint and show what it reports",
	Long: `InfoPulse polls GET /api/info on a fixed interval and shows the
reported uptime and count next to a local click counter.

Quick start:
  1. Create a config file (infopulse.yaml)
  2. Run: infopulse serve -c infopulse.yaml
  3. Open http://localhost:8080 in your browser

  Or stay in the terminal: infopulse watch -c infopulse.yaml

Example config:
  base_url: http://localhost:3000
  interval: 5s
  overlap: skip`,
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
	Long:  `Print the version, commit hash, and build date of this infopulse binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("infopulse %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}

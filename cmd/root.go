// Package cmd holds the command-line interface.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the entry point when the binary is called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "opscheck",
	Short: "Bilingual operational check endpoint for the ABC system",
	Long: `opscheck exposes the ABC operational system to chat automations.
It speaks the MCP tool protocol over SSE for streaming clients and a
synchronous webhook for n8n workflows, and understands status queries in
English and Vietnamese.`,
	// SilenceUsage keeps handled errors from dumping usage text.
	SilenceUsage: true,
}

// SetVersion injects the build version, typically from main via -ldflags.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the build version.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the CLI. Called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "opscheck version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

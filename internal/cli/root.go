// Package cli implements the partnergate command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "partnergate",
	Short: "partnergate — Partner integration gateway",
	Long: `partnergate exposes partner tools (product search, checkout sessions,
payment status) over HTTP/JSON, SSE, and MCP JSON-RPC.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

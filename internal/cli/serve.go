package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/partnergate/partnergate/internal/daemon"
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveDemo, "demo", false, "Force demo mode regardless of config")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveHost string
	servePort int
	serveDemo bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway server",
	Long:  `Start the HTTP/SSE/MCP gateway server at localhost:8080.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}

	// Flag overrides apply before wiring: the origin allow-list is
	// derived from the final ports.
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort > 0 {
		cfg.Server.HTTPPort = servePort
	}
	if serveDemo {
		cfg.Gateway.DemoMode = true
	}

	d, err := daemon.NewWithConfig(cfg)
	if err != nil {
		return err
	}

	return d.Serve(context.Background())
}

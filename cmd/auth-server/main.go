package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/upb/studio-auth/config"
	"github.com/upb/studio-auth/internal/observability"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "auth-server",
	Short: "Studio authentication service",
	Long: `auth-server issues and verifies bearer tokens for the studio API.
Run "serve" to start the HTTP server, or use the users and token commands
for operational tasks against the same database and signing secret.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration (including .env) and builds the logger from it
func bootstrap(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.New(cmd.Context())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

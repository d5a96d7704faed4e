// Package cli implements depotctl, the offline maintenance tool.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"depot-backend/internal/config"
	"depot-backend/internal/db"
	"depot-backend/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "depotctl",
	Short: "Depot back office maintenance",
	Long: `depotctl runs the jobs that do not belong behind the HTTP API:
schema migrations, bulk product imports from a spreadsheet export and
bootstrapping the first admin account.

Configuration is read the same way as the server (configs/config.yaml,
environment variables and .env).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect loads config and opens the pool shared by the subcommands
func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(logger.Config{Development: true, Level: cfg.Log.Level, Encoding: "console"})
	if err != nil {
		return nil, nil, nil, err
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, pool, log, nil
}

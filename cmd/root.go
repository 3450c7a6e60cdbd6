package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brainless/getmarket/internal/config"
	"github.com/brainless/getmarket/internal/database"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "getmarket",
	Short: "Ingest and browse NSE end-of-day market data",
	Long:  "Downloads daily bhavcopy files from the NSE, merges them into PostgreSQL and serves a read-only browsing API over the result.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Missing .env is fine; plain environment variables still apply.
		_ = godotenv.Load()
		cfg = config.Load()

		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// openDB connects using the loaded configuration.
func openDB() (*database.DB, error) {
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent ingestion attempts and store statistics",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of recent attempts to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()

	attempts, err := db.ListIngestionAttempts(ctx, statusLimit)
	if err != nil {
		return fmt.Errorf("list ingestion attempts: %w", err)
	}

	if len(attempts) == 0 {
		fmt.Println("No ingestion attempts recorded. Run 'getmarket initdb' and 'getmarket ingest' first.")
		return nil
	}

	fmt.Printf("Recent ingestion attempts (last %d):\n", len(attempts))
	for _, a := range attempts {
		line := fmt.Sprintf("%-8s %s | %d records | completed %s",
			a.Status,
			a.TradeDate.Format("2006-01-02"),
			a.RecordsProcessed,
			a.CompletedAt.Format("2006-01-02 15:04:05"),
		)
		fmt.Println(line)
		if a.ErrorMessage != "" {
			fmt.Printf("         %s\n", a.ErrorMessage)
		}
	}

	stats, err := db.GetIngestionStats(ctx)
	if err != nil {
		return fmt.Errorf("get ingestion stats: %w", err)
	}

	fmt.Println()
	fmt.Printf("Companies:      %d\n", stats.Companies)
	fmt.Printf("Price records:  %d\n", stats.PriceRecords)
	fmt.Printf("Runs:           %d success, %d partial, %d failed, %d skipped\n",
		stats.Successful, stats.Partial, stats.Failed, stats.Skipped)

	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brainless/getmarket/internal/ingest"
	"github.com/brainless/getmarket/internal/kafka"
	"github.com/brainless/getmarket/internal/models"
	"github.com/brainless/getmarket/internal/nse"
)

var (
	ingestDate string
	ingestFrom string
	ingestTo   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Download and ingest bhavcopy data",
	Long:  "Ingests one date, a date range, or the latest trading day when no date is given. Each attempted date leaves one audit row.",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "single date to ingest (YYYY-MM-DD)")
	ingestCmd.Flags().StringVar(&ingestFrom, "from", "", "range start date (YYYY-MM-DD)")
	ingestCmd.Flags().StringVar(&ingestTo, "to", "", "range end date (YYYY-MM-DD)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestDate != "" && (ingestFrom != "" || ingestTo != "") {
		return fmt.Errorf("--date cannot be combined with --from/--to")
	}
	if (ingestFrom == "") != (ingestTo == "") {
		return fmt.Errorf("--from and --to must be given together")
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	var pub ingest.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		pub = producer
	}

	client := nse.NewClient(cfg.NSE, logger)
	svc := ingest.NewService(db, client, pub, logger, cfg.Ingest.Workers)

	// Interrupt rolls back the in-flight date and keeps committed ones.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case ingestDate != "":
		date, err := time.Parse("2006-01-02", ingestDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		printResult(svc.IngestDate(ctx, date))

	case ingestFrom != "":
		from, err := time.Parse("2006-01-02", ingestFrom)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		to, err := time.Parse("2006-01-02", ingestTo)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}

		results, rangeErr := svc.IngestRange(ctx, from, to)
		completed := 0
		for _, r := range results {
			if r.Status != "" {
				printResult(r)
				completed++
			}
		}
		if rangeErr != nil {
			return fmt.Errorf("run interrupted after %d of %d dates: %w", completed, len(results), rangeErr)
		}

	default:
		result, err := svc.IngestLatest(ctx)
		if err != nil {
			return fmt.Errorf("resolve latest trading day: %w", err)
		}
		printResult(result)
	}

	return nil
}

func printResult(r ingest.DateResult) {
	date := r.Date.Format("2006-01-02")
	switch r.Status {
	case models.StatusSuccess:
		fmt.Printf("%s: ingested %d records\n", date, r.Written)
	case models.StatusPartial:
		fmt.Printf("%s: ingested %d records (%d rows skipped, %d rejected)\n",
			date, r.Written, r.SkippedRows, r.Rejected)
	case models.StatusSkipped:
		fmt.Printf("%s: skipped (no trading)\n", date)
	default:
		fmt.Printf("%s: failed: %v\n", date, r.Err)
	}
}

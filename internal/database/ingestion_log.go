package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/brainless/getmarket/internal/models"
)

// Attempt is the in-flight handle for one audit row. BeginAttempt stamps
// the start time; CompleteAttempt persists the row. Nothing is written
// until completion, and the write is independent of the per-date price
// transaction, so a rolled-back date still leaves its audit trail.
type Attempt struct {
	Source    string
	FileName  string
	TradeDate time.Time
	StartedAt time.Time
}

// BeginAttempt starts the audit clock for one (source, date) run.
func (db *DB) BeginAttempt(source, fileName string, tradeDate time.Time) *Attempt {
	return &Attempt{
		Source:    source,
		FileName:  fileName,
		TradeDate: tradeDate,
		StartedAt: time.Now(),
	}
}

// CompleteAttempt stamps the completion time and appends the final audit
// row. Every attempted date, including skipped and failed ones, leaves
// exactly one row; rows are never mutated afterwards.
func (db *DB) CompleteAttempt(ctx context.Context, a *Attempt, status string, recordsProcessed int64, errDetail string) error {
	query := `
		INSERT INTO ingestion_log (
			source, file_name, trade_date, records_processed,
			status, error_message, started_at, completed_at
		) VALUES ($1, NULLIF($2, ''), $3, $4, $5, NULLIF($6, ''), $7, $8)
	`
	_, err := db.conn.ExecContext(ctx, query,
		a.Source, a.FileName, a.TradeDate, recordsProcessed,
		status, errDetail, a.StartedAt, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to log ingestion attempt: %w", err)
	}
	return nil
}

// ListIngestionAttempts retrieves the most recent audit rows
func (db *DB) ListIngestionAttempts(ctx context.Context, limit int) ([]*models.IngestionAttempt, error) {
	query := `
		SELECT id, source, file_name, trade_date, records_processed,
		       status, error_message, started_at, completed_at
		FROM ingestion_log
		ORDER BY completed_at DESC
		LIMIT $1
	`
	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingestion attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*models.IngestionAttempt
	for rows.Next() {
		var a models.IngestionAttempt
		var fileName, errMsg sql.NullString
		if err := rows.Scan(
			&a.ID, &a.Source, &fileName, &a.TradeDate, &a.RecordsProcessed,
			&a.Status, &errMsg, &a.StartedAt, &a.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ingestion attempt: %w", err)
		}
		a.FileName = fileName.String
		a.ErrorMessage = errMsg.String
		attempts = append(attempts, &a)
	}

	return attempts, rows.Err()
}

// GetIngestionStats returns aggregate store and audit-log counts
func (db *DB) GetIngestionStats(ctx context.Context) (*models.IngestionStats, error) {
	var stats models.IngestionStats

	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&stats.Companies); err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM daily_prices`).Scan(&stats.PriceRecords); err != nil {
		return nil, fmt.Errorf("failed to count prices: %w", err)
	}

	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'success'),
			COUNT(*) FILTER (WHERE status = 'partial'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'skipped')
		FROM ingestion_log
	`
	err := db.conn.QueryRowContext(ctx, query).Scan(
		&stats.Successful, &stats.Partial, &stats.Failed, &stats.Skipped,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get ingestion stats: %w", err)
	}

	return &stats, nil
}

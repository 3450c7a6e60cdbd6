package models

import "time"

// Ingestion attempt outcomes.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// IngestionAttempt is one append-only audit row covering the full
// pipeline run for a single target trade date.
type IngestionAttempt struct {
	ID               int64     `json:"id"`
	Source           string    `json:"source"`
	FileName         string    `json:"file_name,omitempty"`
	TradeDate        time.Time `json:"trade_date"`
	RecordsProcessed int64     `json:"records_processed"`
	Status           string    `json:"status"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
}

// IngestionStats aggregates counts across the store and the audit log.
type IngestionStats struct {
	Companies    int64 `json:"companies"`
	PriceRecords int64 `json:"price_records"`
	Successful   int64 `json:"successful_runs"`
	Partial      int64 `json:"partial_runs"`
	Failed       int64 `json:"failed_runs"`
	Skipped      int64 `json:"skipped_runs"`
}

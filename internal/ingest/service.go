// Package ingest drives the bhavcopy pipeline: fetch, parse, validate,
// merge into storage and audit, once per candidate trading date.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brainless/getmarket/internal/database"
	"github.com/brainless/getmarket/internal/models"
	"github.com/brainless/getmarket/internal/nse"
)

// latestLookbackDays bounds the backward walk when resolving the most
// recent trading day.
const latestLookbackDays = 14

// Source is the pluggable fetch-by-date contract for one exchange feed.
// Fetch returns nse.ErrNotTrading when no file was published for the
// date.
type Source interface {
	FileName(date time.Time) string
	Fetch(ctx context.Context, date time.Time) ([]byte, error)
	Parse(payload []byte, date time.Time) ([]models.StockRecord, int, error)
}

// Publisher receives a notification after a date has been committed.
// Publishing is best-effort and never fails the date.
type Publisher interface {
	PublishBhavcopyIngested(ctx context.Context, tradeDate time.Time, status string, records int64) error
}

// DateResult is the per-date outcome of an ingestion run. A date that
// was never attempted, because the run was cancelled before reaching
// it, carries an empty Status.
type DateResult struct {
	Date         time.Time `json:"date"`
	Status       string    `json:"status"`
	Written      int64     `json:"records_written"`
	SkippedRows  int       `json:"skipped_rows"`
	Rejected     int       `json:"rejected_rows"`
	RejectReason string    `json:"reject_reason,omitempty"`
	Err          error     `json:"-"`
}

// Service orchestrates the ingestion pipeline for single dates, date
// ranges and "latest trading day" runs.
type Service struct {
	db      *database.DB
	source  Source
	pub     Publisher
	logger  *zap.Logger
	name    string
	workers int
	now     func() time.Time
}

// NewService wires the pipeline together. pub may be nil to disable
// event publishing.
func NewService(db *database.DB, source Source, pub Publisher, logger *zap.Logger, workers int) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	return &Service{
		db:      db,
		source:  source,
		pub:     pub,
		logger:  logger,
		name:    "nse",
		workers: workers,
		now:     time.Now,
	}
}

// IngestDate runs the full pipeline for one date and leaves exactly one
// audit row regardless of outcome. Row-level parse and validation
// failures are tolerated; the date fails only when fetching, storage or
// every single row fails.
func (s *Service) IngestDate(ctx context.Context, date time.Time) DateResult {
	date = normalizeDate(date)
	attempt := s.db.BeginAttempt(s.name, s.source.FileName(date), date)

	result := s.runPipeline(ctx, date)

	detail := ""
	if result.Err != nil {
		detail = result.Err.Error()
	} else if result.Status == models.StatusPartial {
		detail = fmt.Sprintf("%d rows skipped, %d rows rejected", result.SkippedRows, result.Rejected)
		if result.RejectReason != "" {
			detail += "; first rejection: " + result.RejectReason
		}
	}
	if err := s.db.CompleteAttempt(ctx, attempt, result.Status, result.Written, detail); err != nil {
		s.logger.Warn("failed to write ingestion audit row",
			zap.String("date", date.Format("2006-01-02")),
			zap.Error(err),
		)
	}

	if s.pub != nil && (result.Status == models.StatusSuccess || result.Status == models.StatusPartial) {
		if err := s.pub.PublishBhavcopyIngested(ctx, date, result.Status, result.Written); err != nil {
			s.logger.Warn("failed to publish ingestion event",
				zap.String("date", date.Format("2006-01-02")),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("ingestion attempt finished",
		zap.String("date", date.Format("2006-01-02")),
		zap.String("status", result.Status),
		zap.Int64("records_written", result.Written),
		zap.Int("skipped_rows", result.SkippedRows),
		zap.Int("rejected_rows", result.Rejected),
	)
	return result
}

// runPipeline covers fetch through storage for one date. Audit logging
// stays in IngestDate so a failure here still leaves its trail.
func (s *Service) runPipeline(ctx context.Context, date time.Time) DateResult {
	result := DateResult{Date: date}

	payload, err := s.source.Fetch(ctx, date)
	if errors.Is(err, nse.ErrNotTrading) {
		result.Status = models.StatusSkipped
		return result
	}
	if err != nil {
		result.Status = models.StatusFailed
		result.Err = err
		return result
	}

	records, skippedRows, err := s.source.Parse(payload, date)
	if err != nil {
		result.Status = models.StatusFailed
		result.Err = fmt.Errorf("parse bhavcopy: %w", err)
		return result
	}
	result.SkippedRows = skippedRows

	runDate := s.now()
	var valid []models.StockRecord
	var firstReason error
	for _, rec := range records {
		if err := Validate(rec, runDate); err != nil {
			result.Rejected++
			if firstReason == nil {
				firstReason = err
			}
			continue
		}
		valid = append(valid, rec)
	}
	if firstReason != nil {
		result.RejectReason = firstReason.Error()
	}

	if len(valid) == 0 {
		result.Status = models.StatusFailed
		if firstReason != nil {
			result.Err = fmt.Errorf("no valid records in file: %w", firstReason)
		} else {
			result.Err = fmt.Errorf("no valid records in file")
		}
		return result
	}

	written, err := s.db.UpsertDailyPrices(ctx, valid)
	if err != nil {
		result.Status = models.StatusFailed
		result.Err = err
		return result
	}
	result.Written = written

	if result.SkippedRows > 0 || result.Rejected > 0 {
		result.Status = models.StatusPartial
	} else {
		result.Status = models.StatusSuccess
	}
	return result
}

// IngestRange processes every calendar date in [from, to] ascending.
// Weekend dates short-circuit to a skipped audit row without a fetch.
// Dates are independent: one date's failure never stops the others.
// Up to workers dates run concurrently; results come back in date order.
// Dates not yet started when ctx is cancelled come back with an empty
// Status and no audit row: they were never attempted, which is not a
// failure.
func (s *Service) IngestRange(ctx context.Context, from, to time.Time) ([]DateResult, error) {
	if normalizeDate(to).Before(normalizeDate(from)) {
		return nil, fmt.Errorf("invalid date range: %s is after %s",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	dates := datesInRange(from, to)
	results := make([]DateResult, len(dates))

	g := &errgroup.Group{}
	g.SetLimit(s.workers)
	for i, date := range dates {
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = DateResult{Date: date, Err: ctx.Err()}
				return nil
			}
			if isWeekend(date) {
				results[i] = s.skipWeekend(ctx, date)
				return nil
			}
			results[i] = s.IngestDate(ctx, date)
			return nil
		})
	}
	_ = g.Wait()

	return results, ctx.Err()
}

// skipWeekend records the cheap local filter outcome without touching
// the network.
func (s *Service) skipWeekend(ctx context.Context, date time.Time) DateResult {
	attempt := s.db.BeginAttempt(s.name, "", date)
	if err := s.db.CompleteAttempt(ctx, attempt, models.StatusSkipped, 0, "weekend"); err != nil {
		s.logger.Warn("failed to write ingestion audit row",
			zap.String("date", date.Format("2006-01-02")),
			zap.Error(err),
		)
	}
	return DateResult{Date: date, Status: models.StatusSkipped}
}

// IngestLatest resolves the most recent trading day and ingests it.
func (s *Service) IngestLatest(ctx context.Context) (DateResult, error) {
	date, err := s.LatestTradingDay(ctx)
	if err != nil {
		return DateResult{}, err
	}
	return s.IngestDate(ctx, date), nil
}

// LatestTradingDay walks backward from today, skipping weekends, until
// the source reports a published file. Holidays show up as NotTrading
// and keep the walk going.
func (s *Service) LatestTradingDay(ctx context.Context) (time.Time, error) {
	date := normalizeDate(s.now())
	for i := 0; i < latestLookbackDays; i++ {
		if !isWeekend(date) {
			_, err := s.source.Fetch(ctx, date)
			if err == nil {
				return date, nil
			}
			if !errors.Is(err, nse.ErrNotTrading) {
				return time.Time{}, err
			}
		}
		date = date.AddDate(0, 0, -1)
	}
	return time.Time{}, fmt.Errorf("no trading day found in the last %d days", latestLookbackDays)
}

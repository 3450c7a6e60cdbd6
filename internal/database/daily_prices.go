package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/brainless/getmarket/internal/models"
)

// UpsertDailyPrices merges one date's parsed records into storage inside
// a single transaction: company rows are created or refreshed, then each
// price fact is inserted or fully overwritten keyed on
// (company_id, trade_date). A failure partway rolls the whole batch
// back, so partial writes for a date are never observable.
func (db *DB) UpsertDailyPrices(ctx context.Context, records []models.StockRecord) (int64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	var written int64
	for _, rec := range records {
		companyID, err := resolveCompany(ctx, tx, rec, now)
		if err != nil {
			return 0, err
		}
		if err := upsertDailyPrice(ctx, tx, companyID, rec, now); err != nil {
			return 0, err
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return written, nil
}

// upsertDailyPrice looks the fact up by its natural key and branches to
// insert or full overwrite, keeping re-runs idempotent without relying
// on engine-specific conflict clauses.
func upsertDailyPrice(ctx context.Context, q querier, companyID int64, rec models.StockRecord, now time.Time) error {
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM daily_prices WHERE company_id = $1 AND trade_date = $2`,
		companyID, rec.TradeDate,
	).Scan(&id)

	if err == sql.ErrNoRows {
		_, err := q.ExecContext(ctx, `
			INSERT INTO daily_prices (
				company_id, trade_date, open, high, low, close, last, prev_close,
				total_traded_qty, total_traded_value, total_trades, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, companyID, rec.TradeDate, rec.Open, rec.High, rec.Low, rec.Close,
			rec.Last, rec.PrevClose, rec.TotalTradedQty, rec.TotalTradedValue,
			rec.TotalTrades, now)
		if err != nil {
			return fmt.Errorf("failed to insert daily price for %s: %w", rec.Symbol, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up daily price for %s: %w", rec.Symbol, err)
	}

	_, err = q.ExecContext(ctx, `
		UPDATE daily_prices SET
			open = $2, high = $3, low = $4, close = $5, last = $6, prev_close = $7,
			total_traded_qty = $8, total_traded_value = $9, total_trades = $10
		WHERE id = $1
	`, id, rec.Open, rec.High, rec.Low, rec.Close, rec.Last, rec.PrevClose,
		rec.TotalTradedQty, rec.TotalTradedValue, rec.TotalTrades)
	if err != nil {
		return fmt.Errorf("failed to update daily price for %s: %w", rec.Symbol, err)
	}
	return nil
}

const dailyPriceColumns = `
	dp.id, dp.company_id, c.symbol, dp.trade_date, dp.open, dp.high, dp.low,
	dp.close, dp.last, dp.prev_close, dp.total_traded_qty,
	dp.total_traded_value, dp.total_trades, dp.created_at
`

// GetPricesBySymbol retrieves price facts for a symbol ordered by trade
// date descending, with pagination and optional date bounds.
func (db *DB) GetPricesBySymbol(ctx context.Context, symbol string, limit, offset int, from, to *time.Time) ([]*models.DailyPrice, int64, error) {
	where := " WHERE c.symbol = $1"
	args := []any{symbol}

	if from != nil {
		args = append(args, *from)
		where += fmt.Sprintf(" AND dp.trade_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		where += fmt.Sprintf(" AND dp.trade_date <= $%d", len(args))
	}

	base := "FROM daily_prices dp JOIN companies c ON dp.company_id = c.id" + where

	var total int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) "+base, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count prices: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf("SELECT %s %s ORDER BY dp.trade_date DESC LIMIT $%d OFFSET $%d",
		dailyPriceColumns, base, len(args)-1, len(args))

	return db.queryDailyPrices(ctx, query, total, args...)
}

// GetLatestPrices retrieves price facts for one trading date (the most
// recent one when date is nil), ordered by traded value descending.
func (db *DB) GetLatestPrices(ctx context.Context, limit, offset int, date *time.Time, series string) ([]*models.DailyPrice, int64, error) {
	target := time.Time{}
	if date != nil {
		target = *date
	} else {
		latest, err := db.LatestTradeDate(ctx)
		if err != nil {
			return nil, 0, err
		}
		if latest == nil {
			return nil, 0, nil
		}
		target = *latest
	}

	where := " WHERE dp.trade_date = $1"
	args := []any{target}
	if series != "" {
		args = append(args, series)
		where += fmt.Sprintf(" AND c.series = $%d", len(args))
	}

	base := "FROM daily_prices dp JOIN companies c ON dp.company_id = c.id" + where

	var total int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) "+base, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count prices: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf("SELECT %s %s ORDER BY dp.total_traded_value DESC LIMIT $%d OFFSET $%d",
		dailyPriceColumns, base, len(args)-1, len(args))

	return db.queryDailyPrices(ctx, query, total, args...)
}

func (db *DB) queryDailyPrices(ctx context.Context, query string, total int64, args ...any) ([]*models.DailyPrice, int64, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var prices []*models.DailyPrice
	for rows.Next() {
		var p models.DailyPrice
		if err := rows.Scan(
			&p.ID, &p.CompanyID, &p.Symbol, &p.TradeDate, &p.Open, &p.High, &p.Low,
			&p.Close, &p.Last, &p.PrevClose, &p.TotalTradedQty,
			&p.TotalTradedValue, &p.TotalTrades, &p.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, &p)
	}

	return prices, total, rows.Err()
}

// LatestTradeDate returns the most recent trade date in the store, or
// nil when no prices have been ingested yet.
func (db *DB) LatestTradeDate(ctx context.Context) (*time.Time, error) {
	var latest sql.NullTime
	err := db.conn.QueryRowContext(ctx, `SELECT MAX(trade_date) FROM daily_prices`).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest trade date: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

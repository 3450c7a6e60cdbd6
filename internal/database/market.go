package database

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TopPerformer is one row of a gainers/losers/most-active ranking for
// the latest trading date.
type TopPerformer struct {
	Symbol             string          `json:"symbol"`
	Series             string          `json:"series,omitempty"`
	LatestPrice        decimal.Decimal `json:"latest_price"`
	PrevClose          decimal.Decimal `json:"prev_close"`
	PriceChange        decimal.Decimal `json:"price_change"`
	PriceChangePercent decimal.Decimal `json:"price_change_percent"`
	Volume             int64           `json:"volume"`
}

// MarketOverview summarizes the store for the browsing API
type MarketOverview struct {
	TotalCompanies    int64          `json:"total_companies"`
	TotalPriceRecords int64          `json:"total_price_records"`
	LatestTradingDate *time.Time     `json:"latest_trading_date,omitempty"`
	TopGainers        []TopPerformer `json:"top_gainers"`
	TopLosers         []TopPerformer `json:"top_losers"`
	MostActive        []TopPerformer `json:"most_active"`
}

// GetMarketOverview returns store-wide counts plus top movers for the
// latest trading date
func (db *DB) GetMarketOverview(ctx context.Context) (*MarketOverview, error) {
	var overview MarketOverview

	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&overview.TotalCompanies); err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM daily_prices`).Scan(&overview.TotalPriceRecords); err != nil {
		return nil, fmt.Errorf("failed to count prices: %w", err)
	}

	latest, err := db.LatestTradeDate(ctx)
	if err != nil {
		return nil, err
	}
	overview.LatestTradingDate = latest
	if latest == nil {
		return &overview, nil
	}

	if overview.TopGainers, err = db.GetTopPerformers(ctx, "gainers", 5); err != nil {
		return nil, err
	}
	if overview.TopLosers, err = db.GetTopPerformers(ctx, "losers", 5); err != nil {
		return nil, err
	}
	if overview.MostActive, err = db.GetTopPerformers(ctx, "volume", 5); err != nil {
		return nil, err
	}

	return &overview, nil
}

// GetTopPerformers ranks securities on the latest trading date by the
// given metric: "gainers", "losers" or "volume".
func (db *DB) GetTopPerformers(ctx context.Context, metric string, limit int) ([]TopPerformer, error) {
	var order string
	where := " AND dp.prev_close > 0"
	switch metric {
	case "gainers":
		order = "price_change_percent DESC"
	case "losers":
		order = "price_change_percent ASC"
	case "volume":
		order = "dp.total_traded_qty DESC"
		where = ""
	default:
		return nil, fmt.Errorf("invalid metric: %s", metric)
	}

	query := fmt.Sprintf(`
		SELECT c.symbol, c.series, dp.last, dp.prev_close,
		       dp.last - dp.prev_close AS price_change,
		       CASE WHEN dp.prev_close > 0
		            THEN (dp.last - dp.prev_close) / dp.prev_close * 100
		            ELSE 0 END AS price_change_percent,
		       dp.total_traded_qty
		FROM daily_prices dp
		JOIN companies c ON dp.company_id = c.id
		WHERE dp.trade_date = (SELECT MAX(trade_date) FROM daily_prices)%s
		ORDER BY %s
		LIMIT $1
	`, where, order)

	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top performers: %w", err)
	}
	defer rows.Close()

	var performers []TopPerformer
	for rows.Next() {
		var p TopPerformer
		var series *string
		if err := rows.Scan(
			&p.Symbol, &series, &p.LatestPrice, &p.PrevClose,
			&p.PriceChange, &p.PriceChangePercent, &p.Volume,
		); err != nil {
			return nil, fmt.Errorf("failed to scan top performer: %w", err)
		}
		if series != nil {
			p.Series = *series
		}
		performers = append(performers, p)
	}

	return performers, rows.Err()
}

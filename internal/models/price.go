package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord is one normalized bhavcopy row: everything the exchange
// publishes for a single security on a single trading day.
type StockRecord struct {
	Symbol           string          `json:"symbol"`
	Series           string          `json:"series"`
	ISIN             string          `json:"isin"`
	Open             decimal.Decimal `json:"open"`
	High             decimal.Decimal `json:"high"`
	Low              decimal.Decimal `json:"low"`
	Close            decimal.Decimal `json:"close"`
	Last             decimal.Decimal `json:"last"`
	PrevClose        decimal.Decimal `json:"prev_close"`
	TotalTradedQty   int64           `json:"total_traded_qty"`
	TotalTradedValue decimal.Decimal `json:"total_traded_value"`
	TotalTrades      int64           `json:"total_trades"`
	TradeDate        time.Time       `json:"trade_date"`
}

// DailyPrice represents a persisted daily price fact, uniquely keyed by
// (company_id, trade_date). Re-ingesting the same date fully overwrites
// the OHLC and volume fields with the newly parsed values.
type DailyPrice struct {
	ID               int64           `json:"id"`
	CompanyID        int64           `json:"company_id"`
	Symbol           string          `json:"symbol,omitempty"`
	TradeDate        time.Time       `json:"trade_date"`
	Open             decimal.Decimal `json:"open"`
	High             decimal.Decimal `json:"high"`
	Low              decimal.Decimal `json:"low"`
	Close            decimal.Decimal `json:"close"`
	Last             decimal.Decimal `json:"last"`
	PrevClose        decimal.Decimal `json:"prev_close"`
	TotalTradedQty   int64           `json:"total_traded_qty"`
	TotalTradedValue decimal.Decimal `json:"total_traded_value"`
	TotalTrades      int64           `json:"total_trades"`
	CreatedAt        time.Time       `json:"created_at"`
}

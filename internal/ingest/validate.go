package ingest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brainless/getmarket/internal/models"
)

// Validate checks one parsed record against the domain invariants.
// It returns a short reason when the record must be rejected; a rejected
// row never blocks the rest of its file.
func Validate(rec models.StockRecord, runDate time.Time) error {
	if rec.Symbol == "" || rec.Symbol == "-" {
		return fmt.Errorf("missing symbol")
	}

	prices := []struct {
		name  string
		value decimal.Decimal
	}{
		{"open", rec.Open},
		{"high", rec.High},
		{"low", rec.Low},
		{"close", rec.Close},
		{"last", rec.Last},
		{"prev_close", rec.PrevClose},
		{"total_traded_value", rec.TotalTradedValue},
	}
	for _, p := range prices {
		if p.value.IsNegative() {
			return fmt.Errorf("%s: negative price for %s", p.name, rec.Symbol)
		}
	}

	if rec.TotalTradedQty < 0 {
		return fmt.Errorf("negative traded quantity for %s", rec.Symbol)
	}
	if rec.TotalTrades < 0 {
		return fmt.Errorf("negative trade count for %s", rec.Symbol)
	}
	if rec.High.LessThan(rec.Low) {
		return fmt.Errorf("high below low for %s", rec.Symbol)
	}
	if normalizeDate(rec.TradeDate).After(normalizeDate(runDate)) {
		return fmt.Errorf("future trade date %s for %s",
			rec.TradeDate.Format("2006-01-02"), rec.Symbol)
	}

	return nil
}

package ingest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainless/getmarket/internal/models"
)

func validRecord() models.StockRecord {
	return models.StockRecord{
		Symbol:           "RELIANCE",
		Series:           "EQ",
		ISIN:             "INE002A01018",
		Open:             decimal.NewFromFloat(2500.00),
		High:             decimal.NewFromFloat(2550.00),
		Low:              decimal.NewFromFloat(2480.00),
		Close:            decimal.NewFromFloat(2520.00),
		Last:             decimal.NewFromFloat(2520.00),
		PrevClose:        decimal.NewFromFloat(2500.00),
		TotalTradedQty:   1000000,
		TotalTradedValue: decimal.NewFromFloat(2520000000.00),
		TotalTrades:      50000,
		TradeDate:        time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidate(t *testing.T) {
	runDate := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

	t.Run("accepts a well-formed record", func(t *testing.T) {
		require.NoError(t, Validate(validRecord(), runDate))
	})

	t.Run("accepts a record dated the run day itself", func(t *testing.T) {
		rec := validRecord()
		rec.TradeDate = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
		require.NoError(t, Validate(rec, runDate))
	})

	t.Run("rejects a missing symbol", func(t *testing.T) {
		rec := validRecord()
		rec.Symbol = ""
		assert.Error(t, Validate(rec, runDate))

		rec.Symbol = "-"
		assert.Error(t, Validate(rec, runDate))
	})

	t.Run("rejects negative prices", func(t *testing.T) {
		rec := validRecord()
		rec.Open = decimal.NewFromFloat(-1)
		assert.Error(t, Validate(rec, runDate))

		rec = validRecord()
		rec.PrevClose = decimal.NewFromFloat(-0.01)
		assert.Error(t, Validate(rec, runDate))
	})

	t.Run("accepts zero prices", func(t *testing.T) {
		rec := validRecord()
		rec.Open = decimal.Zero
		rec.High = decimal.Zero
		rec.Low = decimal.Zero
		rec.Close = decimal.Zero
		rec.Last = decimal.Zero
		rec.PrevClose = decimal.Zero
		rec.TotalTradedValue = decimal.Zero
		require.NoError(t, Validate(rec, runDate))
	})

	t.Run("rejects negative volumes and trade counts", func(t *testing.T) {
		rec := validRecord()
		rec.TotalTradedQty = -1
		assert.Error(t, Validate(rec, runDate))

		rec = validRecord()
		rec.TotalTrades = -1
		assert.Error(t, Validate(rec, runDate))
	})

	t.Run("rejects high below low", func(t *testing.T) {
		rec := validRecord()
		rec.High = decimal.NewFromFloat(2400.00)
		err := Validate(rec, runDate)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "high below low")
	})

	t.Run("rejects a future trade date", func(t *testing.T) {
		rec := validRecord()
		rec.TradeDate = time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)
		err := Validate(rec, runDate)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "future trade date")
	})
}

package nse

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fallbackDate = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

func TestParseBhavcopy(t *testing.T) {
	t.Run("parses well-formed rows in file order", func(t *testing.T) {
		payload := []byte(`SYMBOL,SERIES,OPEN,HIGH,LOW,CLOSE,LAST,PREVCLOSE,TOTTRDQTY,TOTTRDVAL,TIMESTAMP,TOTALTRADES,ISIN
RELIANCE,EQ,2500.00,2550.00,2480.00,2520.00,2520.00,2500.00,1000000,2520000000.00,15-JAN-2025,50000,INE002A01018
TCS,EQ,3600.00,3650.00,3580.00,3620.00,3620.00,3600.00,500000,1810000000.00,15-JAN-2025,30000,INE467B01029
`)
		records, skipped, err := ParseBhavcopy(payload, fallbackDate)
		require.NoError(t, err)
		assert.Zero(t, skipped)
		require.Len(t, records, 2)

		rec := records[0]
		assert.Equal(t, "RELIANCE", rec.Symbol)
		assert.Equal(t, "EQ", rec.Series)
		assert.Equal(t, "INE002A01018", rec.ISIN)
		assert.True(t, decimal.NewFromFloat(2500.00).Equal(rec.Open))
		assert.True(t, decimal.NewFromFloat(2550.00).Equal(rec.High))
		assert.True(t, decimal.NewFromFloat(2480.00).Equal(rec.Low))
		assert.True(t, decimal.NewFromFloat(2520.00).Equal(rec.Close))
		assert.Equal(t, int64(1000000), rec.TotalTradedQty)
		assert.Equal(t, int64(50000), rec.TotalTrades)
		assert.Equal(t, fallbackDate, rec.TradeDate)

		assert.Equal(t, "TCS", records[1].Symbol)
	})

	t.Run("maps columns by header name, not position", func(t *testing.T) {
		payload := []byte(`ISIN,SYMBOL,EXCHANGE,SERIES,HIGH,LOW,OPEN,CLOSE,LAST,PREVCLOSE,TOTTRDQTY,TOTTRDVAL,TIMESTAMP,TOTALTRADES
INE002A01018,RELIANCE,NSE,EQ,2550.00,2480.00,2500.00,2520.00,2520.00,2500.00,1000000,2520000000.00,15-JAN-2025,50000
`)
		records, skipped, err := ParseBhavcopy(payload, fallbackDate)
		require.NoError(t, err)
		assert.Zero(t, skipped)
		require.Len(t, records, 1)
		assert.Equal(t, "RELIANCE", records[0].Symbol)
		assert.True(t, decimal.NewFromFloat(2550.00).Equal(records[0].High))
		assert.True(t, decimal.NewFromFloat(2480.00).Equal(records[0].Low))
	})

	t.Run("skips malformed rows and keeps going", func(t *testing.T) {
		payload := []byte(`SYMBOL,SERIES,OPEN,HIGH,LOW,CLOSE,LAST,PREVCLOSE,TOTTRDQTY,TOTTRDVAL,TIMESTAMP,TOTALTRADES,ISIN
RELIANCE,EQ,2500.00,2550.00,2480.00,2520.00,2520.00,2500.00,1000000,2520000000.00,15-JAN-2025,50000,INE002A01018
BADPRICE,EQ,notanumber,2550.00,2480.00,2520.00,2520.00,2500.00,1000000,2520000000.00,15-JAN-2025,50000,INE000000000
SHORT,EQ
TCS,EQ,3600.00,3650.00,3580.00,3620.00,3620.00,3600.00,500000,1810000000.00,15-JAN-2025,30000,INE467B01029
`)
		records, skipped, err := ParseBhavcopy(payload, fallbackDate)
		require.NoError(t, err)
		assert.Equal(t, 2, skipped)
		require.Len(t, records, 2)
		assert.Equal(t, "RELIANCE", records[0].Symbol)
		assert.Equal(t, "TCS", records[1].Symbol)
	})

	t.Run("reads the trade date from the TIMESTAMP column", func(t *testing.T) {
		payload := []byte(`SYMBOL,SERIES,OPEN,HIGH,LOW,CLOSE,LAST,PREVCLOSE,TOTTRDQTY,TOTTRDVAL,TIMESTAMP,TOTALTRADES,ISIN
RELIANCE,EQ,2500.00,2550.00,2480.00,2520.00,2520.00,2500.00,1000000,2520000000.00,14-JAN-2025,50000,INE002A01018
`)
		records, _, err := ParseBhavcopy(payload, fallbackDate)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC), records[0].TradeDate)
	})

	t.Run("falls back to the requested date on a bad TIMESTAMP", func(t *testing.T) {
		payload := []byte(`SYMBOL,SERIES,OPEN,HIGH,LOW,CLOSE,LAST,PREVCLOSE,TOTTRDQTY,TOTTRDVAL,TIMESTAMP,TOTALTRADES,ISIN
RELIANCE,EQ,2500.00,2550.00,2480.00,2520.00,2520.00,2500.00,1000000,2520000000.00,someday,50000,INE002A01018
`)
		records, _, err := ParseBhavcopy(payload, fallbackDate)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, fallbackDate, records[0].TradeDate)
	})

	t.Run("fails on a header missing a required column", func(t *testing.T) {
		payload := []byte("SYMBOL,SERIES\nRELIANCE,EQ\n")
		_, _, err := ParseBhavcopy(payload, fallbackDate)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing column")
	})

	t.Run("fails on an empty payload", func(t *testing.T) {
		_, _, err := ParseBhavcopy(nil, fallbackDate)
		require.Error(t, err)
	})
}

package nse

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brainless/getmarket/internal/models"
)

// Columns the bhavcopy must carry. Rows are mapped by header name, not
// position, so extra or reordered columns are tolerated.
var requiredColumns = []string{
	"SYMBOL", "SERIES", "OPEN", "HIGH", "LOW", "CLOSE", "LAST",
	"PREVCLOSE", "TOTTRDQTY", "TOTTRDVAL", "TIMESTAMP", "TOTALTRADES", "ISIN",
}

// tradeDateFormat matches the bhavcopy TIMESTAMP column, e.g. 15-JAN-2025.
const tradeDateFormat = "02-Jan-2006"

// ParseBhavcopy decodes a bhavcopy CSV payload into stock records in
// file order. Rows that cannot be decoded (missing fields, non-numeric
// prices, bad dates) are dropped and counted; one bad row never aborts
// the file. fallbackDate is used when a row carries no parseable
// TIMESTAMP value.
func ParseBhavcopy(payload []byte, fallbackDate time.Time) ([]models.StockRecord, int, error) {
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read bhavcopy header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, 0, err
	}

	var records []models.StockRecord
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		rec, err := decodeRow(row, cols, fallbackDate)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}

// mapColumns builds a name→index map from the header row and verifies
// every required column is present.
func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("bhavcopy header missing column %s", name)
		}
	}
	return cols, nil
}

func decodeRow(row []string, cols map[string]int, fallbackDate time.Time) (models.StockRecord, error) {
	get := func(name string) (string, error) {
		idx := cols[name]
		if idx >= len(row) {
			return "", fmt.Errorf("row too short for column %s", name)
		}
		return strings.TrimSpace(row[idx]), nil
	}
	var rec models.StockRecord
	var err error

	if rec.Symbol, err = get("SYMBOL"); err != nil {
		return rec, err
	}
	if rec.Series, err = get("SERIES"); err != nil {
		return rec, err
	}
	if rec.ISIN, err = get("ISIN"); err != nil {
		return rec, err
	}

	for _, f := range []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"OPEN", &rec.Open},
		{"HIGH", &rec.High},
		{"LOW", &rec.Low},
		{"CLOSE", &rec.Close},
		{"LAST", &rec.Last},
		{"PREVCLOSE", &rec.PrevClose},
		{"TOTTRDVAL", &rec.TotalTradedValue},
	} {
		raw, err := get(f.name)
		if err != nil {
			return rec, err
		}
		if *f.dst, err = decimal.NewFromString(raw); err != nil {
			return rec, fmt.Errorf("column %s: %w", f.name, err)
		}
	}

	for _, f := range []struct {
		name string
		dst  *int64
	}{
		{"TOTTRDQTY", &rec.TotalTradedQty},
		{"TOTALTRADES", &rec.TotalTrades},
	} {
		raw, err := get(f.name)
		if err != nil {
			return rec, err
		}
		if *f.dst, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return rec, fmt.Errorf("column %s: %w", f.name, err)
		}
	}

	rawDate, err := get("TIMESTAMP")
	if err != nil {
		return rec, err
	}
	if ts, err := time.Parse(tradeDateFormat, rawDate); err == nil {
		rec.TradeDate = ts
	} else {
		rec.TradeDate = fallbackDate
	}

	return rec, nil
}

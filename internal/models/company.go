package models

import "time"

// Company represents a listed security, keyed by its exchange symbol.
// Descriptive fields (ISIN, series, name) may be refreshed by later
// ingestion runs; the symbol itself never changes identity.
type Company struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	ISIN      string    `json:"isin,omitempty"`
	Series    string    `json:"series,omitempty"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/brainless/getmarket/internal/database"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db *database.DB
}

// NewHandler creates a new Handler
func NewHandler(db *database.DB) *Handler {
	return &Handler{db: db}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListCompanies handles GET /companies
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	search := r.URL.Query().Get("search")
	series := r.URL.Query().Get("series")

	companies, total, err := h.db.ListCompanies(r.Context(), limit, offset, search, series)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondPage(w, companies, total, limit, offset)
}

// GetCompanyPrices handles GET /companies/{symbol}/prices
func (h *Handler) GetCompanyPrices(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	limit, offset := pagination(r)

	from, err := dateParam(r, "from")
	if err != nil {
		http.Error(w, "invalid from date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to, err := dateParam(r, "to")
	if err != nil {
		http.Error(w, "invalid to date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	if _, err := h.db.GetCompanyBySymbol(r.Context(), symbol); err != nil {
		if errors.Is(err, database.ErrCompanyNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	prices, total, err := h.db.GetPricesBySymbol(r.Context(), symbol, limit, offset, from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondPage(w, prices, total, limit, offset)
}

// GetLatestPrices handles GET /prices/latest
func (h *Handler) GetLatestPrices(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	series := r.URL.Query().Get("series")

	date, err := dateParam(r, "date")
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	prices, total, err := h.db.GetLatestPrices(r.Context(), limit, offset, date, series)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondPage(w, prices, total, limit, offset)
}

// GetMarketOverview handles GET /market/overview
func (h *Handler) GetMarketOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.db.GetMarketOverview(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, overview)
}

// ListIngestionLogs handles GET /ingestion/logs
func (h *Handler) ListIngestionLogs(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 10)
	if limit > maxPageSize {
		limit = maxPageSize
	}

	logs, err := h.db.ListIngestionAttempts(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, logs)
}

// GetIngestionStats handles GET /ingestion/stats
func (h *Handler) GetIngestionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetIngestionStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

func pagination(r *http.Request) (limit, offset int) {
	limit = intParam(r, "limit", defaultPageSize)
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset = intParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func intParam(r *http.Request, name string, defaultValue int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

func dateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func respondPage(w http.ResponseWriter, data any, total int64, limit, offset int) {
	respondJSON(w, http.StatusOK, map[string]any{
		"data": data,
		"pagination": map[string]any{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

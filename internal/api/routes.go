package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Read-only browsing over the ingested store
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/companies", handler.ListCompanies).Methods("GET")
	api.HandleFunc("/companies/{symbol}/prices", handler.GetCompanyPrices).Methods("GET")
	api.HandleFunc("/prices/latest", handler.GetLatestPrices).Methods("GET")
	api.HandleFunc("/market/overview", handler.GetMarketOverview).Methods("GET")
	api.HandleFunc("/ingestion/logs", handler.ListIngestionLogs).Methods("GET")
	api.HandleFunc("/ingestion/stats", handler.GetIngestionStats).Methods("GET")

	return r
}

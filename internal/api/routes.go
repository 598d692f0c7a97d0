package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Performance comparison, same path the site serves
	r.HandleFunc("/api/ebi", handler.GetComparison).Methods("GET")

	// Task ledger and manual trigger
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/tasks", handler.GetRecentTasks).Methods("GET")
	api.HandleFunc("/tasks/{id:[0-9]+}", handler.GetTask).Methods("GET")
	api.HandleFunc("/monitor/run", handler.RunMonitor).Methods("POST")

	return r
}

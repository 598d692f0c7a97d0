package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/jlaster/fund-monitor/internal/config"
	"github.com/jlaster/fund-monitor/internal/marketdata"
	"github.com/jlaster/fund-monitor/internal/models"
	"github.com/jlaster/fund-monitor/internal/performance"
)

const defaultTaskLimit = 20

// TaskStore reads persisted tasks for the API
type TaskStore interface {
	GetTaskByID(id int) (*models.Task, error)
	GetRecentTasks(taskType string, limit int) ([]*models.Task, error)
}

// PipelineRunner triggers one monitoring pass on demand
type PipelineRunner interface {
	Run(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	fetcher  marketdata.PriceFetcher
	tasks    TaskStore
	pipeline PipelineRunner
	market   config.MarketDataConfig
	log      zerolog.Logger
}

// NewHandler creates a new Handler. pipeline may be nil to disable the
// manual-run endpoint.
func NewHandler(fetcher marketdata.PriceFetcher, tasks TaskStore, pipeline PipelineRunner, market config.MarketDataConfig, log zerolog.Logger) *Handler {
	return &Handler{
		fetcher:  fetcher,
		tasks:    tasks,
		pipeline: pipeline,
		market:   market,
		log:      log.With().Str("component", "api").Logger(),
	}
}

// GetComparison handles GET /api/ebi
func (h *Handler) GetComparison(w http.ResponseWriter, r *http.Request) {
	if h.market.APIKey == "" {
		h.log.Error().Msg("FMP_API_KEY environment variable is not set")
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "FMP_API_KEY environment variable is not set.",
		})
		return
	}

	startDate, err := time.Parse("2006-01-02", h.market.StartDate)
	if err != nil {
		h.log.Error().Err(err).Str("start_date", h.market.StartDate).Msg("Invalid comparison start date")
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "invalid comparison start date"})
		return
	}

	report := performance.BuildComparison(r.Context(), h.fetcher, h.market.Symbols, startDate, time.Now())
	respondJSON(w, http.StatusOK, report.Response())
}

// GetRecentTasks handles GET /api/v1/tasks
func (h *Handler) GetRecentTasks(w http.ResponseWriter, r *http.Request) {
	limit := defaultTaskLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	tasks, err := h.tasks.GetRecentTasks(models.TaskTypeEBI, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

// GetTask handles GET /api/v1/tasks/{id}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "invalid task id", http.StatusBadRequest)
		return
	}

	task, err := h.tasks.GetTaskByID(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// RunMonitor handles POST /api/v1/monitor/run
func (h *Handler) RunMonitor(w http.ResponseWriter, r *http.Request) {
	if h.pipeline == nil {
		http.Error(w, "monitor pipeline not configured", http.StatusServiceUnavailable)
		return
	}

	if err := h.pipeline.Run(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Manual monitor run failed")
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/XavierBriggs/Delphi/internal/history"
	"github.com/XavierBriggs/Delphi/internal/recommend"
	"github.com/XavierBriggs/Delphi/internal/stability"
	"github.com/XavierBriggs/Delphi/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// GradeService is the read surface of the stability engine
type GradeService interface {
	Evaluate(ctx context.Context, eventID string) (*models.Evaluation, error)
	EvaluateFullSpectrum(ctx context.Context, eventID string) (*models.Evaluation, error)
	Invalidate(ctx context.Context, eventID string) (*models.Evaluation, error)
}

// HistoryReader returns stored grade history for an event
type HistoryReader interface {
	History(ctx context.Context, eventID string, limit int) ([]history.Row, error)
}

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	grades         GradeService
	history        HistoryReader
	db             Pinger
	requestTimeout time.Duration
	logger         zerolog.Logger
}

// NewHandler creates a new handler. history and db may be nil.
func NewHandler(grades GradeService, historyReader HistoryReader, db Pinger, logger zerolog.Logger) *Handler {
	return &Handler{
		grades:         grades,
		history:        historyReader,
		db:             db,
		requestTimeout: 10 * time.Second,
		logger:         logger.With().Str("component", "api").Logger(),
	}
}

// HealthCheck returns the health status of the service
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			h.respondError(w, http.StatusServiceUnavailable, "database unhealthy", err)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "delphi",
	})
}

// GetRecommendations returns the filtered, stable recommendations for an event.
// Query params: min_edge (probability points, e.g. 0.02)
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	h.serveEvaluation(w, r, h.grades.Evaluate)
}

// GetFullSpectrum returns every graded side regardless of edge
func (h *Handler) GetFullSpectrum(w http.ResponseWriter, r *http.Request) {
	h.serveEvaluation(w, r, h.grades.EvaluateFullSpectrum)
}

// Invalidate forces a recompute for the event's current state
func (h *Handler) Invalidate(w http.ResponseWriter, r *http.Request) {
	h.serveEvaluation(w, r, h.grades.Invalidate)
}

// GetHistory returns stored grade rows for an event, newest first.
// Query params: limit
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.respondError(w, http.StatusNotImplemented, "grade history is not configured", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	eventID := chi.URLParam(r, "eventID")
	limit := parseIntParam(r, "limit", 100)
	if limit > 1000 {
		limit = 1000
	}

	rows, err := h.history.History(ctx, eventID, limit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to retrieve grade history", err)
		return
	}
	if rows == nil {
		rows = []history.Row{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"event_id": eventID,
		"history":  rows,
		"count":    len(rows),
	})
}

func (h *Handler) serveEvaluation(w http.ResponseWriter, r *http.Request, fetch func(context.Context, string) (*models.Evaluation, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		h.respondError(w, http.StatusBadRequest, "event_id is required", nil)
		return
	}

	eval, err := fetch(ctx, eventID)
	if err != nil {
		status, message := classify(err)
		h.respondError(w, status, message, err)
		return
	}

	if raw := r.URL.Query().Get("min_edge"); raw != "" {
		minEdge, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "min_edge must be a number", err)
			return
		}
		filtered := *eval
		filtered.Recommendations = recommend.FilterByEdge(eval.Recommendations, minEdge)
		eval = &filtered
	}

	respondJSON(w, http.StatusOK, eval)
}

// classify maps engine errors to HTTP statuses
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrEventNotFound):
		return http.StatusNotFound, "event not found"
	case errors.Is(err, models.ErrEventClosed):
		return http.StatusGone, "event is closed"
	case errors.Is(err, models.ErrUnsupportedSport):
		return http.StatusUnprocessableEntity, "sport is not supported"
	case errors.Is(err, models.ErrInvalidPrediction), errors.Is(err, models.ErrInvalidQuote):
		return http.StatusUnprocessableEntity, "upstream data failed validation"
	case errors.Is(err, models.ErrRecomputeTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "grades are being recomputed, retry shortly"
	case errors.Is(err, stability.ErrEngineClosed):
		return http.StatusServiceUnavailable, "service is shutting down"
	default:
		return http.StatusInternalServerError, "failed to evaluate event"
	}
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return defaultValue
	}

	return value
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		event := h.logger.Warn()
		if status >= http.StatusInternalServerError {
			event = h.logger.Error()
		}
		event.Err(err).Int("status", status).Msg(message)
	}

	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

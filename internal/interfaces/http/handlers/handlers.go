package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/cfactor/internal/config"
	httpContracts "github.com/sawpanic/cfactor/internal/http"
	"github.com/sawpanic/cfactor/internal/metrics"
)

type requestIDKey struct{}

// WithRequestID stores the request ID on ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID stored on ctx, or "unknown"
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return "unknown"
}

// Handlers manages all HTTP endpoint handlers
type Handlers struct {
	factors  config.FactorConfig
	metrics  *metrics.Registry
	validate *validator.Validate
	logger   zerolog.Logger
	version  string
	started  time.Time
}

// NewHandlers creates a new handlers instance. Every compute request builds its
// own calculator from cfg so per-request overrides never leak between requests.
func NewHandlers(cfg config.FactorConfig, reg *metrics.Registry, version string) *Handlers {
	return &Handlers{
		factors:  cfg,
		metrics:  reg,
		validate: validator.New(),
		logger:   log.With().Str("component", "http").Logger(),
		version:  version,
		started:  time.Now(),
	}
}

// writeJSON writes JSON response with proper error handling
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		h.logger.Error().Err(err).Msg("Response encoding failed")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"json_encoding_failed"}`))
		return
	}
	w.WriteHeader(status)
	w.Write(body)
}

// writeError writes standardized error response
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	errorResp := httpContracts.ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: RequestID(r.Context()),
		Timestamp: time.Now().UTC(),
	}

	h.writeJSON(w, status, errorResp)
}

// NotFound handles 404 responses
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeError(w, r, http.StatusNotFound, "endpoint_not_found",
		"The requested endpoint does not exist")
}

// MethodNotAllowed handles 405 responses
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
		r.Method+" is not supported on "+r.URL.Path)
}

// TooManyRequests is written by the rate limiter
func (h *Handlers) TooManyRequests(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "1")
	h.writeError(w, r, http.StatusTooManyRequests, "rate_limited",
		"Request rate exceeded, retry shortly")
}

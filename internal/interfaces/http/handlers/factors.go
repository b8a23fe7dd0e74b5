package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/sawpanic/cfactor/internal/factors"
	"github.com/sawpanic/cfactor/internal/frame"
	httpContracts "github.com/sawpanic/cfactor/internal/http"
	cio "github.com/sawpanic/cfactor/internal/io"
)

// Compute handles POST /v1/factors
func (h *Handlers) Compute(w http.ResponseWriter, r *http.Request) {
	requestID := RequestID(r.Context())

	// the body is bounded by the server's MaxBytesReader
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, http.StatusRequestEntityTooLarge, "body_too_large",
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		h.writeError(w, r, http.StatusBadRequest, "unreadable_body", err.Error())
		return
	}

	var req httpContracts.ComputeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			h.writeError(w, r, http.StatusBadRequest, "validation_failed",
				fmt.Sprintf("%s failed %q", verrs[0].Namespace(), verrs[0].Tag()))
			return
		}
		h.writeError(w, r, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	names, err := parseNames(req.Factors)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "unknown_factor", err.Error())
		return
	}

	in, err := req.Inputs()
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_table", err.Error())
		return
	}

	cfg := h.factors
	if req.Buckets > 0 {
		cfg.Buckets = req.Buckets
	}
	calc, err := factors.NewCalculator(cfg,
		factors.WithMetrics(h.metrics),
		factors.WithLogger(h.logger.With().Str("request_id", requestID).Logger()),
	)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_parameters", err.Error())
		return
	}

	res, err := calc.Compute(r.Context(), in)
	if err != nil {
		status, code := computeStatus(err)
		h.writeError(w, r, status, code, err.Error())
		return
	}

	resp := httpContracts.NewComputeResponse(res, names, req.Signals)
	resp.RequestID = requestID
	resp.Buckets = cfg.Buckets
	h.writeJSON(w, http.StatusOK, resp)
}

func parseNames(raw []string) ([]factors.Name, error) {
	names := make([]factors.Name, 0, len(raw))
	for _, s := range raw {
		n, ok := factors.ParseName(s)
		if !ok {
			return nil, fmt.Errorf("unknown factor %q", s)
		}
		names = append(names, n)
	}
	return names, nil
}

// computeStatus maps calculator failures onto HTTP statuses
func computeStatus(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "cancelled"
	case errors.Is(err, factors.ErrMissingInput),
		errors.Is(err, factors.ErrMissingTenor),
		errors.Is(err, factors.ErrMissingPosition),
		errors.Is(err, frame.ErrShapeMismatch),
		errors.Is(err, frame.ErrColumnNotFound),
		errors.Is(err, cio.ErrBadDate):
		return http.StatusUnprocessableEntity, "unprocessable_inputs"
	default:
		return http.StatusInternalServerError, "compute_failed"
	}
}

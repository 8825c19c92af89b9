package http

import (
	"errors"
	"net/http"

	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/runner"
	"github.com/aretw0/whodunit/pkg/scenario"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// StatusOf maps an engine error to an HTTP status.
func StatusOf(err error) int {
	var invalid *scenario.AggregateError
	switch {
	case errors.Is(err, domain.ErrInvalidPhase), errors.Is(err, domain.ErrIntegrityViolation):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidAction),
		errors.Is(err, runner.ErrInputTooLarge),
		errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	resp := errorResponse{Error: err.Error()}

	var invalid *scenario.AggregateError
	if errors.As(err, &invalid) {
		resp.Error = "invalid scenario"
		for _, e := range invalid.Errors {
			resp.Details = append(resp.Details, e.Error())
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	s.writeJSON(w, status, resp)
}

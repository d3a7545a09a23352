package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-examclock/internal/exam"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeErr maps engine errors to statuses so callers can branch on the
// cause. Transaction failures are retryable and never leak driver details.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exam.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errBody{err.Error(), "not_found"})
	case errors.Is(err, exam.ErrAlreadyClosed):
		writeJSON(w, http.StatusConflict, errBody{err.Error(), "already_closed"})
	case errors.Is(err, exam.ErrConfiguration):
		writeJSON(w, http.StatusUnprocessableEntity, errBody{err.Error(), "configuration_error"})
	case errors.Is(err, exam.ErrInvalidContent):
		writeJSON(w, http.StatusBadRequest, errBody{err.Error(), "invalid_content"})
	case errors.Is(err, exam.ErrTransaction):
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, errBody{"temporary failure, retry", "transaction_failure"})
	default:
		writeJSON(w, http.StatusInternalServerError, errBody{"internal error", "internal"})
	}
}

package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cofc/campushunt/internal/docstore"
	"github.com/cofc/campushunt/internal/hunt"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure maps core and store errors onto HTTP statuses.
func writeFailure(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, hunt.ErrNotFound), errors.Is(err, docstore.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, hunt.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, hunt.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, hunt.ErrTransientIO):
		logger.Error(op+" failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, try again")
	default:
		logger.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

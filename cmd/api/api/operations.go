package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/manzolo/docker-compose-playground-sub001/lib/operations"
)

// ListOperations returns every retained operation record, newest first.
func (s *ApiService) ListOperations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Tracker.List())
}

// GetOperation returns the current snapshot of one operation. It never
// blocks; clients poll until the status is terminal.
func (s *ApiService) GetOperation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	op, err := s.Tracker.Get(id)
	if err != nil {
		if errors.Is(err, operations.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "unknown operation: "+id)
			return
		}
		writeError(w, http.StatusInternalServerError, "error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, op)
}

// DeleteOperation discards an operation record. Records have no server-side
// expiry, so this is the only way they go away.
func (s *ApiService) DeleteOperation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.Tracker.Delete(id); err != nil {
		if errors.Is(err, operations.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "unknown operation: "+id)
			return
		}
		writeError(w, http.StatusInternalServerError, "error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

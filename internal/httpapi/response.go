// Package httpapi is the thin net/http surface (spec.md §6.3) shared by
// the three services: hybrid search, centrality, and graph view. Each
// service wires only the routes it owns via its own constructor
// (NewSearchServer, NewCentralityServer, NewGraphViewServer), grounded on
// the teacher's internal/httpapi package (http.ServeMux method-pattern
// routing, respondJSON/respondError helpers).
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/oculairmedia/graphiti/internal/platform/apperr"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, statusFromError(err), map[string]any{"error": err.Error()})
}

// statusFromError maps the apperr taxonomy to HTTP status, per spec.md §7.
func statusFromError(err error) int {
	switch apperr.KindOf(err) {
	case apperr.InvalidRequest:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.StoreUnavailable, apperr.Transient, apperr.ExternalUnavailable:
		return http.StatusServiceUnavailable
	case apperr.SyntaxRejected, apperr.TypeMismatch, apperr.Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

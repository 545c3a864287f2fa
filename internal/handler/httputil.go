package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/matthewbaird/portfolio/internal/apperr"
	"github.com/matthewbaird/portfolio/internal/logger"
	"github.com/matthewbaird/portfolio/internal/types"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Warn("writeJSON encode error", zap.Error(err))
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// parseOwner wraps the ownerID path parameter. Any text is accepted; the
// resolver decides whether it matches anything.
func parseOwner(r *http.Request) types.Ref {
	return types.ParseRef(chi.URLParam(r, "ownerID"))
}

// ParseAsOf parses a calendar date (midnight UTC) or an RFC 3339
// timestamp. Empty input yields the zero time, which the facade reads as now.
func ParseAsOf(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("as_of must be YYYY-MM-DD or RFC 3339: %q", raw)
	}
	return t, nil
}

func parseAsOf(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	t, err := ParseAsOf(r.URL.Query().Get("as_of"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_AS_OF", err.Error())
		return time.Time{}, false
	}
	return t, true
}

// serviceErrorToHTTP maps facade errors to HTTP responses.
func serviceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	switch {
	case apperr.IsUnavailable(err):
		log.Error("repository unavailable", zap.Error(err))
		writeError(w, r, http.StatusServiceUnavailable, string(apperr.Unavailable), "entity repository unavailable")
	case errors.Is(err, context.Canceled):
		log.Debug("request cancelled", zap.Error(err))
		writeError(w, r, http.StatusServiceUnavailable, "CANCELLED", "request cancelled")
	case errors.Is(err, context.DeadlineExceeded), apperr.IsTimeout(err):
		log.Warn("request timed out", zap.Error(err))
		writeError(w, r, http.StatusGatewayTimeout, string(apperr.Timeout), "request timed out")
	default:
		log.Error("internal error", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

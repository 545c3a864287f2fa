// Package handler exposes the aggregation facade over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/matthewbaird/portfolio/internal/dashboard"
	"github.com/matthewbaird/portfolio/internal/logger"
	"github.com/matthewbaird/portfolio/internal/types"
)

// Reporter builds the read-side payloads. *dashboard.Service implements it.
type Reporter interface {
	Dashboard(ctx context.Context, owner types.Ref, asOf time.Time) (*dashboard.DashboardStats, error)
	Financials(ctx context.Context, owner types.Ref, asOf time.Time) (*dashboard.FinancialStats, error)
	CurrentTenants(ctx context.Context, owner types.Ref, asOf time.Time) (*dashboard.TenantList, error)
	Applications(ctx context.Context, owner types.Ref) (*dashboard.ApplicationList, error)
	Ping(ctx context.Context) error
}

// DefaultStreamInterval is how often the dashboard stream pushes a payload.
const DefaultStreamInterval = 10 * time.Second

// DashboardHandler serves owner-scoped dashboard endpoints.
type DashboardHandler struct {
	reports        Reporter
	streamInterval time.Duration
}

// NewDashboardHandler creates a handler. A non-positive interval falls back
// to DefaultStreamInterval.
func NewDashboardHandler(reports Reporter, streamInterval time.Duration) *DashboardHandler {
	if streamInterval <= 0 {
		streamInterval = DefaultStreamInterval
	}
	return &DashboardHandler{reports: reports, streamInterval: streamInterval}
}

// RegisterRoutes mounts the endpoints on r.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Route("/v1/owners/{ownerID}", func(r chi.Router) {
		r.Get("/dashboard", h.Dashboard)
		r.Get("/dashboard/stream", h.Stream)
		r.Get("/financials", h.Financials)
		r.Get("/tenants", h.Tenants)
		r.Get("/applications", h.Applications)
	})
}

// Health reports whether the entity repository is reachable.
func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.reports.Ping(r.Context()); err != nil {
		logger.FromContext(r.Context()).Warn("health check failed", zap.Error(err))
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	asOf, ok := parseAsOf(w, r)
	if !ok {
		return
	}
	stats, err := h.reports.Dashboard(r.Context(), parseOwner(r), asOf)
	if err != nil {
		serviceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

func (h *DashboardHandler) Financials(w http.ResponseWriter, r *http.Request) {
	asOf, ok := parseAsOf(w, r)
	if !ok {
		return
	}
	stats, err := h.reports.Financials(r.Context(), parseOwner(r), asOf)
	if err != nil {
		serviceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

func (h *DashboardHandler) Tenants(w http.ResponseWriter, r *http.Request) {
	asOf, ok := parseAsOf(w, r)
	if !ok {
		return
	}
	list, err := h.reports.CurrentTenants(r.Context(), parseOwner(r), asOf)
	if err != nil {
		serviceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

func (h *DashboardHandler) Applications(w http.ResponseWriter, r *http.Request) {
	list, err := h.reports.Applications(r.Context(), parseOwner(r))
	if err != nil {
		serviceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

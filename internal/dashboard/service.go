// Package dashboard assembles the owner-facing payloads: portfolio
// dashboard, financials, current tenants and scored applications.
//
// Each payload is built from independent branches (units, leases, counts,
// payments) that run concurrently under their own query timeout. A branch
// that fails or times out contributes its zero value and is listed in the
// payload's Degraded field. Only an unreachable repository or the caller's
// own cancellation is returned as an error.
package dashboard

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matthewbaird/portfolio/internal/apperr"
	"github.com/matthewbaird/portfolio/internal/costs"
	"github.com/matthewbaird/portfolio/internal/ownership"
	"github.com/matthewbaird/portfolio/internal/revenue"
	"github.com/matthewbaird/portfolio/internal/scoring"
	"github.com/matthewbaird/portfolio/internal/store"
	"github.com/matthewbaird/portfolio/internal/types"
)

// Branch names reported in Degraded.
const (
	BranchProperties      = "properties"
	BranchUnits           = "units"
	BranchLeases          = "leases"
	BranchPayments        = "payments"
	BranchServiceRequests = "serviceRequests"
	BranchApplications    = "applications"
	BranchUsers           = "users"
)

const (
	DefaultQueryTimeout   = 5 * time.Second
	DefaultEndingSoonDays = 30
)

// Service builds dashboard payloads from a Store.
type Service struct {
	store     store.Store
	resolver  *ownership.Resolver
	engine    *revenue.Engine
	estimator costs.Estimator
	scorer    scoring.Scorer

	queryTimeout       time.Duration
	paymentConcurrency int
	endingSoonDays     int

	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithEngine replaces the revenue engine, e.g. to change the accrual policy.
func WithEngine(e *revenue.Engine) Option { return func(s *Service) { s.engine = e } }

// WithEstimator replaces the cost estimator.
func WithEstimator(e costs.Estimator) Option { return func(s *Service) { s.estimator = e } }

// WithScorer replaces the applicant scorer.
func WithScorer(sc scoring.Scorer) Option { return func(s *Service) { s.scorer = sc } }

// WithQueryTimeout bounds each branch. Zero or less disables the bound.
func WithQueryTimeout(d time.Duration) Option { return func(s *Service) { s.queryTimeout = d } }

// WithPaymentConcurrency bounds concurrent per-lease payment queries.
func WithPaymentConcurrency(n int) Option { return func(s *Service) { s.paymentConcurrency = n } }

// WithEndingSoonDays sets the window for leases reported as ending soon.
func WithEndingSoonDays(n int) Option { return func(s *Service) { s.endingSoonDays = n } }

// WithClock sets the source of the default as-of time.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithLogger sets the logger for degraded branches and skipped records.
func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }

// NewService creates a Service reading from st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:              st,
		estimator:          costs.DefaultFlatRate(),
		queryTimeout:       DefaultQueryTimeout,
		paymentConcurrency: revenue.DefaultPaymentConcurrency,
		endingSoonDays:     DefaultEndingSoonDays,
		logger:             zap.NewNop(),
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.engine == nil {
		s.engine = revenue.NewEngine(revenue.WithLogger(s.logger))
	}
	s.resolver = ownership.NewResolver(st, s.logger)
	return s
}

// Ping reports whether the repository is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) asOf(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

// run tracks degraded branches for one payload.
type run struct {
	svc *Service
	ctx context.Context

	mu       sync.Mutex
	degraded []string
}

func (s *Service) newRun(ctx context.Context) *run {
	return &run{svc: s, ctx: ctx}
}

// branch runs fn under the query timeout. A failure that is not the
// caller's own cancellation marks the branch degraded and is absorbed.
func (r *run) branch(name string, fn func(ctx context.Context) error) error {
	ctx, cancel := r.svc.bounded(r.ctx)
	defer cancel()

	err := fn(ctx)
	if err == nil {
		return nil
	}
	if cerr := r.ctx.Err(); cerr != nil {
		return cerr
	}
	r.degrade(name, err)
	return nil
}

func (r *run) degrade(name string, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		kind = apperr.Unavailable
	}
	r.svc.logger.Warn("branch degraded",
		zap.String("branch", name),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
	r.mu.Lock()
	r.degraded = append(r.degraded, name)
	r.mu.Unlock()
}

// goBranch adapts branch for an errgroup.
func (r *run) goBranch(name string, fn func(ctx context.Context) error) func() error {
	return func() error { return r.branch(name, fn) }
}

func (r *run) degradedList() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Clone(r.degraded)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return out
}

func (s *Service) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// properties resolves the owner's portfolio. A timed-out lookup degrades to
// an empty portfolio; an unreachable repository is returned.
func (r *run) properties(owner types.Ref) ([]types.Property, error) {
	ctx, cancel := r.svc.bounded(r.ctx)
	defer cancel()

	props, err := r.svc.resolver.ResolveOwnedProperties(ctx, owner)
	switch {
	case err == nil:
		return props, nil
	case r.ctx.Err() != nil:
		return nil, r.ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		r.degrade(BranchProperties, err)
		return []types.Property{}, nil
	default:
		return nil, err
	}
}

// units loads the units of props as its own branch.
func (r *run) units(props []types.Property) ([]types.Unit, error) {
	var units []types.Unit
	if len(props) == 0 {
		return units, nil
	}
	err := r.branch(BranchUnits, func(ctx context.Context) error {
		us, err := r.svc.store.FindUnitsByProperty(ctx, propertyIDs(props))
		if err != nil {
			return err
		}
		units = us
		return nil
	})
	return units, err
}

func propertyIDs(props []types.Property) []string {
	ids := make([]string, 0, len(props))
	for _, p := range props {
		ids = append(ids, p.ID)
	}
	return ids
}

func unitIDs(units []types.Unit) []string {
	ids := make([]string, 0, len(units))
	for _, u := range units {
		ids = append(ids, u.ID)
	}
	return ids
}

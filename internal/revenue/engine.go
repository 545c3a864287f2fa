// Package revenue reconciles lease rent accrual against payment ledgers.
//
// Reconciliation is partial-failure tolerant: a lease, payment or unit
// whose figures cannot be used is skipped and reported in Result.Skipped,
// and the remaining records still produce totals.
package revenue

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/matthewbaird/portfolio/internal/apperr"
	"github.com/matthewbaird/portfolio/internal/occupancy"
	"github.com/matthewbaird/portfolio/internal/types"
)

// Result holds the reconciled figures for a set of leases.
type Result struct {
	RevenueThisMonth decimal.Decimal `json:"revenueThisMonth"`
	IncomingRent     decimal.Decimal `json:"incomingRent"`
	OverdueRent      decimal.Decimal `json:"overdueRent"`
	Leases           []LeaseBalance  `json:"leases"`
	Skipped          []Skip          `json:"skipped,omitempty"`
}

// LeaseBalance is the accrual position of one active lease.
type LeaseBalance struct {
	LeaseID       string          `json:"leaseId"`
	Rent          decimal.Decimal `json:"rent"`
	RentSource    RentSource      `json:"rentSource"`
	MonthsAccrued int             `json:"monthsAccrued"`
	Expected      decimal.Decimal `json:"expected"`
	Paid          decimal.Decimal `json:"paid"`
	Overdue       decimal.Decimal `json:"overdue"`
}

// RentSource records where a lease's rent figure was found.
type RentSource string

const (
	RentFromUnit       RentSource = "unit"
	RentFromLease      RentSource = "lease"
	RentFromUnitLookup RentSource = "unit_lookup"
)

// Skip describes a record left out of reconciliation.
type Skip struct {
	Record string      `json:"record"`
	ID     string      `json:"id"`
	Kind   apperr.Kind `json:"kind"`
	Reason string      `json:"reason"`
}

// Engine reconciles leases. The zero value is not usable; use NewEngine.
type Engine struct {
	accrual Accrual
	logger  *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithAccrual sets the accrual policy. The default is ThirtyDayAccrual.
func WithAccrual(a Accrual) Option {
	return func(e *Engine) {
		if a != nil {
			e.accrual = a
		}
	}
}

// WithLogger sets the logger used to report skipped records.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{accrual: ThirtyDayAccrual{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Accrual returns the engine's accrual policy.
func (e *Engine) Accrual() Accrual { return e.accrual }

// Reconcile computes this month's collected revenue, the expected rent from
// occupied units and the overdue balance across active leases, as of asOf.
//
// Only payments belonging to one of leases are counted. Leases are
// processed in slice order, so the same inputs always give the same Result.
func (e *Engine) Reconcile(leases []types.Lease, payments []types.Payment, units []types.Unit, asOf time.Time) Result {
	r := &reconciliation{
		engine: e,
		result: Result{
			RevenueThisMonth: decimal.Zero,
			IncomingRent:     decimal.Zero,
			OverdueRent:      decimal.Zero,
			Leases:           []LeaseBalance{},
		},
	}

	inScope := make(map[string]bool, len(leases))
	for _, l := range leases {
		inScope[l.ID] = true
	}

	month := types.MonthOf(asOf)
	paidByLease := make(map[string]decimal.Decimal)
	for _, p := range payments {
		if !inScope[p.LeaseID] || !p.Status.IsCompleted() {
			continue
		}
		amount, err := p.Amount.Decimal()
		if err != nil {
			r.skip("payment", p.ID, err)
			continue
		}
		paidByLease[p.LeaseID] = paidByLease[p.LeaseID].Add(amount)
		if p.PaymentDate != nil && month.Contains(*p.PaymentDate) {
			r.result.RevenueThisMonth = r.result.RevenueThisMonth.Add(amount)
		}
	}

	unitsByID := make(map[string]types.Unit, len(units))
	for _, u := range units {
		unitsByID[u.ID] = u
	}
	for _, u := range occupancy.Occupied(units) {
		rent, err := u.MonthlyRent.Decimal()
		if err != nil {
			r.skip("unit", u.ID, err)
			continue
		}
		r.result.IncomingRent = r.result.IncomingRent.Add(rent)
	}

	for _, l := range leases {
		if !l.ActiveAt(asOf) {
			continue
		}
		rent, source, err := resolveRent(l, unitsByID)
		if err != nil {
			r.skip("lease", l.ID, err)
			continue
		}
		months := e.accrual.MonthsDue(*l.StartDate, asOf)
		expected := rent.Mul(decimal.NewFromInt(int64(months)))
		paid := paidByLease[l.ID]
		overdue := decimal.Max(decimal.Zero, expected.Sub(paid))

		r.result.Leases = append(r.result.Leases, LeaseBalance{
			LeaseID:       l.ID,
			Rent:          rent,
			RentSource:    source,
			MonthsAccrued: months,
			Expected:      expected,
			Paid:          paid,
			Overdue:       overdue,
		})
		r.result.OverdueRent = r.result.OverdueRent.Add(overdue)
	}

	return r.result
}

type reconciliation struct {
	engine *Engine
	result Result
}

func (r *reconciliation) skip(record, id string, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		kind = apperr.Computation
	}
	r.engine.logger.Warn("skipping record",
		zap.String("record", record),
		zap.String("id", id),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
	r.result.Skipped = append(r.result.Skipped, Skip{Record: record, ID: id, Kind: kind, Reason: err.Error()})
}

var errNoRent = errors.New("no usable rent figure on unit, lease or unit lookup")

// resolveRent consults the lease's populated unit, then the lease itself,
// then the in-scope unit with the lease's unit ID. Missing, unparseable,
// zero and negative figures fall through to the next source.
func resolveRent(l types.Lease, units map[string]types.Unit) (decimal.Decimal, RentSource, error) {
	var parseErr error
	try := func(a types.Amount) (decimal.Decimal, bool) {
		d, err := a.Decimal()
		if err != nil {
			if !errors.Is(err, types.ErrAmountMissing) && parseErr == nil {
				parseErr = err
			}
			return decimal.Zero, false
		}
		return d, d.IsPositive()
	}

	if u, ok := l.Unit.Get(); ok {
		if d, ok := try(u.MonthlyRent); ok {
			return d, RentFromUnit, nil
		}
	}
	if d, ok := try(l.MonthlyRent); ok {
		return d, RentFromLease, nil
	}
	if u, ok := units[l.UnitID]; ok {
		if d, ok := try(u.MonthlyRent); ok {
			return d, RentFromUnitLookup, nil
		}
	}

	if parseErr != nil {
		return decimal.Zero, "", apperr.New(apperr.Computation, "revenue.resolveRent", parseErr)
	}
	return decimal.Zero, "", apperr.New(apperr.MissingRelation, "revenue.resolveRent", errNoRent)
}

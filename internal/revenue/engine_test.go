package revenue

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/matthewbaird/portfolio/internal/apperr"
	"github.com/matthewbaird/portfolio/internal/types"
)

func ptr(t time.Time) *time.Time { return &t }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func lease(id, unitID string, start, end time.Time, rent types.Amount) types.Lease {
	return types.Lease{
		ID:          id,
		TenantID:    "tenant-" + id,
		UnitID:      unitID,
		StartDate:   ptr(start),
		EndDate:     ptr(end),
		MonthlyRent: rent,
		Status:      types.LeaseStatusActive,
	}
}

func payment(id, leaseID string, amount types.Amount, at time.Time, status types.PaymentStatus) types.Payment {
	return types.Payment{ID: id, LeaseID: leaseID, Amount: amount, PaymentDate: ptr(at), Status: status}
}

func TestReconcile_ScenarioA(t *testing.T) {
	asOf := date(2024, 6, 20)
	unit := types.Unit{ID: "u1", MonthlyRent: types.AmountFromInt(25000), Occupied: true}
	l := lease("l1", "u1", date(2024, 6, 1), date(2025, 5, 31), types.Amount{})
	l.Unit = types.Some(unit)

	res := NewEngine().Reconcile(
		[]types.Lease{l},
		[]types.Payment{payment("p1", "l1", types.AmountFromInt(25000), date(2024, 6, 3), types.PaymentCompleted)},
		[]types.Unit{unit},
		asOf,
	)

	assert.True(t, res.RevenueThisMonth.Equal(dec("25000")), res.RevenueThisMonth.String())
	assert.True(t, res.IncomingRent.Equal(dec("25000")))
	require.Len(t, res.Leases, 1)
	assert.Equal(t, 1, res.Leases[0].MonthsAccrued)
	assert.Equal(t, RentFromUnit, res.Leases[0].RentSource)
	assert.True(t, res.Leases[0].Overdue.IsZero())
	assert.True(t, res.OverdueRent.IsZero())
	assert.Empty(t, res.Skipped)
}

func TestReconcile_ScenarioB(t *testing.T) {
	asOf := date(2024, 6, 20)
	l := lease("l1", "u1", asOf.AddDate(0, 0, -95), asOf.AddDate(1, 0, 0), types.AmountFromInt(1000))

	res := NewEngine().Reconcile([]types.Lease{l}, nil, nil, asOf)

	require.Len(t, res.Leases, 1)
	assert.Equal(t, 4, res.Leases[0].MonthsAccrued)
	assert.Equal(t, RentFromLease, res.Leases[0].RentSource)
	assert.True(t, res.OverdueRent.Equal(dec("4000")), res.OverdueRent.String())
	assert.True(t, res.RevenueThisMonth.IsZero())
}

func TestReconcile_CalendarAccrual(t *testing.T) {
	asOf := date(2024, 6, 20)
	l := lease("l1", "u1", asOf.AddDate(0, 0, -95), asOf.AddDate(1, 0, 0), types.AmountFromInt(1000))

	res := NewEngine(WithAccrual(CalendarAccrual{})).Reconcile([]types.Lease{l}, nil, nil, asOf)

	// 2024-03-17 to 2024-06-20 passes three anniversaries.
	assert.True(t, res.OverdueRent.Equal(dec("4000")), res.OverdueRent.String())
	assert.Equal(t, Calendar, NewEngine(WithAccrual(CalendarAccrual{})).Accrual().Name())
}

func TestReconcile_OverdueNeverNegative(t *testing.T) {
	asOf := date(2024, 6, 20)
	l := lease("l1", "u1", date(2024, 6, 1), date(2025, 5, 31), types.AmountFromInt(1000))
	payments := []types.Payment{
		payment("p1", "l1", types.AmountFromInt(1000), date(2024, 6, 1), types.PaymentCompleted),
		payment("p2", "l1", types.AmountFromInt(5000), date(2024, 6, 2), types.PaymentCompleted),
	}

	res := NewEngine().Reconcile([]types.Lease{l}, payments, nil, asOf)

	assert.True(t, res.OverdueRent.IsZero())
	assert.False(t, res.Leases[0].Overdue.IsNegative())
	assert.True(t, res.Leases[0].Paid.Equal(dec("6000")))
}

func TestReconcile_OnlyCompletedInScopePaymentsCount(t *testing.T) {
	asOf := date(2024, 6, 20)
	l := lease("l1", "u1", date(2024, 5, 25), date(2025, 5, 24), types.AmountFromInt(1000))
	payments := []types.Payment{
		payment("p1", "l1", types.AmountFromInt(400), date(2024, 6, 1), "COMPLETED"),
		payment("p2", "l1", types.AmountFromInt(300), date(2024, 6, 2), types.PaymentPending),
		payment("p3", "l1", types.AmountFromInt(300), date(2024, 6, 3), types.PaymentFailed),
		payment("p4", "other-lease", types.AmountFromInt(999), date(2024, 6, 4), types.PaymentCompleted),
		payment("p5", "l1", types.AmountFromInt(100), date(2024, 5, 31), types.PaymentCompleted),
	}

	res := NewEngine().Reconcile([]types.Lease{l}, payments, nil, asOf)

	assert.True(t, res.RevenueThisMonth.Equal(dec("400")), res.RevenueThisMonth.String())
	assert.True(t, res.Leases[0].Paid.Equal(dec("500")))
	// 26 days in: one installment due.
	assert.True(t, res.OverdueRent.Equal(dec("500")), res.OverdueRent.String())
}

func TestReconcile_MonthBoundsInclusive(t *testing.T) {
	asOf := date(2024, 2, 10)
	l := lease("l1", "u1", date(2024, 1, 1), date(2024, 12, 31), types.AmountFromInt(10))
	payments := []types.Payment{
		payment("first", "l1", types.AmountFromInt(1), date(2024, 2, 1), types.PaymentCompleted),
		payment("last", "l1", types.AmountFromInt(2), date(2024, 3, 1).Add(-time.Nanosecond), types.PaymentCompleted),
		payment("next", "l1", types.AmountFromInt(4), date(2024, 3, 1), types.PaymentCompleted),
		payment("prev", "l1", types.AmountFromInt(8), date(2024, 2, 1).Add(-time.Nanosecond), types.PaymentCompleted),
	}

	res := NewEngine().Reconcile([]types.Lease{l}, payments, nil, asOf)
	assert.True(t, res.RevenueThisMonth.Equal(dec("3")), res.RevenueThisMonth.String())
}

func TestReconcile_StringAmounts(t *testing.T) {
	asOf := date(2024, 6, 20)
	units := []types.Unit{
		{ID: "u1", MonthlyRent: types.RawAmount("$1,500.50"), Occupied: true},
		{ID: "u2", MonthlyRent: types.RawAmount(" 2000 "), Occupied: true},
		{ID: "u3", MonthlyRent: types.RawAmount("900"), Occupied: false},
	}
	l := lease("l1", "u1", date(2024, 6, 1), date(2025, 5, 31), types.Amount{})
	payments := []types.Payment{
		payment("p1", "l1", types.RawAmount("1,000.25"), date(2024, 6, 5), types.PaymentCompleted),
	}

	res := NewEngine().Reconcile([]types.Lease{l}, payments, units, asOf)

	assert.True(t, res.IncomingRent.Equal(dec("3500.50")), res.IncomingRent.String())
	assert.True(t, res.RevenueThisMonth.Equal(dec("1000.25")))
	require.Len(t, res.Leases, 1)
	assert.Equal(t, RentFromUnitLookup, res.Leases[0].RentSource)
	assert.True(t, res.OverdueRent.Equal(dec("500.25")), res.OverdueRent.String())
}

func TestReconcile_RentResolutionOrder(t *testing.T) {
	asOf := date(2024, 6, 20)
	populated := types.Unit{ID: "u1", MonthlyRent: types.AmountFromInt(1200)}
	inScope := []types.Unit{{ID: "u1", MonthlyRent: types.AmountFromInt(1300)}}

	withUnit := lease("a", "u1", date(2024, 6, 1), date(2025, 5, 31), types.AmountFromInt(1100))
	withUnit.Unit = types.Some(populated)

	zeroUnitRent := lease("b", "u1", date(2024, 6, 1), date(2025, 5, 31), types.AmountFromInt(1100))
	zeroUnitRent.Unit = types.Some(types.Unit{ID: "u1", MonthlyRent: types.AmountFromInt(0)})

	lookupOnly := lease("c", "u1", date(2024, 6, 1), date(2025, 5, 31), types.Amount{})

	res := NewEngine().Reconcile([]types.Lease{withUnit, zeroUnitRent, lookupOnly}, nil, inScope, asOf)

	require.Len(t, res.Leases, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{res.Leases[0].LeaseID, res.Leases[1].LeaseID, res.Leases[2].LeaseID})
	assert.True(t, res.Leases[0].Rent.Equal(dec("1200")))
	assert.True(t, res.Leases[1].Rent.Equal(dec("1100")))
	assert.True(t, res.Leases[2].Rent.Equal(dec("1300")))
}

func TestReconcile_SkipsBadRecords(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	asOf := date(2024, 6, 20)

	good := lease("good", "u1", date(2024, 6, 1), date(2025, 5, 31), types.AmountFromInt(1000))
	garbled := lease("garbled", "u2", date(2024, 6, 1), date(2025, 5, 31), types.RawAmount("call office"))
	noRent := lease("no-rent", "dangling", date(2024, 6, 1), date(2025, 5, 31), types.Amount{})
	noStart := lease("no-start", "u1", date(2024, 6, 1), date(2025, 5, 31), types.AmountFromInt(1000))
	noStart.StartDate = nil
	expired := lease("expired", "u1", date(2023, 1, 1), date(2023, 12, 31), types.AmountFromInt(1000))

	units := []types.Unit{{ID: "u3", MonthlyRent: types.RawAmount("n/a"), Occupied: true}}
	payments := []types.Payment{
		payment("bad-payment", "good", types.RawAmount("twelve"), date(2024, 6, 2), types.PaymentCompleted),
	}

	res := NewEngine(WithLogger(zap.New(core))).Reconcile(
		[]types.Lease{good, garbled, noRent, noStart, expired}, payments, units, asOf)

	require.Len(t, res.Leases, 1)
	assert.Equal(t, "good", res.Leases[0].LeaseID)
	assert.True(t, res.OverdueRent.Equal(dec("1000")))

	skipped := map[string]apperr.Kind{}
	for _, s := range res.Skipped {
		skipped[s.Record+":"+s.ID] = s.Kind
	}
	assert.Equal(t, map[string]apperr.Kind{
		"payment:bad-payment": apperr.Computation,
		"unit:u3":             apperr.Computation,
		"lease:garbled":       apperr.Computation,
		"lease:no-rent":       apperr.MissingRelation,
	}, skipped)
	assert.Equal(t, 4, logs.FilterMessage("skipping record").Len())
}

func TestReconcile_Idempotent(t *testing.T) {
	asOf := date(2024, 6, 20)
	leases := []types.Lease{
		lease("l1", "u1", date(2024, 1, 1), date(2024, 12, 31), types.AmountFromInt(1000)),
		lease("l2", "u2", date(2024, 3, 15), date(2025, 3, 14), types.RawAmount("1,250.75")),
	}
	units := []types.Unit{
		{ID: "u1", MonthlyRent: types.AmountFromInt(1000), Occupied: true},
		{ID: "u2", MonthlyRent: types.RawAmount("1250.75"), Occupied: true},
	}
	payments := []types.Payment{
		payment("p1", "l1", types.AmountFromInt(1000), date(2024, 6, 1), types.PaymentCompleted),
		payment("p2", "l2", types.RawAmount("1250.75"), date(2024, 6, 2), types.PaymentCompleted),
		payment("p3", "l1", types.AmountFromInt(1000), date(2024, 5, 1), types.PaymentCompleted),
	}

	e := NewEngine()
	first := e.Reconcile(leases, payments, units, asOf)
	second := e.Reconcile(leases, payments, units, asOf)

	assert.Equal(t, first, second)
	assert.False(t, first.OverdueRent.IsNegative())
}

func TestReconcile_Empty(t *testing.T) {
	res := NewEngine().Reconcile(nil, nil, nil, date(2024, 6, 20))
	assert.True(t, res.RevenueThisMonth.IsZero())
	assert.True(t, res.IncomingRent.IsZero())
	assert.True(t, res.OverdueRent.IsZero())
	assert.NotNil(t, res.Leases)
}

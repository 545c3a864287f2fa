package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matthewbaird/portfolio/internal/occupancy"
	"github.com/matthewbaird/portfolio/internal/revenue"
	"github.com/matthewbaird/portfolio/internal/types"
)

// Financials reconciles the owner's leases against payments and estimates
// costs for asOf's month. A zero asOf means now.
//
// If payments cannot be loaded, revenue and overdue figures would be
// misleading, so both are reported as zero and the payments branch is
// listed as degraded.
func (s *Service) Financials(ctx context.Context, owner types.Ref, asOf time.Time) (*FinancialStats, error) {
	asOf = s.asOf(asOf)
	r := s.newRun(ctx)

	props, err := r.properties(owner)
	if err != nil {
		return nil, fmt.Errorf("building financials: %w", err)
	}
	units, err := r.units(props)
	if err != nil {
		return nil, fmt.Errorf("building financials: %w", err)
	}

	var (
		leases        []types.Lease
		payments      []types.Payment
		paymentsKnown bool
		requests      []types.ServiceRequest
	)
	if len(units) > 0 {
		ids := unitIDs(units)
		month := types.MonthOf(asOf)

		g := new(errgroup.Group)
		g.Go(func() error {
			err := r.branch(BranchLeases, func(ctx context.Context) error {
				ls, err := s.store.FindLeasesByUnit(ctx, ids)
				if err != nil {
					return err
				}
				leases = ls
				return nil
			})
			if err != nil || len(leases) == 0 {
				paymentsKnown = err == nil
				return err
			}
			return r.branch(BranchPayments, func(ctx context.Context) error {
				ps, err := revenue.CollectPayments(ctx, s.store, leases, s.paymentConcurrency)
				if err != nil {
					return err
				}
				payments, paymentsKnown = ps, true
				return nil
			})
		})
		g.Go(r.goBranch(BranchServiceRequests, func(ctx context.Context) error {
			rs, err := s.store.FindServiceRequestsByUnit(ctx, ids, &month)
			if err != nil {
				return err
			}
			requests = rs
			return nil
		}))
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("building financials: %w", err)
		}
	}

	if !paymentsKnown {
		leases = nil
	}
	res := s.engine.Reconcile(leases, payments, units, asOf)
	est := s.estimator.Estimate(requests, occupancy.Aggregate(units).Occupied)

	return &FinancialStats{
		AsOf:             asOf,
		RevenueThisMonth: res.RevenueThisMonth,
		IncomingRent:     res.IncomingRent,
		OverdueRent:      res.OverdueRent,
		ServiceCosts:     est.ServiceCosts,
		UtilitiesCosts:   est.UtilitiesCosts,
		Accrual:          s.engine.Accrual().Name(),
		Skipped:          res.Skipped,
		Degraded:         r.degradedList(),
	}, nil
}

package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matthewbaird/portfolio/internal/revenue"
	"github.com/matthewbaird/portfolio/internal/tenants"
	"github.com/matthewbaird/portfolio/internal/types"
)

// CurrentTenants lists the tenants on leases active at asOf. A zero asOf
// means now. Rows whose tenant or unit cannot be resolved are omitted.
func (s *Service) CurrentTenants(ctx context.Context, owner types.Ref, asOf time.Time) (*TenantList, error) {
	asOf = s.asOf(asOf)
	r := s.newRun(ctx)
	out := &TenantList{AsOf: asOf, Tenants: []tenants.View{}}

	props, err := r.properties(owner)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	units, err := r.units(props)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}

	var active []types.Lease
	if len(units) > 0 {
		err := r.branch(BranchLeases, func(ctx context.Context) error {
			ls, err := s.store.FindLeasesByUnit(ctx, unitIDs(units))
			if err != nil {
				return err
			}
			for _, l := range ls {
				if l.ActiveAt(asOf) {
					active = append(active, l)
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("listing tenants: %w", err)
		}
	}
	if len(active) == 0 {
		out.Degraded = r.degradedList()
		return out, nil
	}

	var (
		users         []types.User
		payments      []types.Payment
		paymentsKnown bool
		requests      []types.ServiceRequest
	)
	g := new(errgroup.Group)
	g.Go(r.goBranch(BranchUsers, func(ctx context.Context) error {
		us, err := s.store.FindUsers(ctx, tenantIDs(active))
		if err != nil {
			return err
		}
		users = us
		return nil
	}))
	g.Go(r.goBranch(BranchPayments, func(ctx context.Context) error {
		ps, err := revenue.CollectPayments(ctx, s.store, active, s.paymentConcurrency)
		if err != nil {
			return err
		}
		payments, paymentsKnown = ps, true
		return nil
	}))
	g.Go(r.goBranch(BranchServiceRequests, func(ctx context.Context) error {
		rs, err := s.store.FindServiceRequestsByUnit(ctx, unitIDs(units), nil)
		if err != nil {
			return err
		}
		requests = rs
		return nil
	}))
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}

	out.Tenants = tenants.BuildAll(tenants.Records{
		Leases:          active,
		Users:           users,
		Units:           units,
		Properties:      props,
		Payments:        payments,
		PaymentsUnknown: !paymentsKnown,
		ServiceRequests: requests,
	}, asOf)
	out.Degraded = r.degradedList()
	return out, nil
}

func tenantIDs(leases []types.Lease) []string {
	seen := make(map[string]bool, len(leases))
	var ids []string
	for _, l := range leases {
		if l.TenantID != "" && !seen[l.TenantID] {
			seen[l.TenantID] = true
			ids = append(ids, l.TenantID)
		}
	}
	return ids
}

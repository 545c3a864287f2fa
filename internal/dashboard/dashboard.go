package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/matthewbaird/portfolio/internal/occupancy"
	"github.com/matthewbaird/portfolio/internal/store"
	"github.com/matthewbaird/portfolio/internal/types"
)

// Dashboard builds the portfolio overview for owner as of asOf. A zero
// asOf means now.
func (s *Service) Dashboard(ctx context.Context, owner types.Ref, asOf time.Time) (*DashboardStats, error) {
	asOf = s.asOf(asOf)
	r := s.newRun(ctx)

	props, err := r.properties(owner)
	if err != nil {
		return nil, fmt.Errorf("building dashboard: %w", err)
	}
	out := &DashboardStats{
		AsOf:       asOf,
		Properties: PropertyStats{Total: len(props), Addresses: addresses(props)},
		Units: UnitStats{
			TotalRevenue: decimal.Zero,
			Details:      []types.Unit{},
		},
		Leases: LeaseStats{EndingSoonDetails: []EndingLease{}},
	}
	if len(props) == 0 {
		out.Degraded = r.degradedList()
		return out, nil
	}
	ids := propertyIDs(props)

	var (
		units    []types.Unit
		requests RequestStats
		apps     ApplicationStats
		leases   []types.Lease
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		// Leases hang off units, so they share this goroutine.
		us, err := r.units(props)
		if err != nil {
			return err
		}
		units = us
		if len(units) == 0 {
			return nil
		}
		return r.branch(BranchLeases, func(ctx context.Context) error {
			ls, err := s.store.FindLeasesByUnit(ctx, unitIDs(units))
			if err != nil {
				return err
			}
			leases = ls
			return nil
		})
	})
	g.Go(r.goBranch(BranchServiceRequests, func(ctx context.Context) error {
		var rs RequestStats
		err := s.countAll(ctx, store.ServiceRequests, []countTarget{
			{&rs.Total, byProperty(ids)},
			{&rs.Active, byProperty(ids, store.In("status", types.ActiveRequestStatuses()...))},
			{&rs.Completed, byProperty(ids, store.In("status", types.CompletedRequestStatuses()...))},
		})
		if err != nil {
			return err
		}
		requests = rs
		return nil
	}))
	g.Go(r.goBranch(BranchApplications, func(ctx context.Context) error {
		var as ApplicationStats
		err := s.countAll(ctx, store.Applications, []countTarget{
			{&as.Total, byProperty(ids)},
			{&as.Pending, byProperty(ids, store.In("status", types.ApplicationPending))},
			{&as.Approved, byProperty(ids, store.In("status", types.ApplicationApproved))},
			{&as.Rejected, byProperty(ids, store.In("status", types.ApplicationRejected))},
		})
		if err != nil {
			return err
		}
		apps = as
		return nil
	}))
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building dashboard: %w", err)
	}

	out.Units.Summary = occupancy.Aggregate(units)
	out.Units.TotalRevenue = s.engine.Reconcile(nil, nil, units, asOf).IncomingRent
	if units != nil {
		out.Units.Details = units
	}
	out.ServiceRequests = requests
	out.Applications = apps
	out.Leases = s.leaseStats(leases, units, asOf)
	out.Degraded = r.degradedList()
	return out, nil
}

func byProperty(ids []string, extra ...store.Condition) store.Filter {
	return append(store.Filter{store.In("property_id", ids...)}, extra...)
}

type countTarget struct {
	dst    *int
	filter store.Filter
}

// countAll runs the counts concurrently and fills every target only if all
// of them succeed.
func (s *Service) countAll(ctx context.Context, c store.Collection, targets []countTarget) error {
	results := make([]int, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			n, err := s.store.Count(gctx, c, t.filter)
			if err != nil {
				return fmt.Errorf("counting %s: %w", c, err)
			}
			results[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, t := range targets {
		*t.dst = results[i]
	}
	return nil
}

func (s *Service) leaseStats(leases []types.Lease, units []types.Unit, asOf time.Time) LeaseStats {
	stats := LeaseStats{Total: len(leases), EndingSoonDetails: []EndingLease{}}
	numbers := make(map[string]string, len(units))
	for _, u := range units {
		numbers[u.ID] = u.Number
	}
	horizon := asOf.AddDate(0, 0, s.endingSoonDays)
	for _, l := range leases {
		if l.EndDate == nil || l.EndDate.Before(asOf) || l.EndDate.After(horizon) {
			continue
		}
		number := numbers[l.UnitID]
		if u, ok := l.Unit.Get(); ok {
			number = u.Number
		}
		stats.EndingSoonDetails = append(stats.EndingSoonDetails, EndingLease{
			LeaseID:       l.ID,
			TenantID:      l.TenantID,
			UnitID:        l.UnitID,
			UnitNumber:    number,
			EndDate:       *l.EndDate,
			DaysRemaining: int(l.EndDate.Sub(asOf) / (24 * time.Hour)),
		})
	}
	sort.SliceStable(stats.EndingSoonDetails, func(i, j int) bool {
		a, b := stats.EndingSoonDetails[i], stats.EndingSoonDetails[j]
		if !a.EndDate.Equal(b.EndDate) {
			return a.EndDate.Before(b.EndDate)
		}
		return a.LeaseID < b.LeaseID
	})
	stats.EndingSoon = len(stats.EndingSoonDetails)
	return stats
}

func addresses(props []types.Property) []string {
	out := make([]string, 0, len(props))
	for _, p := range props {
		if a := strings.TrimSpace(p.Address); a != "" {
			out = append(out, a)
		}
	}
	return out
}

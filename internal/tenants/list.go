package tenants

import (
	"time"

	"github.com/matthewbaird/portfolio/internal/types"
)

// Records is the raw material for a current-tenants list. PaymentsUnknown
// is set when the payment ledger could not be read; every row then reports
// RentUnknown instead of inferring Overdue from missing payments.
type Records struct {
	Leases          []types.Lease
	Users           []types.User
	Units           []types.Unit
	Properties      []types.Property
	Payments        []types.Payment
	PaymentsUnknown bool
	ServiceRequests []types.ServiceRequest
}

// BuildAll returns a view per lease active at asOf, in lease order. Leases
// that are not active, or whose tenant or unit cannot be resolved, are
// omitted. A unit flagged occupied without an active lease yields no row.
func BuildAll(rec Records, asOf time.Time) []View {
	users := make(map[string]types.User, len(rec.Users))
	for _, u := range rec.Users {
		users[u.ID] = u
	}
	units := make(map[string]types.Unit, len(rec.Units))
	for _, u := range rec.Units {
		units[u.ID] = u
	}
	properties := make(map[string]types.Property, len(rec.Properties))
	for _, p := range rec.Properties {
		properties[p.ID] = p
	}
	payments := make(map[string][]types.Payment)
	for _, p := range rec.Payments {
		payments[p.LeaseID] = append(payments[p.LeaseID], p)
	}

	views := []View{}
	for _, l := range rec.Leases {
		if !l.ActiveAt(asOf) {
			continue
		}
		unit := l.Unit
		if !unit.Present() {
			unit = types.Lookup(units, l.UnitID)
		}
		in := Input{
			Lease:           l,
			Tenant:          types.Lookup(users, l.TenantID),
			Unit:            unit,
			Payments:        payments[l.ID],
			PaymentsUnknown: rec.PaymentsUnknown,
			ServiceRequests: rec.ServiceRequests,
		}
		if u, ok := unit.Get(); ok {
			in.Property = types.Lookup(properties, u.PropertyID)
		}
		if v, ok := Build(in, asOf); ok {
			views = append(views, v)
		}
	}
	return views
}

// Package tenants builds the per-tenant rows of a current-tenants view:
// how far through the lease they are, whether this month's rent is in and
// how many service requests they have raised.
package tenants

import (
	"math"
	"strings"
	"time"

	"github.com/matthewbaird/portfolio/internal/types"
)

// RentStatus is the state of the current month's rent.
type RentStatus string

const (
	RentPaid    RentStatus = "Paid"
	RentOverdue RentStatus = "Overdue"
	RentPending RentStatus = "Pending"
	// RentUnknown is reported when the payment ledger could not be read.
	RentUnknown RentStatus = "Unknown"
)

// rentGraceDay is the last day of the month rent may arrive without being
// reported overdue.
const rentGraceDay = 5

// Variant is a display hint for lease progress.
type Variant string

const (
	VariantDefault Variant = "default"
	VariantWarning Variant = "warning"
	VariantDanger  Variant = "danger"
)

// Progress is the elapsed share of a lease as a whole percentage.
type Progress struct {
	Value   int     `json:"value"`
	Variant Variant `json:"variant"`
}

// View is one row of the current-tenants list.
type View struct {
	ID            string     `json:"id"`
	LeaseID       string     `json:"leaseId"`
	Name          string     `json:"name"`
	Building      string     `json:"building"`
	Unit          string     `json:"unit"`
	LeaseProgress Progress   `json:"leaseProgress"`
	RentStatus    RentStatus `json:"rentStatus"`
	Requests      int        `json:"requests"`
}

// Input is everything known about one lease. Tenant, Unit and Property are
// absent when the lease's references do not resolve. PaymentsUnknown marks
// Payments as unread rather than empty.
type Input struct {
	Lease           types.Lease
	Tenant          types.Optional[types.User]
	Unit            types.Optional[types.Unit]
	Property        types.Optional[types.Property]
	Payments        []types.Payment
	PaymentsUnknown bool
	ServiceRequests []types.ServiceRequest
}

// Build produces the view for one lease. It reports false when the lease
// has no tenant or unit reference, or either reference does not resolve;
// such leases are left out of listings rather than shown half-empty.
func Build(in Input, asOf time.Time) (View, bool) {
	l := in.Lease
	if strings.TrimSpace(l.TenantID) == "" || strings.TrimSpace(l.UnitID) == "" {
		return View{}, false
	}
	tenant, ok := in.Tenant.Get()
	if !ok {
		return View{}, false
	}
	unit, ok := in.Unit.Get()
	if !ok {
		return View{}, false
	}

	v := View{
		ID:            l.TenantID,
		LeaseID:       l.ID,
		Name:          tenant.DisplayName(),
		Unit:          unit.Number,
		LeaseProgress: LeaseProgress(l, asOf),
		RentStatus:    CurrentRentStatus(in.Payments, asOf),
	}
	if in.PaymentsUnknown {
		v.RentStatus = RentUnknown
	}
	if p, ok := in.Property.Get(); ok {
		v.Building = p.Name
		if v.Building == "" {
			v.Building = p.Address
		}
	}
	tenantRef := types.ParseRef(l.TenantID)
	for _, r := range in.ServiceRequests {
		if types.ParseRef(r.TenantID).Matches(tenantRef) {
			v.Requests++
		}
	}
	return v, true
}

// LeaseProgress returns the elapsed share of the lease at asOf, clamped to
// 0..100. A lease whose end is not after its start is fully elapsed; one
// missing either date has made no progress.
func LeaseProgress(l types.Lease, asOf time.Time) Progress {
	if l.StartDate == nil || l.EndDate == nil {
		return progress(0)
	}
	total := l.EndDate.Sub(*l.StartDate)
	if total <= 0 {
		return progress(100)
	}
	pct := float64(asOf.Sub(*l.StartDate)) / float64(total) * 100
	return progress(int(math.Round(max(0, min(100, pct)))))
}

func progress(value int) Progress {
	p := Progress{Value: value, Variant: VariantDefault}
	switch {
	case value >= 90:
		p.Variant = VariantDanger
	case value >= 75:
		p.Variant = VariantWarning
	}
	return p
}

// CurrentRentStatus reports Paid when a completed payment is dated on or
// after the first of asOf's month, otherwise Overdue once asOf is past the
// start of the grace day, otherwise Pending.
func CurrentRentStatus(payments []types.Payment, asOf time.Time) RentStatus {
	firstOfMonth := types.MonthOf(asOf).Start
	for _, p := range payments {
		if p.Status.IsCompleted() && p.PaymentDate != nil && !p.PaymentDate.Before(firstOfMonth) {
			return RentPaid
		}
	}
	graceDay := firstOfMonth.AddDate(0, 0, rentGraceDay-1)
	if asOf.After(graceDay) {
		return RentOverdue
	}
	return RentPending
}

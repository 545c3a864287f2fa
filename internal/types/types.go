// Package types provides the Go structs for the records the engine reads:
// properties, units, leases, payments, service requests, rental
// applications and users. Records are written independently by upstream
// services, so references between them may dangle and numeric fields may
// arrive as strings.
package types

import (
	"slices"
	"strings"
	"time"
)

// LeaseStatus is the lifecycle state stored on a lease record.
type LeaseStatus string

const (
	LeaseStatusPending    LeaseStatus = "pending"
	LeaseStatusActive     LeaseStatus = "active"
	LeaseStatusExpired    LeaseStatus = "expired"
	LeaseStatusTerminated LeaseStatus = "terminated"
)

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentPending   PaymentStatus = "pending"
	PaymentFailed    PaymentStatus = "failed"
)

// IsCompleted reports whether the payment counts toward a satisfied obligation.
// Upstream writers are inconsistent about case.
func (s PaymentStatus) IsCompleted() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(PaymentCompleted))
}

// Property is a building owned by a landlord.
//
// Owner, Landlord and UserID all hold the owning user's identifier: which one
// is populated depends on which writer created the record.
type Property struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	UnitCount int    `json:"unit_count"`
	Owner     Ref    `json:"owner,omitzero"`
	Landlord  Ref    `json:"landlord,omitzero"`
	UserID    Ref    `json:"userID,omitzero"`
}

// OwnerRefs returns the populated owner references in owner, landlord,
// userID order.
func (p Property) OwnerRefs() []Ref {
	refs := make([]Ref, 0, 3)
	for _, r := range []Ref{p.Owner, p.Landlord, p.UserID} {
		if !r.IsZero() {
			refs = append(refs, r)
		}
	}
	return refs
}

// Unit is a rentable space within a property.
type Unit struct {
	ID              string `json:"id"`
	PropertyID      string `json:"property_id"`
	Number          string `json:"unit_number"`
	MonthlyRent     Amount `json:"monthly_rent"`
	Occupied        bool   `json:"is_occupied"`
	CurrentTenantID string `json:"current_tenant_id,omitempty"`
}

// Lease binds a tenant to a unit for a date range.
//
// MonthlyRent may be duplicated here or only present on the unit. Unit is
// populated by the repository when the unit reference resolves.
type Lease struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	UnitID      string         `json:"unit_id"`
	LandlordID  string         `json:"landlord_id,omitempty"`
	StartDate   *time.Time     `json:"start_date,omitempty"`
	EndDate     *time.Time     `json:"end_date,omitempty"`
	MonthlyRent Amount         `json:"monthly_rent"`
	Status      LeaseStatus    `json:"status"`
	Unit        Optional[Unit] `json:"-"`
}

// ActiveAt reports whether both dates are present and asOf falls within them.
func (l Lease) ActiveAt(asOf time.Time) bool {
	if l.StartDate == nil || l.EndDate == nil {
		return false
	}
	return !asOf.Before(*l.StartDate) && !asOf.After(*l.EndDate)
}

// Payment is a single rent payment against a lease.
type Payment struct {
	ID          string        `json:"id"`
	LeaseID     string        `json:"lease_id"`
	Amount      Amount        `json:"amount"`
	PaymentDate *time.Time    `json:"payment_date,omitempty"`
	Status      PaymentStatus `json:"status"`
}

// ServiceRequest is a maintenance request. The engine only counts them.
type ServiceRequest struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	UnitID     string    `json:"unit_id"`
	TenantID   string    `json:"tenant_id,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Service request statuses counted as still open.
var activeRequestStatuses = map[string]bool{
	"pending":     true,
	"open":        true,
	"in_progress": true,
	"in-progress": true,
	"assigned":    true,
}

var completedRequestStatuses = map[string]bool{
	"completed": true,
	"resolved":  true,
	"closed":    true,
}

// IsActive reports whether the request is still open.
func (r ServiceRequest) IsActive() bool {
	return activeRequestStatuses[strings.ToLower(strings.TrimSpace(r.Status))]
}

// IsCompleted reports whether the request has been resolved.
func (r ServiceRequest) IsCompleted() bool {
	return completedRequestStatuses[strings.ToLower(strings.TrimSpace(r.Status))]
}

// ActiveRequestStatuses lists the statuses IsActive accepts, sorted.
func ActiveRequestStatuses() []string { return sortedKeys(activeRequestStatuses) }

// CompletedRequestStatuses lists the statuses IsCompleted accepts, sorted.
func CompletedRequestStatuses() []string { return sortedKeys(completedRequestStatuses) }

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// RentalApplication is a prospective tenant's application for a unit.
type RentalApplication struct {
	ID               string    `json:"id"`
	ApplicantID      string    `json:"applicant_id"`
	UnitID           string    `json:"unit_id,omitempty"`
	PropertyID       string    `json:"property_id,omitempty"`
	MonthlyIncome    Amount    `json:"monthly_income"`
	EmploymentStatus string    `json:"employment_status"`
	References       []string  `json:"references,omitempty"`
	SubmittedAt      time.Time `json:"submitted_at"`
	Status           string    `json:"status"`
}

// Application statuses counted on dashboards.
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// User is an account holder: landlord, tenant or applicant.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
}

// DisplayName joins first and last name, falling back to the email address.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// DateRange represents a closed time window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the window, inclusive on both ends.
func (d DateRange) Contains(t time.Time) bool {
	return !t.Before(d.Start) && !t.After(d.End)
}

// MonthOf returns the calendar month containing t, in t's location. End is the
// last representable instant of the month.
func MonthOf(t time.Time) DateRange {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return DateRange{
		Start: start,
		End:   start.AddDate(0, 1, 0).Add(-time.Nanosecond),
	}
}

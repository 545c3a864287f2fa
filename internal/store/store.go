// Package store provides the read-only entity repository contract the engine
// consumes, with an in-memory implementation and a SQL implementation.
// Persistence and schema ownership live upstream; nothing here writes.
package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/matthewbaird/portfolio/internal/types"
)

// Store is the interface for reading property-management records.
// Implementations must be safe for concurrent use.
type Store interface {
	// FindPropertiesByOwner matches properties whose owner field holds id in
	// structured form.
	FindPropertiesByOwner(ctx context.Context, id uuid.UUID) ([]types.Property, error)

	// FindPropertiesByOwnerKey matches the owner field by string equality.
	FindPropertiesByOwnerKey(ctx context.Context, key string) ([]types.Property, error)

	// ListProperties returns every property. Used as the last-resort scan.
	ListProperties(ctx context.Context) ([]types.Property, error)

	FindUnitsByProperty(ctx context.Context, propertyIDs []string) ([]types.Unit, error)

	// FindLeasesByUnit returns leases for the given units, with Lease.Unit
	// populated when the unit reference resolves.
	FindLeasesByUnit(ctx context.Context, unitIDs []string) ([]types.Lease, error)

	// FindPaymentsByLease returns payments for one lease. An empty status
	// returns payments in every status.
	FindPaymentsByLease(ctx context.Context, leaseID string, status types.PaymentStatus) ([]types.Payment, error)

	// FindServiceRequestsByUnit returns requests for the given units, limited
	// to window when it is non-nil.
	FindServiceRequestsByUnit(ctx context.Context, unitIDs []string, window *types.DateRange) ([]types.ServiceRequest, error)

	FindApplicationsByProperty(ctx context.Context, propertyIDs []string) ([]types.RentalApplication, error)

	FindUsers(ctx context.Context, ids []string) ([]types.User, error)

	// Count returns the number of records in c matching every condition of f.
	Count(ctx context.Context, c Collection, f Filter) (int, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// Collection names a record set for Count.
type Collection string

const (
	Properties      Collection = "properties"
	Units           Collection = "units"
	Leases          Collection = "leases"
	Payments        Collection = "payments"
	ServiceRequests Collection = "service_requests"
	Applications    Collection = "rental_applications"
	Users           Collection = "users"
)

// countableFields lists the fields Count may filter on, per collection.
var countableFields = map[Collection]map[string]bool{
	Properties:      {"id": true, "owner_id": true},
	Units:           {"id": true, "property_id": true, "is_occupied": true},
	Leases:          {"id": true, "unit_id": true, "tenant_id": true, "status": true},
	Payments:        {"id": true, "lease_id": true, "status": true},
	ServiceRequests: {"id": true, "property_id": true, "unit_id": true, "tenant_id": true, "status": true},
	Applications:    {"id": true, "property_id": true, "unit_id": true, "status": true},
	Users:           {"id": true, "role": true},
}

// Condition matches records whose Field equals one of Values,
// case-insensitively.
type Condition struct {
	Field  string
	Values []string
}

// In builds a Condition.
func In(field string, values ...string) Condition {
	return Condition{Field: field, Values: values}
}

// Filter is a conjunction of conditions.
type Filter []Condition

// validate rejects fields that Count does not support for c.
func (f Filter) validate(c Collection) error {
	fields, ok := countableFields[c]
	if !ok {
		return &FilterError{Collection: c}
	}
	for _, cond := range f {
		if !fields[cond.Field] {
			return &FilterError{Collection: c, Field: cond.Field}
		}
	}
	return nil
}

// FilterError reports an unknown collection or an unsupported filter field.
type FilterError struct {
	Collection Collection
	Field      string
}

func (e *FilterError) Error() string {
	if e.Field == "" {
		return "store: unknown collection " + string(e.Collection)
	}
	return "store: cannot filter " + string(e.Collection) + " by " + e.Field
}

// matchesAny reports whether v equals one of values, ignoring case and
// surrounding whitespace.
func matchesAny(v string, values []string) bool {
	v = strings.TrimSpace(v)
	for _, want := range values {
		if strings.EqualFold(v, strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = true
		}
	}
	return set
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/matthewbaird/portfolio/internal/types"
)

// Snapshot is a full set of records, as loaded into a MemoryStore.
type Snapshot struct {
	Properties      []types.Property          `json:"properties"`
	Units           []types.Unit              `json:"units"`
	Leases          []types.Lease             `json:"leases"`
	Payments        []types.Payment           `json:"payments"`
	ServiceRequests []types.ServiceRequest    `json:"service_requests"`
	Applications    []types.RentalApplication `json:"applications"`
	Users           []types.User              `json:"users"`
}

// DecodeSnapshot reads a JSON snapshot.
func DecodeSnapshot(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snap, nil
}

// MemoryStore implements Store over in-memory slices.
// Intended for demos and tests; no database required.
type MemoryStore struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewMemoryStore creates a MemoryStore holding snap.
func NewMemoryStore(snap Snapshot) *MemoryStore {
	return &MemoryStore{snap: snap}
}

func (s *MemoryStore) FindPropertiesByOwner(ctx context.Context, id uuid.UUID) ([]types.Property, error) {
	return s.filterProperties(ctx, func(p types.Property) bool {
		got, ok := p.Owner.Structured()
		return ok && got == id
	})
}

func (s *MemoryStore) FindPropertiesByOwnerKey(ctx context.Context, key string) ([]types.Property, error) {
	key = strings.TrimSpace(key)
	return s.filterProperties(ctx, func(p types.Property) bool {
		return key != "" && p.Owner.String() == key
	})
}

func (s *MemoryStore) ListProperties(ctx context.Context) ([]types.Property, error) {
	return s.filterProperties(ctx, func(types.Property) bool { return true })
}

func (s *MemoryStore) filterProperties(ctx context.Context, keep func(types.Property) bool) ([]types.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Property
	for _, p := range s.snap.Properties {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) FindUnitsByProperty(ctx context.Context, propertyIDs []string) ([]types.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := idSet(propertyIDs)
	var out []types.Unit
	for _, u := range s.snap.Units {
		if ids[u.PropertyID] {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *MemoryStore) FindLeasesByUnit(ctx context.Context, unitIDs []string) ([]types.Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	units := make(map[string]types.Unit, len(s.snap.Units))
	for _, u := range s.snap.Units {
		units[u.ID] = u
	}

	ids := idSet(unitIDs)
	var out []types.Lease
	for _, l := range s.snap.Leases {
		if !ids[l.UnitID] {
			continue
		}
		l.Unit = types.Lookup(units, l.UnitID)
		out = append(out, l)
	}
	return out, nil
}

func (s *MemoryStore) FindPaymentsByLease(ctx context.Context, leaseID string, status types.PaymentStatus) ([]types.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Payment
	for _, p := range s.snap.Payments {
		if p.LeaseID != leaseID {
			continue
		}
		if status != "" && !matchesAny(string(p.Status), []string{string(status)}) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) FindServiceRequestsByUnit(ctx context.Context, unitIDs []string, window *types.DateRange) ([]types.ServiceRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := idSet(unitIDs)
	var out []types.ServiceRequest
	for _, r := range s.snap.ServiceRequests {
		if !ids[r.UnitID] {
			continue
		}
		if window != nil && !window.Contains(r.CreatedAt) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *MemoryStore) FindApplicationsByProperty(ctx context.Context, propertyIDs []string) ([]types.RentalApplication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := idSet(propertyIDs)
	var out []types.RentalApplication
	for _, a := range s.snap.Applications {
		if ids[a.PropertyID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *MemoryStore) FindUsers(ctx context.Context, ids []string) ([]types.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := idSet(ids)
	var out []types.User
	for _, u := range s.snap.Users {
		if want[u.ID] {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, c Collection, f Filter) (int, error) {
	if err := f.validate(c); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, rec := range s.records(c) {
		if matchesFilter(rec, f) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

// records flattens a collection into field maps for Count. Only the fields
// listed in countableFields are populated.
func (s *MemoryStore) records(c Collection) []map[string]string {
	var out []map[string]string
	switch c {
	case Properties:
		for _, p := range s.snap.Properties {
			out = append(out, map[string]string{"id": p.ID, "owner_id": p.Owner.String()})
		}
	case Units:
		for _, u := range s.snap.Units {
			out = append(out, map[string]string{
				"id": u.ID, "property_id": u.PropertyID, "is_occupied": strconv.FormatBool(u.Occupied),
			})
		}
	case Leases:
		for _, l := range s.snap.Leases {
			out = append(out, map[string]string{
				"id": l.ID, "unit_id": l.UnitID, "tenant_id": l.TenantID, "status": string(l.Status),
			})
		}
	case Payments:
		for _, p := range s.snap.Payments {
			out = append(out, map[string]string{"id": p.ID, "lease_id": p.LeaseID, "status": string(p.Status)})
		}
	case ServiceRequests:
		for _, r := range s.snap.ServiceRequests {
			out = append(out, map[string]string{
				"id": r.ID, "property_id": r.PropertyID, "unit_id": r.UnitID, "tenant_id": r.TenantID, "status": r.Status,
			})
		}
	case Applications:
		for _, a := range s.snap.Applications {
			out = append(out, map[string]string{
				"id": a.ID, "property_id": a.PropertyID, "unit_id": a.UnitID, "status": a.Status,
			})
		}
	case Users:
		for _, u := range s.snap.Users {
			out = append(out, map[string]string{"id": u.ID, "role": u.Role})
		}
	}
	return out
}

func matchesFilter(rec map[string]string, f Filter) bool {
	for _, cond := range f {
		if !matchesAny(rec[cond.Field], cond.Values) {
			return false
		}
	}
	return true
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/matthewbaird/portfolio/internal/apperr"
	"github.com/matthewbaird/portfolio/internal/types"
)

var (
	propertyColumns    = []string{"id", "name", "address", "unit_count", "owner_id", "landlord_id", "user_id"}
	unitColumns        = []string{"id", "property_id", "unit_number", "monthly_rent", "is_occupied", "current_tenant_id"}
	leaseColumns       = []string{"id", "tenant_id", "unit_id", "landlord_id", "start_date", "end_date", "monthly_rent", "status"}
	paymentColumns     = []string{"id", "lease_id", "amount", "payment_date", "status"}
	requestColumns     = []string{"id", "property_id", "unit_id", "tenant_id", "status", "created_at"}
	applicationColumns = []string{"id", "applicant_id", "unit_id", "property_id", "monthly_income", "employment_status", "references_json", "submitted_at", "status"}
	userColumns        = []string{"id", "first_name", "last_name", "email", "role"}
)

// SQLStore implements Store over database/sql. Queries are built with ent's
// SQL builder for the configured dialect.
type SQLStore struct {
	db      *sql.DB
	builder *entsql.DialectBuilder
}

// NewSQLStore creates a SQLStore for a SQLite database handle. The handle is
// owned by the caller.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, builder: entsql.Dialect(dialect.SQLite)}
}

func (s *SQLStore) selectFrom(table string, columns []string) *entsql.Selector {
	return s.builder.Select(columns...).From(s.builder.Table(table))
}

func (s *SQLStore) FindPropertiesByOwner(ctx context.Context, id uuid.UUID) ([]types.Property, error) {
	q := s.selectFrom("properties", propertyColumns).
		Where(entsql.EQ("owner_id", id.String())).
		OrderBy("id")
	return s.queryProperties(ctx, "FindPropertiesByOwner", q)
}

func (s *SQLStore) FindPropertiesByOwnerKey(ctx context.Context, key string) ([]types.Property, error) {
	q := s.selectFrom("properties", propertyColumns).
		Where(entsql.ExprP("TRIM(owner_id) = ?", strings.TrimSpace(key))).
		OrderBy("id")
	return s.queryProperties(ctx, "FindPropertiesByOwnerKey", q)
}

func (s *SQLStore) ListProperties(ctx context.Context) ([]types.Property, error) {
	return s.queryProperties(ctx, "ListProperties", s.selectFrom("properties", propertyColumns).OrderBy("id"))
}

func (s *SQLStore) queryProperties(ctx context.Context, op string, q *entsql.Selector) ([]types.Property, error) {
	var out []types.Property
	err := s.query(ctx, op, q, func(rows *sql.Rows) error {
		var (
			p                       types.Property
			owner, landlord, userID sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &p.UnitCount, &owner, &landlord, &userID); err != nil {
			return err
		}
		p.Owner = types.ParseRef(owner.String)
		p.Landlord = types.ParseRef(landlord.String)
		p.UserID = types.ParseRef(userID.String)
		out = append(out, p)
		return nil
	})
	return out, err
}

func (s *SQLStore) FindUnitsByProperty(ctx context.Context, propertyIDs []string) ([]types.Unit, error) {
	if len(propertyIDs) == 0 {
		return nil, nil
	}
	q := s.selectFrom("units", unitColumns).
		Where(entsql.In("property_id", anySlice(propertyIDs)...)).
		OrderBy("property_id", "unit_number", "id")
	return s.queryUnits(ctx, "FindUnitsByProperty", q)
}

func (s *SQLStore) findUnitsByID(ctx context.Context, ids []string) ([]types.Unit, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := s.selectFrom("units", unitColumns).Where(entsql.In("id", anySlice(ids)...))
	return s.queryUnits(ctx, "findUnitsByID", q)
}

func (s *SQLStore) queryUnits(ctx context.Context, op string, q *entsql.Selector) ([]types.Unit, error) {
	var out []types.Unit
	err := s.query(ctx, op, q, func(rows *sql.Rows) error {
		var (
			u                    types.Unit
			propertyID, rent, tn sql.NullString
		)
		if err := rows.Scan(&u.ID, &propertyID, &u.Number, &rent, &u.Occupied, &tn); err != nil {
			return err
		}
		u.PropertyID = propertyID.String
		u.MonthlyRent = types.RawAmount(rent.String)
		u.CurrentTenantID = tn.String
		out = append(out, u)
		return nil
	})
	return out, err
}

func (s *SQLStore) FindLeasesByUnit(ctx context.Context, unitIDs []string) ([]types.Lease, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}
	q := s.selectFrom("leases", leaseColumns).
		Where(entsql.In("unit_id", anySlice(unitIDs)...)).
		OrderBy("start_date", "id")

	var leases []types.Lease
	err := s.query(ctx, "FindLeasesByUnit", q, func(rows *sql.Rows) error {
		var (
			l                                        types.Lease
			tenant, unit, landlord, start, end, rent sql.NullString
			status                                   sql.NullString
		)
		if err := rows.Scan(&l.ID, &tenant, &unit, &landlord, &start, &end, &rent, &status); err != nil {
			return err
		}
		l.TenantID = tenant.String
		l.UnitID = unit.String
		l.LandlordID = landlord.String
		l.StartDate = parseTime(start)
		l.EndDate = parseTime(end)
		l.MonthlyRent = types.RawAmount(rent.String)
		l.Status = types.LeaseStatus(status.String)
		leases = append(leases, l)
		return nil
	})
	if err != nil {
		return nil, err
	}

	units, err := s.findUnitsByID(ctx, unitIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]types.Unit, len(units))
	for _, u := range units {
		byID[u.ID] = u
	}
	for i := range leases {
		leases[i].Unit = types.Lookup(byID, leases[i].UnitID)
	}
	return leases, nil
}

func (s *SQLStore) FindPaymentsByLease(ctx context.Context, leaseID string, status types.PaymentStatus) ([]types.Payment, error) {
	q := s.selectFrom("payments", paymentColumns).
		Where(entsql.EQ("lease_id", leaseID)).
		OrderBy("payment_date", "id")
	if status != "" {
		q.Where(entsql.ExprP("LOWER(TRIM(status)) = ?", strings.ToLower(string(status))))
	}

	var out []types.Payment
	err := s.query(ctx, "FindPaymentsByLease", q, func(rows *sql.Rows) error {
		var (
			p                     types.Payment
			lease, amount, paidAt sql.NullString
			st                    sql.NullString
		)
		if err := rows.Scan(&p.ID, &lease, &amount, &paidAt, &st); err != nil {
			return err
		}
		p.LeaseID = lease.String
		p.Amount = types.RawAmount(amount.String)
		p.PaymentDate = parseTime(paidAt)
		p.Status = types.PaymentStatus(st.String)
		out = append(out, p)
		return nil
	})
	return out, err
}

// FindServiceRequestsByUnit applies window after scanning: created_at has
// been written in several layouts, so it cannot be compared as text.
func (s *SQLStore) FindServiceRequestsByUnit(ctx context.Context, unitIDs []string, window *types.DateRange) ([]types.ServiceRequest, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}
	q := s.selectFrom("service_requests", requestColumns).
		Where(entsql.In("unit_id", anySlice(unitIDs)...)).
		OrderBy("id")

	var out []types.ServiceRequest
	err := s.query(ctx, "FindServiceRequestsByUnit", q, func(rows *sql.Rows) error {
		var (
			r                               types.ServiceRequest
			property, unit, tenant, created sql.NullString
			status                          sql.NullString
		)
		if err := rows.Scan(&r.ID, &property, &unit, &tenant, &status, &created); err != nil {
			return err
		}
		r.PropertyID = property.String
		r.UnitID = unit.String
		r.TenantID = tenant.String
		r.Status = status.String
		if t := parseTime(created); t != nil {
			r.CreatedAt = *t
		}
		if window != nil && !window.Contains(r.CreatedAt) {
			return nil
		}
		out = append(out, r)
		return nil
	})
	slices.SortStableFunc(out, func(a, b types.ServiceRequest) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, err
}

func (s *SQLStore) FindApplicationsByProperty(ctx context.Context, propertyIDs []string) ([]types.RentalApplication, error) {
	if len(propertyIDs) == 0 {
		return nil, nil
	}
	q := s.selectFrom("rental_applications", applicationColumns).
		Where(entsql.In("property_id", anySlice(propertyIDs)...)).
		OrderBy("submitted_at", "id")

	var out []types.RentalApplication
	err := s.query(ctx, "FindApplicationsByProperty", q, func(rows *sql.Rows) error {
		var (
			a                                 types.RentalApplication
			applicant, unit, property, income sql.NullString
			employment, refs, submitted       sql.NullString
			status                            sql.NullString
		)
		if err := rows.Scan(&a.ID, &applicant, &unit, &property, &income, &employment, &refs, &submitted, &status); err != nil {
			return err
		}
		a.EmploymentStatus = employment.String
		a.Status = status.String
		a.ApplicantID = applicant.String
		a.UnitID = unit.String
		a.PropertyID = property.String
		a.MonthlyIncome = types.RawAmount(income.String)
		if t := parseTime(submitted); t != nil {
			a.SubmittedAt = *t
		}
		// A malformed reference list counts as no references.
		_ = json.Unmarshal([]byte(refs.String), &a.References)
		out = append(out, a)
		return nil
	})
	return out, err
}

func (s *SQLStore) FindUsers(ctx context.Context, ids []string) ([]types.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := s.selectFrom("users", userColumns).Where(entsql.In("id", anySlice(ids)...))

	var out []types.User
	err := s.query(ctx, "FindUsers", q, func(rows *sql.Rows) error {
		var (
			u                        types.User
			first, last, email, role sql.NullString
		)
		if err := rows.Scan(&u.ID, &first, &last, &email, &role); err != nil {
			return err
		}
		u.FirstName, u.LastName = first.String, last.String
		u.Email, u.Role = email.String, role.String
		out = append(out, u)
		return nil
	})
	return out, err
}

func (s *SQLStore) Count(ctx context.Context, c Collection, f Filter) (int, error) {
	if err := f.validate(c); err != nil {
		return 0, err
	}
	q := s.builder.Select(entsql.Count("*")).From(s.builder.Table(string(c)))
	for _, cond := range f {
		q.Where(conditionPredicate(cond))
	}

	query, args := q.Query()
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, classify("Count", err)
	}
	return n, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify("Ping", err)
	}
	return nil
}

// conditionPredicate renders a case-insensitive IN over a whitelisted
// column. Boolean columns are stored as integers.
func conditionPredicate(cond Condition) *entsql.Predicate {
	if len(cond.Values) == 0 {
		return entsql.ExprP("1 = 0")
	}
	values := make([]any, len(cond.Values))
	for i, v := range cond.Values {
		v = strings.ToLower(strings.TrimSpace(v))
		if cond.Field == "is_occupied" {
			switch v {
			case "true":
				v = "1"
			case "false":
				v = "0"
			}
		}
		values[i] = v
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return entsql.ExprP(
		fmt.Sprintf("LOWER(TRIM(CAST(%s AS TEXT))) IN (%s)", cond.Field, placeholders),
		values...,
	)
}

func (s *SQLStore) query(ctx context.Context, op string, q *entsql.Selector, scan func(*sql.Rows) error) error {
	query, args := q.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return classify(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("%s: scanning row: %w", op, err)
		}
	}
	if err := rows.Err(); err != nil {
		return classify(op, err)
	}
	return nil
}

// classify leaves context errors as they are, so callers can tell a
// deadline from an unreachable database.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("store.%s: %w", op, err)
	}
	return apperr.New(apperr.Unavailable, "store."+op, err)
}

func anySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

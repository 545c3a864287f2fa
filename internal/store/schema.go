package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// timeLayout is the layout this package writes.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// readLayouts are the timestamp shapes accepted when reading; upstream
// writers have used all of them.
var readLayouts = []string{
	timeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatTime renders t in the stored timestamp layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime returns nil for empty or unparseable values; the engine treats
// those as missing dates.
func parseTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	s := strings.TrimSpace(ns.String)
	if s == "" {
		return nil
	}
	for _, layout := range readLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// CreateTables creates the development schema. Production schemas are owned
// by the writing services; this exists for local runs and tests.
func (s *SQLStore) CreateTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS properties (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL DEFAULT '',
			address     TEXT NOT NULL DEFAULT '',
			unit_count  INTEGER NOT NULL DEFAULT 0,
			owner_id    TEXT,
			landlord_id TEXT,
			user_id     TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_properties_owner ON properties (owner_id);

		CREATE TABLE IF NOT EXISTS units (
			id                TEXT PRIMARY KEY,
			property_id       TEXT,
			unit_number       TEXT NOT NULL DEFAULT '',
			monthly_rent      TEXT,
			is_occupied       INTEGER NOT NULL DEFAULT 0,
			current_tenant_id TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_units_property ON units (property_id);

		CREATE TABLE IF NOT EXISTS leases (
			id           TEXT PRIMARY KEY,
			tenant_id    TEXT,
			unit_id      TEXT,
			landlord_id  TEXT,
			start_date   TEXT,
			end_date     TEXT,
			monthly_rent TEXT,
			status       TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_leases_unit ON leases (unit_id);

		CREATE TABLE IF NOT EXISTS payments (
			id           TEXT PRIMARY KEY,
			lease_id     TEXT,
			amount       TEXT,
			payment_date TEXT,
			status       TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_payments_lease ON payments (lease_id);

		CREATE TABLE IF NOT EXISTS service_requests (
			id          TEXT PRIMARY KEY,
			property_id TEXT,
			unit_id     TEXT,
			tenant_id   TEXT,
			status      TEXT NOT NULL DEFAULT '',
			created_at  TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_service_requests_unit ON service_requests (unit_id, created_at);

		CREATE TABLE IF NOT EXISTS rental_applications (
			id                TEXT PRIMARY KEY,
			applicant_id      TEXT,
			unit_id           TEXT,
			property_id       TEXT,
			monthly_income    TEXT,
			employment_status TEXT NOT NULL DEFAULT '',
			references_json   TEXT NOT NULL DEFAULT '[]',
			submitted_at      TEXT,
			status            TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_applications_property ON rental_applications (property_id);

		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			first_name TEXT NOT NULL DEFAULT '',
			last_name  TEXT NOT NULL DEFAULT '',
			email      TEXT NOT NULL DEFAULT '',
			role       TEXT NOT NULL DEFAULT ''
		);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

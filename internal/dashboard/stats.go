package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/matthewbaird/portfolio/internal/occupancy"
	"github.com/matthewbaird/portfolio/internal/revenue"
	"github.com/matthewbaird/portfolio/internal/tenants"
	"github.com/matthewbaird/portfolio/internal/types"
)

// DashboardStats is the portfolio overview for one owner.
type DashboardStats struct {
	AsOf            time.Time        `json:"asOf"`
	Properties      PropertyStats    `json:"properties"`
	Units           UnitStats        `json:"units"`
	ServiceRequests RequestStats     `json:"serviceRequests"`
	Applications    ApplicationStats `json:"applications"`
	Leases          LeaseStats       `json:"leases"`
	Degraded        []string         `json:"degraded"`
}

type PropertyStats struct {
	Total     int      `json:"total"`
	Addresses []string `json:"addresses"`
}

// UnitStats adds the expected monthly rent of occupied units to the
// occupancy summary.
type UnitStats struct {
	occupancy.Summary
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	Details      []types.Unit    `json:"details"`
}

type RequestStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

type ApplicationStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

type LeaseStats struct {
	Total             int           `json:"total"`
	EndingSoon        int           `json:"endingSoon"`
	EndingSoonDetails []EndingLease `json:"endingSoonDetails"`
}

// EndingLease is a lease whose end date falls inside the ending-soon window.
type EndingLease struct {
	LeaseID       string    `json:"leaseId"`
	TenantID      string    `json:"tenantId"`
	UnitID        string    `json:"unitId"`
	UnitNumber    string    `json:"unitNumber,omitempty"`
	EndDate       time.Time `json:"endDate"`
	DaysRemaining int       `json:"daysRemaining"`
}

// FinancialStats is the owner's money position for asOf's month. All
// figures are non-negative.
type FinancialStats struct {
	AsOf             time.Time       `json:"asOf"`
	RevenueThisMonth decimal.Decimal `json:"revenueThisMonth"`
	IncomingRent     decimal.Decimal `json:"incomingRent"`
	OverdueRent      decimal.Decimal `json:"overdueRent"`
	ServiceCosts     decimal.Decimal `json:"serviceCosts"`
	UtilitiesCosts   decimal.Decimal `json:"utilitiesCosts"`
	Accrual          string          `json:"accrual"`
	Skipped          []revenue.Skip  `json:"skipped,omitempty"`
	Degraded         []string        `json:"degraded"`
}

// TenantList is the current-tenants view.
type TenantList struct {
	AsOf     time.Time      `json:"asOf"`
	Tenants  []tenants.View `json:"tenants"`
	Degraded []string       `json:"degraded"`
}

// ScoredApplication is an application with its match score attached.
type ScoredApplication struct {
	types.RentalApplication
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// ApplicationList is the scored applications view.
type ApplicationList struct {
	Applications []ScoredApplication `json:"applications"`
	Degraded     []string            `json:"degraded"`
}

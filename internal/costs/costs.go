// Package costs estimates monthly maintenance and utility spend from
// service-request and occupancy volume. Estimates are heuristics standing
// in for a real cost ledger.
package costs

import (
	"github.com/shopspring/decimal"

	"github.com/matthewbaird/portfolio/internal/types"
)

// Placeholder per-unit figures used when nothing is configured.
var (
	AverageServiceCost = decimal.NewFromInt(150)
	AverageUtilityCost = decimal.NewFromInt(100)
)

// Estimate is an approximate monthly spend. Both fields are non-negative.
type Estimate struct {
	ServiceCosts   decimal.Decimal `json:"serviceCosts"`
	UtilitiesCosts decimal.Decimal `json:"utilitiesCosts"`
}

// Estimator derives cost estimates from volume signals.
type Estimator interface {
	Estimate(serviceRequestsThisMonth []types.ServiceRequest, occupiedUnits int) Estimate
}

// FlatRate charges a fixed amount per service request and per occupied unit.
type FlatRate struct {
	PerRequest      decimal.Decimal
	PerOccupiedUnit decimal.Decimal
}

// DefaultFlatRate returns a FlatRate using the placeholder averages.
func DefaultFlatRate() FlatRate {
	return FlatRate{PerRequest: AverageServiceCost, PerOccupiedUnit: AverageUtilityCost}
}

func (f FlatRate) Estimate(serviceRequestsThisMonth []types.ServiceRequest, occupiedUnits int) Estimate {
	return Estimate{
		ServiceCosts:   nonNegative(f.PerRequest.Mul(decimal.NewFromInt(int64(len(serviceRequestsThisMonth))))),
		UtilitiesCosts: nonNegative(f.PerOccupiedUnit.Mul(decimal.NewFromInt(int64(occupiedUnits)))),
	}
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Package scoring rates rental applicants against a unit's rent.
//
// A score starts at 50 and gains bonuses for income cover, employment and
// references, then is clamped to 0..100. Scores are advisory; nothing here
// approves or rejects an application.
package scoring

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/matthewbaird/portfolio/internal/types"
)

const (
	baseScore = 50
	minScore  = 0
	maxScore  = 100

	referencePoints = 5
	referenceCap    = 20
)

// DefaultFallbackRent is assumed when an application's unit cannot be
// resolved to a usable rent.
var DefaultFallbackRent = decimal.NewFromInt(1500)

// incomeTiers are checked in order; the first tier the income-to-rent
// ratio reaches wins.
var incomeTiers = []struct {
	ratio  decimal.Decimal
	points int
}{
	{decimal.NewFromInt(3), 30},
	{decimal.RequireFromString("2.5"), 20},
	{decimal.NewFromInt(2), 10},
}

// employmentRules are matched as case-insensitive substrings, in order.
// "self-employed" and "unemployed" both contain "employed" and must be
// checked before it.
var employmentRules = []struct {
	term   string
	label  string
	points int
}{
	{"self-employed", "self-employed", 15},
	{"unemployed", "unemployed", 0},
	{"full-time", "full-time", 20},
	{"part-time", "part-time", 10},
	{"employed", "employed", 20},
}

// Result is a match score with a human-readable breakdown.
type Result struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// Scorer computes match scores. Its zero value uses DefaultFallbackRent.
type Scorer struct {
	FallbackRent decimal.Decimal
}

// NewScorer returns a Scorer that assumes fallbackRent for unresolved
// units. A non-positive fallback selects DefaultFallbackRent.
func NewScorer(fallbackRent decimal.Decimal) Scorer {
	return Scorer{FallbackRent: fallbackRent}
}

func (s Scorer) fallback() decimal.Decimal {
	if s.FallbackRent.IsPositive() {
		return s.FallbackRent
	}
	return DefaultFallbackRent
}

// Score rates app against unitRent. A missing, unparseable or non-positive
// unitRent is replaced by the fallback rent, so scoring always succeeds.
func (s Scorer) Score(app types.RentalApplication, unitRent types.Amount) Result {
	var notes []string
	score := baseScore

	rent, err := unitRent.Decimal()
	if err != nil || !rent.IsPositive() {
		rent = s.fallback()
		notes = append(notes, fmt.Sprintf("unit rent unknown, assumed %s", rent.StringFixed(2)))
	}

	if income, err := app.MonthlyIncome.Decimal(); err != nil {
		notes = append(notes, "income not stated (+0)")
	} else {
		ratio := income.Div(rent)
		points := 0
		for _, tier := range incomeTiers {
			if ratio.GreaterThanOrEqual(tier.ratio) {
				points = tier.points
				break
			}
		}
		score += points
		notes = append(notes, fmt.Sprintf("income %sx rent (+%d)", ratio.StringFixed(2), points))
	}

	employment := strings.ToLower(app.EmploymentStatus)
	matched := false
	for _, rule := range employmentRules {
		if strings.Contains(employment, rule.term) {
			score += rule.points
			notes = append(notes, fmt.Sprintf("%s (+%d)", rule.label, rule.points))
			matched = true
			break
		}
	}
	if !matched {
		notes = append(notes, "employment not recognised (+0)")
	}

	refs := countReferences(app.References)
	refPoints := min(referencePoints*refs, referenceCap)
	score += refPoints
	notes = append(notes, fmt.Sprintf("%d references (+%d)", refs, refPoints))

	final := max(minScore, min(maxScore, score))
	if final != score {
		notes = append(notes, fmt.Sprintf("capped at %d", final))
	}
	return Result{Score: final, Explanation: strings.Join(notes, "; ")}
}

func countReferences(refs []string) int {
	n := 0
	for _, r := range refs {
		if strings.TrimSpace(r) != "" {
			n++
		}
	}
	return n
}

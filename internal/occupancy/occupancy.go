// Package occupancy counts occupied and vacant units.
package occupancy

import "github.com/matthewbaird/portfolio/internal/types"

// Summary is the occupancy of a set of units. Rate is a whole percentage.
type Summary struct {
	Total    int `json:"total"`
	Occupied int `json:"occupied"`
	Vacant   int `json:"vacant"`
	Rate     int `json:"occupancyRate"`
}

// Aggregate counts units by their occupancy flag. The flag is taken as
// written; a unit can be marked occupied without an active lease.
func Aggregate(units []types.Unit) Summary {
	s := Summary{Total: len(units)}
	for _, u := range units {
		if u.Occupied {
			s.Occupied++
		}
	}
	s.Vacant = s.Total - s.Occupied
	s.Rate = Rate(s.Occupied, s.Total)
	return s
}

// Rate returns occupied/total as a percentage rounded half up, or 0 when
// total is 0.
func Rate(occupied, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*occupied + total) / (2 * total)
}

// Occupied returns the units flagged as occupied, in input order.
func Occupied(units []types.Unit) []types.Unit {
	var out []types.Unit
	for _, u := range units {
		if u.Occupied {
			out = append(out, u)
		}
	}
	return out
}

package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/matthewbaird/portfolio/internal/types"
)

// Applications returns the owner's rental applications, each with a match
// score against its unit's rent. Applications for units that cannot be
// found are scored against the scorer's fallback rent.
func (s *Service) Applications(ctx context.Context, owner types.Ref) (*ApplicationList, error) {
	r := s.newRun(ctx)
	out := &ApplicationList{Applications: []ScoredApplication{}}

	props, err := r.properties(owner)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	if len(props) == 0 {
		out.Degraded = r.degradedList()
		return out, nil
	}

	var (
		apps  []types.RentalApplication
		units []types.Unit
	)
	g := new(errgroup.Group)
	g.Go(r.goBranch(BranchApplications, func(ctx context.Context) error {
		as, err := s.store.FindApplicationsByProperty(ctx, propertyIDs(props))
		if err != nil {
			return err
		}
		apps = as
		return nil
	}))
	g.Go(func() error {
		us, err := r.units(props)
		units = us
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}

	rents := make(map[string]types.Amount, len(units))
	for _, u := range units {
		rents[u.ID] = u.MonthlyRent
	}
	for _, a := range apps {
		res := s.scorer.Score(a, rents[a.UnitID])
		out.Applications = append(out.Applications, ScoredApplication{
			RentalApplication: a,
			Score:             res.Score,
			Explanation:       res.Explanation,
		})
	}
	out.Degraded = r.degradedList()
	return out, nil
}

// Package ownership maps a caller's owner identifier to the properties they
// own. Owner references were written by several services under different
// field names and in different representations, so lookup walks an ordered
// chain of strategies and stops at the first one that finds anything.
package ownership

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/matthewbaird/portfolio/internal/apperr"
	"github.com/matthewbaird/portfolio/internal/store"
	"github.com/matthewbaird/portfolio/internal/types"
)

// Step identifies which lookup strategy produced a resolution.
type Step string

const (
	StepNone       Step = "none"
	StepStructured Step = "structured"
	StepString     Step = "string"
	StepReparsed   Step = "reparsed"
	StepScan       Step = "scan"
)

// Resolution is the outcome of resolving an owner.
type Resolution struct {
	Properties []types.Property
	Step       Step
}

// PropertyIDs returns the IDs of the resolved properties.
func (r Resolution) PropertyIDs() []string {
	ids := make([]string, len(r.Properties))
	for i, p := range r.Properties {
		ids[i] = p.ID
	}
	return ids
}

// Resolver finds the properties attributable to an owner.
type Resolver struct {
	store  store.Store
	logger *zap.Logger
}

// NewResolver creates a Resolver. A nil logger discards output.
func NewResolver(s store.Store, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: s, logger: logger}
}

// ResolveOwnedProperties returns the owner's properties, or an empty slice
// when nothing matches.
func (r *Resolver) ResolveOwnedProperties(ctx context.Context, owner types.Ref) ([]types.Property, error) {
	res, err := r.Resolve(ctx, owner)
	return res.Properties, err
}

// Resolve runs the lookup chain:
//
//  1. structured match, when owner is a canonical UUID
//  2. string match on the trimmed raw form
//  3. lenient re-parse into a UUID, then structured match
//  4. full scan comparing owner, landlord and userID fields
//
// A failing step is logged and the chain moves on. An error is returned
// only if every attempted step failed, or if ctx is done.
func (r *Resolver) Resolve(ctx context.Context, owner types.Ref) (Resolution, error) {
	none := Resolution{Properties: []types.Property{}, Step: StepNone}
	if owner.IsZero() {
		return none, nil
	}
	log := r.logger.With(zap.String("owner", owner.String()))

	var (
		attempted int
		failures  []error
	)
	try := func(step Step, lookup func() ([]types.Property, error)) (Resolution, bool) {
		attempted++
		props, err := lookup()
		if err != nil {
			log.Warn("ownership lookup failed", zap.String("step", string(step)), zap.Error(err))
			failures = append(failures, err)
			return Resolution{}, false
		}
		if len(props) == 0 {
			return Resolution{}, false
		}
		log.Debug("ownership resolved", zap.String("step", string(step)), zap.Int("properties", len(props)))
		return Resolution{Properties: props, Step: step}, true
	}

	structuredID, structured := owner.Structured()
	if structured {
		if res, ok := try(StepStructured, func() ([]types.Property, error) {
			return r.store.FindPropertiesByOwner(ctx, structuredID)
		}); ok {
			return res, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return none, err
	}

	if res, ok := try(StepString, func() ([]types.Property, error) {
		return r.store.FindPropertiesByOwnerKey(ctx, owner.String())
	}); ok {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return none, err
	}

	// A structured input was already tried as-is in step 1.
	if id, ok := owner.Reparse(); ok && !structured {
		if res, ok := try(StepReparsed, func() ([]types.Property, error) {
			return r.store.FindPropertiesByOwner(ctx, id)
		}); ok {
			return res, nil
		}
		if err := ctx.Err(); err != nil {
			return none, err
		}
	}

	if res, ok := try(StepScan, func() ([]types.Property, error) {
		all, err := r.store.ListProperties(ctx)
		if err != nil {
			return nil, err
		}
		return filterOwned(all, owner), nil
	}); ok {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return none, err
	}

	if len(failures) == attempted {
		err := errors.Join(failures...)
		if apperr.IsUnavailable(err) {
			return none, fmt.Errorf("resolving owner %s: %w", owner, err)
		}
		return none, apperr.New(apperr.Unavailable, "ownership.Resolve", err)
	}
	log.Info("owner has no properties", zap.String("kind", string(apperr.MissingOwner)))
	return none, nil
}

func filterOwned(all []types.Property, owner types.Ref) []types.Property {
	var out []types.Property
	for _, p := range all {
		for _, ref := range p.OwnerRefs() {
			if ref.Matches(owner) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

package revenue

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/matthewbaird/portfolio/internal/types"
)

// PaymentFinder is the slice of the repository CollectPayments needs.
type PaymentFinder interface {
	FindPaymentsByLease(ctx context.Context, leaseID string, status types.PaymentStatus) ([]types.Payment, error)
}

// DefaultPaymentConcurrency bounds in-flight payment queries when the
// caller passes a non-positive limit.
const DefaultPaymentConcurrency = 8

// CollectPayments fetches completed payments for each lease, running up to
// limit queries at once. Results are concatenated in lease order regardless
// of completion order. The first failing query cancels the rest and its
// error is returned.
func CollectPayments(ctx context.Context, finder PaymentFinder, leases []types.Lease, limit int) ([]types.Payment, error) {
	if limit <= 0 {
		limit = DefaultPaymentConcurrency
	}
	perLease := make([][]types.Payment, len(leases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, l := range leases {
		if l.ID == "" {
			continue
		}
		g.Go(func() error {
			payments, err := finder.FindPaymentsByLease(gctx, l.ID, types.PaymentCompleted)
			if err != nil {
				return fmt.Errorf("payments for lease %s: %w", l.ID, err)
			}
			perLease[i] = payments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []types.Payment
	for _, ps := range perLease {
		out = append(out, ps...)
	}
	return out, nil
}

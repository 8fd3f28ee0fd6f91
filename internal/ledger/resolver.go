package ledger

import (
	"context"
	"fmt"

	"kakeibo/internal/core"
)

// Resolver determines which of a user's recurring charges are active on a
// given calendar date. It is a pure read over stored state: no side
// effects, recomputed on every call.
type Resolver struct {
	charges ChargeStore
}

func NewResolver(charges ChargeStore) *Resolver {
	return &Resolver{charges: charges}
}

// Resolve returns every charge belonging to ownerID that fires on d.
// An unknown or unauthenticated owner yields the empty set, not an error.
func (r *Resolver) Resolve(ctx context.Context, ownerID int64, d core.Date) ([]core.RecurringCharge, error) {
	if ownerID <= 0 {
		return nil, nil
	}

	candidates, err := r.charges.ListChargesOverlapping(ctx, ownerID, d, d)
	if err != nil {
		return nil, fmt.Errorf("list charges for %s: %w", d, err)
	}

	var active []core.RecurringCharge
	for _, c := range candidates {
		if c.ActiveOn(d) {
			active = append(active, c)
		}
	}
	return active, nil
}

// Candidates is the bulk form: all of the owner's charges whose validity
// interval intersects [start, end], fetched in one retrieval. Callers
// still apply ActiveOn per day to place each charge within the range.
func (r *Resolver) Candidates(ctx context.Context, ownerID int64, start, end core.Date) ([]core.RecurringCharge, error) {
	if ownerID <= 0 {
		return nil, nil
	}

	candidates, err := r.charges.ListChargesOverlapping(ctx, ownerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list charges in [%s, %s]: %w", start, end, err)
	}
	return candidates, nil
}

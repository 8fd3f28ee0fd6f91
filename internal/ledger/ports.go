package ledger

import (
	"context"

	"kakeibo/internal/core"
)

// Ports for the record store. Every query is scoped to an owning user;
// implementations must never return another user's rows.
type (
	EntryStore interface {
		// ListEntriesInRange returns the owner's one-off entries dated
		// within [start, end], inclusive on both ends.
		ListEntriesInRange(ctx context.Context, ownerID int64, start, end core.Date) ([]core.LedgerEntry, error)

		// ListEntriesOn returns the owner's entries for a single date,
		// newest first.
		ListEntriesOn(ctx context.Context, ownerID int64, d core.Date) ([]core.LedgerEntry, error)
	}

	ChargeStore interface {
		// ListChargesOverlapping returns the owner's recurring charges
		// whose validity interval intersects [start, end] in a single
		// retrieval. Day-of-month placement is applied by the caller.
		ListChargesOverlapping(ctx context.Context, ownerID int64, start, end core.Date) ([]core.RecurringCharge, error)
	}
)

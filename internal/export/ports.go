package export

import (
	"context"

	"kakeibo/internal/core"
)

// BackupWriter mirrors ledger entries to an external, append-only sheet.
// The sheet is a backup, not a source of truth: deletions are recorded as
// marker rows, never as in-place removals.
type BackupWriter interface {
	AppendEntry(ctx context.Context, e core.LedgerEntry) (rowRef string, err error)
	AppendDeletion(ctx context.Context, entryID int64) (rowRef string, err error)
}

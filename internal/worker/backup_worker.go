package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/export"
	"kakeibo/internal/storage"
)

// BackupStore is the storage surface the worker needs: unscoped entry
// reads plus the backup bookkeeping columns.
type BackupStore interface {
	GetEntry(ctx context.Context, id int64) (core.LedgerEntry, error)
	ListPendingBackup(ctx context.Context, limit int) ([]storage.PendingBackupEntry, error)
	MarkBackedUp(ctx context.Context, id int64) error
	MarkBackupError(ctx context.Context, id int64) error
}

// BackupWorker mirrors ledger entries to the external backup sheet. It
// is driven by AMQP entry events, with a periodic sweep over pending
// rows as a safety net for lost messages.
type BackupWorker struct {
	store     BackupStore
	writer    export.BackupWriter
	batchSize int
}

func NewBackupWorker(store BackupStore, writer export.BackupWriter, batchSize int) *BackupWorker {
	return &BackupWorker{
		store:     store,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleEntryEvent processes a single entry event from the queue.
func (w *BackupWorker) HandleEntryEvent(ctx context.Context, msg *amqp.EntryEventMessage) error {
	switch msg.Action {
	case amqp.ActionCreated:
		return w.backupEntry(ctx, msg.EntryID)
	case amqp.ActionDeleted:
		return w.recordDeletion(ctx, msg.EntryID)
	default:
		return fmt.Errorf("unknown action %q", msg.Action)
	}
}

func (w *BackupWorker) backupEntry(ctx context.Context, id int64) error {
	entry, err := w.store.GetEntry(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted before the event was consumed; the deletion event
		// will record it.
		slog.WarnContext(ctx, "Entry vanished before backup", "entry_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get entry from storage: %w", err)
	}

	rowRef, err := w.writer.AppendEntry(ctx, entry)
	if err != nil {
		if markErr := w.store.MarkBackupError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark backup error", "entry_id", id, "error", markErr)
		}
		return fmt.Errorf("append entry to backup sheet: %w", err)
	}

	if err := w.store.MarkBackedUp(ctx, id); err != nil {
		return fmt.Errorf("mark entry backed up: %w", err)
	}

	slog.InfoContext(ctx, "Entry backed up",
		"entry_id", id,
		"row_ref", rowRef)
	return nil
}

func (w *BackupWorker) recordDeletion(ctx context.Context, id int64) error {
	rowRef, err := w.writer.AppendDeletion(ctx, id)
	if err != nil {
		return fmt.Errorf("append deletion marker: %w", err)
	}

	slog.InfoContext(ctx, "Entry deletion recorded in backup",
		"entry_id", id,
		"row_ref", rowRef)
	return nil
}

// ProcessPending sweeps entries still marked pending and mirrors them.
// This covers messages lost between the web process and the broker.
func (w *BackupWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListPendingBackup(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending backup entries: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending backup entries", "count", len(pending))

	for _, p := range pending {
		if err := w.backupEntry(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to back up pending entry",
				"entry_id", p.ID, "error", err)
		}
	}
	return nil
}

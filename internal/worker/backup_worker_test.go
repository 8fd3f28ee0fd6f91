package worker

import (
	"context"
	"errors"
	"testing"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	exportmem "kakeibo/internal/export/memory"
	"kakeibo/internal/storage"
)

type fakeBackupStore struct {
	entries  map[int64]core.LedgerEntry
	status   map[int64]string
	pending  []storage.PendingBackupEntry
	failMark bool
}

func newFakeBackupStore() *fakeBackupStore {
	return &fakeBackupStore{
		entries: make(map[int64]core.LedgerEntry),
		status:  make(map[int64]string),
	}
}

func (s *fakeBackupStore) GetEntry(_ context.Context, id int64) (core.LedgerEntry, error) {
	e, ok := s.entries[id]
	if !ok {
		return core.LedgerEntry{}, storage.ErrNotFound
	}
	return e, nil
}

func (s *fakeBackupStore) ListPendingBackup(_ context.Context, limit int) ([]storage.PendingBackupEntry, error) {
	if limit > len(s.pending) {
		limit = len(s.pending)
	}
	return s.pending[:limit], nil
}

func (s *fakeBackupStore) MarkBackedUp(_ context.Context, id int64) error {
	if s.failMark {
		return errors.New("mark failed")
	}
	s.status[id] = "done"
	return nil
}

func (s *fakeBackupStore) MarkBackupError(_ context.Context, id int64) error {
	s.status[id] = "error"
	return nil
}

type failingWriter struct{}

func (failingWriter) AppendEntry(context.Context, core.LedgerEntry) (string, error) {
	return "", errors.New("sheet unavailable")
}

func (failingWriter) AppendDeletion(context.Context, int64) (string, error) {
	return "", errors.New("sheet unavailable")
}

func TestBackupWorker_HandleEntryEvent_Created(t *testing.T) {
	store := newFakeBackupStore()
	store.entries[7] = core.LedgerEntry{
		ID:      7,
		OwnerID: 1,
		Date:    core.NewDate(2024, 3, 12),
		Amount:  core.Money{Cents: 2500},
		Kind:    core.Expense,
		Title:   "Dinner",
	}
	sheet := exportmem.New()
	w := NewBackupWorker(store, sheet, 10)

	msg := amqp.NewEntryEventMessage(7, amqp.ActionCreated)
	if err := w.HandleEntryEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleEntryEvent() error: %v", err)
	}

	rows := sheet.Rows()
	if len(rows) != 1 || rows[0].Entry.ID != 7 {
		t.Fatalf("sheet rows = %+v, want one row for entry 7", rows)
	}
	if store.status[7] != "done" {
		t.Errorf("entry status = %q, want done", store.status[7])
	}
}

func TestBackupWorker_HandleEntryEvent_Deleted(t *testing.T) {
	store := newFakeBackupStore()
	sheet := exportmem.New()
	w := NewBackupWorker(store, sheet, 10)

	msg := amqp.NewEntryEventMessage(9, amqp.ActionDeleted)
	if err := w.HandleEntryEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleEntryEvent() error: %v", err)
	}

	rows := sheet.Rows()
	if len(rows) != 1 || rows[0].DeletedID != 9 {
		t.Fatalf("sheet rows = %+v, want one deletion marker for entry 9", rows)
	}
}

func TestBackupWorker_HandleEntryEvent_MissingEntry(t *testing.T) {
	store := newFakeBackupStore()
	sheet := exportmem.New()
	w := NewBackupWorker(store, sheet, 10)

	// Entry already gone; the event is dropped without error so the
	// delivery gets acked instead of requeued forever.
	msg := amqp.NewEntryEventMessage(404, amqp.ActionCreated)
	if err := w.HandleEntryEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleEntryEvent() for missing entry should not error: %v", err)
	}
	if len(sheet.Rows()) != 0 {
		t.Error("missing entry must not produce a sheet row")
	}
}

func TestBackupWorker_HandleEntryEvent_WriterFailure(t *testing.T) {
	store := newFakeBackupStore()
	store.entries[7] = core.LedgerEntry{ID: 7, Date: core.NewDate(2024, 3, 12), Amount: core.Money{Cents: 100}, Kind: core.Expense, Title: "x"}
	w := NewBackupWorker(store, failingWriter{}, 10)

	msg := amqp.NewEntryEventMessage(7, amqp.ActionCreated)
	if err := w.HandleEntryEvent(context.Background(), msg); err == nil {
		t.Fatal("HandleEntryEvent() should propagate writer failure for requeue")
	}
	if store.status[7] != "error" {
		t.Errorf("entry status = %q, want error", store.status[7])
	}
}

func TestBackupWorker_ProcessPending(t *testing.T) {
	store := newFakeBackupStore()
	for i := int64(1); i <= 3; i++ {
		store.entries[i] = core.LedgerEntry{
			ID:     i,
			Date:   core.NewDate(2024, 3, int(i)),
			Amount: core.Money{Cents: 100 * i},
			Kind:   core.Expense,
			Title:  "entry",
		}
		store.pending = append(store.pending, storage.PendingBackupEntry{ID: i})
	}
	sheet := exportmem.New()
	w := NewBackupWorker(store, sheet, 2)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending() error: %v", err)
	}

	// Batch size caps a single sweep.
	if got := len(sheet.Rows()); got != 2 {
		t.Errorf("backed up %d entries in one sweep, want 2", got)
	}
	if store.status[1] != "done" || store.status[2] != "done" {
		t.Error("swept entries should be marked done")
	}
	if store.status[3] != "" {
		t.Error("entry beyond batch size should stay pending")
	}
}

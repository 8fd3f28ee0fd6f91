package memory

import (
	"context"
	"testing"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

func TestStore_ListEntriesOn_NewestFirst(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	day := core.NewDate(2024, 3, 5)

	var ids []int64
	for _, title := range []string{"First", "Second", "Third"} {
		e, err := store.CreateEntry(ctx, core.LedgerEntry{
			OwnerID: 1,
			Date:    day,
			Amount:  core.Money{Cents: 100},
			Kind:    core.Expense,
			Title:   title,
		})
		if err != nil {
			t.Fatalf("CreateEntry: %v", err)
		}
		ids = append(ids, e.ID)
	}

	got, err := store.ListEntriesOn(ctx, 1, day)
	if err != nil {
		t.Fatalf("ListEntriesOn: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListEntriesOn returned %d entries, want 3", len(got))
	}
	for i, want := range []int64{ids[2], ids[1], ids[0]} {
		if got[i].ID != want {
			t.Errorf("entry %d has id %d, want %d (newest first)", i, got[i].ID, want)
		}
	}
}

func TestStore_DeleteEntry_OwnerScoped(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	e, err := store.CreateEntry(ctx, core.LedgerEntry{
		OwnerID: 1,
		Date:    core.NewDate(2024, 3, 5),
		Amount:  core.Money{Cents: 100},
		Kind:    core.Expense,
		Title:   "Mine",
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	if err := store.DeleteEntry(ctx, 2, e.ID); err != storage.ErrNotFound {
		t.Errorf("cross-owner delete = %v, want ErrNotFound", err)
	}
	if err := store.DeleteEntry(ctx, 1, e.ID); err != nil {
		t.Errorf("owner delete = %v, want nil", err)
	}
}

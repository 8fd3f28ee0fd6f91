// Package memory holds an in-memory record store used by tests and by
// local development without a database file.
package memory

import (
	"context"
	"sort"
	"sync"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

type Store struct {
	mu      sync.RWMutex
	nextID  int64
	entries map[int64]core.LedgerEntry
	charges map[int64]core.RecurringCharge
	users   map[string]core.User
}

func NewStore() *Store {
	return &Store{
		entries: make(map[int64]core.LedgerEntry),
		charges: make(map[int64]core.RecurringCharge),
		users:   make(map[string]core.User),
	}
}

func (s *Store) Close() error { return nil }

// AddUser registers a user keyed by token.
func (s *Store) AddUser(u core.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Token] = u
}

func (s *Store) GetUserByToken(_ context.Context, token string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[token]
	if !ok {
		return core.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) CreateEntry(_ context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	s.entries[e.ID] = e
	return e, nil
}

func (s *Store) DeleteEntry(_ context.Context, ownerID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || e.OwnerID != ownerID {
		return storage.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *Store) ListEntriesInRange(_ context.Context, ownerID int64, start, end core.Date) ([]core.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.LedgerEntry
	for _, e := range s.entries {
		if e.OwnerID != ownerID {
			continue
		}
		if e.Date.Before(start) || e.Date.After(end) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListEntriesOn returns the day's entries newest first, matching the
// SQLite repository's ordering.
func (s *Store) ListEntriesOn(_ context.Context, ownerID int64, d core.Date) ([]core.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.LedgerEntry
	for _, e := range s.entries {
		if e.OwnerID == ownerID && e.Date.Equal(d) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) CreateCharge(_ context.Context, c core.RecurringCharge) (core.RecurringCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	s.charges[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCharge(_ context.Context, ownerID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.charges[id]
	if !ok || c.OwnerID != ownerID {
		return storage.ErrNotFound
	}
	delete(s.charges, id)
	return nil
}

func (s *Store) ListCharges(_ context.Context, ownerID int64) ([]core.RecurringCharge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.RecurringCharge
	for _, c := range s.charges {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfMonth != out[j].DayOfMonth {
			return out[i].DayOfMonth < out[j].DayOfMonth
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListChargesOverlapping(_ context.Context, ownerID int64, start, end core.Date) ([]core.RecurringCharge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.RecurringCharge
	for _, c := range s.charges {
		if c.OwnerID != ownerID {
			continue
		}
		if !c.Overlaps(start, end) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

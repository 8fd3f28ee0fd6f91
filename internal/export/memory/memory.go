// Package memory holds an in-memory backup sheet used by worker tests
// and local development without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"kakeibo/internal/core"
)

type Row struct {
	Entry     core.LedgerEntry
	DeletedID int64
}

type Sheet struct {
	mu   sync.Mutex
	rows []Row
}

func New() *Sheet {
	return &Sheet{}
}

func (s *Sheet) AppendEntry(_ context.Context, e core.LedgerEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, Row{Entry: e})
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Sheet) AppendDeletion(_ context.Context, entryID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, Row{DeletedID: entryID})
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Sheet) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Row(nil), s.rows...)
}

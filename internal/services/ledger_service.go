package services

import (
	"context"
	"fmt"
	"io"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	applog "kakeibo/internal/log"
)

type (
	// RecordStore is the full persistence surface the service needs:
	// the read ports used by aggregation plus owner-scoped writes.
	RecordStore interface {
		ledger.EntryStore
		ledger.ChargeStore

		CreateEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error)
		DeleteEntry(ctx context.Context, ownerID, id int64) error
		CreateCharge(ctx context.Context, c core.RecurringCharge) (core.RecurringCharge, error)
		DeleteCharge(ctx context.Context, ownerID, id int64) error
		ListCharges(ctx context.Context, ownerID int64) ([]core.RecurringCharge, error)
		GetUserByToken(ctx context.Context, token string) (core.User, error)
	}

	// EntryEventPublisher mirrors entry mutations onto the backup queue.
	EntryEventPublisher interface {
		PublishEntryEvent(ctx context.Context, entryID int64, action string) error
	}
)

// LedgerService orchestrates ledger mutations across storage and AMQP.
// Writes land in storage first; a failed event publish is logged and
// dropped rather than failing the request, since the worker also sweeps
// pending rows.
type LedgerService struct {
	store     RecordStore
	publisher EntryEventPublisher
	log       *applog.StructuredLogger
}

func NewLedgerService(store RecordStore, publisher EntryEventPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
		log:       applog.NewStructuredLogger(applog.Default().WithComponent(applog.ComponentLedger)),
	}
}

func (s *LedgerService) CreateEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}

	created, err := s.store.CreateEntry(ctx, e)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("save entry: %w", err)
	}

	s.log.LogEntryCreated(ctx, created.OwnerID, created.Date.String(), string(created.Kind), created.Title, created.Amount.Cents, created.ID)
	s.publishEvent(ctx, created.ID, amqp.ActionCreated)
	return created, nil
}

func (s *LedgerService) DeleteEntry(ctx context.Context, ownerID, id int64) error {
	if err := s.store.DeleteEntry(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	s.log.LogEntryDeleted(ctx, ownerID, id)
	s.publishEvent(ctx, id, amqp.ActionDeleted)
	return nil
}

func (s *LedgerService) CreateCharge(ctx context.Context, c core.RecurringCharge) (core.RecurringCharge, error) {
	if err := c.Validate(); err != nil {
		return core.RecurringCharge{}, err
	}

	created, err := s.store.CreateCharge(ctx, c)
	if err != nil {
		return core.RecurringCharge{}, fmt.Errorf("save recurring charge: %w", err)
	}

	s.log.LogChargeCreated(ctx, created.OwnerID, created.ID, created.DayOfMonth, created.Title)
	return created, nil
}

func (s *LedgerService) DeleteCharge(ctx context.Context, ownerID, id int64) error {
	if err := s.store.DeleteCharge(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete recurring charge: %w", err)
	}
	return nil
}

func (s *LedgerService) ListCharges(ctx context.Context, ownerID int64) ([]core.RecurringCharge, error) {
	if ownerID <= 0 {
		return nil, nil
	}
	charges, err := s.store.ListCharges(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list recurring charges: %w", err)
	}
	return charges, nil
}

func (s *LedgerService) publishEvent(ctx context.Context, entryID int64, action string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEntryEvent(ctx, entryID, action); err != nil {
		s.log.LogError(ctx, "Failed to publish entry event", err, action,
			applog.NewFields().With(applog.FieldEntryID, entryID))
	}
}

// Close closes the storage and publisher if they support closing.
func (s *LedgerService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}

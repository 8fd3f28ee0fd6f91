package log

import (
	"context"
	"log/slog"
)

// Default returns a Logger over the process-wide slog default.
func Default() *Logger {
	return &Logger{
		Logger:    slog.Default(),
		component: ComponentApp,
	}
}

// StructuredLogger wraps Logger with domain-specific log helpers so
// call sites emit consistent field sets.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogEntryCreated records a successful ledger entry write.
func (sl *StructuredLogger) LogEntryCreated(ctx context.Context, ownerID int64, date, kind, title string, amountCents, entryID int64) {
	fields := NewFields().
		WithEntry(ownerID, date, kind, title, amountCents).
		WithOperation(OpCreate).
		ToSlice()
	fields = append(fields, FieldEntryID, entryID)

	sl.logger.InfoContext(ctx, "Entry created", fields...)
}

// LogEntryDeleted records a ledger entry removal.
func (sl *StructuredLogger) LogEntryDeleted(ctx context.Context, ownerID, entryID int64) {
	sl.logger.InfoContext(ctx, "Entry deleted",
		FieldOwnerID, ownerID,
		FieldEntryID, entryID,
		FieldOperation, OpDelete)
}

// LogChargeCreated records a new recurring charge rule.
func (sl *StructuredLogger) LogChargeCreated(ctx context.Context, ownerID, chargeID int64, dayOfMonth int, title string) {
	sl.logger.InfoContext(ctx, "Recurring charge created",
		FieldOwnerID, ownerID,
		FieldChargeID, chargeID,
		"day_of_month", dayOfMonth,
		FieldEntryTitle, title,
		FieldOperation, OpCreate)
}

// LogError records a failure with its component and operation.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	all := fields.WithError(err).WithOperation(operation)
	sl.logger.ErrorContext(ctx, msg, all.ToSlice()...)
}

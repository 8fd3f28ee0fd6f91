package core

import (
	"errors"
	"strings"
)

const (
	Expense Kind = "expense"
	Income  Kind = "income"
)

type (
	// Kind distinguishes the two entry directions.
	Kind string

	// Money is an amount in minor currency units. Totals stay in integer
	// arithmetic end to end; no floating point is involved anywhere.
	Money struct {
		Cents int64
	}

	// LedgerEntry is a single dated income or expense record. Entries are
	// immutable once created; the only mutation is deletion by id.
	LedgerEntry struct {
		ID      int64
		OwnerID int64
		Date    Date
		Amount  Money
		Kind    Kind
		Title   string
	}

	// RecurringCharge is a rule producing an implicit expense on a fixed
	// day of every month while the rule is active. EndDate is optional;
	// a zero EndDate means the rule never expires.
	RecurringCharge struct {
		ID         int64
		OwnerID    int64
		DayOfMonth int // 1-31
		Amount     Money
		Title      string
		StartDate  Date
		EndDate    Date
	}
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidKind       = errors.New("invalid kind")
	ErrInvalidDayOfMonth = errors.New("invalid day of month")
	ErrInvalidDateRange  = errors.New("end date before start date")
	ErrEmptyTitle        = errors.New("empty title")
	ErrTitleTooLong      = errors.New("title too long (max 200 characters)")
)

// Valid reports whether k is one of the two recognized kinds.
func (k Kind) Valid() bool {
	return k == Expense || k == Income
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Signed returns the entry amount with its direction applied:
// negative for expenses, positive for income.
func (e LedgerEntry) Signed() int64 {
	if e.Kind == Expense {
		return -e.Amount.Cents
	}
	return e.Amount.Cents
}

func (e LedgerEntry) Validate() error {
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return ErrTitleTooLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

// ActiveOn reports whether the charge fires on the given calendar date:
// the day of month matches and the date falls inside [StartDate, EndDate].
func (rc RecurringCharge) ActiveOn(d Date) bool {
	if d.Day() != rc.DayOfMonth {
		return false
	}
	if d.Before(rc.StartDate) {
		return false
	}
	if !rc.EndDate.IsEmpty() && d.After(rc.EndDate) {
		return false
	}
	return true
}

// Overlaps reports whether the charge's validity interval intersects
// [start, end]. This is the bulk-retrieval filter; ActiveOn still has to
// be checked per day to place the charge within the range.
func (rc RecurringCharge) Overlaps(start, end Date) bool {
	if rc.StartDate.After(end) {
		return false
	}
	if !rc.EndDate.IsEmpty() && rc.EndDate.Before(start) {
		return false
	}
	return true
}

func (rc RecurringCharge) Validate() error {
	if rc.DayOfMonth < 1 || rc.DayOfMonth > 31 {
		return ErrInvalidDayOfMonth
	}
	if len(strings.TrimSpace(rc.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(rc.Title) > 200 {
		return ErrTitleTooLong
	}
	if err := rc.Amount.Validate(); err != nil {
		return err
	}
	if rc.StartDate.IsZero() {
		return ErrInvalidDate
	}
	if !rc.EndDate.IsEmpty() && rc.EndDate.Before(rc.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"kakeibo/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist or belongs to a
// different owner. Callers cannot distinguish the two cases.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetUserByToken resolves a bearer token to its account.
func (r *SQLiteRepository) GetUserByToken(ctx context.Context, token string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, token FROM users WHERE token = ?`, token).
		Scan(&u.ID, &u.Username, &u.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by token: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (owner_id, entry_date, amount_cents, kind, title, backup_status)
		 VALUES (?, ?, ?, ?, ?, 'pending')`,
		e.OwnerID, e.Date.String(), e.Amount.Cents, string(e.Kind), e.Title)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("create entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("create entry id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Entry saved",
		"id", e.ID,
		"owner_id", e.OwnerID,
		"date", e.Date.String(),
		"amount_cents", e.Amount.Cents,
		"kind", e.Kind)
	return e, nil
}

// DeleteEntry removes an entry owned by ownerID. A missing row and a row
// owned by someone else both come back as ErrNotFound.
func (r *SQLiteRepository) DeleteEntry(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM entries WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListEntriesInRange(ctx context.Context, ownerID int64, start, end core.Date) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, entry_date, amount_cents, kind, title
		 FROM entries
		 WHERE owner_id = ? AND entry_date >= ? AND entry_date <= ?
		 ORDER BY entry_date, id`,
		ownerID, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("list entries in range: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *SQLiteRepository) ListEntriesOn(ctx context.Context, ownerID int64, d core.Date) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, entry_date, amount_cents, kind, title
		 FROM entries
		 WHERE owner_id = ? AND entry_date = ?
		 ORDER BY id DESC`,
		ownerID, d.String())
	if err != nil {
		return nil, fmt.Errorf("list entries on %s: %w", d, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]core.LedgerEntry, error) {
	var entries []core.LedgerEntry
	for rows.Next() {
		var (
			e    core.LedgerEntry
			date string
			kind string
		)
		if err := rows.Scan(&e.ID, &e.OwnerID, &date, &e.Amount.Cents, &kind, &e.Title); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("entry %d date %q: %w", e.ID, date, err)
		}
		e.Date = d
		e.Kind = core.Kind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func (r *SQLiteRepository) CreateCharge(ctx context.Context, c core.RecurringCharge) (core.RecurringCharge, error) {
	var endDate any
	if !c.EndDate.IsEmpty() {
		endDate = c.EndDate.String()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_charges (owner_id, day_of_month, amount_cents, title, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.OwnerID, c.DayOfMonth, c.Amount.Cents, c.Title, c.StartDate.String(), endDate)
	if err != nil {
		return core.RecurringCharge{}, fmt.Errorf("create recurring charge: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.RecurringCharge{}, fmt.Errorf("create recurring charge id: %w", err)
	}
	c.ID = id

	slog.InfoContext(ctx, "Recurring charge saved",
		"id", c.ID,
		"owner_id", c.OwnerID,
		"day_of_month", c.DayOfMonth,
		"amount_cents", c.Amount.Cents)
	return c, nil
}

func (r *SQLiteRepository) DeleteCharge(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_charges WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete recurring charge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recurring charge rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListCharges(ctx context.Context, ownerID int64) ([]core.RecurringCharge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, day_of_month, amount_cents, title, start_date, end_date
		 FROM recurring_charges
		 WHERE owner_id = ?
		 ORDER BY day_of_month, id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list recurring charges: %w", err)
	}
	defer rows.Close()
	return scanCharges(rows)
}

// ListChargesOverlapping returns the owner's charges whose validity
// interval intersects [start, end]. Dates are stored as ISO text, so the
// interval comparison works lexicographically.
func (r *SQLiteRepository) ListChargesOverlapping(ctx context.Context, ownerID int64, start, end core.Date) ([]core.RecurringCharge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, day_of_month, amount_cents, title, start_date, end_date
		 FROM recurring_charges
		 WHERE owner_id = ?
		   AND start_date <= ?
		   AND (end_date IS NULL OR end_date >= ?)
		 ORDER BY id`,
		ownerID, end.String(), start.String())
	if err != nil {
		return nil, fmt.Errorf("list recurring charges overlapping [%s, %s]: %w", start, end, err)
	}
	defer rows.Close()
	return scanCharges(rows)
}

func scanCharges(rows *sql.Rows) ([]core.RecurringCharge, error) {
	var charges []core.RecurringCharge
	for rows.Next() {
		var (
			c       core.RecurringCharge
			start   string
			endDate sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.DayOfMonth, &c.Amount.Cents, &c.Title, &start, &endDate); err != nil {
			return nil, fmt.Errorf("scan recurring charge: %w", err)
		}
		d, err := core.ParseDate(start)
		if err != nil {
			return nil, fmt.Errorf("charge %d start date %q: %w", c.ID, start, err)
		}
		c.StartDate = d
		if endDate.Valid {
			e, err := core.ParseDate(endDate.String)
			if err != nil {
				return nil, fmt.Errorf("charge %d end date %q: %w", c.ID, endDate.String, err)
			}
			c.EndDate = e
		}
		charges = append(charges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring charges: %w", err)
	}
	return charges, nil
}

// PendingBackupEntry is the minimal row shape handed to the backup queue.
type PendingBackupEntry struct {
	ID        int64
	CreatedAt time.Time
}

// ListPendingBackup returns entries not yet mirrored to the external
// backup sheet, oldest first.
func (r *SQLiteRepository) ListPendingBackup(ctx context.Context, limit int) ([]PendingBackupEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at FROM entries
		 WHERE backup_status = 'pending'
		 ORDER BY created_at
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending backup entries: %w", err)
	}
	defer rows.Close()

	var pending []PendingBackupEntry
	for rows.Next() {
		var (
			p       PendingBackupEntry
			created string
		)
		if err := rows.Scan(&p.ID, &created); err != nil {
			return nil, fmt.Errorf("scan pending backup entry: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			p.CreatedAt = t
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending backup entries: %w", err)
	}
	return pending, nil
}

// GetEntry fetches a single entry by id without owner scoping; it serves
// the backup worker, which operates across accounts.
func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (core.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, entry_date, amount_cents, kind, title
		 FROM entries WHERE id = ?`, id)
	var (
		e    core.LedgerEntry
		date string
		kind string
	)
	err := row.Scan(&e.ID, &e.OwnerID, &date, &e.Amount.Cents, &kind, &e.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, ErrNotFound
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("get entry %d: %w", id, err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("entry %d date %q: %w", id, date, err)
	}
	e.Date = d
	e.Kind = core.Kind(kind)
	return e, nil
}

// MarkBackedUp records a successful mirror of the entry.
func (r *SQLiteRepository) MarkBackedUp(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE entries SET backup_status = 'done' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark entry backed up: %w", err)
	}
	slog.InfoContext(ctx, "Entry marked as backed up", "id", id)
	return nil
}

// MarkBackupError records a failed mirror attempt so the entry is retried.
func (r *SQLiteRepository) MarkBackupError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE entries SET backup_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark entry backup error: %w", err)
	}
	slog.WarnContext(ctx, "Entry marked with backup error", "id", id)
	return nil
}

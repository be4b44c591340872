// Package review keeps a local record of payments whose verification could not
// be settled, so they can be reconciled by hand against the gateway dashboard.
package review

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrEntryNotFound = errors.New("review entry not found")

const timeLayout = "2006-01-02T15:04:05.999999999Z"

type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

type Entry struct {
	ID              int64
	PaymentID       string
	RazorpayOrderID string
	Signature       string
	OrderID         string
	Receipt         string
	Amount          domain.Money
	Reason          string
	Attempts        int
	Status          Status
	Note            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ResolvedAt      *time.Time
}

type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal database at path and migrates it.
func Open(path string) (*Journal, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open review journal %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping review journal: %w", err)
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db, now: time.Now}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores an ambiguous verification. Recording the same payment again
// bumps the attempt count, refreshes the reason and reopens the entry.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	if e.PaymentID == "" {
		return 0, fmt.Errorf("record review: payment id is required")
	}
	now := j.now().UTC().Format(timeLayout)

	const q = `
		INSERT INTO verification_reviews
			(payment_id, razorpay_order_id, signature, order_id, receipt, amount, reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(payment_id) DO UPDATE SET
			reason      = excluded.reason,
			attempts    = verification_reviews.attempts + 1,
			status      = 'pending',
			resolved_at = NULL,
			updated_at  = excluded.updated_at
		RETURNING id`

	var id int64
	err := j.db.QueryRowContext(ctx, q,
		e.PaymentID, e.RazorpayOrderID, e.Signature, e.OrderID, e.Receipt, int64(e.Amount), e.Reason, now, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("record review for payment %q: %w", e.PaymentID, err)
	}
	return id, nil
}

// Pending lists unresolved entries, oldest first.
func (j *Journal) Pending(ctx context.Context) ([]Entry, error) {
	const q = `
		SELECT id, payment_id, razorpay_order_id, signature, order_id, receipt, amount,
		       reason, attempts, status, note, created_at, updated_at
		FROM   verification_reviews
		WHERE  status = 'pending'
		ORDER  BY created_at, id`

	rows, err := j.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending reviews: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                    Entry
			amount               int64
			createdAt, updatedAt string
		)
		if err := rows.Scan(&e.ID, &e.PaymentID, &e.RazorpayOrderID, &e.Signature, &e.OrderID, &e.Receipt,
			&amount, &e.Reason, &e.Attempts, &e.Status, &e.Note, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		e.Amount = domain.Money(amount)
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Resolve closes a pending entry with an operator note.
func (j *Journal) Resolve(ctx context.Context, id int64, note string) error {
	now := j.now().UTC().Format(timeLayout)
	res, err := j.db.ExecContext(ctx, `
		UPDATE verification_reviews
		SET    status = 'resolved', note = ?, resolved_at = ?, updated_at = ?
		WHERE  id = ? AND status = 'pending'`,
		note, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to resolve review %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to resolve review %d: %w", id, err)
	}
	if n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse review time %q: %w", s, err)
	}
	return t, nil
}

// Package postgres persists payments in PostgreSQL through database/sql.
// Both the lib/pq ("postgres") and pgx ("pgx") drivers are registered.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/payment"
	"github.com/datsun80zx/payrep/internal/store"
)

//go:embed schema.sql
var schema string

// Supported driver names
const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

type Store struct {
	db *sql.DB
	q  *queries
}

// Open connects with the named driver and verifies the connection
func Open(ctx context.Context, driver, databaseURL string) (*Store, error) {
	if driver == "" {
		driver = DriverPGX
	}
	if driver != DriverPQ && driver != DriverPGX {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return New(db), nil
}

// New wraps an existing connection pool
func New(db *sql.DB) *Store {
	return &Store{db: db, q: &queries{db: db}}
}

// Migrate creates the tables if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) FindBatchByHash(ctx context.Context, hash string) (*store.Batch, error) {
	return s.q.batchByHash(ctx, hash)
}

// SaveBatch writes the batch row and every payment in one transaction
func (s *Store) SaveBatch(ctx context.Context, batch store.Batch, records []payment.Record) (*store.Batch, []payment.Record, error) {
	now := time.Now().UTC()
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.ImportedAt.IsZero() {
		batch.ImportedAt = now
	}

	saved := make([]payment.Record, len(records))
	for i, r := range records {
		r.ID = uuid.NewString()
		r.BatchID = batch.ID
		r.CreatedAt = now
		saved[i] = r
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	txq := &queries{db: tx}
	if err := txq.createBatch(ctx, batch); err != nil {
		if isUniqueViolation(err) {
			return nil, nil, store.ErrDuplicate
		}
		return nil, nil, fmt.Errorf("failed to create import batch: %w", err)
	}
	if err := txq.createPayments(ctx, saved); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &batch, saved, nil
}

func (s *Store) ListBatches(ctx context.Context, limit int) ([]store.Batch, error) {
	return s.q.listBatches(ctx, limit)
}

func (s *Store) ListPayments(ctx context.Context, f store.Filter) ([]payment.Record, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.q.listPayments(ctx, f)
}

func (s *Store) GetPayment(ctx context.Context, id string) (*payment.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, store.ErrNotFound
	}
	return s.q.getPayment(ctx, id)
}

func (s *Store) DeletePayment(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrNotFound
	}
	_, err := s.deleteWhere(ctx, `DELETE FROM payments WHERE id = $1`, id)
	return err
}

func (s *Store) DeleteRange(ctx context.Context, from, to time.Time) (int64, error) {
	if err := (store.Filter{From: &from, To: &to}).Validate(); err != nil {
		return 0, err
	}
	n, err := s.deleteWhere(ctx,
		`DELETE FROM payments WHERE payment_date >= $1 AND payment_date <= $2`,
		payment.Day(from), payment.Day(to))
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	return n, err
}

// deleteEmptyBatches removes batches left without payments, so the same file can be imported again
const deleteEmptyBatches = `
DELETE FROM import_batches b
WHERE NOT EXISTS (SELECT 1 FROM payments p WHERE p.batch_id = b.id)`

// deleteWhere runs a payment delete and drops emptied batches in one transaction.
// Deleting nothing is ErrNotFound.
func (s *Store) deleteWhere(ctx context.Context, query string, args ...any) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete payments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, store.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, deleteEmptyBatches); err != nil {
		return 0, fmt.Errorf("failed to delete empty batches: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}

// Clear removes every payment and batch
func (s *Store) Clear(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM payments`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete payments: %w", err)
	}
	n, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `DELETE FROM import_batches`); err != nil {
		return 0, fmt.Errorf("failed to delete batches: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}

func (s *Store) SetTax(ctx context.Context, id string, tax *payment.TaxAnnotation) (*payment.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, store.ErrNotFound
	}
	includes, amount, rate, note := taxColumns(tax)
	res, err := s.db.ExecContext(ctx,
		`UPDATE payments SET includes_tax = $2, tax_amount = $3, tax_rate = $4, tax_note = $5 WHERE id = $1`,
		id, includes, amount, rate, note)
	if err != nil {
		return nil, fmt.Errorf("failed to update tax: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}
	return s.q.getPayment(ctx, id)
}

func (s *Store) Stats(ctx context.Context) (*store.Stats, error) {
	st := store.NewStats()

	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM import_batches`).Scan(&st.Batches); err != nil {
		return nil, fmt.Errorf("failed to count batches: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT currency, project, to_char(payment_date, 'YYYY-MM'), count(*), sum(amount),
			min(payment_date), max(payment_date)
		FROM payments GROUP BY 1, 2, 3`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cur, project, month string
			count               int
			sum                 decimal.Decimal
			first, last         time.Time
		)
		if err := rows.Scan(&cur, &project, &month, &count, &sum, &first, &last); err != nil {
			return nil, err
		}

		st.TotalRecords += count
		cs := st.ByCurrency[payment.Currency(cur)]
		cs.Count += count
		cs.Amount = cs.Amount.Add(sum)
		st.ByCurrency[payment.Currency(cur)] = cs
		st.ByProject[payment.Project(project)] += count
		st.ByMonth[month] += count

		first, last = payment.Day(first), payment.Day(last)
		if st.FirstPayment == nil || first.Before(*st.FirstPayment) {
			st.FirstPayment = &first
		}
		if st.LastPayment == nil || last.After(*st.LastPayment) {
			st.LastPayment = &last
		}
	}
	return st, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var coded interface{ SQLState() string }
	if errors.As(err, &coded) {
		return coded.SQLState() == "23505"
	}
	return false
}

var _ store.Store = (*Store)(nil)

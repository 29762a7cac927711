package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/currency"
	"github.com/datsun80zx/payrep/internal/payment"
	"github.com/datsun80zx/payrep/internal/store"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db DBTX
}

const batchColumns = `id, filename, file_hash, imported_at, row_count, processed, failed, status, rates`

const paymentColumns = `id, batch_id, customer_name, payment_date, amount, currency, payment_method,
	location, project, account_name, amount_usd, exchange_rate, source_row, created_at,
	includes_tax, tax_amount, tax_rate, tax_note`

const insertBatch = `INSERT INTO import_batches (` + batchColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const insertPayment = `INSERT INTO payments (` + paymentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

func (q *queries) createBatch(ctx context.Context, b store.Batch) error {
	var rates []byte
	if len(b.Rates) > 0 {
		var err error
		rates, err = json.Marshal(b.Rates)
		if err != nil {
			return fmt.Errorf("failed to encode batch rates: %w", err)
		}
	}

	_, err := q.db.ExecContext(ctx, insertBatch,
		b.ID, b.Filename, b.FileHash, b.ImportedAt,
		b.RowCount, b.Processed, b.Failed, b.Status, nullBytes(rates))
	return err
}

func (q *queries) createPayments(ctx context.Context, records []payment.Record) error {
	stmt, err := q.db.PrepareContext(ctx, insertPayment)
	if err != nil {
		return fmt.Errorf("failed to prepare payment insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		includes, amount, rate, note := taxColumns(r.Tax)
		_, err := stmt.ExecContext(ctx,
			r.ID, r.BatchID, r.CustomerName, r.PaymentDate, r.Amount, string(r.Currency),
			string(r.Method), string(r.Location), string(r.Project), r.AccountName,
			r.AmountUSD, r.ExchangeRate, r.SourceRow, r.CreatedAt,
			includes, amount, rate, note)
		if err != nil {
			return fmt.Errorf("failed to insert payment (row %d): %w", r.SourceRow, err)
		}
	}
	return nil
}

func (q *queries) batchByHash(ctx context.Context, hash string) (*store.Batch, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM import_batches WHERE file_hash = $1`, hash)
	return scanBatch(row)
}

func (q *queries) listBatches(ctx context.Context, limit int) ([]store.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM import_batches ORDER BY imported_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (q *queries) listPayments(ctx context.Context, f store.Filter) ([]payment.Record, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.From != nil {
		add("payment_date >= $%d", payment.Day(*f.From))
	}
	if f.To != nil {
		add("payment_date <= $%d", payment.Day(*f.To))
	}
	if f.Project != "" {
		add("project = $%d", string(f.Project))
	}
	if f.BatchID != "" {
		add("batch_id = $%d", f.BatchID)
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY payment_date, created_at, source_row`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payment.Record
	for rows.Next() {
		r, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (q *queries) getPayment(ctx context.Context, id string) (*payment.Record, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(s scanner) (*store.Batch, error) {
	var (
		b     store.Batch
		rates []byte
	)
	err := s.Scan(&b.ID, &b.Filename, &b.FileHash, &b.ImportedAt,
		&b.RowCount, &b.Processed, &b.Failed, &b.Status, &rates)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(rates) > 0 {
		b.Rates = make(currency.RateTable)
		if err := json.Unmarshal(rates, &b.Rates); err != nil {
			return nil, fmt.Errorf("failed to decode rates of batch %s: %w", b.ID, err)
		}
	}
	return &b, nil
}

func scanPayment(s scanner) (*payment.Record, error) {
	var (
		r                              payment.Record
		cur, method, location, project string
		includes                       sql.NullBool
		taxAmount, taxRate             decimal.NullDecimal
		note                           sql.NullString
		paymentDate                    time.Time
	)
	err := s.Scan(&r.ID, &r.BatchID, &r.CustomerName, &paymentDate, &r.Amount, &cur, &method,
		&location, &project, &r.AccountName, &r.AmountUSD, &r.ExchangeRate, &r.SourceRow,
		&r.CreatedAt, &includes, &taxAmount, &taxRate, &note)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	r.PaymentDate = payment.Day(paymentDate)
	r.Currency = payment.Currency(cur)
	r.Method = payment.Method(method)
	r.Location = payment.Location(location)
	r.Project = payment.Project(project)
	if includes.Valid {
		r.Tax = &payment.TaxAnnotation{
			IncludesTax: includes.Bool,
			Amount:      taxAmount.Decimal,
			Rate:        taxRate.Decimal,
			Note:        note.String,
		}
	}
	return &r, nil
}

func taxColumns(t *payment.TaxAnnotation) (sql.NullBool, decimal.NullDecimal, decimal.NullDecimal, sql.NullString) {
	if t == nil {
		return sql.NullBool{}, decimal.NullDecimal{}, decimal.NullDecimal{}, sql.NullString{}
	}
	return sql.NullBool{Bool: t.IncludesTax, Valid: true},
		decimal.NullDecimal{Decimal: t.Amount, Valid: true},
		decimal.NullDecimal{Decimal: t.Rate, Valid: true},
		sql.NullString{String: t.Note, Valid: t.Note != ""}
}

func nullBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

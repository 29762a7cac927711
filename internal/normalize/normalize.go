// Package normalize turns raw upload rows into canonical payment records.
// Rows fail independently; only an unusable schema fails the whole batch.
package normalize

import (
	"time"

	"github.com/datsun80zx/payrep/internal/classify"
	"github.com/datsun80zx/payrep/internal/currency"
	"github.com/datsun80zx/payrep/internal/parser"
	"github.com/datsun80zx/payrep/internal/payment"
)

// Normalizer validates rows against a schema
type Normalizer struct {
	Schema parser.Schema
	// Now anchors the payment date range check
	Now func() time.Time
	// MaxFuture and MaxAge bound payment dates relative to Now; zero disables the bound
	MaxFuture time.Duration
	MaxAge    time.Duration
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		Schema:    parser.DefaultSchema,
		Now:       time.Now,
		MaxFuture: 24 * time.Hour,
		MaxAge:    10 * 365 * 24 * time.Hour,
	}
}

// Normalize maps rows keyed by header text. Row numbers are 1-based positions in rows.
func (n *Normalizer) Normalize(rows []parser.RawRow) ([]payment.Record, []RowError, error) {
	return n.NormalizeTable(parser.FromRows(rows))
}

// NormalizeTable resolves the schema once, then converts every row
func (n *Normalizer) NormalizeTable(table *parser.Table) ([]payment.Record, []RowError, error) {
	cols, err := n.Schema.Resolve(table.Headers)
	if err != nil {
		return nil, nil, err
	}

	records := make([]payment.Record, 0, len(table.Rows))
	var rowErrs []RowError

	for i, row := range table.Rows {
		numeric := func(f parser.Field) bool { return table.IsNumeric(i, cols[f]) }
		rec, rowErr := n.normalizeRow(row, cols, numeric, table.Line(i))
		if rowErr != nil {
			rowErrs = append(rowErrs, *rowErr)
			continue
		}
		records = append(records, rec)
	}

	return records, rowErrs, nil
}

// numeric reports whether the cell of a field held a number; such cells skip text format detection
func (n *Normalizer) normalizeRow(row parser.RawRow, cols parser.Columns, numeric func(parser.Field) bool, rowNum int) (payment.Record, *RowError) {
	fail := func(field parser.Field, value, reason string) (payment.Record, *RowError) {
		return payment.Record{}, &RowError{Row: rowNum, Field: field, Value: value, Reason: reason}
	}

	rec := payment.Record{SourceRow: rowNum}

	rec.CustomerName = cols.Get(row, parser.FieldCustomer)
	if rec.CustomerName == "" {
		return fail(parser.FieldCustomer, "", ReasonEmptyCustomer)
	}

	rawDate := cols.Get(row, parser.FieldDate)
	parseDate := parser.ParseDate
	if numeric(parser.FieldDate) {
		parseDate = parser.ParseSerialDate
	}
	date, err := parseDate(rawDate)
	if err != nil {
		return fail(parser.FieldDate, rawDate, ReasonInvalidDate)
	}
	if !n.inRange(date) {
		return fail(parser.FieldDate, rawDate, ReasonDateOutOfRange)
	}
	rec.PaymentDate = date

	rawAmount := cols.Get(row, parser.FieldAmount)
	if numeric(parser.FieldAmount) {
		rec.Amount = parser.ParseNumber(rawAmount)
	} else {
		rec.Amount = parser.ParseAmount(rawAmount)
	}
	if !rec.Amount.IsPositive() {
		return fail(parser.FieldAmount, rawAmount, ReasonNonPositive)
	}

	rawCurrency := cols.Get(row, parser.FieldCurrency)
	cur, ok := currency.ParseCurrency(rawCurrency)
	if !ok {
		return fail(parser.FieldCurrency, rawCurrency, ReasonBadCurrency)
	}
	rec.Currency = cur

	rawMethod := cols.Get(row, parser.FieldMethod)
	if rawMethod == "" {
		return fail(parser.FieldMethod, "", ReasonEmptyMethod)
	}
	rec.Method = classify.Method(rawMethod)

	rec.AccountName = cols.Get(row, parser.FieldAccount)
	if rec.AccountName == "" {
		return fail(parser.FieldAccount, "", ReasonEmptyAccount)
	}

	rawProject := cols.Get(row, parser.FieldProject)
	project, ok := classify.Project(rawProject)
	if !ok {
		return fail(parser.FieldProject, rawProject, ReasonUnknownProject)
	}
	rec.Project = project

	return rec, nil
}

func (n *Normalizer) inRange(date time.Time) bool {
	if n.Now == nil {
		return true
	}
	now := n.Now()
	if n.MaxFuture > 0 && date.After(now.Add(n.MaxFuture)) {
		return false
	}
	if n.MaxAge > 0 && date.Before(now.Add(-n.MaxAge)) {
		return false
	}
	return true
}

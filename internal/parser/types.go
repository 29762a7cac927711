package parser

import (
	"strings"

	"github.com/datsun80zx/payrep/internal/textfold"
)

// RawRow is one data row keyed by its original header text
type RawRow map[string]string

// ValueRow is a data row whose cells keep their decoded JSON type
type ValueRow map[string]any

// Table is a parsed upload: headers in file order plus data rows
type Table struct {
	Headers []string
	Rows    []RawRow
	// Lines holds the 1-based data row number of each entry in Rows
	Lines []int
	// Numeric marks, per entry in Rows, the headers whose cell held a number rather
	// than text. Nil when the source format carries no cell types.
	Numeric []map[string]bool
}

// Line returns the data row number reported for Rows[i]
func (t *Table) Line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 1
}

// IsNumeric reports whether the cell under header in Rows[i] was a number
func (t *Table) IsNumeric(i int, header string) bool {
	if i >= len(t.Numeric) || t.Numeric[i] == nil {
		return false
	}
	return t.Numeric[i][header]
}

// Field is a required input field of a payment row
type Field string

const (
	FieldCustomer Field = "customer name"
	FieldDate     Field = "payment date"
	FieldMethod   Field = "payment method"
	FieldAccount  Field = "account name"
	FieldAmount   Field = "amount"
	FieldCurrency Field = "currency"
	FieldProject  Field = "project"
)

// Fields lists every required field in resolution order
func Fields() []Field {
	return []Field{
		FieldCustomer,
		FieldDate,
		FieldMethod,
		FieldAccount,
		FieldAmount,
		FieldCurrency,
		FieldProject,
	}
}

// ColumnRule declares how a field is found among the headers.
// Names are tried exactly, then trimmed and case-insensitive.
// Contains tokens are the last resort.
type ColumnRule struct {
	Field    Field
	Names    []string
	Contains []string
}

// Schema is the declarative column mapping table
type Schema []ColumnRule

// DefaultSchema covers the Turkish export headers and their English equivalents
var DefaultSchema = Schema{
	{Field: FieldCustomer, Names: []string{"Müşteri Adı Soyadı", "Müşteri", "Customer Name", "Customer"}},
	{Field: FieldDate, Names: []string{"Tarih", "Payment Date", "Date"}},
	{Field: FieldMethod, Names: []string{"Tahsilat Şekli", "Payment Method", "Method"}},
	{Field: FieldAccount, Names: []string{"Hesap Adı", "Account Name", "Account"}},
	{Field: FieldAmount, Names: []string{"Ödenen Tutar", "Amount"}, Contains: []string{"ödenen tutar"}},
	{Field: FieldCurrency, Names: []string{"Ödenen Döviz", "Currency", "Döviz"}},
	{Field: FieldProject, Names: []string{"Proje Adı", "Project Name", "Project"}, Contains: []string{"proje", "project"}},
}

// Columns maps each field to the header that carries it
type Columns map[Field]string

// Get returns the trimmed cell value for field
func (c Columns) Get(row RawRow, field Field) string {
	header, ok := c[field]
	if !ok {
		return ""
	}
	return strings.TrimSpace(row[header])
}

// Resolve binds every rule to a header. An unresolved field fails the whole batch.
func (s Schema) Resolve(headers []string) (Columns, error) {
	cols := make(Columns, len(s))
	for _, rule := range s {
		header, ok := rule.match(headers)
		if !ok {
			return nil, &FileFormatError{Field: rule.Field, Headers: headers}
		}
		cols[rule.Field] = header
	}
	return cols, nil
}

// Missing lists every field no header satisfies
func (s Schema) Missing(headers []string) []Field {
	var missing []Field
	for _, rule := range s {
		if _, ok := rule.match(headers); !ok {
			missing = append(missing, rule.Field)
		}
	}
	return missing
}

func (r ColumnRule) match(headers []string) (string, bool) {
	for _, name := range r.Names {
		for _, h := range headers {
			if h == name {
				return h, true
			}
		}
	}

	for _, name := range r.Names {
		want := textfold.Fold(name)
		for _, h := range headers {
			if textfold.Fold(h) == want {
				return h, true
			}
		}
	}

	for _, h := range headers {
		if textfold.ContainsAny(h, r.Contains...) {
			return h, true
		}
	}

	return "", false
}

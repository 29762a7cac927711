// Package store defines the persistence boundary for payments and import batches.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/currency"
	"github.com/datsun80zx/payrep/internal/payment"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidRange = errors.New("invalid date range")
	ErrDuplicate    = errors.New("batch already imported")
)

// Batch statuses
const (
	BatchSuccess = "success"
	BatchPartial = "partial"
)

// Batch is one imported file
type Batch struct {
	ID         string             `json:"id"`
	Filename   string             `json:"filename"`
	FileHash   string             `json:"file_hash"`
	ImportedAt time.Time          `json:"imported_at"`
	RowCount   int                `json:"row_count"`
	Processed  int                `json:"processed"`
	Failed     int                `json:"failed"`
	Status     string             `json:"status"`
	Rates      currency.RateTable `json:"rates,omitempty"`
}

// Filter narrows a payment listing. From and To are inclusive calendar days.
type Filter struct {
	From    *time.Time
	To      *time.Time
	Project payment.Project
	BatchID string
}

// Match reports whether r passes the filter
func (f Filter) Match(r payment.Record) bool {
	d := r.Day()
	if f.From != nil && d.Before(payment.Day(*f.From)) {
		return false
	}
	if f.To != nil && d.After(payment.Day(*f.To)) {
		return false
	}
	if f.Project != "" && r.Project != f.Project {
		return false
	}
	if f.BatchID != "" && r.BatchID != f.BatchID {
		return false
	}
	return true
}

// Validate rejects inverted ranges
func (f Filter) Validate() error {
	if f.From != nil && f.To != nil && payment.Day(*f.To).Before(payment.Day(*f.From)) {
		return ErrInvalidRange
	}
	return nil
}

// CurrencyStat summarizes stored payments in one currency
type CurrencyStat struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"total_amount"`
}

// Stats is a snapshot of what the store holds
type Stats struct {
	TotalRecords int                               `json:"total_records"`
	Batches      int                               `json:"batches"`
	ByCurrency   map[payment.Currency]CurrencyStat `json:"by_currency"`
	ByProject    map[payment.Project]int           `json:"by_project"`
	ByMonth      map[string]int                    `json:"by_month"`
	FirstPayment *time.Time                        `json:"first_payment,omitempty"`
	LastPayment  *time.Time                        `json:"last_payment,omitempty"`
}

func NewStats() *Stats {
	return &Stats{
		ByCurrency: make(map[payment.Currency]CurrencyStat),
		ByProject:  make(map[payment.Project]int),
		ByMonth:    make(map[string]int),
	}
}

// Add folds one record into the stats
func (s *Stats) Add(r payment.Record) {
	s.TotalRecords++
	cs := s.ByCurrency[r.Currency]
	cs.Count++
	cs.Amount = cs.Amount.Add(r.Amount)
	s.ByCurrency[r.Currency] = cs
	s.ByProject[r.Project]++
	s.ByMonth[r.PaymentDate.Format("2006-01")]++

	d := r.Day()
	if s.FirstPayment == nil || d.Before(*s.FirstPayment) {
		s.FirstPayment = &d
	}
	if s.LastPayment == nil || d.After(*s.LastPayment) {
		last := d
		s.LastPayment = &last
	}
}

// Store is implemented by the memory and postgres backends.
// Each call sees a consistent snapshot; writes are serialized by the backend.
type Store interface {
	FindBatchByHash(ctx context.Context, hash string) (*Batch, error)
	SaveBatch(ctx context.Context, batch Batch, records []payment.Record) (*Batch, []payment.Record, error)
	ListBatches(ctx context.Context, limit int) ([]Batch, error)

	ListPayments(ctx context.Context, f Filter) ([]payment.Record, error)
	GetPayment(ctx context.Context, id string) (*payment.Record, error)
	DeletePayment(ctx context.Context, id string) error
	DeleteRange(ctx context.Context, from, to time.Time) (int64, error)
	Clear(ctx context.Context) (int64, error)
	SetTax(ctx context.Context, id string, tax *payment.TaxAnnotation) (*payment.Record, error)

	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

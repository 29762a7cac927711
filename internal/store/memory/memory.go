// Package memory is an in-process Store used by tests and single-shot CLI runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/datsun80zx/payrep/internal/payment"
	"github.com/datsun80zx/payrep/internal/store"
)

type Store struct {
	mu       sync.RWMutex
	batches  []store.Batch
	payments map[string]payment.Record
	order    []string
	now      func() time.Time
}

func New() *Store {
	return &Store{
		payments: make(map[string]payment.Record),
		now:      time.Now,
	}
}

func (s *Store) FindBatchByHash(_ context.Context, hash string) (*store.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.batches {
		if b.FileHash == hash {
			found := b
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

// SaveBatch stores the batch and its records atomically, assigning ids to both
func (s *Store) SaveBatch(_ context.Context, batch store.Batch, records []payment.Record) (*store.Batch, []payment.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.batches {
		if b.FileHash != "" && b.FileHash == batch.FileHash {
			return nil, nil, store.ErrDuplicate
		}
	}

	now := s.now().UTC()
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.ImportedAt.IsZero() {
		batch.ImportedAt = now
	}
	s.batches = append(s.batches, batch)

	saved := make([]payment.Record, len(records))
	for i, r := range records {
		r.ID = uuid.NewString()
		r.BatchID = batch.ID
		r.CreatedAt = now
		s.payments[r.ID] = r
		s.order = append(s.order, r.ID)
		saved[i] = r
	}

	return &batch, saved, nil
}

// ListBatches returns the newest batches first
func (s *Store) ListBatches(_ context.Context, limit int) ([]store.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Batch, 0, len(s.batches))
	for i := len(s.batches) - 1; i >= 0; i-- {
		out = append(out, s.batches[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ListPayments returns matching records ordered by payment date, then insertion
func (s *Store) ListPayments(_ context.Context, f store.Filter) ([]payment.Record, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]payment.Record, 0, len(s.order))
	for _, id := range s.order {
		r := s.payments[id]
		if f.Match(r) {
			out = append(out, copyRecord(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PaymentDate.Before(out[j].PaymentDate)
	})
	return out, nil
}

func (s *Store) GetPayment(_ context.Context, id string) (*payment.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.payments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	r = copyRecord(r)
	return &r, nil
}

func (s *Store) DeletePayment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payments[id]; !ok {
		return store.ErrNotFound
	}
	s.removeLocked(func(r payment.Record) bool { return r.ID == id })
	return nil
}

// DeleteRange removes payments dated within [from, to], both days inclusive
func (s *Store) DeleteRange(_ context.Context, from, to time.Time) (int64, error) {
	f := store.Filter{From: &from, To: &to}
	if err := f.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(f.Match), nil
}

func (s *Store) Clear(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.payments))
	s.payments = make(map[string]payment.Record)
	s.order = nil
	s.batches = nil
	return n, nil
}

// SetTax replaces the tax annotation; nil clears it
func (s *Store) SetTax(_ context.Context, id string, tax *payment.TaxAnnotation) (*payment.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.payments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if tax != nil {
		t := *tax
		r.Tax = &t
	} else {
		r.Tax = nil
	}
	s.payments[id] = r

	out := copyRecord(r)
	return &out, nil
}

func (s *Store) Stats(_ context.Context) (*store.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := store.NewStats()
	st.Batches = len(s.batches)
	for _, id := range s.order {
		st.Add(s.payments[id])
	}
	return st, nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) removeLocked(match func(payment.Record) bool) int64 {
	var n int64
	kept := s.order[:0]
	for _, id := range s.order {
		if match(s.payments[id]) {
			delete(s.payments, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	if n > 0 {
		s.dropEmptyBatchesLocked()
	}
	return n
}

// dropEmptyBatchesLocked forgets batches whose payments are all deleted, so the
// same file can be imported again
func (s *Store) dropEmptyBatchesLocked() {
	live := make(map[string]bool)
	for _, id := range s.order {
		live[s.payments[id].BatchID] = true
	}
	batches := s.batches[:0]
	for _, b := range s.batches {
		if live[b.ID] {
			batches = append(batches, b)
		}
	}
	s.batches = batches
}

func copyRecord(r payment.Record) payment.Record {
	if r.Tax != nil {
		t := *r.Tax
		r.Tax = &t
	}
	return r
}

var _ store.Store = (*Store)(nil)

package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/payment"
	"github.com/datsun80zx/payrep/internal/store"
)

// openTestStore connects to PAYREP_TEST_DATABASE_URL, a throwaway database
func openTestStore(t *testing.T, driver string) *Store {
	t.Helper()
	url := os.Getenv("PAYREP_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PAYREP_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, driver, url)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if _, err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	return s
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "whatever"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRoundTrip(t *testing.T) {
	for _, driver := range []string{DriverPQ, DriverPGX} {
		t.Run(driver, func(t *testing.T) {
			s := openTestStore(t, driver)
			ctx := context.Background()

			r := payment.Record{
				CustomerName: "Ali Veli",
				PaymentDate:  time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
				Amount:       decimal.RequireFromString("1000"),
				Currency:     payment.TL,
				Method:       payment.Cash,
				Location:     payment.LocationOffice,
				Project:      payment.ProjectA,
				AccountName:  "Office-3",
				AmountUSD:    decimal.RequireFromString("30.00"),
				ExchangeRate: decimal.RequireFromString("0.03"),
				SourceRow:    1,
			}

			batch, saved, err := s.SaveBatch(ctx, store.Batch{Filename: "a.csv", FileHash: "hash-" + driver, Status: store.BatchSuccess}, []payment.Record{r})
			if err != nil {
				t.Fatalf("SaveBatch() error = %v", err)
			}
			if _, _, err := s.SaveBatch(ctx, store.Batch{Filename: "a.csv", FileHash: batch.FileHash}, nil); !errors.Is(err, store.ErrDuplicate) {
				t.Errorf("duplicate SaveBatch error = %v, want ErrDuplicate", err)
			}

			got, err := s.GetPayment(ctx, saved[0].ID)
			if err != nil {
				t.Fatalf("GetPayment() error = %v", err)
			}
			if !got.AmountUSD.Equal(r.AmountUSD) || !got.PaymentDate.Equal(r.PaymentDate) {
				t.Errorf("got %+v", got)
			}

			tax := &payment.TaxAnnotation{IncludesTax: true, Amount: decimal.RequireFromString("152.54"), Rate: decimal.RequireFromString("0.18")}
			got, err = s.SetTax(ctx, got.ID, tax)
			if err != nil {
				t.Fatalf("SetTax() error = %v", err)
			}
			if got.Tax == nil || !got.Tax.Amount.Equal(tax.Amount) {
				t.Errorf("tax = %+v", got.Tax)
			}

			st, err := s.Stats(ctx)
			if err != nil {
				t.Fatalf("Stats() error = %v", err)
			}
			if st.TotalRecords != 1 || st.ByProject[payment.ProjectA] != 1 {
				t.Errorf("stats = %+v", st)
			}

			if err := s.DeletePayment(ctx, got.ID); err != nil {
				t.Fatalf("DeletePayment() error = %v", err)
			}
			if _, err := s.GetPayment(ctx, got.ID); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("GetPayment after delete error = %v", err)
			}
			if _, err := s.FindBatchByHash(ctx, batch.FileHash); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("emptied batch still found: %v", err)
			}
			if err := s.DeletePayment(ctx, got.ID); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("second DeletePayment error = %v, want ErrNotFound", err)
			}
		})
	}
}

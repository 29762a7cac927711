package metrics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/payment"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rec(t *testing.T, date time.Time, customer string, amount string, cur payment.Currency, rate string, method payment.Method, loc payment.Location, project payment.Project) payment.Record {
	t.Helper()
	r := payment.Record{
		CustomerName: customer,
		PaymentDate:  date,
		Amount:       dec(amount),
		Currency:     cur,
		Method:       method,
		Location:     loc,
		Project:      project,
		ExchangeRate: dec(rate),
	}
	r.AmountUSD = r.Amount.Mul(r.ExchangeRate).Round(2)
	if cur == payment.USD {
		r.AmountUSD = r.Amount
	}
	return r
}

package currency

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/payment"
)

// RateTable holds one reporting-currency rate per source currency.
// A rate of 0.03 for TL means 1 TL = 0.03 USD.
type RateTable map[payment.Currency]decimal.Decimal

// MissingRateError is returned when a record's currency has no rate
type MissingRateError struct {
	Currency payment.Currency
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("no exchange rate for %s", e.Currency)
}

// Convert fills AmountUSD and ExchangeRate. Converted amounts are rounded half-up
// to cents; Amount keeps its original precision.
func Convert(rec payment.Record, rates RateTable) (payment.Record, error) {
	if rec.Currency == payment.ReportingCurrency {
		rec.ExchangeRate = decimal.NewFromInt(1)
		rec.AmountUSD = rec.Amount
		return rec, nil
	}

	rate, ok := rates[rec.Currency]
	if !ok || !rate.IsPositive() {
		return rec, &MissingRateError{Currency: rec.Currency}
	}

	rec.ExchangeRate = rate
	rec.AmountUSD = Round(rec.Amount.Mul(rate))
	return rec, nil
}

// Round rounds half-up to two places. Amounts are positive, so half away from zero
// is half-up.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Validate rejects non-positive rates and unknown currencies
func (t RateTable) Validate() error {
	for cur, rate := range t {
		if !cur.Valid() {
			return fmt.Errorf("unsupported currency %q in rate table", cur)
		}
		if !rate.IsPositive() {
			return fmt.Errorf("rate for %s must be positive, got %s", cur, rate)
		}
	}
	return nil
}

// Merge returns a copy of t with entries from other taking precedence
func (t RateTable) Merge(other RateTable) RateTable {
	out := make(RateTable, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

func (t RateTable) String() string {
	parts := make([]string, 0, len(t))
	for cur, rate := range t {
		parts = append(parts, fmt.Sprintf("%s=%s", cur, rate))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

// ParseRates parses "TL=0.03 EUR=1.08" style assignments
func ParseRates(args []string) (RateTable, error) {
	table := make(RateTable, len(args))
	for _, arg := range args {
		for _, pair := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' }) {
			cur, val, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("invalid rate %q, want CUR=RATE", pair)
			}
			c, ok := ParseCurrency(cur)
			if !ok {
				return nil, fmt.Errorf("unsupported currency %q", cur)
			}
			rate, err := decimal.NewFromString(strings.TrimSpace(val))
			if err != nil {
				return nil, fmt.Errorf("invalid rate for %s: %w", c, err)
			}
			table[c] = rate
		}
	}
	return table, table.Validate()
}

// ParseCurrency accepts codes, common aliases and symbols
func ParseCurrency(s string) (payment.Currency, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TL", "TRY", "TRL", "₺", "YTL":
		return payment.TL, true
	case "USD", "$", "US$", "DOLAR", "DOLLAR":
		return payment.USD, true
	case "EUR", "€", "EURO", "AVRO":
		return payment.EUR, true
	}
	return "", false
}

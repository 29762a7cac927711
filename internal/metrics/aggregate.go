// Package metrics folds canonical payment records into per-window totals.
// Everything here is a pure function of its inputs.
package metrics

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/payment"
)

// Totals is the aggregate of all records inside one window
type Totals struct {
	Window          Window           `json:"window"`
	Count           int              `json:"count"`
	TotalUSD        decimal.Decimal  `json:"total_usd"`
	CustomerSummary Amounts          `json:"customer_summary"`
	PaymentMethods  MethodTotals     `json:"payment_methods"`
	ProjectSummary  ProjectSummary   `json:"project_summary"`
	LocationSummary LocationSummary  `json:"location_summary"`
	ProjectMethods  ProjectMethods   `json:"project_methods"`
	DailyTotals     Amounts          `json:"daily_totals"`
	Payments        []payment.Record `json:"payments"`
}

// NewTotals returns empty totals for w with every closed dimension pre-initialized
func NewTotals(w Window) *Totals {
	return &Totals{
		Window:          w,
		TotalUSD:        decimal.Zero,
		CustomerSummary: make(Amounts),
		PaymentMethods:  NewMethodTotals(),
		ProjectSummary:  NewProjectSummary(),
		LocationSummary: NewLocationSummary(),
		ProjectMethods:  NewProjectMethods(),
		DailyTotals:     make(Amounts),
		Payments:        []payment.Record{},
	}
}

// Aggregate sums every record whose payment day falls in window
func Aggregate(records []payment.Record, window Window) (*Totals, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	t := NewTotals(window)
	for _, r := range records {
		if !window.Contains(r.PaymentDate) {
			continue
		}
		if err := t.add(r); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(t.Payments, func(i, j int) bool {
		return t.Payments[i].PaymentDate.Before(t.Payments[j].PaymentDate)
	})

	return t, nil
}

func (t *Totals) add(r payment.Record) error {
	if !r.Method.Valid() {
		return fmt.Errorf("record %s: unknown payment method %q", r.ID, r.Method)
	}
	if !r.Project.Valid() {
		return fmt.Errorf("record %s: unknown project %q", r.ID, r.Project)
	}
	if !r.Location.Valid() {
		return fmt.Errorf("record %s: unknown location %q", r.ID, r.Location)
	}

	t.Count++
	t.TotalUSD = t.TotalUSD.Add(r.AmountUSD)
	t.CustomerSummary.Add(r.CustomerName, r.AmountUSD)
	t.PaymentMethods.Add(r)
	t.ProjectSummary = t.ProjectSummary.add(r.Project, r.AmountUSD)
	t.LocationSummary.Add(r)
	t.ProjectMethods.Add(r)
	t.DailyTotals.Add(payment.DateKey(r.PaymentDate), r.AmountUSD)
	t.Payments = append(t.Payments, r)
	return nil
}

// InvariantError reports diverging sums across grouping passes
type InvariantError struct {
	Window Window
	Sums   map[string]decimal.Decimal
}

func (e *InvariantError) Error() string {
	keys := make([]string, 0, len(e.Sums))
	for k := range e.Sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msg := fmt.Sprintf("totals for %s diverge:", e.Window)
	for _, k := range keys {
		msg += fmt.Sprintf(" %s=%s", k, e.Sums[k].String())
	}
	return msg
}

// CheckInvariants verifies that every grouping pass sums to the same figure, exactly
func (t *Totals) CheckInvariants() error {
	sums := map[string]decimal.Decimal{
		"records":   t.TotalUSD,
		"customers": t.CustomerSummary.Sum(),
		"methods":   t.PaymentMethods.SumUSD(),
		"projects":  t.ProjectSummary.Total(),
		"locations": t.LocationSummary.SumTotal(),
		"days":      t.DailyTotals.Sum(),
	}

	for _, pm := range []payment.Project{payment.ProjectA, payment.ProjectB} {
		if got, want := t.ProjectMethods[pm].SumUSD(), t.ProjectSummary.Get(pm); !got.Equal(want) {
			sums["project_"+string(pm)+"_methods"] = got
			sums["project_"+string(pm)] = want
			return &InvariantError{Window: t.Window, Sums: sums}
		}
	}

	for _, v := range sums {
		if !v.Equal(t.TotalUSD) {
			return &InvariantError{Window: t.Window, Sums: sums}
		}
	}
	return nil
}

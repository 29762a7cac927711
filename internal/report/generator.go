package report

import (
	"context"
	"fmt"
	"time"

	"github.com/datsun80zx/payrep/internal/metrics"
	"github.com/datsun80zx/payrep/internal/payment"
	"github.com/datsun80zx/payrep/internal/store"
)

// Generator builds reports from the records held in a store.
// Every call reads a fresh snapshot; nothing is cached between calls.
type Generator struct {
	store store.Store
}

func NewGenerator(st store.Store) *Generator {
	return &Generator{store: st}
}

// Weekly returns one report per week from the first to the last stored payment, newest first.
// An empty store yields no reports.
func (g *Generator) Weekly(ctx context.Context) ([]WeeklyReport, error) {
	records, err := g.store.ListPayments(ctx, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	if len(records) == 0 {
		return []WeeklyReport{}, nil
	}
	return WeeklyReports(records)
}

// Week returns the report of the Monday-start week containing day
func (g *Generator) Week(ctx context.Context, day time.Time) (*WeeklyReport, error) {
	window := metrics.WeekWindow(day)
	records, err := g.load(ctx, window)
	if err != nil {
		return nil, err
	}
	return BuildWeekly(records, window)
}

func (g *Generator) Monthly(ctx context.Context, year int, month time.Month) (*MonthlyReport, error) {
	if month < time.January || month > time.December {
		return nil, &metrics.AggregationInputError{Reason: fmt.Sprintf("month %d out of range", month)}
	}
	records, err := g.load(ctx, metrics.MonthWindow(year, month))
	if err != nil {
		return nil, err
	}
	return BuildMonthly(records, year, month)
}

// Yearly rolls up the twelve monthly reports of year
func (g *Generator) Yearly(ctx context.Context, year int) (*YearlyReport, error) {
	if year < 1 {
		return nil, &metrics.AggregationInputError{Reason: fmt.Sprintf("year %d out of range", year)}
	}
	records, err := g.load(ctx, metrics.YearWindow(year))
	if err != nil {
		return nil, err
	}
	return YearlyFromRecords(records, year)
}

// Years lists the years that have stored payments
func (g *Generator) Years(ctx context.Context) ([]int, error) {
	records, err := g.store.ListPayments(ctx, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	return metrics.Years(records), nil
}

func (g *Generator) load(ctx context.Context, window metrics.Window) ([]payment.Record, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	last := window.LastDay()
	records, err := g.store.ListPayments(ctx, store.Filter{From: &window.Start, To: &last})
	if err != nil {
		return nil, fmt.Errorf("failed to load payments for %s: %w", window, err)
	}
	return records, nil
}

package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/datsun80zx/payrep/internal/payment"
)

// Window is a half-open range of whole days [Start, End)
type Window struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// AggregationInputError means a report was asked for over an unusable window
type AggregationInputError struct {
	Window Window
	Reason string
}

func (e *AggregationInputError) Error() string {
	if e.Window.Start.IsZero() && e.Window.End.IsZero() {
		return fmt.Sprintf("invalid aggregation window: %s", e.Reason)
	}
	return fmt.Sprintf("invalid aggregation window %s: %s", e.Window, e.Reason)
}

// Validate rejects zero, inverted and empty windows
func (w Window) Validate() error {
	switch {
	case w.Start.IsZero() || w.End.IsZero():
		return &AggregationInputError{Window: w, Reason: "start and end are required"}
	case !w.End.After(w.Start):
		return &AggregationInputError{Window: w, Reason: "end must be after start"}
	case !payment.Day(w.Start).Equal(w.Start) || !payment.Day(w.End).Equal(w.End):
		return &AggregationInputError{Window: w, Reason: "bounds must be whole UTC days"}
	}
	return nil
}

// Contains reports whether the payment day of t falls in the window
func (w Window) Contains(t time.Time) bool {
	d := payment.Day(t)
	return !d.Before(w.Start) && d.Before(w.End)
}

// LastDay is the final calendar day inside the window
func (w Window) LastDay() time.Time {
	return w.End.AddDate(0, 0, -1)
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", payment.DateKey(w.Start), payment.DateKey(w.LastDay()))
}

// WeekStart returns the Monday of t's week. Sunday belongs to the week that started six days earlier.
func WeekStart(t time.Time) time.Time {
	d := payment.Day(t)
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return d.AddDate(0, 0, 1-weekday)
}

func WeekWindow(t time.Time) Window {
	start := WeekStart(t)
	return Window{Start: start, End: start.AddDate(0, 0, 7)}
}

func MonthWindow(year int, month time.Month) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

func YearWindow(year int) Window {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(1, 0, 0)}
}

// DateSpan returns the earliest and latest payment day in records
func DateSpan(records []payment.Record) (first, last time.Time, err error) {
	if len(records) == 0 {
		return time.Time{}, time.Time{}, &AggregationInputError{Reason: "no records to derive a date span from"}
	}
	first, last = records[0].Day(), records[0].Day()
	for _, r := range records[1:] {
		d := r.Day()
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	return first, last, nil
}

// WeeksSpanning lists every Monday-start week from the earliest to the latest payment,
// including weeks without payments
func WeeksSpanning(records []payment.Record) ([]Window, error) {
	first, last, err := DateSpan(records)
	if err != nil {
		return nil, err
	}

	var weeks []Window
	for start := WeekStart(first); !start.After(last); start = start.AddDate(0, 0, 7) {
		weeks = append(weeks, Window{Start: start, End: start.AddDate(0, 0, 7)})
	}
	return weeks, nil
}

// Years lists the distinct payment years, ascending
func Years(records []payment.Record) []int {
	seen := make(map[int]bool)
	var years []int
	for _, r := range records {
		y := r.PaymentDate.Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

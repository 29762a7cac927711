package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/metrics"
	"github.com/datsun80zx/payrep/internal/payment"
)

// WeeklyReport covers one Monday to Sunday week
type WeeklyReport struct {
	StartDate       time.Time               `json:"start_date"`
	EndDate         time.Time               `json:"end_date"`
	WeekNumber      int                     `json:"week_number"`
	Total           decimal.Decimal         `json:"total_usd"`
	Count           int                     `json:"count"`
	CustomerSummary metrics.Amounts         `json:"customer_summary"`
	PaymentMethods  metrics.MethodTotals    `json:"payment_methods"`
	ProjectSummary  metrics.ProjectSummary  `json:"project_summary"`
	LocationSummary metrics.LocationSummary `json:"location_summary"`
	Payments        []payment.Record        `json:"payments"`
}

// MonthlyReport covers one calendar month
type MonthlyReport struct {
	Month           string                    `json:"month"`
	Year            int                       `json:"year"`
	MonthNumber     time.Month                `json:"month_number"`
	Total           decimal.Decimal           `json:"total_usd"`
	Count           int                       `json:"count"`
	DailyTotals     metrics.Amounts           `json:"daily_totals"`
	Calendar        [][]*metrics.CalendarCell `json:"calendar"`
	CustomerSummary metrics.Amounts           `json:"customer_summary"`
	ProjectSummary  metrics.ProjectSummary    `json:"project_summary"`
	LocationSummary metrics.LocationSummary   `json:"location_summary"`
	PaymentMethods  metrics.MethodTotals      `json:"payment_methods"`
	AMethods        metrics.MethodTotals      `json:"a_payment_methods"`
	BMethods        metrics.MethodTotals      `json:"b_payment_methods"`
}

// YearlyReport is the roll-up of the monthly reports of one year
type YearlyReport struct {
	Year            int                     `json:"year"`
	Total           decimal.Decimal         `json:"total_usd"`
	Count           int                     `json:"count"`
	ProjectSummary  metrics.ProjectSummary  `json:"project_summary"`
	LocationSummary metrics.LocationSummary `json:"location_summary"`
	PaymentMethods  metrics.MethodTotals    `json:"payment_methods"`
	AMethods        metrics.MethodTotals    `json:"a_payment_methods"`
	BMethods        metrics.MethodTotals    `json:"b_payment_methods"`
	MonthlyReports  []MonthlyReport         `json:"monthly_reports"`
}

// BuildWeekly aggregates one week window
func BuildWeekly(records []payment.Record, window metrics.Window) (*WeeklyReport, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if !metrics.WeekStart(window.Start).Equal(window.Start) || !window.End.Equal(window.Start.AddDate(0, 0, 7)) {
		return nil, &metrics.AggregationInputError{Window: window, Reason: "weekly reports need a Monday-start 7 day window"}
	}

	totals, err := metrics.Aggregate(records, window)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate week %s: %w", window, err)
	}

	_, week := window.Start.ISOWeek()
	return &WeeklyReport{
		StartDate:       window.Start,
		EndDate:         window.LastDay(),
		WeekNumber:      week,
		Total:           totals.TotalUSD,
		Count:           totals.Count,
		CustomerSummary: totals.CustomerSummary,
		PaymentMethods:  totals.PaymentMethods,
		ProjectSummary:  totals.ProjectSummary,
		LocationSummary: totals.LocationSummary,
		Payments:        totals.Payments,
	}, nil
}

// WeeklyReports builds one report per week across the span of records, newest first
func WeeklyReports(records []payment.Record) ([]WeeklyReport, error) {
	weeks, err := metrics.WeeksSpanning(records)
	if err != nil {
		return nil, err
	}

	reports := make([]WeeklyReport, 0, len(weeks))
	for i := len(weeks) - 1; i >= 0; i-- {
		wr, err := BuildWeekly(records, weeks[i])
		if err != nil {
			return nil, err
		}
		reports = append(reports, *wr)
	}
	return reports, nil
}

// BuildMonthly aggregates one calendar month
func BuildMonthly(records []payment.Record, year int, month time.Month) (*MonthlyReport, error) {
	if month < time.January || month > time.December {
		return nil, &metrics.AggregationInputError{Reason: fmt.Sprintf("month %d out of range", month)}
	}

	window := metrics.MonthWindow(year, month)
	totals, err := metrics.Aggregate(records, window)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate month %04d-%02d: %w", year, month, err)
	}

	return &MonthlyReport{
		Month:           fmt.Sprintf("%04d-%02d", year, month),
		Year:            year,
		MonthNumber:     month,
		Total:           totals.TotalUSD,
		Count:           totals.Count,
		DailyTotals:     totals.DailyTotals,
		Calendar:        metrics.Calendar(year, month, totals.DailyTotals),
		CustomerSummary: totals.CustomerSummary,
		ProjectSummary:  totals.ProjectSummary,
		LocationSummary: totals.LocationSummary,
		PaymentMethods:  totals.PaymentMethods,
		AMethods:        totals.ProjectMethods[payment.ProjectA],
		BMethods:        totals.ProjectMethods[payment.ProjectB],
	}, nil
}

// BuildYearly rolls the monthly reports that fall in year into a yearly report.
// Months without a report contribute zero.
func BuildYearly(monthly []MonthlyReport, year int) (*YearlyReport, error) {
	if year < 1 {
		return nil, &metrics.AggregationInputError{Reason: fmt.Sprintf("year %d out of range", year)}
	}

	yr := &YearlyReport{
		Year:            year,
		Total:           decimal.Zero,
		ProjectSummary:  metrics.NewProjectSummary(),
		LocationSummary: metrics.NewLocationSummary(),
		PaymentMethods:  metrics.NewMethodTotals(),
		AMethods:        metrics.NewMethodTotals(),
		BMethods:        metrics.NewMethodTotals(),
	}

	byMonth := make(map[time.Month]MonthlyReport, 12)
	for _, mr := range monthly {
		if mr.Year != year {
			continue
		}
		if _, dup := byMonth[mr.MonthNumber]; dup {
			return nil, &metrics.AggregationInputError{Reason: fmt.Sprintf("month %s given twice", mr.Month)}
		}
		byMonth[mr.MonthNumber] = mr
	}

	for m := time.January; m <= time.December; m++ {
		mr, ok := byMonth[m]
		if !ok {
			empty, err := BuildMonthly(nil, year, m)
			if err != nil {
				return nil, err
			}
			mr = *empty
		}

		yr.Total = yr.Total.Add(mr.Total)
		yr.Count += mr.Count
		yr.ProjectSummary = yr.ProjectSummary.Plus(mr.ProjectSummary)
		yr.LocationSummary.Merge(mr.LocationSummary)
		yr.PaymentMethods.Merge(mr.PaymentMethods)
		yr.AMethods.Merge(mr.AMethods)
		yr.BMethods.Merge(mr.BMethods)
		yr.MonthlyReports = append(yr.MonthlyReports, mr)
	}

	return yr, nil
}

// YearlyFromRecords builds the twelve monthly reports of year and rolls them up
func YearlyFromRecords(records []payment.Record, year int) (*YearlyReport, error) {
	monthly := make([]MonthlyReport, 0, 12)
	for m := time.January; m <= time.December; m++ {
		mr, err := BuildMonthly(records, year, m)
		if err != nil {
			return nil, err
		}
		monthly = append(monthly, *mr)
	}
	return BuildYearly(monthly, year)
}

// CustomerTotal is one row of a ranked customer table
type CustomerTotal struct {
	Name   string
	Amount decimal.Decimal
}

// RankCustomers sorts a customer summary by amount, largest first
func RankCustomers(summary metrics.Amounts) []CustomerTotal {
	out := make([]CustomerTotal, 0, len(summary))
	for name, amount := range summary {
		out = append(out, CustomerTotal{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

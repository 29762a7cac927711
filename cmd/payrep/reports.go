package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/datsun80zx/payrep/internal/metrics"
	"github.com/datsun80zx/payrep/internal/payment"
	"github.com/datsun80zx/payrep/internal/report"
)

const (
	heavyRule = "════════════════════════════════════════════════════════════════════════"
	lightRule = "────────────────────────────────────────────────────────────────────────"
)

// reportOutputs are the optional file outputs shared by every report kind
type reportOutputs struct {
	html string
	xlsx string
}

func (a *app) handleReport(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: payrep report <weekly|monthly|yearly> [options]")
	}

	kind := args[0]
	var out reportOutputs
	out.html, args = parseFlag(args[1:], "html")
	out.xlsx, args = parseFlag(args, "xlsx")

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	gen := report.NewGenerator(st)

	switch kind {
	case "weekly":
		dateStr, _ := parseFlag(args, "date")
		return a.reportWeekly(ctx, gen, dateStr, out)
	case "monthly":
		if len(args) != 1 {
			return fmt.Errorf("usage: payrep report monthly <YYYY-MM>")
		}
		year, month, err := parseYearMonth(args[0])
		if err != nil {
			return err
		}
		r, err := gen.Monthly(ctx, year, month)
		if err != nil {
			return err
		}
		printMonthly(r)
		return writeOutputs(out,
			func(rd *report.Renderer, f *os.File) error { return rd.RenderMonthly(f, r) },
			func(wb *report.Workbook) error { return wb.AddMonthly(r) })
	case "yearly":
		if len(args) != 1 {
			return fmt.Errorf("usage: payrep report yearly <YYYY>")
		}
		year, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid year %q", args[0])
		}
		r, err := gen.Yearly(ctx, year)
		if err != nil {
			return err
		}
		printYearly(r)
		return writeOutputs(out,
			func(rd *report.Renderer, f *os.File) error { return rd.RenderYearly(f, r) },
			func(wb *report.Workbook) error { return wb.AddYearly(r) })
	default:
		return fmt.Errorf("unknown report type %q, available: weekly, monthly, yearly", kind)
	}
}

func (a *app) reportWeekly(ctx context.Context, gen *report.Generator, dateStr string, out reportOutputs) error {
	var weeks []report.WeeklyReport
	if dateStr != "" {
		day, err := parseDate(dateStr)
		if err != nil {
			return err
		}
		wr, err := gen.Week(ctx, *day)
		if err != nil {
			return err
		}
		weeks = []report.WeeklyReport{*wr}
	} else {
		var err error
		if weeks, err = gen.Weekly(ctx); err != nil {
			return err
		}
	}

	if len(weeks) == 0 {
		fmt.Println("No payments found")
		return nil
	}

	printWeeklyTable(weeks)

	// html output covers the newest week only
	return writeOutputs(out,
		func(rd *report.Renderer, f *os.File) error { return rd.RenderWeekly(f, &weeks[0]) },
		func(wb *report.Workbook) error {
			for i := range weeks {
				if err := wb.AddWeekly(&weeks[i]); err != nil {
					return err
				}
			}
			return nil
		})
}

func parseYearMonth(s string) (int, time.Month, error) {
	yearStr, monthStr, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid month %q, want YYYY-MM", s)
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, want YYYY-MM", s)
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month %q, want YYYY-MM", s)
	}
	return year, time.Month(month), nil
}

func writeOutputs(out reportOutputs, html func(*report.Renderer, *os.File) error, xlsx func(*report.Workbook) error) error {
	if out.html != "" {
		rd, err := report.NewRenderer()
		if err != nil {
			return err
		}
		f, err := os.Create(out.html)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out.html, err)
		}
		if err := html(rd, f); err != nil {
			f.Close()
			return fmt.Errorf("rendering %s: %w", out.html, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("✅ HTML report written to %s\n", out.html)
	}

	if out.xlsx != "" {
		wb, err := report.NewWorkbook()
		if err != nil {
			return err
		}
		defer wb.Close()
		if err := xlsx(wb); err != nil {
			return err
		}
		f, err := os.Create(out.xlsx)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out.xlsx, err)
		}
		if err := wb.Write(f); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", out.xlsx, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("✅ Excel report written to %s\n", out.xlsx)
	}
	return nil
}

func printWeeklyTable(weeks []report.WeeklyReport) {
	fmt.Println("Weekly Collections")
	fmt.Println(heavyRule)
	fmt.Printf("%-5s  %-10s  %-10s  %6s  %14s  %14s  %14s\n",
		"Week", "Start", "End", "Count", "Project A", "Project B", "Total")
	fmt.Println(lightRule)

	for _, w := range weeks {
		fmt.Printf("%-5d  %-10s  %-10s  %6d  %14s  %14s  %14s\n",
			w.WeekNumber,
			payment.DateKey(w.StartDate),
			payment.DateKey(w.EndDate),
			w.Count,
			report.FormatMoney(w.ProjectSummary.A),
			report.FormatMoney(w.ProjectSummary.B),
			report.FormatMoney(w.Total),
		)
	}
	fmt.Println(heavyRule)
	fmt.Printf("Total: %d week(s)\n", len(weeks))

	if len(weeks) == 1 {
		fmt.Println()
		printCustomers(weeks[0].CustomerSummary, 15)
		printMethods("Payment Methods", weeks[0].PaymentMethods)
	}
}

func printMonthly(r *report.MonthlyReport) {
	fmt.Printf("%s %d\n", r.MonthNumber, r.Year)
	fmt.Println(heavyRule)
	fmt.Printf("Payments: %d    Total: %s\n", r.Count, report.FormatMoney(r.Total))
	fmt.Println()

	for _, week := range r.Calendar {
		days := make([]string, 7)
		amounts := make([]string, 7)
		for i, cell := range week {
			if cell == nil {
				continue
			}
			days[i] = strconv.Itoa(cell.Day)
			if !cell.Amount.IsZero() {
				amounts[i] = report.FormatMoney(cell.Amount)
			}
		}
		printCalendarRow(days)
		printCalendarRow(amounts)
	}
	fmt.Println()

	printProjects(r.ProjectSummary)
	printLocations(r.LocationSummary)
	printMethods("Payment Methods", r.PaymentMethods)
	printMethods("Project A Methods", r.AMethods)
	printMethods("Project B Methods", r.BMethods)
}

func printCalendarRow(cells []string) {
	for _, c := range cells {
		fmt.Printf("%-12s ", c)
	}
	fmt.Println()
}

func printYearly(r *report.YearlyReport) {
	fmt.Printf("%d Collections\n", r.Year)
	fmt.Println(heavyRule)
	fmt.Printf("%-10s  %6s  %14s  %14s  %14s\n", "Month", "Count", "Project A", "Project B", "Total")
	fmt.Println(lightRule)
	for _, m := range r.MonthlyReports {
		fmt.Printf("%-10s  %6d  %14s  %14s  %14s\n",
			m.MonthNumber,
			m.Count,
			report.FormatMoney(m.ProjectSummary.A),
			report.FormatMoney(m.ProjectSummary.B),
			report.FormatMoney(m.Total),
		)
	}
	fmt.Println(lightRule)
	fmt.Printf("%-10s  %6d  %14s  %14s  %14s\n", "Total", r.Count,
		report.FormatMoney(r.ProjectSummary.A), report.FormatMoney(r.ProjectSummary.B), report.FormatMoney(r.Total))
	fmt.Println(heavyRule)
	fmt.Println()

	printLocations(r.LocationSummary)
	printMethods("Payment Methods", r.PaymentMethods)
	printMethods("Project A Methods", r.AMethods)
	printMethods("Project B Methods", r.BMethods)
}

func printCustomers(summary metrics.Amounts, limit int) {
	ranked := report.RankCustomers(summary)
	if len(ranked) == 0 {
		return
	}
	fmt.Println("Top Customers")
	fmt.Println(lightRule)
	for i, c := range ranked {
		if i == limit {
			fmt.Printf("... and %d more\n", len(ranked)-limit)
			break
		}
		fmt.Printf("%-40s  %14s\n", report.Truncate(c.Name, 40), report.FormatMoney(c.Amount))
	}
	fmt.Println()
}

func printProjects(p metrics.ProjectSummary) {
	fmt.Println("Projects")
	fmt.Println(lightRule)
	fmt.Printf("%-20s  %14s\n", "A", report.FormatMoney(p.A))
	fmt.Printf("%-20s  %14s\n", "B", report.FormatMoney(p.B))
	fmt.Printf("%-20s  %14s\n", "Total", report.FormatMoney(p.Total()))
	fmt.Println()
}

func printLocations(s metrics.LocationSummary) {
	fmt.Println("Locations")
	fmt.Println(lightRule)
	fmt.Printf("%-20s  %14s  %14s  %14s\n", "Location", "Project A", "Project B", "Total")
	for _, loc := range payment.Locations() {
		l := s[loc]
		fmt.Printf("%-20s  %14s  %14s  %14s\n", loc,
			report.FormatMoney(l.A), report.FormatMoney(l.B), report.FormatMoney(l.Total))
	}
	fmt.Println()
}

func printMethods(title string, totals metrics.MethodTotals) {
	fmt.Println(title)
	fmt.Println(lightRule)
	fmt.Printf("%-15s  %16s  %14s  %14s\n", "Method", "TL", "USD", "Total (USD)")
	for _, m := range payment.Methods() {
		t := totals[m]
		fmt.Printf("%-15s  %16s  %14s  %14s\n", m,
			t.TL.StringFixed(2), t.USD.StringFixed(2), report.FormatMoney(t.TotalUSD))
	}
	fmt.Println()
}

package report

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/metrics"
	"github.com/datsun80zx/payrep/internal/payment"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func usd(date time.Time, customer, amount string, method payment.Method, loc payment.Location, project payment.Project) payment.Record {
	return payment.Record{
		CustomerName: customer,
		PaymentDate:  date,
		Amount:       dec(amount),
		Currency:     payment.USD,
		Method:       method,
		Location:     loc,
		Project:      project,
		AmountUSD:    dec(amount),
		ExchangeRate: decimal.NewFromInt(1),
	}
}

func tl(date time.Time, customer, amount, rate string, method payment.Method, loc payment.Location, project payment.Project) payment.Record {
	r := usd(date, customer, amount, method, loc, project)
	r.Currency = payment.TL
	r.ExchangeRate = dec(rate)
	r.AmountUSD = r.Amount.Mul(r.ExchangeRate).Round(2)
	return r
}

// yearOfRecords spreads payments across several months, both projects and every method
func yearOfRecords() []payment.Record {
	return []payment.Record{
		tl(day(2024, time.January, 5), "Ali Veli", "1000", "0.03", payment.Cash, payment.LocationOffice, payment.ProjectA),
		usd(day(2024, time.January, 31), "Ayşe", "50", payment.BankTransfer, payment.LocationBankTransfer, payment.ProjectB),
		tl(day(2024, time.February, 29), "Mehmet", "777.77", "0.0291", payment.Check, payment.LocationCheck, payment.ProjectA),
		usd(day(2024, time.March, 1), "Zeynep", "12.34", payment.Cash, payment.LocationMarketHall, payment.ProjectB),
		tl(day(2024, time.July, 15), "Ali Veli", "15000", "0.0305", payment.Cash, payment.LocationJewelryDistrict, payment.ProjectB),
		usd(day(2024, time.December, 31), "Can", "0.01", payment.Cash, payment.LocationUnclassified, payment.ProjectA),
		usd(day(2023, time.December, 31), "Last Year", "999", payment.Cash, payment.LocationOffice, payment.ProjectA),
		usd(day(2025, time.January, 1), "Next Year", "888", payment.Cash, payment.LocationOffice, payment.ProjectA),
	}
}

func TestBuildWeekly(t *testing.T) {
	records := yearOfRecords()
	wr, err := BuildWeekly(records, metrics.WeekWindow(day(2024, time.January, 5)))
	if err != nil {
		t.Fatalf("BuildWeekly() error = %v", err)
	}

	if !wr.StartDate.Equal(day(2024, time.January, 1)) || !wr.EndDate.Equal(day(2024, time.January, 7)) {
		t.Errorf("week = %v..%v", wr.StartDate, wr.EndDate)
	}
	if wr.WeekNumber != 1 {
		t.Errorf("WeekNumber = %d", wr.WeekNumber)
	}
	if len(wr.Payments) != 1 || !wr.Total.Equal(dec("30.00")) {
		t.Errorf("payments = %d total = %s", len(wr.Payments), wr.Total)
	}
	if !wr.LocationSummary[payment.LocationOffice].A.Equal(dec("30")) {
		t.Errorf("office A = %s", wr.LocationSummary[payment.LocationOffice].A)
	}
}

func TestBuildWeeklyRejectsNonWeekWindow(t *testing.T) {
	_, err := BuildWeekly(yearOfRecords(), metrics.MonthWindow(2024, time.January))
	var aie *metrics.AggregationInputError
	if !errors.As(err, &aie) {
		t.Fatalf("expected AggregationInputError, got %v", err)
	}
}

func TestWeeklyReports(t *testing.T) {
	records := []payment.Record{
		usd(day(2024, time.January, 1), "A", "10", payment.Cash, payment.LocationOffice, payment.ProjectA),
		usd(day(2024, time.January, 21), "B", "20", payment.Cash, payment.LocationOffice, payment.ProjectB),
	}

	reports, err := WeeklyReports(records)
	if err != nil {
		t.Fatalf("WeeklyReports() error = %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("got %d weeks, want 3", len(reports))
	}
	if !reports[0].StartDate.Equal(day(2024, time.January, 15)) {
		t.Errorf("newest week first, got %v", reports[0].StartDate)
	}
	if reports[1].Count != 0 {
		t.Errorf("the middle week is empty but still reported, got %d payments", reports[1].Count)
	}

	sum := decimal.Zero
	for _, r := range reports {
		sum = sum.Add(r.CustomerSummary.Sum())
	}
	if !sum.Equal(dec("30")) {
		t.Errorf("weeks sum to %s, want 30", sum)
	}
}

func TestWeeklyReportsEmpty(t *testing.T) {
	if _, err := WeeklyReports(nil); err == nil {
		t.Error("expected an error instead of an empty report list")
	}
}

func TestBuildMonthly(t *testing.T) {
	mr, err := BuildMonthly(yearOfRecords(), 2024, time.January)
	if err != nil {
		t.Fatalf("BuildMonthly() error = %v", err)
	}

	if mr.Month != "2024-01" || mr.Count != 2 {
		t.Errorf("month %s count %d", mr.Month, mr.Count)
	}
	if !mr.DailyTotals["2024-01-31"].Equal(dec("50")) {
		t.Errorf("daily 31st = %s", mr.DailyTotals["2024-01-31"])
	}
	if !mr.AMethods[payment.Cash].TotalUSD.Equal(dec("30")) {
		t.Errorf("A cash = %s", mr.AMethods[payment.Cash].TotalUSD)
	}
	if !mr.BMethods[payment.BankTransfer].USD.Equal(dec("50")) {
		t.Errorf("B transfer usd = %s", mr.BMethods[payment.BankTransfer].USD)
	}
	if len(mr.Calendar) != 5 || mr.Calendar[4][2].Day != 31 || mr.Calendar[4][3] != nil {
		t.Errorf("calendar layout unexpected")
	}
}

func TestBuildMonthlyBadMonth(t *testing.T) {
	if _, err := BuildMonthly(nil, 2024, 13); err == nil {
		t.Error("expected an error for month 13")
	}
}

func assertYearMatchesTotals(t *testing.T, yr *YearlyReport, direct *metrics.Totals) {
	t.Helper()
	if !yr.Total.Equal(direct.TotalUSD) {
		t.Errorf("total %s != %s", yr.Total, direct.TotalUSD)
	}
	if yr.Count != direct.Count {
		t.Errorf("count %d != %d", yr.Count, direct.Count)
	}
	if !yr.ProjectSummary.Equal(direct.ProjectSummary) {
		t.Errorf("project summary %+v != %+v", yr.ProjectSummary, direct.ProjectSummary)
	}
	if !yr.LocationSummary.Equal(direct.LocationSummary) {
		t.Errorf("location summary differs")
	}
	if !yr.PaymentMethods.Equal(direct.PaymentMethods) {
		t.Errorf("payment methods differ")
	}
	if !yr.AMethods.Equal(direct.ProjectMethods[payment.ProjectA]) {
		t.Errorf("project A methods differ")
	}
	if !yr.BMethods.Equal(direct.ProjectMethods[payment.ProjectB]) {
		t.Errorf("project B methods differ")
	}
}

func TestBuildYearlyRollupEquivalence(t *testing.T) {
	records := yearOfRecords()

	yr, err := YearlyFromRecords(records, 2024)
	if err != nil {
		t.Fatalf("YearlyFromRecords() error = %v", err)
	}
	direct, err := metrics.Aggregate(records, metrics.YearWindow(2024))
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	assertYearMatchesTotals(t, yr, direct)
	if len(yr.MonthlyReports) != 12 {
		t.Errorf("got %d monthly reports, want 12", len(yr.MonthlyReports))
	}
	if !yr.LocationSummary.SumTotal().Equal(yr.ProjectSummary.Total()) {
		t.Errorf("location total %s != project total %s", yr.LocationSummary.SumTotal(), yr.ProjectSummary.Total())
	}
}

func TestBuildYearlyMissingMonthsAreZero(t *testing.T) {
	records := yearOfRecords()
	jan, err := BuildMonthly(records, 2024, time.January)
	if err != nil {
		t.Fatal(err)
	}
	jul, err := BuildMonthly(records, 2024, time.July)
	if err != nil {
		t.Fatal(err)
	}
	other, err := BuildMonthly(records, 2023, time.December)
	if err != nil {
		t.Fatal(err)
	}

	yr, err := BuildYearly([]MonthlyReport{*jul, *other, *jan}, 2024)
	if err != nil {
		t.Fatalf("BuildYearly() error = %v", err)
	}

	want := jan.Total.Add(jul.Total)
	if !yr.Total.Equal(want) {
		t.Errorf("Total = %s, want %s", yr.Total, want)
	}
	if len(yr.MonthlyReports) != 12 {
		t.Fatalf("want all 12 months, got %d", len(yr.MonthlyReports))
	}
	feb := yr.MonthlyReports[1]
	if feb.MonthNumber != time.February || feb.Count != 0 || feb.LocationSummary == nil || feb.PaymentMethods == nil {
		t.Errorf("missing month should be a zero report, got %+v", feb)
	}
	for _, m := range payment.Methods() {
		if _, ok := yr.PaymentMethods[m]; !ok {
			t.Errorf("method %s missing from yearly report", m)
		}
	}
}

func TestBuildYearlyRejectsDuplicateMonths(t *testing.T) {
	jan, err := BuildMonthly(yearOfRecords(), 2024, time.January)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := BuildYearly([]MonthlyReport{*jan, *jan}, 2024); err == nil {
		t.Error("expected an error when a month is given twice")
	}
}

func TestRankCustomers(t *testing.T) {
	ranked := RankCustomers(metrics.Amounts{"b": dec("5"), "a": dec("5"), "c": dec("10")})
	if ranked[0].Name != "c" || ranked[1].Name != "a" || ranked[2].Name != "b" {
		t.Errorf("ranking = %+v", ranked)
	}
}

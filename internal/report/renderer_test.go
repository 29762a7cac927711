package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/datsun80zx/payrep/internal/metrics"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"30", "$30.00"},
		{"1234.5", "$1,234.50"},
		{"1234567.891", "$1,234,567.89"},
		{"-12.5", "($12.50)"},
	}
	for _, tt := range tests {
		if got := FormatMoney(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := formatPercent(dec("1"), dec("3")); got != "33.3%" {
		t.Errorf("formatPercent = %q", got)
	}
	if got := formatPercent(dec("1"), decimal.Zero); got != "N/A" {
		t.Errorf("formatPercent with zero whole = %q", got)
	}
}

func TestRenderReports(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	records := yearOfRecords()

	wr, err := BuildWeekly(records, metrics.WeekWindow(day(2024, time.January, 5)))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := r.RenderWeekly(&buf, wr); err != nil {
		t.Fatalf("RenderWeekly() error = %v", err)
	}
	for _, want := range []string{"Ali Veli", "$30.00", "OFFICE", "2024-01-01"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("weekly html missing %q", want)
		}
	}

	mr, err := BuildMonthly(records, 2024, time.February)
	if err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	if err := r.RenderMonthly(&buf, mr); err != nil {
		t.Fatalf("RenderMonthly() error = %v", err)
	}
	if !strings.Contains(buf.String(), "February 2024") {
		t.Error("monthly html missing title")
	}
	if strings.Count(buf.String(), `class="empty"`) != 6 {
		t.Errorf("February 2024 should end with 6 empty cells")
	}

	yr, err := YearlyFromRecords(records, 2024)
	if err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	if err := r.RenderYearly(&buf, yr); err != nil {
		t.Fatalf("RenderYearly() error = %v", err)
	}
	if !strings.Contains(buf.String(), "December") {
		t.Error("yearly html missing month rows")
	}
}

func TestWorkbookExport(t *testing.T) {
	yr, err := YearlyFromRecords(yearOfRecords(), 2024)
	if err != nil {
		t.Fatal(err)
	}
	wb, err := NewWorkbook()
	if err != nil {
		t.Fatalf("NewWorkbook() error = %v", err)
	}
	defer wb.Close()

	if err := wb.AddYearly(yr); err != nil {
		t.Fatalf("AddYearly() error = %v", err)
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 || sheets[0] != "2024" {
		t.Fatalf("sheets = %v", sheets)
	}
	// months with payments: Jan, Feb, Mar, Jul, Dec
	if len(sheets) != 6 {
		t.Errorf("got %d sheets, want yearly plus 5 months", len(sheets))
	}
	title, err := f.GetCellValue("2024", "A1")
	if err != nil || title != "2024 collections" {
		t.Errorf("A1 = %q, %v", title, err)
	}
}

func TestWorkbookWithoutSheets(t *testing.T) {
	wb, err := NewWorkbook()
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()
	if err := wb.Write(&bytes.Buffer{}); err == nil {
		t.Error("expected an error for an empty workbook")
	}
}

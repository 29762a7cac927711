package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/datsun80zx/payrep/internal/metrics"
	"github.com/datsun80zx/payrep/internal/payment"
)

// Workbook collects report sheets into one xlsx file
type Workbook struct {
	f           *excelize.File
	titleStyle  int
	headerStyle int
	moneyStyle  int
	sheets      int
}

func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()

	title, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return nil, fmt.Errorf("creating title style: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E4E7EB"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("creating money style: %w", err)
	}

	return &Workbook{f: f, titleStyle: title, headerStyle: header, moneyStyle: money}, nil
}

// sheetWriter appends rows to one sheet
type sheetWriter struct {
	wb    *Workbook
	sheet string
	row   int
}

func (wb *Workbook) newSheet(name string) (*sheetWriter, error) {
	if wb.sheets == 0 {
		if err := wb.f.SetSheetName("Sheet1", name); err != nil {
			return nil, err
		}
	} else if _, err := wb.f.NewSheet(name); err != nil {
		return nil, err
	}
	wb.sheets++
	if err := wb.f.SetColWidth(name, "A", "A", 28); err != nil {
		return nil, err
	}
	if err := wb.f.SetColWidth(name, "B", "H", 16); err != nil {
		return nil, err
	}
	return &sheetWriter{wb: wb, sheet: name, row: 1}, nil
}

func (s *sheetWriter) title(text string) error {
	cell, _ := excelize.CoordinatesToCellName(1, s.row)
	if err := s.wb.f.SetCellValue(s.sheet, cell, text); err != nil {
		return err
	}
	if err := s.wb.f.SetCellStyle(s.sheet, cell, cell, s.wb.titleStyle); err != nil {
		return err
	}
	s.row += 2
	return nil
}

func (s *sheetWriter) header(cols ...string) error {
	vals := make([]interface{}, len(cols))
	for i, c := range cols {
		vals[i] = c
	}
	if err := s.write(vals...); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, s.row-1)
	last, _ := excelize.CoordinatesToCellName(len(cols), s.row-1)
	return s.wb.f.SetCellStyle(s.sheet, first, last, s.wb.headerStyle)
}

// write puts one row; decimals become numeric cells with the money format
func (s *sheetWriter) write(vals ...interface{}) error {
	for i, v := range vals {
		cell, err := excelize.CoordinatesToCellName(i+1, s.row)
		if err != nil {
			return err
		}
		if d, ok := v.(decimal.Decimal); ok {
			f, _ := d.Float64()
			if err := s.wb.f.SetCellFloat(s.sheet, cell, f, 2, 64); err != nil {
				return err
			}
			if err := s.wb.f.SetCellStyle(s.sheet, cell, cell, s.wb.moneyStyle); err != nil {
				return err
			}
			continue
		}
		if err := s.wb.f.SetCellValue(s.sheet, cell, v); err != nil {
			return err
		}
	}
	s.row++
	return nil
}

func (s *sheetWriter) skip() {
	s.row++
}

func (s *sheetWriter) methods(label string, totals metrics.MethodTotals) error {
	if err := s.header(label, "TL", "USD", "Total (USD)"); err != nil {
		return err
	}
	for _, m := range payment.Methods() {
		t := totals[m]
		if err := s.write(string(m), t.TL, t.USD, t.TotalUSD); err != nil {
			return err
		}
	}
	s.skip()
	return nil
}

func (s *sheetWriter) locations(summary metrics.LocationSummary) error {
	if err := s.header("Location", "Project A", "Project B", "Total (USD)"); err != nil {
		return err
	}
	for _, l := range payment.Locations() {
		t := summary[l]
		if err := s.write(string(l), t.A, t.B, t.Total); err != nil {
			return err
		}
	}
	s.skip()
	return nil
}

func (s *sheetWriter) projects(p metrics.ProjectSummary) error {
	if err := s.header("Project", "Total (USD)"); err != nil {
		return err
	}
	if err := s.write("A", p.A); err != nil {
		return err
	}
	if err := s.write("B", p.B); err != nil {
		return err
	}
	if err := s.write("Total", p.Total()); err != nil {
		return err
	}
	s.skip()
	return nil
}

// AddWeekly writes a weekly report sheet
func (wb *Workbook) AddWeekly(r *WeeklyReport) error {
	s, err := wb.newSheet(fmt.Sprintf("Week %s", formatDate(r.StartDate)))
	if err != nil {
		return fmt.Errorf("adding weekly sheet: %w", err)
	}

	if err := s.title(fmt.Sprintf("Week %d: %s to %s", r.WeekNumber, formatDate(r.StartDate), formatDate(r.EndDate))); err != nil {
		return err
	}
	if err := s.header("Customer", "Total (USD)"); err != nil {
		return err
	}
	for _, c := range RankCustomers(r.CustomerSummary) {
		if err := s.write(c.Name, c.Amount); err != nil {
			return err
		}
	}
	s.skip()

	if err := s.methods("Method", r.PaymentMethods); err != nil {
		return err
	}
	if err := s.projects(r.ProjectSummary); err != nil {
		return err
	}
	if err := s.locations(r.LocationSummary); err != nil {
		return err
	}

	if err := s.header("Date", "Customer", "Method", "Account", "Amount", "Currency", "Rate", "USD"); err != nil {
		return err
	}
	for _, p := range r.Payments {
		if err := s.write(formatDate(p.PaymentDate), p.CustomerName, string(p.Method), p.AccountName,
			p.Amount, string(p.Currency), p.ExchangeRate.String(), p.AmountUSD); err != nil {
			return err
		}
	}
	return nil
}

// AddMonthly writes a monthly report sheet including the calendar grid
func (wb *Workbook) AddMonthly(r *MonthlyReport) error {
	s, err := wb.newSheet(r.Month)
	if err != nil {
		return fmt.Errorf("adding monthly sheet: %w", err)
	}
	if err := s.title(fmt.Sprintf("%s %d", r.MonthNumber, r.Year)); err != nil {
		return err
	}

	for _, week := range r.Calendar {
		days := make([]interface{}, 7)
		amounts := make([]interface{}, 7)
		for i, cell := range week {
			if cell == nil {
				days[i], amounts[i] = "", ""
				continue
			}
			days[i] = formatDate(cell.Date)
			amounts[i] = cell.Amount
		}
		if err := s.write(days...); err != nil {
			return err
		}
		if err := s.write(amounts...); err != nil {
			return err
		}
	}
	s.skip()

	if err := s.projects(r.ProjectSummary); err != nil {
		return err
	}
	if err := s.locations(r.LocationSummary); err != nil {
		return err
	}
	if err := s.methods("Method", r.PaymentMethods); err != nil {
		return err
	}
	if err := s.methods("Project A method", r.AMethods); err != nil {
		return err
	}
	return s.methods("Project B method", r.BMethods)
}

// AddYearly writes the yearly roll-up followed by one sheet per month with payments
func (wb *Workbook) AddYearly(r *YearlyReport) error {
	s, err := wb.newSheet(fmt.Sprintf("%d", r.Year))
	if err != nil {
		return fmt.Errorf("adding yearly sheet: %w", err)
	}
	if err := s.title(fmt.Sprintf("%d collections", r.Year)); err != nil {
		return err
	}

	if err := s.header("Month", "Project A", "Project B", "Total (USD)"); err != nil {
		return err
	}
	for _, m := range r.MonthlyReports {
		if err := s.write(m.MonthNumber.String(), m.ProjectSummary.A, m.ProjectSummary.B, m.Total); err != nil {
			return err
		}
	}
	if err := s.write("Total", r.ProjectSummary.A, r.ProjectSummary.B, r.Total); err != nil {
		return err
	}
	s.skip()

	if err := s.locations(r.LocationSummary); err != nil {
		return err
	}
	if err := s.methods("Method", r.PaymentMethods); err != nil {
		return err
	}
	if err := s.methods("Project A method", r.AMethods); err != nil {
		return err
	}
	if err := s.methods("Project B method", r.BMethods); err != nil {
		return err
	}

	for i := range r.MonthlyReports {
		if r.MonthlyReports[i].Count == 0 {
			continue
		}
		if err := wb.AddMonthly(&r.MonthlyReports[i]); err != nil {
			return err
		}
	}
	return nil
}

// Write saves the workbook
func (wb *Workbook) Write(w io.Writer) error {
	if wb.sheets == 0 {
		return fmt.Errorf("workbook has no sheets")
	}
	_, err := wb.f.WriteTo(w)
	return err
}

func (wb *Workbook) Close() error {
	return wb.f.Close()
}

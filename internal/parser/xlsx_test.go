package parser

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for r, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName() error = %v", err)
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	return &buf
}

func TestXLSXNumberCells(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"Customer", "Date", "Amount"},
		{"Ali", 45296, 1000.125},
		{"Veli", "05/01/2024", "1.250"},
		{"Ayşe", 45297, 12.5},
	})

	table, err := NewXLSXParser().Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(table.Rows))
	}

	tests := []struct {
		row     int
		numeric bool
		want    string
	}{
		{0, true, "1000.125"},
		{1, false, "1250"},
		{2, true, "12.5"},
	}

	for _, tt := range tests {
		raw := table.Rows[tt.row]["Amount"]
		if got := table.IsNumeric(tt.row, "Amount"); got != tt.numeric {
			t.Errorf("row %d IsNumeric(Amount) = %v, want %v", tt.row, got, tt.numeric)
		}

		var amount decimal.Decimal
		if table.IsNumeric(tt.row, "Amount") {
			amount = ParseNumber(raw)
		} else {
			amount = ParseAmount(raw)
		}
		if !amount.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("row %d amount from %q = %s, want %s", tt.row, raw, amount, tt.want)
		}
	}

	if !table.IsNumeric(0, "Date") || table.IsNumeric(0, "Customer") {
		t.Errorf("numeric marks = %v", table.Numeric[0])
	}
}

package parser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXParser reads the first sheet of an Office Open XML workbook
type XLSXParser struct {
	// Sheet selects a sheet by name; empty means the first sheet
	Sheet string
}

func NewXLSXParser() *XLSXParser {
	return &XLSXParser{}
}

// Read returns raw cell values so date cells keep their serial number form.
// Number cells are marked numeric so their decimal point is never taken for grouping.
func (p *XLSXParser) Read(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &FileFormatError{Err: fmt.Errorf("failed to open workbook: %w", err)}
	}
	defer f.Close()

	sheet := p.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, &FileFormatError{Err: fmt.Errorf("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	return newTable(rows, func(r, c int) bool {
		axis, err := excelize.CoordinatesToCellName(c+1, r+1)
		if err != nil {
			return false
		}
		typ, err := f.GetCellType(sheet, axis)
		if err != nil {
			return false
		}
		return typ == excelize.CellTypeNumber || typ == excelize.CellTypeUnset
	})
}

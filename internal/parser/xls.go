package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/extrame/xls"
)

// XLSParser reads the first sheet of a legacy BIFF workbook
type XLSParser struct {
	Charset string
}

func NewXLSParser() *XLSParser {
	return &XLSParser{Charset: "utf-8"}
}

func (p *XLSParser) Read(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read xls: %w", err)
	}

	wb, err := xls.OpenReader(bytes.NewReader(data), p.Charset)
	if err != nil {
		return nil, &FileFormatError{Err: fmt.Errorf("failed to open xls workbook: %w", err)}
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, &FileFormatError{Err: fmt.Errorf("xls workbook has no sheets")}
	}

	records := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			cells[c] = row.Col(c)
		}
		records = append(records, cells)
	}

	return newTable(records, nil)
}

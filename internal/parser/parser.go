package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Reader turns an uploaded spreadsheet into a header-keyed table
type Reader interface {
	Read(r io.Reader) (*Table, error)
}

// FileFormatError means a required column is missing from the file entirely
type FileFormatError struct {
	Field   Field
	Headers []string
	Err     error
}

func (e *FileFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unusable file: %v", e.Err)
	}
	return fmt.Sprintf("no column for required field %q (headers: %s)",
		e.Field, strings.Join(e.Headers, ", "))
}

func (e *FileFormatError) Unwrap() error {
	return e.Err
}

// newTable builds a Table from a header row and value rows. Blank rows are dropped
// but the remaining rows keep their data row number. numeric, when set, reports
// whether records[r][c] holds a number.
func newTable(records [][]string, numeric func(r, c int) bool) (*Table, error) {
	if len(records) == 0 {
		return nil, &FileFormatError{Err: fmt.Errorf("file is empty")}
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	table := &Table{
		Headers: headers,
		Rows:    make([]RawRow, 0, len(records)-1),
	}
	if numeric != nil {
		table.Numeric = make([]map[string]bool, 0, len(records)-1)
	}

	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		row := make(RawRow, len(headers))
		var marks map[string]bool
		for c, h := range headers {
			if h == "" {
				continue
			}
			if c >= len(record) {
				row[h] = ""
				continue
			}
			row[h] = record[c]
			if numeric != nil && record[c] != "" && numeric(i+1, c) {
				if marks == nil {
					marks = make(map[string]bool)
				}
				marks[h] = true
			}
		}
		table.Rows = append(table.Rows, row)
		table.Lines = append(table.Lines, i+1)
		if numeric != nil {
			table.Numeric = append(table.Numeric, marks)
		}
	}

	return table, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// FromRows builds a Table from rows that arrive already keyed by header.
// Headers are the union of row keys; rows keep their 1-based position.
func FromRows(rows []RawRow) *Table {
	table := &Table{Rows: rows, Lines: make([]int, len(rows))}
	keys := make([]map[string]string, len(rows))
	for i, row := range rows {
		keys[i] = row
		table.Lines[i] = i + 1
	}
	table.Headers = headerUnion(keys)
	return table
}

// FromValues builds a Table from JSON decoded rows, such as a client side sheet
// parse. Number cells are kept in plain decimal form and marked numeric so the
// amount and date parsers read them as values instead of formatted text.
func FromValues(rows []ValueRow) *Table {
	table := &Table{
		Rows:    make([]RawRow, len(rows)),
		Lines:   make([]int, len(rows)),
		Numeric: make([]map[string]bool, len(rows)),
	}
	keys := make([]map[string]string, len(rows))

	for i, values := range rows {
		row := make(RawRow, len(values))
		for h, v := range values {
			text, isNumber := cellText(v)
			row[h] = text
			if isNumber {
				if table.Numeric[i] == nil {
					table.Numeric[i] = make(map[string]bool)
				}
				table.Numeric[i][h] = true
			}
		}
		table.Rows[i] = row
		table.Lines[i] = i + 1
		keys[i] = row
	}
	table.Headers = headerUnion(keys)
	return table
}

func cellText(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, false
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case bool:
		return strconv.FormatBool(val), false
	default:
		return fmt.Sprint(val), false
	}
}

func headerUnion(rows []map[string]string) []string {
	seen := make(map[string]bool)
	var headers []string
	for _, row := range rows {
		for h := range row {
			if !seen[h] {
				seen[h] = true
				headers = append(headers, h)
			}
		}
	}
	sort.Slice(headers, func(i, j int) bool {
		return strings.ToLower(headers[i]) < strings.ToLower(headers[j])
	})
	return headers
}

package parser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

type CSVParser struct {
	// Comma overrides delimiter detection when non-zero
	Comma rune
}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// Read parses a CSV export. Semicolon-separated files are detected from the header line.
func (p *CSVParser) Read(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)

	comma := p.Comma
	if comma == 0 {
		comma = detectDelimiter(br)
	}

	reader := csv.NewReader(br)
	reader.Comma = comma
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	return newTable(records, nil)
}

func detectDelimiter(br *bufio.Reader) rune {
	line, err := br.Peek(4096)
	if err != nil && len(line) == 0 {
		return ','
	}
	first := string(line)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}

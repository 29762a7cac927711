package parser

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ForName picks a reader from the file extension
func ForName(name string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return NewCSVParser(), nil
	case ".xlsx", ".xlsm":
		return NewXLSXParser(), nil
	case ".xls":
		return NewXLSParser(), nil
	default:
		return nil, &FileFormatError{Err: fmt.Errorf("unsupported file type %q", filepath.Ext(name))}
	}
}

// ReadFile parses the file at path
func ReadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return ReadBytes(filepath.Base(path), data)
}

// ReadBytes parses an uploaded file held in memory
func ReadBytes(name string, data []byte) (*Table, error) {
	reader, err := ForName(name)
	if err != nil {
		return nil, err
	}
	return reader.Read(bytes.NewReader(data))
}

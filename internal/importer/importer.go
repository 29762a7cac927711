// Package importer runs uploaded payment files through normalization and persists the batch.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/currency"
	"github.com/datsun80zx/payrep/internal/normalize"
	"github.com/datsun80zx/payrep/internal/parser"
	"github.com/datsun80zx/payrep/internal/payment"
	"github.com/datsun80zx/payrep/internal/store"
)

// MaxUploadBytes bounds a single upload
const MaxUploadBytes = 32 << 20

// Importer handles the import of payment exports
type Importer struct {
	store      store.Store
	rates      currency.RateSource
	normalizer *normalize.Normalizer
	log        zerolog.Logger
}

// NewImporter creates a new importer instance
func NewImporter(st store.Store, rates currency.RateSource, log zerolog.Logger) *Importer {
	return &Importer{
		store:      st,
		rates:      rates,
		normalizer: normalize.NewNormalizer(),
		log:        log,
	}
}

// WithNormalizer replaces the default normalizer
func (i *Importer) WithNormalizer(n *normalize.Normalizer) *Importer {
	i.normalizer = n
	return i
}

// ImportResult contains the results of an import operation
type ImportResult struct {
	BatchID          string               `json:"batch_id,omitempty"`
	Filename         string               `json:"filename"`
	Rows             int                  `json:"rows"`
	Processed        int                  `json:"processed"`
	Failed           int                  `json:"failed"`
	Errors           []normalize.RowError `json:"errors"`
	Warnings         []string             `json:"warnings"`
	ValidationResult *ValidationResult    `json:"validation,omitempty"`
	Rates            currency.RateTable   `json:"rates,omitempty"`
	Duration         time.Duration        `json:"duration"`
	AlreadyImported  bool                 `json:"already_imported"`
}

// ImportFile imports a csv, xlsx or xls export from disk
func (i *Importer) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return i.importBytes(ctx, filepath.Base(path), data)
}

// ImportReader imports an upload; name selects the file format by extension
func (i *Importer) ImportReader(ctx context.Context, name string, r io.Reader) (*ImportResult, error) {
	data, err := readUpload(r)
	if err != nil {
		return nil, err
	}
	return i.importBytes(ctx, name, data)
}

// ImportRows imports rows that were already read client side, keyed by header.
// Number cells keep their numeric meaning.
func (i *Importer) ImportRows(ctx context.Context, name string, rows []parser.ValueRow) (*ImportResult, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rows: %w", err)
	}
	return i.run(ctx, name, HashBytes(data), func() (*parser.Table, error) {
		return parser.FromValues(rows), nil
	})
}

func (i *Importer) importBytes(ctx context.Context, name string, data []byte) (*ImportResult, error) {
	return i.run(ctx, name, HashBytes(data), func() (*parser.Table, error) {
		return parser.ReadBytes(name, data)
	})
}

func (i *Importer) run(ctx context.Context, name, hash string, read func() (*parser.Table, error)) (*ImportResult, error) {
	startTime := time.Now()
	log := i.log.With().Str("file", name).Logger()

	// Step 1: Check if already imported
	existing, err := i.store.FindBatchByHash(ctx, hash)
	if err == nil {
		log.Info().Str("batch_id", existing.ID).Msg("file already imported")
		return &ImportResult{
			BatchID:         existing.ID,
			Filename:        name,
			Rows:            existing.RowCount,
			Processed:       existing.Processed,
			Failed:          existing.Failed,
			AlreadyImported: true,
			Duration:        time.Since(startTime),
		}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing import: %w", err)
	}

	// Step 2: Parse, normalize, convert and classify
	table, err := read()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	rates, processed, err := i.process(ctx, name, table)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Filename:         name,
		Rows:             len(table.Rows),
		Processed:        len(processed.Records),
		Failed:           len(processed.Errors),
		Errors:           processed.Errors,
		Warnings:         processed.Warnings,
		ValidationResult: ValidateImport(processed.Records, processed.Errors),
		Rates:            rates,
	}

	if len(processed.Records) == 0 {
		log.Warn().Int("rows", result.Rows).Int("errors", result.Failed).Msg("no valid rows, batch not saved")
		result.Duration = time.Since(startTime)
		return result, nil
	}

	// Step 3: Persist batch and records together
	status := store.BatchSuccess
	if result.Failed > 0 {
		status = store.BatchPartial
	}
	batch, _, err := i.store.SaveBatch(ctx, store.Batch{
		Filename:  name,
		FileHash:  hash,
		RowCount:  result.Rows,
		Processed: result.Processed,
		Failed:    result.Failed,
		Status:    status,
		Rates:     rates,
	}, processed.Records)
	if err != nil {
		return nil, fmt.Errorf("failed to save import batch: %w", err)
	}
	result.BatchID = batch.ID

	result.Duration = time.Since(startTime)
	log.Info().
		Str("batch_id", batch.ID).
		Int("rows", result.Rows).
		Int("processed", result.Processed).
		Int("errors", result.Failed).
		Int("warnings", len(result.Warnings)).
		Dur("duration", result.Duration).
		Msg("import complete")

	return result, nil
}

func (i *Importer) process(ctx context.Context, name string, table *parser.Table) (currency.RateTable, *normalize.Result, error) {
	rates, err := i.rates.Rates(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load exchange rates: %w", err)
	}

	processed, err := i.normalizer.Process(table, rates)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to normalize %s: %w", name, err)
	}
	return rates, processed, nil
}

// Analysis is a dry run of an upload: nothing is persisted
type Analysis struct {
	Filename      string               `json:"filename"`
	Headers       []string             `json:"headers"`
	Columns       parser.Columns       `json:"columns,omitempty"`
	MissingFields []parser.Field       `json:"missing_fields"`
	TotalRows     int                  `json:"total_rows"`
	Sample        []parser.RawRow      `json:"sample_data"`
	Currencies    []string             `json:"unique_currencies"`
	Earliest      *time.Time           `json:"earliest,omitempty"`
	Latest        *time.Time           `json:"latest,omitempty"`
	Valid         int                  `json:"valid"`
	Errors        []normalize.RowError `json:"errors"`
	Warnings      []string             `json:"warnings"`
	TotalUSD      string               `json:"total_usd"`
}

const sampleSize = 3

// Analyze reports how an upload would import without saving it.
// A file with unresolved columns still yields an Analysis listing them.
func (i *Importer) Analyze(ctx context.Context, name string, r io.Reader) (*Analysis, error) {
	data, err := readUpload(r)
	if err != nil {
		return nil, err
	}

	table, err := parser.ReadBytes(name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return i.AnalyzeTable(ctx, name, table)
}

// AnalyzeTable is Analyze for rows that are already parsed
func (i *Importer) AnalyzeTable(ctx context.Context, name string, table *parser.Table) (*Analysis, error) {
	a := &Analysis{
		Filename:      name,
		Headers:       table.Headers,
		MissingFields: i.normalizer.Schema.Missing(table.Headers),
		TotalRows:     len(table.Rows),
		Sample:        table.Rows[:min(sampleSize, len(table.Rows))],
		TotalUSD:      "0",
	}
	if len(a.MissingFields) > 0 {
		return a, nil
	}

	cols, err := i.normalizer.Schema.Resolve(table.Headers)
	if err != nil {
		return nil, err
	}
	a.Columns = cols
	a.Currencies = uniqueValues(table, a.Columns, parser.FieldCurrency)

	_, processed, err := i.process(ctx, name, table)
	if err != nil {
		return nil, err
	}

	a.Valid = len(processed.Records)
	a.Errors = processed.Errors
	a.Warnings = processed.Warnings

	total := currency.Round(sumUSD(processed.Records))
	a.TotalUSD = total.StringFixed(2)
	for _, rec := range processed.Records {
		d := rec.Day()
		if a.Earliest == nil || d.Before(*a.Earliest) {
			a.Earliest = &d
		}
		if a.Latest == nil || d.After(*a.Latest) {
			last := d
			a.Latest = &last
		}
	}
	return a, nil
}

func readUpload(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if n > MaxUploadBytes {
		return nil, fmt.Errorf("upload exceeds %d bytes", MaxUploadBytes)
	}
	return buf.Bytes(), nil
}

func uniqueValues(table *parser.Table, cols parser.Columns, field parser.Field) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range table.Rows {
		v := cols.Get(row, field)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func sumUSD(records []payment.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.AmountUSD)
	}
	return total
}

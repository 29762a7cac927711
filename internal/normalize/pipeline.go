package normalize

import (
	"errors"
	"fmt"
	"sort"

	"github.com/datsun80zx/payrep/internal/classify"
	"github.com/datsun80zx/payrep/internal/currency"
	"github.com/datsun80zx/payrep/internal/parser"
	"github.com/datsun80zx/payrep/internal/payment"
)

// Result is the outcome of one upload run through normalize, convert and classify
type Result struct {
	Records  []payment.Record
	Errors   []RowError
	Warnings []string
}

// Process runs the whole pipeline. The error is non-nil only when the schema is unusable.
func (n *Normalizer) Process(table *parser.Table, rates currency.RateTable) (*Result, error) {
	records, rowErrs, err := n.NormalizeTable(table)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Records: make([]payment.Record, 0, len(records)),
		Errors:  rowErrs,
	}

	seen := make(map[string]int)
	for _, rec := range records {
		converted, err := currency.Convert(rec, rates)
		if err != nil {
			var mre *currency.MissingRateError
			if !errors.As(err, &mre) {
				return nil, fmt.Errorf("failed to convert row %d: %w", rec.SourceRow, err)
			}
			result.Errors = append(result.Errors, RowError{
				Row:    rec.SourceRow,
				Field:  parser.FieldCurrency,
				Value:  string(rec.Currency),
				Reason: ReasonMissingRate,
			})
			continue
		}

		classified := classify.Record(converted)
		if classified.Location == payment.LocationUnclassified {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: account %q matched no location", rec.SourceRow, rec.AccountName))
		}

		key := duplicateKey(classified)
		if first, ok := seen[key]; ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: %s of row %d", rec.SourceRow, ReasonDuplicateInFile, first))
		} else {
			seen[key] = rec.SourceRow
		}

		result.Records = append(result.Records, classified)
	}

	sortRowErrors(result.Errors)
	return result, nil
}

func duplicateKey(r payment.Record) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		payment.DateKey(r.PaymentDate), r.CustomerName, r.Amount.String(), r.Currency, r.Method, r.AccountName)
}

func sortRowErrors(errs []RowError) {
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Row < errs[j].Row })
}

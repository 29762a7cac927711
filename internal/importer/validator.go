package importer

import (
	"fmt"

	"github.com/datsun80zx/payrep/internal/normalize"
	"github.com/datsun80zx/payrep/internal/payment"
)

// ValidationResult contains batch level data quality warnings
type ValidationResult struct {
	UnclassifiedRows []int    `json:"unclassified_rows,omitempty"`
	Warnings         []string `json:"warnings,omitempty"`
}

// ValidateImport checks data quality of a processed batch before it is saved
func ValidateImport(records []payment.Record, rowErrs []normalize.RowError) *ValidationResult {
	result := &ValidationResult{
		UnclassifiedRows: make([]int, 0),
		Warnings:         make([]string, 0),
	}

	for _, r := range records {
		if r.Location == payment.LocationUnclassified {
			result.UnclassifiedRows = append(result.UnclassifiedRows, r.SourceRow)
		}
	}
	if n := len(result.UnclassifiedRows); n > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Found %d payments with an unclassified location", n))
	}

	if len(rowErrs) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Skipped %d rows that failed validation", len(rowErrs)))
	}

	if len(records) == 0 {
		return result
	}

	months := make(map[string]bool)
	for _, r := range records {
		months[r.PaymentDate.Format("2006-01")] = true
	}
	if len(months) > 1 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Payments span %d calendar months", len(months)))
	}

	return result
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/datsun80zx/payrep/internal/importer"
	"github.com/datsun80zx/payrep/internal/normalize"
)

// maxErrorsShown caps the per-row errors printed for one file
const maxErrorsShown = 10

func (a *app) newImporter(ctx context.Context) (*importer.Importer, func(), error) {
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	rates, closeRates, err := a.rateSource(ctx)
	if err != nil {
		return nil, nil, err
	}
	return importer.NewImporter(st, rates, a.log), closeRates, nil
}

func (a *app) handleImport(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: payrep import <file>...")
	}

	imp, closeRates, err := a.newImporter(ctx)
	if err != nil {
		return err
	}
	defer closeRates()

	failed := 0
	for _, path := range args {
		fmt.Println("Starting import...")
		fmt.Printf("  File: %s\n", path)
		fmt.Println()

		result, err := imp.ImportFile(ctx, path)
		if err != nil {
			fmt.Printf("❌ Import failed: %v\n\n", err)
			failed++
			continue
		}
		printImportResult(result)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed to import", failed, len(args))
	}

	fmt.Println("💡 Next steps:")
	fmt.Println("   payrep report weekly              # Totals for every week")
	fmt.Println("   payrep report monthly 2024-01     # Monthly calendar")
	fmt.Println("   payrep stats                      # What the database holds")
	return nil
}

func printImportResult(result *importer.ImportResult) {
	if result.AlreadyImported {
		fmt.Println("ℹ️  This file has already been imported")
		fmt.Printf("   Batch ID: %s\n\n", result.BatchID)
		return
	}

	if result.BatchID == "" {
		fmt.Println("⚠️  No valid rows, nothing was saved")
	} else {
		fmt.Println("✅ Import successful!")
		fmt.Println()
		fmt.Printf("Batch ID:           %s\n", result.BatchID)
	}
	fmt.Printf("Rows read:          %d\n", result.Rows)
	fmt.Printf("Payments imported:  %d\n", result.Processed)
	if result.Failed > 0 {
		fmt.Printf("Rows skipped:       %d\n", result.Failed)
	}
	if len(result.Rates) > 0 {
		fmt.Printf("Rates applied:      %s\n", result.Rates)
	}
	fmt.Printf("Duration:           %v\n", result.Duration.Round(time.Millisecond))

	printRowErrors(result.Errors)
	printWarnings(result.Warnings)
	fmt.Println()
}

func printRowErrors(errs []normalize.RowError) {
	if len(errs) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("❌ Row errors:")
	for i, e := range errs {
		if i == maxErrorsShown {
			fmt.Printf("   ... and %d more\n", len(errs)-maxErrorsShown)
			break
		}
		fmt.Printf("   - row %d: %s %s\n", e.Row, e.Field, e.Reason)
	}
}

func printWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("⚠️  Warnings:")
	for _, warning := range warnings {
		fmt.Printf("   - %s\n", warning)
	}
}

func (a *app) handleAnalyze(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: payrep analyze <file>")
	}

	imp, closeRates, err := a.newImporter(ctx)
	if err != nil {
		return err
	}
	defer closeRates()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	analysis, err := imp.Analyze(ctx, filepath.Base(args[0]), f)
	if err != nil {
		return err
	}

	fmt.Printf("Analysis of %s\n", analysis.Filename)
	fmt.Println("══════════════════════════════════════════════════════════════════════")
	fmt.Printf("Columns:       %s\n", strings.Join(analysis.Headers, ", "))
	if len(analysis.MissingFields) > 0 {
		missing := make([]string, len(analysis.MissingFields))
		for i, field := range analysis.MissingFields {
			missing[i] = string(field)
		}
		fmt.Printf("❌ Missing:    %s\n", strings.Join(missing, ", "))
		return nil
	}
	fmt.Printf("Rows:          %d\n", analysis.TotalRows)
	fmt.Printf("Valid rows:    %d\n", analysis.Valid)
	fmt.Printf("Currencies:    %s\n", strings.Join(analysis.Currencies, ", "))
	if analysis.Earliest != nil && analysis.Latest != nil {
		fmt.Printf("Date range:    %s to %s\n",
			analysis.Earliest.Format("2006-01-02"), analysis.Latest.Format("2006-01-02"))
	}
	fmt.Printf("Total (USD):   $%s\n", analysis.TotalUSD)
	fmt.Println("══════════════════════════════════════════════════════════════════════")

	printRowErrors(analysis.Errors)
	printWarnings(analysis.Warnings)
	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/payment"
	"github.com/datsun80zx/payrep/internal/report"
	"github.com/datsun80zx/payrep/internal/store"
)

func (a *app) handleList(ctx context.Context, args []string) error {
	what := "batches"
	if len(args) > 0 && (args[0] == "batches" || args[0] == "payments") {
		what = args[0]
		args = args[1:]
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}

	if what == "batches" {
		return listBatches(ctx, st)
	}

	from, to, args, err := parseDateFlags(args)
	if err != nil {
		return err
	}
	project, _ := parseFlag(args, "project")
	filter := store.Filter{From: from, To: to, Project: payment.Project(project)}
	if project != "" && !filter.Project.Valid() {
		return fmt.Errorf("unknown project %q, want A or B", project)
	}
	return listPayments(ctx, st, filter)
}

func listBatches(ctx context.Context, st store.Store) error {
	batches, err := st.ListBatches(ctx, 20)
	if err != nil {
		return fmt.Errorf("listing imports: %w", err)
	}

	if len(batches) == 0 {
		fmt.Println("No imports found")
		fmt.Println()
		fmt.Println("💡 Import your first file with:")
		fmt.Println("   payrep import tahsilat.xlsx")
		return nil
	}

	fmt.Println("Import History")
	fmt.Println("══════════════════════════════════════════════════════════════════════════════════════════")
	fmt.Printf("%-36s  %-19s  %-9s  %6s  %6s  %-20s\n",
		"ID", "Date", "Status", "Rows", "Failed", "File")
	fmt.Println("──────────────────────────────────────────────────────────────────────────────────────────")

	for _, batch := range batches {
		statusIcon := "✅"
		if batch.Status == store.BatchPartial {
			statusIcon = "⚠️"
		}

		fmt.Printf("%-36s  %s  %s %-7s  %6d  %6d  %-20s\n",
			batch.ID,
			batch.ImportedAt.Format("2006-01-02 15:04:05"),
			statusIcon,
			batch.Status,
			batch.Processed,
			batch.Failed,
			report.Truncate(batch.Filename, 20),
		)
	}
	fmt.Println("══════════════════════════════════════════════════════════════════════════════════════════")
	fmt.Printf("Total: %d import(s)\n", len(batches))
	return nil
}

func listPayments(ctx context.Context, st store.Store, filter store.Filter) error {
	records, err := st.ListPayments(ctx, filter)
	if err != nil {
		return fmt.Errorf("listing payments: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No payments found for the given filters")
		return nil
	}

	fmt.Println("Payments")
	fmt.Println("════════════════════════════════════════════════════════════════════════════════════════════════════")
	fmt.Printf("%-10s  %-24s  %12s  %-4s  %12s  %-13s  %-17s  %-3s\n",
		"Date", "Customer", "Amount", "Cur", "USD", "Method", "Location", "Prj")
	fmt.Println("────────────────────────────────────────────────────────────────────────────────────────────────────")

	for _, r := range records {
		fmt.Printf("%-10s  %-24s  %12s  %-4s  %12s  %-13s  %-17s  %-3s\n",
			payment.DateKey(r.PaymentDate),
			report.Truncate(r.CustomerName, 24),
			r.Amount.StringFixed(2),
			r.Currency,
			report.FormatMoney(r.AmountUSD),
			r.Method,
			r.Location,
			r.Project,
		)
	}
	fmt.Println("════════════════════════════════════════════════════════════════════════════════════════════════════")
	fmt.Printf("Total: %d payment(s), %s\n", len(records), report.FormatMoney(sumUSD(records)))
	return nil
}

func sumUSD(records []payment.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.AmountUSD)
	}
	return total
}

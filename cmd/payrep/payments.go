package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/payment"
	"github.com/datsun80zx/payrep/internal/report"
)

func (a *app) handleStats(ctx context.Context) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		return fmt.Errorf("loading stats: %w", err)
	}

	fmt.Println("Database Summary")
	fmt.Println("════════════════════════════════════════")
	fmt.Printf("Payments:        %d\n", stats.TotalRecords)
	fmt.Printf("Import batches:  %d\n", stats.Batches)
	if stats.FirstPayment != nil && stats.LastPayment != nil {
		fmt.Printf("Date range:      %s to %s\n",
			payment.DateKey(*stats.FirstPayment), payment.DateKey(*stats.LastPayment))
	}

	if len(stats.ByCurrency) > 0 {
		fmt.Println()
		fmt.Println("By currency:")
		for _, c := range payment.Currencies() {
			cs, ok := stats.ByCurrency[c]
			if !ok {
				continue
			}
			fmt.Printf("  %-4s  %6d  %16s\n", c, cs.Count, cs.Amount.StringFixed(2))
		}
	}

	if len(stats.ByProject) > 0 {
		fmt.Println()
		fmt.Println("By project:")
		for _, p := range payment.Projects() {
			fmt.Printf("  %-4s  %6d\n", p, stats.ByProject[p])
		}
	}

	if len(stats.ByMonth) > 0 {
		months := make([]string, 0, len(stats.ByMonth))
		for m := range stats.ByMonth {
			months = append(months, m)
		}
		sort.Strings(months)

		fmt.Println()
		fmt.Println("By month:")
		for _, m := range months {
			fmt.Printf("  %-7s  %6d\n", m, stats.ByMonth[m])
		}
	}
	fmt.Println("════════════════════════════════════════")
	return nil
}

func (a *app) handleDelete(ctx context.Context, args []string) error {
	id, args := parseFlag(args, "id")
	all, args := parseBoolFlag(args, "all")
	from, to, _, err := parseDateFlags(args)
	if err != nil {
		return err
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}

	switch {
	case id != "":
		if err := st.DeletePayment(ctx, id); err != nil {
			return fmt.Errorf("deleting payment %s: %w", id, err)
		}
		fmt.Printf("✅ Deleted payment %s\n", id)
	case from != nil && to != nil:
		n, err := st.DeleteRange(ctx, *from, *to)
		if err != nil {
			return fmt.Errorf("deleting payments: %w", err)
		}
		fmt.Printf("✅ Deleted %d payment(s) from %s to %s\n", n, payment.DateKey(*from), payment.DateKey(*to))
	case all:
		n, err := st.Clear(ctx)
		if err != nil {
			return fmt.Errorf("clearing payments: %w", err)
		}
		fmt.Printf("✅ Deleted all %d payment(s) and their import batches\n", n)
	default:
		return fmt.Errorf("usage: payrep delete --id ID | --from DATE --to DATE | --all")
	}
	return nil
}

func (a *app) handleTax(ctx context.Context, args []string) error {
	clearTax, args := parseBoolFlag(args, "clear")
	includes, args := parseBoolFlag(args, "includes")
	amountStr, args := parseFlag(args, "amount")
	rateStr, args := parseFlag(args, "rate")
	note, args := parseFlag(args, "note")
	if len(args) != 1 {
		return fmt.Errorf("usage: payrep tax <id> [--includes] [--amount N] [--rate N] [--note TEXT] [--clear]")
	}
	id := args[0]

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}

	if clearTax {
		if _, err := st.SetTax(ctx, id, nil); err != nil {
			return fmt.Errorf("clearing tax on %s: %w", id, err)
		}
		fmt.Printf("✅ Cleared tax details on %s\n", id)
		return nil
	}

	tax := &payment.TaxAnnotation{IncludesTax: includes, Amount: decimal.Zero, Rate: decimal.Zero, Note: note}
	if amountStr != "" {
		if tax.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return fmt.Errorf("invalid --amount %q", amountStr)
		}
	}
	if rateStr != "" {
		if tax.Rate, err = decimal.NewFromString(rateStr); err != nil {
			return fmt.Errorf("invalid --rate %q", rateStr)
		}
	}
	if tax.Amount.IsNegative() || tax.Rate.IsNegative() {
		return fmt.Errorf("tax amount and rate must not be negative")
	}

	rec, err := st.SetTax(ctx, id, tax)
	if err != nil {
		return fmt.Errorf("updating tax on %s: %w", id, err)
	}
	fmt.Printf("✅ Updated %s (%s, %s)\n", rec.ID, rec, report.FormatMoney(rec.AmountUSD))
	return nil
}

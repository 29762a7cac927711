package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/datsun80zx/payrep/internal/currency"
	"github.com/datsun80zx/payrep/internal/payment"
)

func (a *app) handleRates(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: payrep rates <show|set CUR=RATE...>")
	}

	switch args[0] {
	case "show":
		return a.showRates(ctx)
	case "set":
		return a.setRates(ctx, args[1:])
	default:
		return fmt.Errorf("unknown rates command %q, available: show, set", args[0])
	}
}

func (a *app) showRates(ctx context.Context) error {
	src, closeRates, err := a.rateSource(ctx)
	if err != nil {
		return err
	}
	defer closeRates()

	table, err := src.Rates(ctx)
	if err != nil {
		return err
	}

	origin := a.cfg.RatesFile
	if _, ok := src.(*currency.RedisSource); ok {
		origin = "redis " + a.cfg.RedisAddr
	}

	fmt.Printf("Exchange rates (USD per unit, from %s)\n", origin)
	fmt.Println("════════════════════════════════")
	codes := make([]string, 0, len(table))
	for cur := range table {
		codes = append(codes, string(cur))
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Printf("  %-4s  %s\n", code, table[payment.Currency(code)])
	}
	if len(codes) == 0 {
		fmt.Println("  No rates configured, only USD payments can be imported")
		fmt.Println()
		fmt.Println("💡 Set rates with:")
		fmt.Println("   payrep rates set TL=0.03")
	}
	return nil
}

func (a *app) setRates(ctx context.Context, args []string) error {
	updates, err := currency.ParseRates(args)
	if err != nil {
		return err
	}

	current, err := a.loadRateFile()
	if err != nil {
		return err
	}
	table := current.Merge(updates)
	if err := table.Validate(); err != nil {
		return err
	}

	data, err := currency.MarshalRateFile(table)
	if err != nil {
		return err
	}
	if err := os.WriteFile(a.cfg.RatesFile, data, 0o644); err != nil {
		return fmt.Errorf("writing rates file: %w", err)
	}
	fmt.Printf("✅ Rates saved to %s: %s\n", a.cfg.RatesFile, table)

	src, closeRates, err := a.rateSource(ctx)
	if err != nil {
		return err
	}
	defer closeRates()

	if rs, ok := src.(*currency.RedisSource); ok {
		if err := rs.Set(ctx, table); err != nil {
			return err
		}
		fmt.Printf("✅ Rates shared through redis %s\n", a.cfg.RedisAddr)
	}
	return nil
}

package currency

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/datsun80zx/payrep/internal/payment"
)

// RateSource provides the rate table applied to one import batch
type RateSource interface {
	Rates(ctx context.Context) (RateTable, error)
}

// StaticSource serves a fixed table, typically loaded from the rates file
type StaticSource struct {
	Table RateTable
}

func (s StaticSource) Rates(_ context.Context) (RateTable, error) {
	return s.Table.Merge(nil), nil
}

type rateFile struct {
	Rates map[string]string `yaml:"rates"`
}

// LoadRateFile reads a YAML file of the form
//
//	rates:
//	  TL: "0.03"
//	  EUR: "1.08"
func LoadRateFile(path string) (RateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rates file: %w", err)
	}
	return parseRateFile(data)
}

func parseRateFile(data []byte) (RateTable, error) {
	var f rateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rates file: %w", err)
	}

	table := make(RateTable, len(f.Rates))
	for code, raw := range f.Rates {
		cur, ok := ParseCurrency(code)
		if !ok {
			return nil, fmt.Errorf("unsupported currency %q in rates file", code)
		}
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", cur, err)
		}
		table[cur] = rate
	}
	return table, table.Validate()
}

// MarshalRateFile renders a table in the rates file format
func MarshalRateFile(t RateTable) ([]byte, error) {
	f := rateFile{Rates: make(map[string]string, len(t))}
	for cur, rate := range t {
		if cur == payment.ReportingCurrency {
			continue
		}
		f.Rates[string(cur)] = rate.String()
	}
	return yaml.Marshal(f)
}

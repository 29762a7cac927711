package parser

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1000", "1000"},
		{"1.000", "1000"},
		{"1.250,50", "1250.5"},
		{"1,250.50", "1250.5"},
		{"₺ 1.250,50", "1250.5"},
		{"$50", "50"},
		{"€12,5", "12.5"},
		{"1.234.567", "1234567"},
		{"0.500", "0.5"},
		{"12.5", "12.5"},
		{"100 TL", "100"},
		{"(25.00)", "-25"},
		{"abc", "0"},
		{"", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			want := decimal.RequireFromString(tt.want)
			if got := ParseAmount(tt.in); !got.Equal(want) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1000.125", "1000.125"},
		{"12.5", "12.5"},
		{"1e3", "1000"},
		{" 42 ", "42"},
		{"1.250,50", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			want := decimal.RequireFromString(tt.want)
			if got := ParseNumber(tt.in); !got.Equal(want) {
				t.Errorf("ParseNumber(%q) = %s, want %s", tt.in, got, want)
			}
		})
	}
}

package parser

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a money cell. Anything that is not a number after cleanup is zero,
// which the caller rejects through its amount > 0 check.
func ParseAmount(s string) decimal.Decimal {
	s = cleanCurrency(s)
	if s == "" {
		return decimal.Zero
	}

	val, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return val
}

// ParseNumber parses a cell that held a number, so "1000.125" is one thousand and
// a fraction. Separator cleanup is only for text cells.
func ParseNumber(s string) decimal.Decimal {
	val, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return val
}

// cleanCurrency strips symbols, currency codes and grouping so "₺1.250,50" becomes "1250.50".
// Accounting notation (123.45) becomes -123.45.
func cleanCurrency(s string) string {
	s = strings.TrimSpace(s)

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		case unicode.IsSpace(r), unicode.IsLetter(r), unicode.Is(unicode.Sc, r):
			return -1
		default:
			return r
		}
	}, s)

	s = normalizeSeparators(s)

	if isNegative && s != "" && !strings.HasPrefix(s, "-") {
		s = "-" + s
	}
	return s
}

// normalizeSeparators settles the decimal comma/point convention.
// With both present the rightmost one is the decimal separator. A lone comma is decimal.
// Dots are grouping when repeated or when exactly three digits follow a single dot.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")

	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)

	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			return strings.ReplaceAll(s, ".", "")
		}
		intPart := strings.TrimPrefix(s[:lastDot], "-")
		if len(s)-lastDot-1 == 3 && intPart != "" && intPart != "0" {
			return strings.Replace(s, ".", "", 1)
		}
	}

	return s
}

package main

import (
	"testing"
	"time"
)

func TestParseFlag(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		want      string
		remaining int
	}{
		{"separate value", []string{"monthly", "--html", "out.html"}, "out.html", 1},
		{"equals form", []string{"--html=out.html", "2024-01"}, "out.html", 1},
		{"absent", []string{"2024"}, "", 1},
		{"dangling flag kept", []string{"--html"}, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rest := parseFlag(tt.args, "html")
			if got != tt.want || len(rest) != tt.remaining {
				t.Errorf("parseFlag() = %q, %v", got, rest)
			}
		})
	}
}

func TestParseDateFlags(t *testing.T) {
	from, to, rest, err := parseDateFlags([]string{"payments", "--from", "2024-01-01", "--to=2024-01-31"})
	if err != nil {
		t.Fatalf("parseDateFlags() error = %v", err)
	}
	if !from.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("range = %v..%v", from, to)
	}
	if len(rest) != 1 || rest[0] != "payments" {
		t.Errorf("remaining = %v", rest)
	}

	if _, _, _, err := parseDateFlags([]string{"--from", "01/01/2024"}); err == nil {
		t.Error("expected error for non ISO date")
	}
}

func TestParseBoolFlag(t *testing.T) {
	found, rest := parseBoolFlag([]string{"abc", "--all"}, "all")
	if !found || len(rest) != 1 {
		t.Errorf("parseBoolFlag() = %v, %v", found, rest)
	}
}

func TestParseYearMonth(t *testing.T) {
	y, m, err := parseYearMonth("2024-02")
	if err != nil || y != 2024 || m != time.February {
		t.Errorf("parseYearMonth() = %d, %v, %v", y, m, err)
	}
	if _, _, err := parseYearMonth("2024-13"); err == nil {
		t.Error("expected error for month 13")
	}
}

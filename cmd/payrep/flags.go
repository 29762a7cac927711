package main

import (
	"fmt"
	"strings"
	"time"
)

// parseFlag extracts --name VALUE or --name=VALUE from args
func parseFlag(args []string, name string) (string, []string) {
	var value string
	var remainingArgs []string

	flag := "--" + name
	i := 0
	for i < len(args) {
		if args[i] == flag && i+1 < len(args) {
			value = args[i+1]
			i += 2
		} else if strings.HasPrefix(args[i], flag+"=") {
			value = strings.TrimPrefix(args[i], flag+"=")
			i++
		} else {
			remainingArgs = append(remainingArgs, args[i])
			i++
		}
	}

	return value, remainingArgs
}

// parseBoolFlag reports whether --name is present and removes it
func parseBoolFlag(args []string, name string) (bool, []string) {
	found := false
	var remainingArgs []string
	for _, arg := range args {
		if arg == "--"+name {
			found = true
			continue
		}
		remainingArgs = append(remainingArgs, arg)
	}
	return found, remainingArgs
}

// parseDateFlags extracts --from and --to
func parseDateFlags(args []string) (from, to *time.Time, remaining []string, err error) {
	fromStr, args := parseFlag(args, "from")
	toStr, args := parseFlag(args, "to")

	if from, err = parseDate(fromStr); err != nil {
		return nil, nil, nil, fmt.Errorf("--from: %w", err)
	}
	if to, err = parseDate(toStr); err != nil {
		return nil, nil, nil, fmt.Errorf("--to: %w", err)
	}
	return from, to, args, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}

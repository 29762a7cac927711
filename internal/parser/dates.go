package parser

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate is returned when no matcher accepts a date cell
var ErrInvalidDate = errors.New("invalid date")

// DateMatcher is one date format strategy
type DateMatcher struct {
	Name  string
	Match func(s string) (time.Time, bool)
}

// DateMatchers are tried in order; the first match wins
var DateMatchers = []DateMatcher{
	{Name: "day month-name year", Match: matchMonthName},
	{Name: "day/month/year", Match: matchDayFirst},
	{Name: "year/month/day", Match: matchYearFirst},
	{Name: "spreadsheet serial", Match: matchSerial},
	{Name: "fallback layouts", Match: matchFallback},
}

// ParseDate runs the matcher chain and returns the calendar date at UTC midnight
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}

	for _, m := range DateMatchers {
		if t, ok := m.Match(s); ok {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"jun": time.June, "jul": time.July, "aug": time.August, "sep": time.September,
	"sept": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var (
	monthNameRe = regexp.MustCompile(`^(\d{1,2})[\s-]+([A-Za-z]+)\.?[\s-]+(\d{4})$`)
	dayFirstRe  = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})(?:[ T].*)?$`)
	yearFirstRe = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})(?:[ T].*)?$`)
)

func matchMonthName(s string) (time.Time, bool) {
	m := monthNameRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	month, ok := monthNames[strings.ToLower(m[2])]
	if !ok {
		return time.Time{}, false
	}
	return calendarDate(atoi(m[3]), month, atoi(m[1]))
}

func matchDayFirst(s string) (time.Time, bool) {
	m := dayFirstRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	return calendarDate(atoi(m[3]), time.Month(atoi(m[2])), atoi(m[1]))
}

func matchYearFirst(s string) (time.Time, bool) {
	m := yearFirstRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	return calendarDate(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]))
}

func matchSerial(s string) (time.Time, bool) {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || v <= 1 || v >= 100000 {
		return time.Time{}, false
	}
	return SerialDate(v), true
}

// ParseSerialDate reads a number cell as a spreadsheet serial date
func ParseSerialDate(s string) (time.Time, error) {
	if t, ok := matchSerial(strings.TrimSpace(s)); ok {
		return t, nil
	}
	return time.Time{}, ErrInvalidDate
}

// SerialDate converts a spreadsheet serial number. The numbering counts a
// February 29 1900 that never existed, so serials past 59 lose one more day.
func SerialDate(v float64) time.Time {
	whole := math.Floor(v)
	days := int(whole) - 1
	if v > 59 {
		days--
	}

	epoch := time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	t := epoch.AddDate(0, 0, days)
	t = t.Add(time.Duration((v - whole) * float64(24*time.Hour)))

	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Mon, 2 Jan 2006",
	"02/01/06",
	"2006.01.02",
}

func matchFallback(s string) (time.Time, bool) {
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, mo, d := t.Date()
			return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// calendarDate rejects dates that time.Date would silently roll over, like 31/02
func calendarDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

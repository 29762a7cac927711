package metrics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/payment"
)

// CalendarCell is one day of the month grid
type CalendarCell struct {
	Date   time.Time       `json:"date"`
	Day    int             `json:"day"`
	Amount decimal.Decimal `json:"amount"`
}

// Calendar lays the days of a month out seven to a row, day 1 in the first column.
// The last row is padded with nil cells.
func Calendar(year int, month time.Month, daily Amounts) [][]*CalendarCell {
	w := MonthWindow(year, month)

	var rows [][]*CalendarCell
	var current []*CalendarCell
	for d := w.Start; d.Before(w.End); d = d.AddDate(0, 0, 1) {
		amount, ok := daily[payment.DateKey(d)]
		if !ok {
			amount = decimal.Zero
		}
		current = append(current, &CalendarCell{Date: d, Day: d.Day(), Amount: amount})
		if len(current) == 7 {
			rows = append(rows, current)
			current = nil
		}
	}

	if len(current) > 0 {
		for len(current) < 7 {
			current = append(current, nil)
		}
		rows = append(rows, current)
	}
	return rows
}

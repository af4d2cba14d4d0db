package utils

import (
	"fmt"
	"time"
)

// DateFormat is the storage format for all event and lot dates.
const DateFormat = "2006-01-02"

// FiscalYear buckets a date into the Indian fiscal year (April to March),
// e.g. 2024-06-15 -> "FY2024-25", 2024-02-15 -> "FY2023-24".
func FiscalYear(t time.Time) string {
	start := t.Year()
	if t.Month() < time.April {
		start--
	}
	return fmt.Sprintf("FY%d-%02d", start, (start+1)%100)
}

// HoldingDays is the whole number of days between acquisition and sale.
func HoldingDays(acquired, sold time.Time) int {
	return int(sold.Sub(acquired).Hours() / 24)
}

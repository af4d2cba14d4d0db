package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateFormat, s)
	require.NoError(t, err)
	return d
}

func TestFiscalYear(t *testing.T) {
	cases := map[string]string{
		"2024-06-15": "FY2024-25",
		"2024-04-01": "FY2024-25",
		"2024-03-31": "FY2023-24",
		"2024-02-15": "FY2023-24",
		"2023-12-31": "FY2023-24",
		"2025-01-01": "FY2024-25",
	}
	for date, want := range cases {
		assert.Equal(t, want, FiscalYear(parseDay(t, date)), "date %s", date)
	}
}

func TestHoldingDays(t *testing.T) {
	assert.Equal(t, 143, HoldingDays(parseDay(t, "2024-01-10"), parseDay(t, "2024-06-01")))
	assert.Equal(t, 365, HoldingDays(parseDay(t, "2023-01-10"), parseDay(t, "2024-01-10")))
	assert.Equal(t, 366, HoldingDays(parseDay(t, "2024-01-10"), parseDay(t, "2025-01-10")), "leap year span")
	assert.Equal(t, 0, HoldingDays(parseDay(t, "2024-01-10"), parseDay(t, "2024-01-10")))
}

package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/lotledger/backend/src/ledger"
	"github.com/username/lotledger/backend/src/models"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testDirectory() *ledger.SecurityDirectory {
	return ledger.NewSecurityDirectory([]models.Security{
		{SecurityID: "SEC-AAPL", AssetID: "ASSET-AAPL", AssetClass: "FOREIGN_EQUITY", Country: "US", Ticker: "AAPL", TradingCurrency: "USD"},
		{SecurityID: "SEC-INFY", AssetID: "ASSET-INFY", AssetClass: "DOMESTIC_EQUITY", Country: "IN", Ticker: "INFY", TradingCurrency: "INR"},
	})
}

func consumption(t *testing.T, acquired, sold, qty, cost, proceeds string) models.ConsumptionRecord {
	return models.ConsumptionRecord{
		TradeID:         "T1",
		LotID:           "L1",
		OwnerID:         "OWN-A",
		SecurityID:      "SEC-AAPL",
		AssetID:         "ASSET-AAPL",
		SaleDate:        day(t, sold),
		AcquisitionDate: day(t, acquired),
		Quantity:        dec(qty),
		CostNative:      dec(cost),
		CostINR:         dec(cost).Mul(dec("80")),
		ProceedsNative:  dec(proceeds),
		ProceedsINR:     dec(proceeds).Mul(dec("82")),
	}
}

func TestCalculateClassifiesLongAndShortTerm(t *testing.T) {
	p := NewGainsProcessor()

	gains := p.Calculate([]models.ConsumptionRecord{
		consumption(t, "2023-01-10", "2024-06-01", "40", "400", "600"),
		consumption(t, "2024-01-10", "2024-06-01", "10", "100", "150"),
	}, testDirectory(), nil)

	require.Len(t, gains, 2)

	long := gains[0]
	assert.Equal(t, models.TermLong, long.Term)
	assert.Equal(t, 508, long.HoldingDays)
	assert.Equal(t, "FY2024-25", long.FiscalYear)
	assert.Equal(t, "FOREIGN_EQUITY", long.AssetClass)
	assert.True(t, long.GainNative.Equal(dec("200")))

	short := gains[1]
	assert.Equal(t, models.TermShort, short.Term)
	assert.Equal(t, 143, short.HoldingDays)
	assert.True(t, short.GainINR.Equal(dec("150").Mul(dec("82")).Sub(dec("100").Mul(dec("80")))))
}

func TestCalculateUsesConfiguredHoldingPeriod(t *testing.T) {
	p := NewGainsProcessor()
	taxConfig := map[string]models.AssetTaxConfig{
		"FOREIGN_EQUITY": {AssetClass: "FOREIGN_EQUITY", HoldingPeriodLTDays: 730},
	}

	gains := p.Calculate([]models.ConsumptionRecord{
		consumption(t, "2023-01-10", "2024-06-01", "40", "400", "600"),
	}, testDirectory(), taxConfig)

	require.Len(t, gains, 1)
	assert.Equal(t, models.TermShort, gains[0].Term, "508 days is short of the 730-day threshold")
}

func TestCalculateGiftedLotKeepsDonorHoldingPeriod(t *testing.T) {
	// A gifted lot arrives with the donor's acquisition date already on the
	// consumption record; classification needs no special casing.
	p := NewGainsProcessor()

	c := consumption(t, "2021-05-01", "2024-06-01", "30", "300", "900")
	gains := p.Calculate([]models.ConsumptionRecord{c}, testDirectory(), nil)

	require.Len(t, gains, 1)
	assert.Equal(t, models.TermLong, gains[0].Term)
}

func TestCalculateLossKeepsNegativeGain(t *testing.T) {
	p := NewGainsProcessor()

	gains := p.Calculate([]models.ConsumptionRecord{
		consumption(t, "2024-01-10", "2024-06-01", "10", "200", "150"),
	}, testDirectory(), nil)

	require.Len(t, gains, 1)
	assert.True(t, gains[0].GainNative.IsNegative())
}

func TestCalculateEmptyInput(t *testing.T) {
	p := NewGainsProcessor()
	assert.Empty(t, p.Calculate(nil, testDirectory(), nil))
}

package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/lotledger/backend/src/models"
)

func gain(fy, assetClass, term, gainINR string) models.RealizedGain {
	return models.RealizedGain{
		FiscalYear: fy,
		AssetClass: assetClass,
		Term:       term,
		GainINR:    dec(gainINR),
	}
}

func foreignEquityConfig() map[string]models.AssetTaxConfig {
	return map[string]models.AssetTaxConfig{
		"FOREIGN_EQUITY": {
			AssetClass:          "FOREIGN_EQUITY",
			HoldingPeriodLTDays: 730,
			LTCGRate:            dec("0.125"),
			STCGRate:            dec("0.30"),
			LTCGExemptionINR:    dec("100000"),
		},
	}
}

func TestSummarizeAppliesRatesAndExemption(t *testing.T) {
	p := NewTaxProcessor()

	rows := p.Summarize([]models.RealizedGain{
		gain("FY2024-25", "FOREIGN_EQUITY", models.TermLong, "250000"),
		gain("FY2024-25", "FOREIGN_EQUITY", models.TermShort, "50000"),
	}, foreignEquityConfig())

	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, "FY2024-25", r.FiscalYear)
	assert.Equal(t, "FOREIGN_EQUITY", r.AssetClass)
	assert.True(t, r.LongTermGainINR.Equal(dec("250000")))
	assert.True(t, r.ShortTermGainINR.Equal(dec("50000")))
	assert.True(t, r.TaxableLongTermINR.Equal(dec("150000")), "exemption reduces the taxable amount")
	assert.True(t, r.LTCGTaxINR.Equal(dec("18750")))
	assert.True(t, r.STCGTaxINR.Equal(dec("15000")))
	assert.True(t, r.TotalTaxINR.Equal(dec("33750")))
}

func TestSummarizeExemptionFloorsAtZero(t *testing.T) {
	p := NewTaxProcessor()

	rows := p.Summarize([]models.RealizedGain{
		gain("FY2024-25", "FOREIGN_EQUITY", models.TermLong, "40000"),
	}, foreignEquityConfig())

	require.Len(t, rows, 1)
	assert.True(t, rows[0].TaxableLongTermINR.IsZero())
	assert.True(t, rows[0].LTCGTaxINR.IsZero())
}

func TestSummarizeLossesProduceNoTax(t *testing.T) {
	p := NewTaxProcessor()

	rows := p.Summarize([]models.RealizedGain{
		gain("FY2024-25", "FOREIGN_EQUITY", models.TermLong, "-50000"),
		gain("FY2024-25", "FOREIGN_EQUITY", models.TermShort, "-20000"),
	}, foreignEquityConfig())

	require.Len(t, rows, 1)
	r := rows[0]
	assert.True(t, r.LongTermGainINR.Equal(dec("-50000")), "losses stay visible in the totals")
	assert.True(t, r.ShortTermGainINR.Equal(dec("-20000")))
	assert.True(t, r.TotalTaxINR.IsZero())
}

func TestSummarizeMissingConfigMeansZeroTax(t *testing.T) {
	p := NewTaxProcessor()

	rows := p.Summarize([]models.RealizedGain{
		gain("FY2024-25", "CRYPTO", models.TermShort, "90000"),
	}, foreignEquityConfig())

	require.Len(t, rows, 1)
	assert.True(t, rows[0].ShortTermGainINR.Equal(dec("90000")))
	assert.True(t, rows[0].TotalTaxINR.IsZero())
}

func TestSummarizeGroupsAndSortsBuckets(t *testing.T) {
	p := NewTaxProcessor()

	rows := p.Summarize([]models.RealizedGain{
		gain("FY2024-25", "FOREIGN_EQUITY", models.TermShort, "1000"),
		gain("FY2023-24", "FOREIGN_EQUITY", models.TermShort, "2000"),
		gain("FY2024-25", "DOMESTIC_EQUITY", models.TermShort, "3000"),
		gain("FY2024-25", "FOREIGN_EQUITY", models.TermShort, "500"),
	}, foreignEquityConfig())

	require.Len(t, rows, 3)
	assert.Equal(t, "FY2023-24", rows[0].FiscalYear)
	assert.Equal(t, "DOMESTIC_EQUITY", rows[1].AssetClass)
	assert.Equal(t, "FOREIGN_EQUITY", rows[2].AssetClass)
	assert.True(t, rows[2].ShortTermGainINR.Equal(dec("1500")), "same-bucket gains accumulate")
}

package processors

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/lotledger/backend/src/models"
)

type taxProcessorImpl struct{}

func NewTaxProcessor() TaxProcessor {
	return &taxProcessorImpl{}
}

// Summarize groups realized gains by (fiscal year, asset class) and applies
// the configured rates. The LTCG exemption reduces the taxable long-term
// amount; losses carry through as negative gain totals but never produce
// negative tax.
func (p *taxProcessorImpl) Summarize(gains []models.RealizedGain, taxConfig map[string]models.AssetTaxConfig) []models.TaxSummaryRow {
	type bucket struct {
		longTerm  decimal.Decimal
		shortTerm decimal.Decimal
	}
	type key struct {
		fiscalYear string
		assetClass string
	}

	buckets := make(map[key]*bucket)
	for _, g := range gains {
		k := key{fiscalYear: g.FiscalYear, assetClass: g.AssetClass}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
		}
		if g.Term == models.TermLong {
			b.longTerm = b.longTerm.Add(g.GainINR)
		} else {
			b.shortTerm = b.shortTerm.Add(g.GainINR)
		}
	}

	rows := make([]models.TaxSummaryRow, 0, len(buckets))
	for k, b := range buckets {
		cfg := taxConfig[k.assetClass]

		taxableLT := b.longTerm.Sub(cfg.LTCGExemptionINR)
		if taxableLT.IsNegative() {
			taxableLT = decimal.Zero
		}
		ltTax := taxableLT.Mul(cfg.LTCGRate)

		stTax := decimal.Zero
		if b.shortTerm.IsPositive() {
			stTax = b.shortTerm.Mul(cfg.STCGRate)
		}

		rows = append(rows, models.TaxSummaryRow{
			FiscalYear:         k.fiscalYear,
			AssetClass:         k.assetClass,
			LongTermGainINR:    b.longTerm,
			ShortTermGainINR:   b.shortTerm,
			TaxableLongTermINR: taxableLT,
			LTCGTaxINR:         ltTax,
			STCGTaxINR:         stTax,
			TotalTaxINR:        ltTax.Add(stTax),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].FiscalYear != rows[j].FiscalYear {
			return rows[i].FiscalYear < rows[j].FiscalYear
		}
		return rows[i].AssetClass < rows[j].AssetClass
	})
	return rows
}

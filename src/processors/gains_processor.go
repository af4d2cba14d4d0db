package processors

import (
	"github.com/username/lotledger/backend/src/ledger"
	"github.com/username/lotledger/backend/src/models"
	"github.com/username/lotledger/backend/src/utils"
)

// DefaultHoldingPeriodLTDays applies when an asset class has no tax_config
// row: the common one-year threshold.
const DefaultHoldingPeriodLTDays = 365

type gainsProcessorImpl struct{}

func NewGainsProcessor() GainsProcessor {
	return &gainsProcessorImpl{}
}

// Calculate turns every consumption record into one RealizedGain. Holding
// period runs from the consumed lot's acquisition date (which GIFT and
// TRANSFER preserve) to the sale date; the LONG/SHORT threshold comes from
// the asset class config.
func (p *gainsProcessorImpl) Calculate(consumptions []models.ConsumptionRecord, directory *ledger.SecurityDirectory, taxConfig map[string]models.AssetTaxConfig) []models.RealizedGain {
	gains := make([]models.RealizedGain, 0, len(consumptions))
	for _, c := range consumptions {
		assetClass := ""
		if sec, ok := directory.Lookup(c.SecurityID); ok {
			assetClass = sec.AssetClass
		}

		ltDays := DefaultHoldingPeriodLTDays
		if cfg, ok := taxConfig[assetClass]; ok {
			ltDays = cfg.HoldingPeriodLTDays
		}

		holdingDays := utils.HoldingDays(c.AcquisitionDate, c.SaleDate)
		term := models.TermShort
		if holdingDays >= ltDays {
			term = models.TermLong
		}

		gains = append(gains, models.RealizedGain{
			TradeID:         c.TradeID,
			LotID:           c.LotID,
			OwnerID:         c.OwnerID,
			SecurityID:      c.SecurityID,
			AssetID:         c.AssetID,
			AssetClass:      assetClass,
			SaleDate:        c.SaleDate,
			AcquisitionDate: c.AcquisitionDate,
			HoldingDays:     holdingDays,
			Term:            term,
			FiscalYear:      utils.FiscalYear(c.SaleDate),
			Quantity:        c.Quantity,
			CostNative:      c.CostNative,
			ProceedsNative:  c.ProceedsNative,
			GainNative:      c.ProceedsNative.Sub(c.CostNative),
			CostINR:         c.CostINR,
			ProceedsINR:     c.ProceedsINR,
			GainINR:         c.ProceedsINR.Sub(c.CostINR),
		})
	}
	return gains
}

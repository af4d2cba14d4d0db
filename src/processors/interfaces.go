package processors

import (
	"github.com/username/lotledger/backend/src/ledger"
	"github.com/username/lotledger/backend/src/models"
)

// GainsProcessor classifies consumption records into realized gains.
type GainsProcessor interface {
	Calculate(consumptions []models.ConsumptionRecord, directory *ledger.SecurityDirectory, taxConfig map[string]models.AssetTaxConfig) []models.RealizedGain
}

// TaxProcessor aggregates realized gains into per-fiscal-year summaries.
type TaxProcessor interface {
	Summarize(gains []models.RealizedGain, taxConfig map[string]models.AssetTaxConfig) []models.TaxSummaryRow
}

// CashProcessor reduces the normalized trade events into per-account net
// cash flows.
type CashProcessor interface {
	Balances(events []ledger.Event, directory *ledger.SecurityDirectory) []models.CashBalance
}

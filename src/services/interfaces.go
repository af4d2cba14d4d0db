package services

import (
	"github.com/username/lotledger/backend/src/ledger"
	"github.com/username/lotledger/backend/src/models"
)

// RebuildSummary reports what one full replay produced.
type RebuildSummary struct {
	EventCount       int                `json:"event_count"`
	OpenLotCount     int                `json:"open_lot_count"`
	ConsumptionCount int                `json:"consumption_count"`
	GainCount        int                `json:"gain_count"`
	Shortfalls       []ledger.Shortfall `json:"shortfalls,omitempty"`
}

// LedgerService runs the lot rebuild pipeline and serves its published
// outputs.
type LedgerService interface {
	RunRebuild() (*RebuildSummary, error)
	GetCurrentLots() ([]models.Lot, error)
	GetConsumptions() ([]models.ConsumptionRecord, error)
	GetRealizedGains() ([]models.RealizedGain, error)
	GetTaxSummary() ([]models.TaxSummaryRow, error)
	GetCashBalances() ([]models.CashBalance, error)
}

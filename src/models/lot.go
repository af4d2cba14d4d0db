package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is one block of shares acquired together and still (partially) unsold.
// OpenQty must stay >= 0, and CostPerShare * OpenQty must equal CostNative
// within tolerance after every mutation.
type Lot struct {
	LotID           string          `json:"lot_id"`
	OwnerID         string          `json:"owner_id"`
	SecurityID      string          `json:"security_id"`
	AssetID         string          `json:"asset_id"`
	AcquisitionDate time.Time       `json:"acquisition_date"`
	OpenQty         decimal.Decimal `json:"open_qty"`
	CostNative      decimal.Decimal `json:"cost_native"`
	CostPerShare    decimal.Decimal `json:"cost_per_share"`
	CostINR         decimal.Decimal `json:"cost_inr"`
	FXRateAtBuy     decimal.Decimal `json:"fx_rate_at_buy"`
	BrokerID        string          `json:"broker_id"`
	AccountID       string          `json:"account_id"`
}

// ConsumptionRecord records one lot (partially) satisfying one SELL event.
// Immutable once appended.
type ConsumptionRecord struct {
	TradeID         string          `json:"trade_id"`
	LotID           string          `json:"lot_id"`
	OwnerID         string          `json:"owner_id"`
	SecurityID      string          `json:"security_id"`
	AssetID         string          `json:"asset_id"`
	SaleDate        time.Time       `json:"sale_date"`
	AcquisitionDate time.Time       `json:"acquisition_date"`
	Quantity        decimal.Decimal `json:"quantity"`
	CostNative      decimal.Decimal `json:"cost_native"`
	CostINR         decimal.Decimal `json:"cost_inr"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	FXRateAtSale    decimal.Decimal `json:"fx_rate_at_sale"`
	ProceedsNative  decimal.Decimal `json:"proceeds_native"`
	ProceedsINR     decimal.Decimal `json:"proceeds_inr"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TermLong  = "LONG"
	TermShort = "SHORT"
)

// RealizedGain is one consumption record classified for tax purposes.
type RealizedGain struct {
	TradeID         string          `json:"trade_id"`
	LotID           string          `json:"lot_id"`
	OwnerID         string          `json:"owner_id"`
	SecurityID      string          `json:"security_id"`
	AssetID         string          `json:"asset_id"`
	AssetClass      string          `json:"asset_class"`
	SaleDate        time.Time       `json:"sale_date"`
	AcquisitionDate time.Time       `json:"acquisition_date"`
	HoldingDays     int             `json:"holding_days"`
	Term            string          `json:"term"` // LONG or SHORT
	FiscalYear      string          `json:"fiscal_year"`
	Quantity        decimal.Decimal `json:"quantity"`
	CostNative      decimal.Decimal `json:"cost_native"`
	ProceedsNative  decimal.Decimal `json:"proceeds_native"`
	GainNative      decimal.Decimal `json:"gain_native"`
	CostINR         decimal.Decimal `json:"cost_inr"`
	ProceedsINR     decimal.Decimal `json:"proceeds_inr"`
	GainINR         decimal.Decimal `json:"gain_inr"`
}

// AssetTaxConfig is one row of the tax_config table.
type AssetTaxConfig struct {
	AssetClass          string          `json:"asset_class"`
	HoldingPeriodLTDays int             `json:"holding_period_lt_days"`
	LTCGRate            decimal.Decimal `json:"ltcg_rate"`
	STCGRate            decimal.Decimal `json:"stcg_rate"`
	LTCGExemptionINR    decimal.Decimal `json:"ltcg_exemption_inr"`
}

// TaxSummaryRow aggregates realized gains for one fiscal year and asset class.
type TaxSummaryRow struct {
	FiscalYear         string          `json:"fiscal_year"`
	AssetClass         string          `json:"asset_class"`
	LongTermGainINR    decimal.Decimal `json:"long_term_gain_inr"`
	ShortTermGainINR   decimal.Decimal `json:"short_term_gain_inr"`
	TaxableLongTermINR decimal.Decimal `json:"taxable_long_term_inr"`
	LTCGTaxINR         decimal.Decimal `json:"ltcg_tax_inr"`
	STCGTaxINR         decimal.Decimal `json:"stcg_tax_inr"`
	TotalTaxINR        decimal.Decimal `json:"total_tax_inr"`
}

// CashBalance is the net signed trade flow for one custody account and
// currency: sells add, buys subtract.
type CashBalance struct {
	OwnerID       string          `json:"owner_id"`
	BrokerID      string          `json:"broker_id"`
	AccountID     string          `json:"account_id"`
	Currency      string          `json:"currency"`
	NetFlowNative decimal.Decimal `json:"net_flow_native"`
	NetFlowINR    decimal.Decimal `json:"net_flow_inr"`
}

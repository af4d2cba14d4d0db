package models

// Security is immutable reference data describing one tradeable instrument.
// AssetID groups economically identical share classes across reorganizations;
// FIFO matching still happens per SecurityID.
type Security struct {
	SecurityID      string `json:"security_id"`
	AssetID         string `json:"asset_id"`
	AssetClass      string `json:"asset_class"`
	Country         string `json:"country"`
	Ticker          string `json:"ticker"`
	TradingCurrency string `json:"trading_currency"`
}

package models

// TradeRow is a raw trade as stored in the trades table. Numeric columns are
// kept as text until the normalizer parses them, so malformed input is caught
// in one place and aborts the rebuild.
type TradeRow struct {
	TradeID     string `json:"trade_id"`
	TradeDate   string `json:"trade_date"` // YYYY-MM-DD
	OwnerID     string `json:"owner_id"`
	BrokerID    string `json:"broker_id"`
	AccountID   string `json:"account_id"`
	SecurityID  string `json:"security_id"`
	Side        string `json:"side"` // BUY or SELL
	Quantity    string `json:"quantity"`
	Price       string `json:"price"`
	FXRateToINR string `json:"fx_rate_to_inr"`
}

// LotActionRow is a raw corporate/ownership action as stored in the
// lot_actions table. Only the fields relevant to the ActionType are set.
type LotActionRow struct {
	ActionID         string `json:"action_id"`
	ActionDate       string `json:"action_date"` // YYYY-MM-DD
	ActionType       string `json:"action_type"` // SPLIT, BONUS, MERGER, CLASS_REORG, GIFT, TRANSFER
	OwnerFromID      string `json:"owner_from_id"`
	OwnerToID        string `json:"owner_to_id"`
	BrokerFromID     string `json:"broker_from_id"`
	BrokerToID       string `json:"broker_to_id"`
	AccountFromID    string `json:"account_from_id"`
	AccountToID      string `json:"account_to_id"`
	SecurityID       string `json:"security_id"`
	SecurityToID     string `json:"security_to_id"`
	SplitNumerator   string `json:"split_numerator"`
	SplitDenominator string `json:"split_denominator"`
	Quantity         string `json:"quantity"`
}

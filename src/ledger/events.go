package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is one entry of the normalized replay sequence. The set of
// implementations is closed: the unexported method keeps foreign types out,
// so the engine's type switch covers every possible kind.
type Event interface {
	When() time.Time
	// replayPriority breaks same-day ties so corporate actions land before
	// the sells and transfers that depend on them:
	// BUY(1) < SPLIT/BONUS(2) < MERGER(3) < SELL(4) < GIFT(5) < TRANSFER(6).
	replayPriority() int
}

// BuyEvent opens a new lot.
type BuyEvent struct {
	TradeID    string
	Date       time.Time
	OwnerID    string
	BrokerID   string
	AccountID  string
	SecurityID string
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	FXRate     decimal.Decimal
}

// SellEvent consumes open lots FIFO and emits consumption records.
type SellEvent struct {
	TradeID    string
	Date       time.Time
	OwnerID    string
	BrokerID   string
	AccountID  string
	SecurityID string
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	FXRate     decimal.Decimal
}

// SplitEvent rescales quantity and per-share cost of every open lot of the
// security; aggregate cost is conserved.
type SplitEvent struct {
	ActionID    string
	Date        time.Time
	SecurityID  string
	Numerator   decimal.Decimal
	Denominator decimal.Decimal
}

// BonusEvent grants cost-free shares as fresh lots dated at the action.
type BonusEvent struct {
	ActionID    string
	Date        time.Time
	SecurityID  string
	Numerator   decimal.Decimal
	Denominator decimal.Decimal
}

// MergerEvent converts every open lot of the source security into the target
// security at the given ratio, conserving aggregate cost.
type MergerEvent struct {
	ActionID     string
	Date         time.Time
	SecurityID   string
	SecurityToID string
	Numerator    decimal.Decimal
	Denominator  decimal.Decimal
}

// ClassReorgEvent splits each open lot of the source security into a new lot
// of the target security, redistributing cost basis between the two.
type ClassReorgEvent struct {
	ActionID     string
	Date         time.Time
	SecurityID   string
	SecurityToID string
	Numerator    decimal.Decimal
	Denominator  decimal.Decimal
}

// GiftEvent moves quantity FIFO from donor to recipient; the recipient
// inherits acquisition date and cost basis, no gain is realized.
type GiftEvent struct {
	ActionID    string
	Date        time.Time
	OwnerFromID string
	OwnerToID   string
	BrokerToID  string
	AccountToID string
	SecurityID  string
	Quantity    decimal.Decimal
}

// TransferEvent re-custodies quantity FIFO; cost treatment is identical to
// GiftEvent, the owner may or may not change.
type TransferEvent struct {
	ActionID    string
	Date        time.Time
	OwnerFromID string
	OwnerToID   string
	BrokerToID  string
	AccountToID string
	SecurityID  string
	Quantity    decimal.Decimal
}

func (e BuyEvent) When() time.Time        { return e.Date }
func (e SellEvent) When() time.Time       { return e.Date }
func (e SplitEvent) When() time.Time      { return e.Date }
func (e BonusEvent) When() time.Time      { return e.Date }
func (e MergerEvent) When() time.Time     { return e.Date }
func (e ClassReorgEvent) When() time.Time { return e.Date }
func (e GiftEvent) When() time.Time       { return e.Date }
func (e TransferEvent) When() time.Time   { return e.Date }

func (BuyEvent) replayPriority() int        { return 1 }
func (SplitEvent) replayPriority() int      { return 2 }
func (BonusEvent) replayPriority() int      { return 2 }
func (MergerEvent) replayPriority() int     { return 3 }
func (ClassReorgEvent) replayPriority() int { return 3 }
func (SellEvent) replayPriority() int       { return 4 }
func (GiftEvent) replayPriority() int       { return 5 }
func (TransferEvent) replayPriority() int   { return 6 }

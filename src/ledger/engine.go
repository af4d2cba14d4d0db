package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/lotledger/backend/src/logger"
	"github.com/username/lotledger/backend/src/models"
)

// Shortfall records a SELL, GIFT or TRANSFER that asked for more quantity
// than was open across matching lots. The event is truncated to what was
// available; the shortfall is reported so data-entry errors don't pass
// unnoticed.
type Shortfall struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	Date       time.Time       `json:"date"`
	OwnerID    string          `json:"owner_id"`
	SecurityID string          `json:"security_id"`
	Requested  decimal.Decimal `json:"requested"`
	Unfilled   decimal.Decimal `json:"unfilled"`
}

// RebuildResult is the engine's complete output: the open-lot snapshot, the
// consumption ledger and any shortfall diagnostics.
type RebuildResult struct {
	Lots         []models.Lot
	Consumptions []models.ConsumptionRecord
	Shortfalls   []Shortfall
}

// Engine replays a normalized event sequence against a fresh LotStore.
// Replay is single-threaded and applies exactly one mutation rule per event;
// rules never look ahead. Output is a pure function of the input sequence.
type Engine struct {
	directory    *SecurityDirectory
	store        *LotStore
	consumptions []models.ConsumptionRecord
	shortfalls   []Shortfall
}

func NewEngine(directory *SecurityDirectory) *Engine {
	return &Engine{
		directory: directory,
		store:     NewLotStore(),
	}
}

// Replay consumes the full event sequence in order. Any error aborts the
// rebuild with no partial result.
func (e *Engine) Replay(events []Event) (*RebuildResult, error) {
	for _, ev := range events {
		var err error
		switch ev := ev.(type) {
		case BuyEvent:
			err = e.applyBuy(ev)
		case SellEvent:
			err = e.applySell(ev)
		case SplitEvent:
			err = e.applySplit(ev)
		case BonusEvent:
			err = e.applyBonus(ev)
		case MergerEvent:
			err = e.applyMerger(ev)
		case ClassReorgEvent:
			err = e.applyClassReorg(ev)
		case GiftEvent:
			err = e.applyGift(ev)
		case TransferEvent:
			err = e.applyTransfer(ev)
		default:
			err = fmt.Errorf("unhandled event type %T", ev)
		}
		if err != nil {
			return nil, err
		}
	}
	return &RebuildResult{
		Lots:         e.store.Snapshot(),
		Consumptions: e.consumptions,
		Shortfalls:   e.shortfalls,
	}, nil
}

// applyBuy opens one new lot at the trade's price and FX rate.
func (e *Engine) applyBuy(ev BuyEvent) error {
	sec, ok := e.directory.Lookup(ev.SecurityID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSecurity, ev.SecurityID)
	}
	costNative := ev.Quantity.Mul(ev.Price)
	e.store.Append(&models.Lot{
		LotID:           uuid.NewString(),
		OwnerID:         ev.OwnerID,
		SecurityID:      ev.SecurityID,
		AssetID:         sec.AssetID,
		AcquisitionDate: ev.Date,
		OpenQty:         ev.Quantity,
		CostNative:      costNative,
		CostPerShare:    ev.Price,
		CostINR:         costNative.Mul(ev.FXRate),
		FXRateAtBuy:     ev.FXRate,
		BrokerID:        ev.BrokerID,
		AccountID:       ev.AccountID,
	})
	return nil
}

// applySell walks the FIFO queue, consuming the earliest lots first. Each
// consumed slice carries a proportional share of the lot's cost basis into a
// ConsumptionRecord; the lot's per-share cost stays untouched because the
// unconsumed remainder is homogeneous.
func (e *Engine) applySell(ev SellEvent) error {
	remaining := ev.Quantity
	for _, lot := range e.store.OpenLots(ev.OwnerID, ev.SecurityID) {
		if !remaining.IsPositive() {
			break
		}
		consumed, costNative, costINR := consumeFromLot(lot, remaining)
		if consumed.IsZero() {
			continue
		}
		e.consumptions = append(e.consumptions, models.ConsumptionRecord{
			TradeID:         ev.TradeID,
			LotID:           lot.LotID,
			OwnerID:         ev.OwnerID,
			SecurityID:      ev.SecurityID,
			AssetID:         lot.AssetID,
			SaleDate:        ev.Date,
			AcquisitionDate: lot.AcquisitionDate,
			Quantity:        consumed,
			CostNative:      costNative,
			CostINR:         costINR,
			SalePrice:       ev.Price,
			FXRateAtSale:    ev.FXRate,
			ProceedsNative:  consumed.Mul(ev.Price),
			ProceedsINR:     consumed.Mul(ev.Price).Mul(ev.FXRate),
		})
		remaining = remaining.Sub(consumed)
	}
	e.noteShortfall(ev.TradeID, "SELL", ev.Date, ev.OwnerID, ev.SecurityID, ev.Quantity, remaining)
	return nil
}

// applySplit rescales every open lot of the security. Quantity scales by
// num/den, per-share cost scales by the inverse; aggregate cost is conserved.
func (e *Engine) applySplit(ev SplitEvent) error {
	factor := ev.Numerator.Div(ev.Denominator)
	for _, lot := range e.store.OpenLotsBySecurity(ev.SecurityID) {
		lot.OpenQty = lot.OpenQty.Mul(factor)
		lot.CostPerShare = lot.CostPerShare.Div(factor)
	}
	return nil
}

// applyBonus spawns cost-free lots for the bonus quantity. The lot list is
// snapshotted before spawning so new lots are not revisited, and bonus lots
// get a fresh holding-period clock at the action date.
func (e *Engine) applyBonus(ev BonusEvent) error {
	ratio := ev.Numerator.Div(ev.Denominator)
	one := decimal.NewFromInt(1)
	for _, lot := range e.store.OpenLotsBySecurity(ev.SecurityID) {
		bonusQty := lot.OpenQty.Mul(ratio.Sub(one))
		if !bonusQty.IsPositive() {
			continue
		}
		e.store.Append(&models.Lot{
			LotID:           uuid.NewString(),
			OwnerID:         lot.OwnerID,
			SecurityID:      lot.SecurityID,
			AssetID:         lot.AssetID,
			AcquisitionDate: ev.Date,
			OpenQty:         bonusQty,
			CostNative:      decimal.Zero,
			CostPerShare:    decimal.Zero,
			CostINR:         decimal.Zero,
			FXRateAtBuy:     one,
			BrokerID:        lot.BrokerID,
			AccountID:       lot.AccountID,
		})
	}
	return nil
}

// applyMerger converts each open lot to the target security in place.
// Quantity becomes floor(qty * ratio) -- the fractional remainder is dropped
// with no cash-in-lieu record -- while aggregate cost is conserved and
// per-share cost is re-derived from the new quantity.
func (e *Engine) applyMerger(ev MergerEvent) error {
	target, ok := e.directory.Lookup(ev.SecurityToID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSecurity, ev.SecurityToID)
	}
	ratio := ev.Numerator.Div(ev.Denominator)
	for _, lot := range e.store.OpenLotsBySecurity(ev.SecurityID) {
		newQty := lot.OpenQty.Mul(ratio).Floor()
		lot.OpenQty = newQty
		if newQty.IsPositive() {
			lot.CostPerShare = lot.CostNative.Div(newQty)
		} else {
			// The floor closed the lot; its cost stays stranded rather than
			// divided by zero.
			lot.CostPerShare = decimal.Zero
		}
		lot.SecurityID = target.SecurityID
		lot.AssetID = target.AssetID
	}
	return nil
}

// applyClassReorg splits each open source lot's cost between the original
// holding and a new target-security lot. With ratio r, the new lot takes
// r/(1+r) of the cost and qty*r shares; the source keeps its quantity and
// the remaining 1/(1+r) of the cost. Acquisition date is inherited.
func (e *Engine) applyClassReorg(ev ClassReorgEvent) error {
	target, ok := e.directory.Lookup(ev.SecurityToID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSecurity, ev.SecurityToID)
	}
	ratio := ev.Numerator.Div(ev.Denominator)
	costRatioNew := ratio.Div(decimal.NewFromInt(1).Add(ratio))
	for _, lot := range e.store.OpenLotsBySecurity(ev.SecurityID) {
		newQty := lot.OpenQty.Mul(ratio)
		if !newQty.IsPositive() {
			continue
		}
		newCostNative := lot.CostNative.Mul(costRatioNew)
		newCostINR := lot.CostINR.Mul(costRatioNew)
		e.store.Append(&models.Lot{
			LotID:           uuid.NewString(),
			OwnerID:         lot.OwnerID,
			SecurityID:      target.SecurityID,
			AssetID:         target.AssetID,
			AcquisitionDate: lot.AcquisitionDate,
			OpenQty:         newQty,
			CostNative:      newCostNative,
			CostPerShare:    newCostNative.Div(newQty),
			CostINR:         newCostINR,
			FXRateAtBuy:     lot.FXRateAtBuy,
			BrokerID:        lot.BrokerID,
			AccountID:       lot.AccountID,
		})
		lot.CostNative = lot.CostNative.Sub(newCostNative)
		lot.CostINR = lot.CostINR.Sub(newCostINR)
		lot.CostPerShare = lot.CostNative.Div(lot.OpenQty)
	}
	return nil
}

// applyGift consumes the donor's FIFO queue like a sale, but each consumed
// slice becomes a new lot under the recipient carrying the donor's
// acquisition date and proportional cost basis. No gain is realized.
func (e *Engine) applyGift(ev GiftEvent) error {
	remaining := ev.Quantity
	for _, lot := range e.store.OpenLots(ev.OwnerFromID, ev.SecurityID) {
		if !remaining.IsPositive() {
			break
		}
		consumed, costNative, costINR := consumeFromLot(lot, remaining)
		if consumed.IsZero() {
			continue
		}
		e.store.Append(&models.Lot{
			LotID:           uuid.NewString(),
			OwnerID:         ev.OwnerToID,
			SecurityID:      lot.SecurityID,
			AssetID:         lot.AssetID,
			AcquisitionDate: lot.AcquisitionDate,
			OpenQty:         consumed,
			CostNative:      costNative,
			CostPerShare:    lot.CostPerShare,
			CostINR:         costINR,
			FXRateAtBuy:     lot.FXRateAtBuy,
			BrokerID:        ev.BrokerToID,
			AccountID:       ev.AccountToID,
		})
		remaining = remaining.Sub(consumed)
	}
	e.noteShortfall(ev.ActionID, "GIFT", ev.Date, ev.OwnerFromID, ev.SecurityID, ev.Quantity, remaining)
	return nil
}

// applyTransfer re-custodies quantity FIFO. A fully consumed lot is mutated
// in place (owner, broker, account) with no cost impact; a partial
// consumption spawns a destination lot with proportional cost, exactly like
// a gift.
func (e *Engine) applyTransfer(ev TransferEvent) error {
	remaining := ev.Quantity
	for _, lot := range e.store.OpenLots(ev.OwnerFromID, ev.SecurityID) {
		if !remaining.IsPositive() {
			break
		}
		if !lot.OpenQty.GreaterThan(remaining) {
			// Whole lot moves: update custody in place.
			remaining = remaining.Sub(lot.OpenQty)
			lot.OwnerID = ev.OwnerToID
			lot.BrokerID = ev.BrokerToID
			lot.AccountID = ev.AccountToID
			continue
		}
		consumed, costNative, costINR := consumeFromLot(lot, remaining)
		if consumed.IsZero() {
			continue
		}
		e.store.Append(&models.Lot{
			LotID:           uuid.NewString(),
			OwnerID:         ev.OwnerToID,
			SecurityID:      lot.SecurityID,
			AssetID:         lot.AssetID,
			AcquisitionDate: lot.AcquisitionDate,
			OpenQty:         consumed,
			CostNative:      costNative,
			CostPerShare:    lot.CostPerShare,
			CostINR:         costINR,
			FXRateAtBuy:     lot.FXRateAtBuy,
			BrokerID:        ev.BrokerToID,
			AccountID:       ev.AccountToID,
		})
		remaining = remaining.Sub(consumed)
	}
	e.noteShortfall(ev.ActionID, "TRANSFER", ev.Date, ev.OwnerFromID, ev.SecurityID, ev.Quantity, remaining)
	return nil
}

// consumeFromLot takes min(lot open qty, wanted) from the lot and returns the
// consumed quantity with its proportional native/INR cost. The lot's open
// quantity and aggregate costs are decremented; per-share cost is untouched.
// A lot with zero open quantity yields nothing (the fraction is undefined).
func consumeFromLot(lot *models.Lot, wanted decimal.Decimal) (consumed, costNative, costINR decimal.Decimal) {
	if !lot.OpenQty.IsPositive() {
		return decimal.Zero, decimal.Zero, decimal.Zero
	}
	consumed = decimal.Min(lot.OpenQty, wanted)
	if lot.OpenQty.Equal(consumed) {
		// Take the exact remainder so no cost dust is left behind.
		costNative = lot.CostNative
		costINR = lot.CostINR
	} else {
		fraction := consumed.Div(lot.OpenQty)
		costNative = lot.CostNative.Mul(fraction)
		costINR = lot.CostINR.Mul(fraction)
	}
	lot.OpenQty = lot.OpenQty.Sub(consumed)
	lot.CostNative = lot.CostNative.Sub(costNative)
	lot.CostINR = lot.CostINR.Sub(costINR)
	return consumed, costNative, costINR
}

func (e *Engine) noteShortfall(eventID, eventType string, date time.Time, ownerID, securityID string, requested, unfilled decimal.Decimal) {
	if !unfilled.IsPositive() {
		return
	}
	if logger.L != nil {
		logger.L.Warn("insufficient open lots, event truncated",
			"eventID", eventID,
			"eventType", eventType,
			"ownerID", ownerID,
			"securityID", securityID,
			"requested", requested.String(),
			"unfilled", unfilled.String())
	}
	e.shortfalls = append(e.shortfalls, Shortfall{
		EventID:    eventID,
		EventType:  eventType,
		Date:       date,
		OwnerID:    ownerID,
		SecurityID: securityID,
		Requested:  requested,
		Unfilled:   unfilled,
	})
}

package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/lotledger/backend/src/models"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)),
		"expected %s, got %s %v", want, got.String(), msgAndArgs)
}

func testDirectory() *SecurityDirectory {
	return NewSecurityDirectory([]models.Security{
		{SecurityID: "SEC-AAPL", AssetID: "ASSET-AAPL", AssetClass: "FOREIGN_EQUITY", Country: "US", Ticker: "AAPL", TradingCurrency: "USD"},
		{SecurityID: "SEC-AAPL-B", AssetID: "ASSET-AAPL", AssetClass: "FOREIGN_EQUITY", Country: "US", Ticker: "AAPL.B", TradingCurrency: "USD"},
		{SecurityID: "SEC-INFY", AssetID: "ASSET-INFY", AssetClass: "DOMESTIC_EQUITY", Country: "IN", Ticker: "INFY", TradingCurrency: "INR"},
	})
}

func buy(t *testing.T, id, date, owner, sec, qty, price, fx string) BuyEvent {
	return BuyEvent{
		TradeID:    id,
		Date:       day(t, date),
		OwnerID:    owner,
		BrokerID:   "BRK-1",
		AccountID:  "ACC-1",
		SecurityID: sec,
		Quantity:   dec(qty),
		Price:      dec(price),
		FXRate:     dec(fx),
	}
}

func sell(t *testing.T, id, date, owner, sec, qty, price, fx string) SellEvent {
	return SellEvent{
		TradeID:    id,
		Date:       day(t, date),
		OwnerID:    owner,
		BrokerID:   "BRK-1",
		AccountID:  "ACC-1",
		SecurityID: sec,
		Quantity:   dec(qty),
		Price:      dec(price),
		FXRate:     dec(fx),
	}
}

func TestReplayBuyThenPartialSell(t *testing.T) {
	engine := NewEngine(testDirectory())

	result, err := engine.Replay([]Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-AAPL", "100", "10", "80"),
		sell(t, "T2", "2024-06-01", "OWN-A", "SEC-AAPL", "40", "15", "82"),
	})
	require.NoError(t, err)

	require.Len(t, result.Consumptions, 1)
	c := result.Consumptions[0]
	assert.Equal(t, "T2", c.TradeID)
	assert.Equal(t, day(t, "2024-01-10"), c.AcquisitionDate)
	assert.Equal(t, day(t, "2024-06-01"), c.SaleDate)
	assertDec(t, "40", c.Quantity)
	assertDec(t, "400", c.CostNative)
	assertDec(t, "32000", c.CostINR)
	assertDec(t, "600", c.ProceedsNative)
	assertDec(t, "49200", c.ProceedsINR)

	require.Len(t, result.Lots, 1)
	lot := result.Lots[0]
	assertDec(t, "60", lot.OpenQty)
	assertDec(t, "600", lot.CostNative)
	assertDec(t, "48000", lot.CostINR)
	assertDec(t, "10", lot.CostPerShare)
	assert.Empty(t, result.Shortfalls)
}

func TestReplaySellConsumesFIFO(t *testing.T) {
	engine := NewEngine(testDirectory())

	result, err := engine.Replay([]Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-AAPL", "10", "10", "80"),
		buy(t, "T2", "2024-02-10", "OWN-A", "SEC-AAPL", "10", "20", "80"),
		sell(t, "T3", "2024-03-01", "OWN-A", "SEC-AAPL", "15", "25", "80"),
	})
	require.NoError(t, err)

	require.Len(t, result.Consumptions, 2)
	assertDec(t, "10", result.Consumptions[0].Quantity)
	assertDec(t, "100", result.Consumptions[0].CostNative)
	assert.Equal(t, day(t, "2024-01-10"), result.Consumptions[0].AcquisitionDate)
	assertDec(t, "5", result.Consumptions[1].Quantity)
	assertDec(t, "100", result.Consumptions[1].CostNative)
	assert.Equal(t, day(t, "2024-02-10"), result.Consumptions[1].AcquisitionDate)

	require.Len(t, result.Lots, 1)
	assertDec(t, "5", result.Lots[0].OpenQty)
	assertDec(t, "100", result.Lots[0].CostNative)
}

func TestReplaySellTruncatesOnShortfall(t *testing.T) {
	engine := NewEngine(testDirectory())

	result, err := engine.Replay([]Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-AAPL", "100", "10", "80"),
		sell(t, "T2", "2024-06-01", "OWN-A", "SEC-AAPL", "150", "15", "82"),
	})
	require.NoError(t, err)

	require.Len(t, result.Consumptions, 1)
	assertDec(t, "100", result.Consumptions[0].Quantity)
	assert.Empty(t, result.Lots)

	require.Len(t, result.Shortfalls, 1)
	sf := result.Shortfalls[0]
	assert.Equal(t, "T2", sf.EventID)
	assert.Equal(t, "SELL", sf.EventType)
	assertDec(t, "150", sf.Requested)
	assertDec(t, "50", sf.Unfilled)
}

func TestReplaySplitConservesCost(t *testing.T) {
	engine := NewEngine(testDirectory())

	result, err := engine.Replay([]Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-AAPL", "60", "10", "80"),
		SplitEvent{
			ActionID:    "A1",
			Date:        day(t, "2024-03-01"),
			SecurityID:  "SEC-AAPL",
			Numerator:   dec("2"),
			Denominator: dec("1"),
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Lots, 1)
	lot := result.Lots[0]
	assertDec(t, "120", lot.OpenQty)
	assertDec(t, "5", lot.CostPerShare)
	assertDec(t, "600", lot.CostNative)
	assert.Equal(t, day(t, "2024-01-10"), lot.AcquisitionDate, "split keeps the acquisition date")
}

func TestReplayBonusSpawnsZeroCostLot(t *testing.T) {
	engine := NewEngine(testDirectory())

	result, err := engine.Replay([]Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-AAPL", "100", "10", "80"),
		BonusEvent{
			ActionID:    "A1",
			Date:        day(t, "2024-05-01"),
			SecurityID:  "SEC-AAPL",
			Numerator:   dec("2"),
			Denominator: dec("1"),
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Lots, 2)
	original, bonus := result.Lots[0], result.Lots[1]
	if original.AcquisitionDate.After(bonus.AcquisitionDate) {
		original, bonus = bonus, original
	}

	assertDec(t, "100", original.OpenQty)
	assertDec(t, "1000", original.CostNative, "original lot cost untouched")

	assertDec(t, "100", bonus.OpenQty)
	assertDec(t, "0", bonus.CostNative)
	assertDec(t, "0", bonus.CostPerShare)
	assertDec(t, "0", bonus.CostINR)
	assert.Equal(t, day(t, "2024-05-01"), bonus.AcquisitionDate, "bonus shares start a fresh holding period")
}

func TestReplayMergerFloorsQuantityAndConvertsSecurity(t *testing.T) {
	engine := NewEngine(testDirectory())

	result, err := engine.Replay([]Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-AAPL", "7", "10", "80"),
		MergerEvent{
			ActionID:     "A1",
			Date:         day(t, "2024-04-01"),
			SecurityID:   "SEC-AAPL",
			SecurityToID: "SEC-AAPL-B",
			Numerator:    dec("1"),
			Denominator:  dec("2"),
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Lots, 1)
	lot := result.Lots[0]
	assert.Equal(t, "SEC-AAPL-B", lot.SecurityID)
	assert.Equal(t, "ASSET-AAPL", lot.AssetID)
	assertDec(t, "3", lot.OpenQty, "7 * 1/2 floored")
	assertDec(t, "70", lot.CostNative, "aggregate cost conserved, fractional shares carry no cash-in-lieu")
	assert.True(t, lot.CostPerShare.Equal(dec("70").Div(dec("3"))))
	assert.Equal(t, day(t, "2024-01-10"), lot.AcquisitionDate)
}

func TestReplayMergerClosingLotKeepsNoOpenPosition(t *testing.T) {
	engine := NewEngine(testDirectory())

	result, err := engine.Replay([]Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-AAPL", "1", "10", "80"),
		MergerEvent{
			ActionID:     "A1",
			Date:         day(t, "2024-04-01"),
			SecurityID:   "SEC-AAPL",
			SecurityToID: "SEC-AAPL-B",
			Numerator:    dec("1"),
			Denominator:  dec("3"),
		},
	})
	require.NoError(t, err)

	// floor(1/3) = 0: the lot is closed and drops out of the snapshot.
	assert.Empty(t, result.Lots)
}

func TestReplayClassReorgRedistributesCost(t *testing.T) {
	engine := NewEngine(testDirectory())

	result, err := engine.Replay([]Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-AAPL", "100", "10", "80"),
		ClassReorgEvent{
			ActionID:     "A1",
			Date:         day(t, "2024-04-01"),
			SecurityID:   "SEC-AAPL",
			SecurityToID: "SEC-AAPL-B",
			Numerator:    dec("1"),
			Denominator:  dec("4"),
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Lots, 2)
	var source, target models.Lot
	for _, l := range result.Lots {
		switch l.SecurityID {
		case "SEC-AAPL":
			source = l
		case "SEC-AAPL-B":
			target = l
		}
	}

	// Ratio 1:4 puts (1/4)/(1+1/4) = 20% of the cost on the new class.
	assertDec(t, "100", source.OpenQty)
	assertDec(t, "800", source.CostNative)
	assertDec(t, "8", source.CostPerShare)

	assertDec(t, "25", target.OpenQty)
	assertDec(t, "200", target.CostNative)
	assertDec(t, "8", target.CostPerShare)
	assert.Equal(t, day(t, "2024-01-10"), target.AcquisitionDate, "new class inherits the acquisition date")

	total := source.CostNative.Add(target.CostNative)
	assertDec(t, "1000", total, "cost redistributed, not created or destroyed")
}

func TestReplayGiftPreservesBasisAndDate(t *testing.T) {
	engine := NewEngine(testDirectory())

	result, err := engine.Replay([]Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-AAPL", "100", "10", "80"),
		GiftEvent{
			ActionID:    "A1",
			Date:        day(t, "2024-06-01"),
			OwnerFromID: "OWN-A",
			OwnerToID:   "OWN-B",
			BrokerToID:  "BRK-2",
			AccountToID: "ACC-2",
			SecurityID:  "SEC-AAPL",
			Quantity:    dec("30"),
		},
	})
	require.NoError(t, err)

	assert.Empty(t, result.Consumptions, "gifts realize no gain")
	require.Len(t, result.Lots, 2)

	var donor, recipient models.Lot
	for _, l := range result.Lots {
		switch l.OwnerID {
		case "OWN-A":
			donor = l
		case "OWN-B":
			recipient = l
		}
	}

	assertDec(t, "70", donor.OpenQty)
	assertDec(t, "700", donor.CostNative)

	assertDec(t, "30", recipient.OpenQty)
	assertDec(t, "300", recipient.CostNative)
	assertDec(t, "10", recipient.CostPerShare)
	assertDec(t, "24000", recipient.CostINR)
	assert.Equal(t, day(t, "2024-01-10"), recipient.AcquisitionDate, "recipient inherits the holding period")
	assert.Equal(t, "BRK-2", recipient.BrokerID)
	assert.Equal(t, "ACC-2", recipient.AccountID)
}

func TestReplayTransferWholeLotMovesInPlace(t *testing.T) {
	engine := NewEngine(testDirectory())

	result, err := engine.Replay([]Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-AAPL", "100", "10", "80"),
		TransferEvent{
			ActionID:    "A1",
			Date:        day(t, "2024-06-01"),
			OwnerFromID: "OWN-A",
			OwnerToID:   "OWN-A",
			BrokerToID:  "BRK-2",
			AccountToID: "ACC-2",
			SecurityID:  "SEC-AAPL",
			Quantity:    dec("100"),
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Lots, 1)
	lot := result.Lots[0]
	assert.Equal(t, "BRK-2", lot.BrokerID)
	assert.Equal(t, "ACC-2", lot.AccountID)
	assertDec(t, "100", lot.OpenQty)
	assertDec(t, "1000", lot.CostNative)
	assert.Equal(t, day(t, "2024-01-10"), lot.AcquisitionDate)
}

func TestReplayPartialTransferSplitsLotProportionally(t *testing.T) {
	engine := NewEngine(testDirectory())

	result, err := engine.Replay([]Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-AAPL", "100", "10", "80"),
		TransferEvent{
			ActionID:    "A1",
			Date:        day(t, "2024-06-01"),
			OwnerFromID: "OWN-A",
			OwnerToID:   "OWN-B",
			BrokerToID:  "BRK-2",
			AccountToID: "ACC-2",
			SecurityID:  "SEC-AAPL",
			Quantity:    dec("40"),
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Lots, 2)
	var from, to models.Lot
	for _, l := range result.Lots {
		switch l.OwnerID {
		case "OWN-A":
			from = l
		case "OWN-B":
			to = l
		}
	}

	assertDec(t, "60", from.OpenQty)
	assertDec(t, "600", from.CostNative)
	assertDec(t, "40", to.OpenQty)
	assertDec(t, "400", to.CostNative)
	assert.Equal(t, day(t, "2024-01-10"), to.AcquisitionDate)
	assert.Equal(t, from.CostPerShare.String(), to.CostPerShare.String())
}

func TestReplayGiftedSharesSellWithOriginalBasis(t *testing.T) {
	engine := NewEngine(testDirectory())

	result, err := engine.Replay([]Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-AAPL", "100", "10", "80"),
		GiftEvent{
			ActionID:    "A1",
			Date:        day(t, "2024-06-01"),
			OwnerFromID: "OWN-A",
			OwnerToID:   "OWN-B",
			BrokerToID:  "BRK-2",
			AccountToID: "ACC-2",
			SecurityID:  "SEC-AAPL",
			Quantity:    dec("30"),
		},
		sell(t, "T2", "2024-08-01", "OWN-B", "SEC-AAPL", "30", "20", "83"),
	})
	require.NoError(t, err)

	require.Len(t, result.Consumptions, 1)
	c := result.Consumptions[0]
	assert.Equal(t, "OWN-B", c.OwnerID)
	assertDec(t, "300", c.CostNative, "basis carried over from the donor")
	assert.Equal(t, day(t, "2024-01-10"), c.AcquisitionDate)
}

func TestReplaySplitBeforeSameDaySellChangesMatchedQuantity(t *testing.T) {
	// The normalizer orders a same-day SPLIT before a SELL; the engine simply
	// applies what it is given. Selling 100 after a 2:1 split consumes half
	// the post-split position at half the per-share cost.
	engine := NewEngine(testDirectory())

	result, err := engine.Replay([]Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-AAPL", "100", "10", "80"),
		SplitEvent{
			ActionID:    "A1",
			Date:        day(t, "2024-03-01"),
			SecurityID:  "SEC-AAPL",
			Numerator:   dec("2"),
			Denominator: dec("1"),
		},
		sell(t, "T2", "2024-03-01", "OWN-A", "SEC-AAPL", "100", "6", "80"),
	})
	require.NoError(t, err)

	require.Len(t, result.Consumptions, 1)
	assertDec(t, "500", result.Consumptions[0].CostNative)

	require.Len(t, result.Lots, 1)
	assertDec(t, "100", result.Lots[0].OpenQty)
	assertDec(t, "500", result.Lots[0].CostNative)
}

func TestReplayFractionalQuantities(t *testing.T) {
	engine := NewEngine(testDirectory())

	result, err := engine.Replay([]Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-AAPL", "2.5", "100", "80"),
		sell(t, "T2", "2024-06-01", "OWN-A", "SEC-AAPL", "1.25", "120", "82"),
	})
	require.NoError(t, err)

	require.Len(t, result.Consumptions, 1)
	assertDec(t, "1.25", result.Consumptions[0].Quantity)
	assertDec(t, "125", result.Consumptions[0].CostNative)

	require.Len(t, result.Lots, 1)
	assertDec(t, "1.25", result.Lots[0].OpenQty)
	assertDec(t, "125", result.Lots[0].CostNative)
}

func TestReplayFullSellLeavesNoCostDust(t *testing.T) {
	// Selling the whole position through two partial sells must drain the
	// lot's cost exactly, including the non-terminating intermediate fraction.
	engine := NewEngine(testDirectory())

	result, err := engine.Replay([]Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-AAPL", "3", "10", "80"),
		sell(t, "T2", "2024-02-01", "OWN-A", "SEC-AAPL", "1", "12", "80"),
		sell(t, "T3", "2024-03-01", "OWN-A", "SEC-AAPL", "2", "12", "80"),
	})
	require.NoError(t, err)

	assert.Empty(t, result.Lots)
	require.Len(t, result.Consumptions, 2)
	totalCost := result.Consumptions[0].CostNative.Add(result.Consumptions[1].CostNative)
	assertDec(t, "30", totalCost)
}

func TestReplayIsDeterministic(t *testing.T) {
	events := []Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-AAPL", "100", "10", "80"),
		buy(t, "T2", "2024-02-10", "OWN-A", "SEC-AAPL", "50", "12", "81"),
		SplitEvent{ActionID: "A1", Date: day(t, "2024-03-01"), SecurityID: "SEC-AAPL", Numerator: dec("2"), Denominator: dec("1")},
		sell(t, "T3", "2024-06-01", "OWN-A", "SEC-AAPL", "120", "8", "82"),
	}

	first, err := NewEngine(testDirectory()).Replay(events)
	require.NoError(t, err)
	second, err := NewEngine(testDirectory()).Replay(events)
	require.NoError(t, err)

	require.Equal(t, len(first.Lots), len(second.Lots))
	for i := range first.Lots {
		a, b := first.Lots[i], second.Lots[i]
		assert.Equal(t, a.OwnerID, b.OwnerID)
		assert.Equal(t, a.SecurityID, b.SecurityID)
		assert.True(t, a.OpenQty.Equal(b.OpenQty))
		assert.True(t, a.CostNative.Equal(b.CostNative))
	}
	require.Equal(t, len(first.Consumptions), len(second.Consumptions))
	for i := range first.Consumptions {
		assert.True(t, first.Consumptions[i].Quantity.Equal(second.Consumptions[i].Quantity))
		assert.True(t, first.Consumptions[i].CostNative.Equal(second.Consumptions[i].CostNative))
	}
}

func TestReplayUnknownSecurityOnBuyFails(t *testing.T) {
	engine := NewEngine(testDirectory())

	_, err := engine.Replay([]Event{
		buy(t, "T1", "2024-01-10", "OWN-A", "SEC-MISSING", "10", "10", "80"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSecurity)
}

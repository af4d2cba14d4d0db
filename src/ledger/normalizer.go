package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/lotledger/backend/src/models"
	"github.com/username/lotledger/backend/src/utils"
)

// Normalizer merges the raw trade and action tables into one ordered event
// sequence. Ordering is the central correctness contract of the replay:
// date ascending, then the fixed type-priority table, stable beyond that.
type Normalizer struct {
	directory *SecurityDirectory
}

func NewNormalizer(directory *SecurityDirectory) *Normalizer {
	return &Normalizer{directory: directory}
}

// Normalize validates and converts every row, then sorts. Any reference or
// parse failure aborts normalization; no partial sequence is returned.
func (n *Normalizer) Normalize(trades []models.TradeRow, actions []models.LotActionRow) ([]Event, error) {
	events := make([]Event, 0, len(trades)+len(actions))

	for _, row := range trades {
		ev, err := n.tradeEvent(row)
		if err != nil {
			return nil, fmt.Errorf("trade %s: %w", row.TradeID, err)
		}
		events = append(events, ev)
	}
	for _, row := range actions {
		ev, err := n.actionEvent(row)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", row.ActionID, err)
		}
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		di, dj := events[i].When(), events[j].When()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return events[i].replayPriority() < events[j].replayPriority()
	})
	return events, nil
}

func (n *Normalizer) tradeEvent(row models.TradeRow) (Event, error) {
	if err := n.checkSecurity(row.SecurityID); err != nil {
		return nil, err
	}
	date, err := parseEventDate(row.TradeDate)
	if err != nil {
		return nil, err
	}
	qty, err := parsePositiveDecimal("quantity", row.Quantity)
	if err != nil {
		return nil, err
	}
	price, err := parseEventDecimal("price", row.Price)
	if err != nil {
		return nil, err
	}
	fx, err := parseEventDecimal("fx rate", row.FXRateToINR)
	if err != nil {
		return nil, err
	}

	switch strings.ToUpper(row.Side) {
	case "BUY":
		return BuyEvent{
			TradeID:    row.TradeID,
			Date:       date,
			OwnerID:    row.OwnerID,
			BrokerID:   row.BrokerID,
			AccountID:  row.AccountID,
			SecurityID: row.SecurityID,
			Quantity:   qty,
			Price:      price,
			FXRate:     fx,
		}, nil
	case "SELL":
		return SellEvent{
			TradeID:    row.TradeID,
			Date:       date,
			OwnerID:    row.OwnerID,
			BrokerID:   row.BrokerID,
			AccountID:  row.AccountID,
			SecurityID: row.SecurityID,
			Quantity:   qty,
			Price:      price,
			FXRate:     fx,
		}, nil
	default:
		return nil, fmt.Errorf("unknown trade side %q", row.Side)
	}
}

func (n *Normalizer) actionEvent(row models.LotActionRow) (Event, error) {
	if err := n.checkSecurity(row.SecurityID); err != nil {
		return nil, err
	}
	date, err := parseEventDate(row.ActionDate)
	if err != nil {
		return nil, err
	}

	switch strings.ToUpper(row.ActionType) {
	case "SPLIT":
		num, den, err := parseRatio(row)
		if err != nil {
			return nil, err
		}
		return SplitEvent{
			ActionID:    row.ActionID,
			Date:        date,
			SecurityID:  row.SecurityID,
			Numerator:   num,
			Denominator: den,
		}, nil
	case "BONUS":
		num, den, err := parseRatio(row)
		if err != nil {
			return nil, err
		}
		return BonusEvent{
			ActionID:    row.ActionID,
			Date:        date,
			SecurityID:  row.SecurityID,
			Numerator:   num,
			Denominator: den,
		}, nil
	case "MERGER":
		if err := n.checkSecurity(row.SecurityToID); err != nil {
			return nil, err
		}
		num, den, err := parseRatio(row)
		if err != nil {
			return nil, err
		}
		return MergerEvent{
			ActionID:     row.ActionID,
			Date:         date,
			SecurityID:   row.SecurityID,
			SecurityToID: row.SecurityToID,
			Numerator:    num,
			Denominator:  den,
		}, nil
	case "CLASS_REORG":
		if err := n.checkSecurity(row.SecurityToID); err != nil {
			return nil, err
		}
		num, den, err := parseRatio(row)
		if err != nil {
			return nil, err
		}
		return ClassReorgEvent{
			ActionID:     row.ActionID,
			Date:         date,
			SecurityID:   row.SecurityID,
			SecurityToID: row.SecurityToID,
			Numerator:    num,
			Denominator:  den,
		}, nil
	case "GIFT":
		qty, err := parsePositiveDecimal("quantity", row.Quantity)
		if err != nil {
			return nil, err
		}
		return GiftEvent{
			ActionID:    row.ActionID,
			Date:        date,
			OwnerFromID: row.OwnerFromID,
			OwnerToID:   row.OwnerToID,
			BrokerToID:  row.BrokerToID,
			AccountToID: row.AccountToID,
			SecurityID:  row.SecurityID,
			Quantity:    qty,
		}, nil
	case "TRANSFER":
		qty, err := parsePositiveDecimal("quantity", row.Quantity)
		if err != nil {
			return nil, err
		}
		return TransferEvent{
			ActionID:    row.ActionID,
			Date:        date,
			OwnerFromID: row.OwnerFromID,
			OwnerToID:   row.OwnerToID,
			BrokerToID:  row.BrokerToID,
			AccountToID: row.AccountToID,
			SecurityID:  row.SecurityID,
			Quantity:    qty,
		}, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", row.ActionType)
	}
}

func (n *Normalizer) checkSecurity(securityID string) error {
	if _, ok := n.directory.Lookup(securityID); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSecurity, securityID)
	}
	return nil
}

func parseEventDate(value string) (time.Time, error) {
	t, err := time.Parse(utils.DateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, value)
	}
	return t, nil
}

func parseEventDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q", ErrMalformedNumber, field, value)
	}
	return d, nil
}

func parsePositiveDecimal(field, value string) (decimal.Decimal, error) {
	d, err := parseEventDecimal(field, value)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s must be positive, got %q", ErrMalformedNumber, field, value)
	}
	return d, nil
}

func parseRatio(row models.LotActionRow) (num, den decimal.Decimal, err error) {
	num, err = parsePositiveDecimal("split numerator", row.SplitNumerator)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	den, err = parsePositiveDecimal("split denominator", row.SplitDenominator)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return num, den, nil
}

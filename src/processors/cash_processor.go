package processors

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/lotledger/backend/src/ledger"
	"github.com/username/lotledger/backend/src/models"
)

type cashProcessorImpl struct{}

func NewCashProcessor() CashProcessor {
	return &cashProcessorImpl{}
}

// Balances sums signed trade flows per (owner, broker, account, currency):
// buys consume cash, sells return it. Corporate actions and transfers do not
// touch cash (merger cash-in-lieu is not modeled).
func (p *cashProcessorImpl) Balances(events []ledger.Event, directory *ledger.SecurityDirectory) []models.CashBalance {
	type key struct {
		ownerID   string
		brokerID  string
		accountID string
		currency  string
	}

	flows := make(map[key]*models.CashBalance)
	add := func(k key, native, inr decimal.Decimal) {
		b, ok := flows[k]
		if !ok {
			b = &models.CashBalance{
				OwnerID:   k.ownerID,
				BrokerID:  k.brokerID,
				AccountID: k.accountID,
				Currency:  k.currency,
			}
			flows[k] = b
		}
		b.NetFlowNative = b.NetFlowNative.Add(native)
		b.NetFlowINR = b.NetFlowINR.Add(inr)
	}

	currencyOf := func(securityID string) string {
		if sec, ok := directory.Lookup(securityID); ok {
			return sec.TradingCurrency
		}
		return ""
	}

	for _, ev := range events {
		switch ev := ev.(type) {
		case ledger.BuyEvent:
			amount := ev.Quantity.Mul(ev.Price)
			k := key{ev.OwnerID, ev.BrokerID, ev.AccountID, currencyOf(ev.SecurityID)}
			add(k, amount.Neg(), amount.Mul(ev.FXRate).Neg())
		case ledger.SellEvent:
			amount := ev.Quantity.Mul(ev.Price)
			k := key{ev.OwnerID, ev.BrokerID, ev.AccountID, currencyOf(ev.SecurityID)}
			add(k, amount, amount.Mul(ev.FXRate))
		}
	}

	balances := make([]models.CashBalance, 0, len(flows))
	for _, b := range flows {
		balances = append(balances, *b)
	}
	sort.Slice(balances, func(i, j int) bool {
		if balances[i].OwnerID != balances[j].OwnerID {
			return balances[i].OwnerID < balances[j].OwnerID
		}
		if balances[i].BrokerID != balances[j].BrokerID {
			return balances[i].BrokerID < balances[j].BrokerID
		}
		if balances[i].AccountID != balances[j].AccountID {
			return balances[i].AccountID < balances[j].AccountID
		}
		return balances[i].Currency < balances[j].Currency
	})
	return balances
}

package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/lotledger/backend/src/database"
	"github.com/username/lotledger/backend/src/logger"
	"github.com/username/lotledger/backend/src/models"
	"github.com/username/lotledger/backend/src/utils"
)

func fetchSecurities() ([]models.Security, error) {
	rows, err := database.DB.Query(`SELECT security_id, asset_id, asset_class, country, ticker, trading_currency FROM securities`)
	if err != nil {
		return nil, fmt.Errorf("error querying securities: %w", err)
	}
	defer rows.Close()

	var securities []models.Security
	for rows.Next() {
		var s models.Security
		if err := rows.Scan(&s.SecurityID, &s.AssetID, &s.AssetClass, &s.Country, &s.Ticker, &s.TradingCurrency); err != nil {
			return nil, fmt.Errorf("error scanning security row: %w", err)
		}
		securities = append(securities, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over security rows: %w", err)
	}
	return securities, nil
}

func fetchTrades() ([]models.TradeRow, error) {
	rows, err := database.DB.Query(`SELECT trade_id, trade_date, owner_id, broker_id, account_id, security_id, side, quantity, price, fx_rate_to_inr FROM trades ORDER BY trade_date ASC, trade_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying trades: %w", err)
	}
	defer rows.Close()

	var trades []models.TradeRow
	for rows.Next() {
		var t models.TradeRow
		if err := rows.Scan(&t.TradeID, &t.TradeDate, &t.OwnerID, &t.BrokerID, &t.AccountID, &t.SecurityID, &t.Side, &t.Quantity, &t.Price, &t.FXRateToINR); err != nil {
			return nil, fmt.Errorf("error scanning trade row: %w", err)
		}
		trades = append(trades, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over trade rows: %w", err)
	}
	logger.L.Debug("DB fetch complete", "tradeCount", len(trades))
	return trades, nil
}

func fetchLotActions() ([]models.LotActionRow, error) {
	rows, err := database.DB.Query(`SELECT action_id, action_date, action_type, owner_from_id, owner_to_id, broker_from_id, broker_to_id, account_from_id, account_to_id, security_id, security_to_id, split_numerator, split_denominator, quantity FROM lot_actions ORDER BY action_date ASC, action_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying lot actions: %w", err)
	}
	defer rows.Close()

	var actions []models.LotActionRow
	for rows.Next() {
		var a models.LotActionRow
		if err := rows.Scan(&a.ActionID, &a.ActionDate, &a.ActionType, &a.OwnerFromID, &a.OwnerToID, &a.BrokerFromID, &a.BrokerToID, &a.AccountFromID, &a.AccountToID, &a.SecurityID, &a.SecurityToID, &a.SplitNumerator, &a.SplitDenominator, &a.Quantity); err != nil {
			return nil, fmt.Errorf("error scanning lot action row: %w", err)
		}
		actions = append(actions, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over lot action rows: %w", err)
	}
	logger.L.Debug("DB fetch complete", "actionCount", len(actions))
	return actions, nil
}

func fetchTaxConfig() (map[string]models.AssetTaxConfig, error) {
	rows, err := database.DB.Query(`SELECT asset_class, holding_period_lt_days, ltcg_rate, stcg_rate, ltcg_exemption_inr FROM tax_config`)
	if err != nil {
		return nil, fmt.Errorf("error querying tax config: %w", err)
	}
	defer rows.Close()

	config := make(map[string]models.AssetTaxConfig)
	for rows.Next() {
		var c models.AssetTaxConfig
		var ltcgRate, stcgRate, exemption string
		if err := rows.Scan(&c.AssetClass, &c.HoldingPeriodLTDays, &ltcgRate, &stcgRate, &exemption); err != nil {
			return nil, fmt.Errorf("error scanning tax config row: %w", err)
		}
		if c.LTCGRate, err = parseStoredDecimal("ltcg_rate", ltcgRate); err != nil {
			return nil, err
		}
		if c.STCGRate, err = parseStoredDecimal("stcg_rate", stcgRate); err != nil {
			return nil, err
		}
		if c.LTCGExemptionINR, err = parseStoredDecimal("ltcg_exemption_inr", exemption); err != nil {
			return nil, err
		}
		config[c.AssetClass] = c
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over tax config rows: %w", err)
	}
	return config, nil
}

func fetchCurrentLots() ([]models.Lot, error) {
	rows, err := database.DB.Query(`SELECT lot_id, owner_id, security_id, asset_id, acquisition_date, open_qty, cost_native, cost_per_share, cost_inr, fx_rate_at_buy, broker_id, account_id FROM lots_current ORDER BY owner_id ASC, security_id ASC, acquisition_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying current lots: %w", err)
	}
	defer rows.Close()

	var lots []models.Lot
	for rows.Next() {
		var l models.Lot
		var acquisitionDate, openQty, costNative, costPerShare, costINR, fxRate string
		if err := rows.Scan(&l.LotID, &l.OwnerID, &l.SecurityID, &l.AssetID, &acquisitionDate, &openQty, &costNative, &costPerShare, &costINR, &fxRate, &l.BrokerID, &l.AccountID); err != nil {
			return nil, fmt.Errorf("error scanning lot row: %w", err)
		}
		if l.AcquisitionDate, err = parseStoredDate("acquisition_date", acquisitionDate); err != nil {
			return nil, err
		}
		if l.OpenQty, err = parseStoredDecimal("open_qty", openQty); err != nil {
			return nil, err
		}
		if l.CostNative, err = parseStoredDecimal("cost_native", costNative); err != nil {
			return nil, err
		}
		if l.CostPerShare, err = parseStoredDecimal("cost_per_share", costPerShare); err != nil {
			return nil, err
		}
		if l.CostINR, err = parseStoredDecimal("cost_inr", costINR); err != nil {
			return nil, err
		}
		if l.FXRateAtBuy, err = parseStoredDecimal("fx_rate_at_buy", fxRate); err != nil {
			return nil, err
		}
		lots = append(lots, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over lot rows: %w", err)
	}
	return lots, nil
}

func fetchConsumptions() ([]models.ConsumptionRecord, error) {
	rows, err := database.DB.Query(`SELECT trade_id, lot_id, owner_id, security_id, asset_id, sale_date, acquisition_date, quantity, cost_native, cost_inr, sale_price, fx_rate_at_sale, proceeds_native, proceeds_inr FROM lot_consumes ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying lot consumes: %w", err)
	}
	defer rows.Close()

	var consumes []models.ConsumptionRecord
	for rows.Next() {
		var c models.ConsumptionRecord
		var saleDate, acquisitionDate string
		var quantity, costNative, costINR, salePrice, fxRate, proceedsNative, proceedsINR string
		if err := rows.Scan(&c.TradeID, &c.LotID, &c.OwnerID, &c.SecurityID, &c.AssetID, &saleDate, &acquisitionDate, &quantity, &costNative, &costINR, &salePrice, &fxRate, &proceedsNative, &proceedsINR); err != nil {
			return nil, fmt.Errorf("error scanning lot consume row: %w", err)
		}
		if c.SaleDate, err = parseStoredDate("sale_date", saleDate); err != nil {
			return nil, err
		}
		if c.AcquisitionDate, err = parseStoredDate("acquisition_date", acquisitionDate); err != nil {
			return nil, err
		}
		if c.Quantity, err = parseStoredDecimal("quantity", quantity); err != nil {
			return nil, err
		}
		if c.CostNative, err = parseStoredDecimal("cost_native", costNative); err != nil {
			return nil, err
		}
		if c.CostINR, err = parseStoredDecimal("cost_inr", costINR); err != nil {
			return nil, err
		}
		if c.SalePrice, err = parseStoredDecimal("sale_price", salePrice); err != nil {
			return nil, err
		}
		if c.FXRateAtSale, err = parseStoredDecimal("fx_rate_at_sale", fxRate); err != nil {
			return nil, err
		}
		if c.ProceedsNative, err = parseStoredDecimal("proceeds_native", proceedsNative); err != nil {
			return nil, err
		}
		if c.ProceedsINR, err = parseStoredDecimal("proceeds_inr", proceedsINR); err != nil {
			return nil, err
		}
		consumes = append(consumes, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over lot consume rows: %w", err)
	}
	return consumes, nil
}

func fetchRealizedGains() ([]models.RealizedGain, error) {
	rows, err := database.DB.Query(`SELECT trade_id, lot_id, owner_id, security_id, asset_id, asset_class, sale_date, acquisition_date, holding_days, term, fiscal_year, quantity, cost_native, proceeds_native, gain_native, cost_inr, proceeds_inr, gain_inr FROM gains_realized ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying realized gains: %w", err)
	}
	defer rows.Close()

	var gains []models.RealizedGain
	for rows.Next() {
		var g models.RealizedGain
		var saleDate, acquisitionDate string
		var quantity, costNative, proceedsNative, gainNative, costINR, proceedsINR, gainINR string
		if err := rows.Scan(&g.TradeID, &g.LotID, &g.OwnerID, &g.SecurityID, &g.AssetID, &g.AssetClass, &saleDate, &acquisitionDate, &g.HoldingDays, &g.Term, &g.FiscalYear, &quantity, &costNative, &proceedsNative, &gainNative, &costINR, &proceedsINR, &gainINR); err != nil {
			return nil, fmt.Errorf("error scanning realized gain row: %w", err)
		}
		if g.SaleDate, err = parseStoredDate("sale_date", saleDate); err != nil {
			return nil, err
		}
		if g.AcquisitionDate, err = parseStoredDate("acquisition_date", acquisitionDate); err != nil {
			return nil, err
		}
		if g.Quantity, err = parseStoredDecimal("quantity", quantity); err != nil {
			return nil, err
		}
		if g.CostNative, err = parseStoredDecimal("cost_native", costNative); err != nil {
			return nil, err
		}
		if g.ProceedsNative, err = parseStoredDecimal("proceeds_native", proceedsNative); err != nil {
			return nil, err
		}
		if g.GainNative, err = parseStoredDecimal("gain_native", gainNative); err != nil {
			return nil, err
		}
		if g.CostINR, err = parseStoredDecimal("cost_inr", costINR); err != nil {
			return nil, err
		}
		if g.ProceedsINR, err = parseStoredDecimal("proceeds_inr", proceedsINR); err != nil {
			return nil, err
		}
		if g.GainINR, err = parseStoredDecimal("gain_inr", gainINR); err != nil {
			return nil, err
		}
		gains = append(gains, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over realized gain rows: %w", err)
	}
	return gains, nil
}

func fetchTaxSummary() ([]models.TaxSummaryRow, error) {
	rows, err := database.DB.Query(`SELECT fiscal_year, asset_class, long_term_gain_inr, short_term_gain_inr, taxable_long_term_inr, ltcg_tax_inr, stcg_tax_inr, total_tax_inr FROM tax_summary_fy ORDER BY fiscal_year ASC, asset_class ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying tax summary: %w", err)
	}
	defer rows.Close()

	var summary []models.TaxSummaryRow
	for rows.Next() {
		var t models.TaxSummaryRow
		var ltGain, stGain, taxableLT, ltTax, stTax, totalTax string
		if err := rows.Scan(&t.FiscalYear, &t.AssetClass, &ltGain, &stGain, &taxableLT, &ltTax, &stTax, &totalTax); err != nil {
			return nil, fmt.Errorf("error scanning tax summary row: %w", err)
		}
		if t.LongTermGainINR, err = parseStoredDecimal("long_term_gain_inr", ltGain); err != nil {
			return nil, err
		}
		if t.ShortTermGainINR, err = parseStoredDecimal("short_term_gain_inr", stGain); err != nil {
			return nil, err
		}
		if t.TaxableLongTermINR, err = parseStoredDecimal("taxable_long_term_inr", taxableLT); err != nil {
			return nil, err
		}
		if t.LTCGTaxINR, err = parseStoredDecimal("ltcg_tax_inr", ltTax); err != nil {
			return nil, err
		}
		if t.STCGTaxINR, err = parseStoredDecimal("stcg_tax_inr", stTax); err != nil {
			return nil, err
		}
		if t.TotalTaxINR, err = parseStoredDecimal("total_tax_inr", totalTax); err != nil {
			return nil, err
		}
		summary = append(summary, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over tax summary rows: %w", err)
	}
	return summary, nil
}

// publishOutputs replaces all four output tables inside one transaction.
// Commit is the publish point: readers either see the previous rebuild or
// this one, never a mix.
func publishOutputs(lots []models.Lot, consumes []models.ConsumptionRecord, gains []models.RealizedGain, taxSummary []models.TaxSummaryRow) error {
	dbTx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("error beginning publish transaction: %w", err)
	}
	defer dbTx.Rollback()

	for _, table := range []string{"lots_current", "lot_consumes", "gains_realized", "tax_summary_fy"} {
		if _, err := dbTx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("error clearing %s: %w", table, err)
		}
	}

	lotStmt, err := dbTx.Prepare(`INSERT INTO lots_current (lot_id, owner_id, security_id, asset_id, acquisition_date, open_qty, cost_native, cost_per_share, cost_inr, fx_rate_at_buy, broker_id, account_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing lot insert: %w", err)
	}
	defer lotStmt.Close()
	for _, l := range lots {
		_, err := lotStmt.Exec(l.LotID, l.OwnerID, l.SecurityID, l.AssetID, l.AcquisitionDate.Format(utils.DateFormat),
			l.OpenQty.String(), l.CostNative.String(), l.CostPerShare.String(), l.CostINR.String(), l.FXRateAtBuy.String(),
			l.BrokerID, l.AccountID)
		if err != nil {
			return fmt.Errorf("error inserting lot %s: %w", l.LotID, err)
		}
	}

	consumeStmt, err := dbTx.Prepare(`INSERT INTO lot_consumes (trade_id, lot_id, owner_id, security_id, asset_id, sale_date, acquisition_date, quantity, cost_native, cost_inr, sale_price, fx_rate_at_sale, proceeds_native, proceeds_inr) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing lot consume insert: %w", err)
	}
	defer consumeStmt.Close()
	for _, c := range consumes {
		_, err := consumeStmt.Exec(c.TradeID, c.LotID, c.OwnerID, c.SecurityID, c.AssetID,
			c.SaleDate.Format(utils.DateFormat), c.AcquisitionDate.Format(utils.DateFormat),
			c.Quantity.String(), c.CostNative.String(), c.CostINR.String(), c.SalePrice.String(), c.FXRateAtSale.String(),
			c.ProceedsNative.String(), c.ProceedsINR.String())
		if err != nil {
			return fmt.Errorf("error inserting lot consume (trade %s, lot %s): %w", c.TradeID, c.LotID, err)
		}
	}

	gainStmt, err := dbTx.Prepare(`INSERT INTO gains_realized (trade_id, lot_id, owner_id, security_id, asset_id, asset_class, sale_date, acquisition_date, holding_days, term, fiscal_year, quantity, cost_native, proceeds_native, gain_native, cost_inr, proceeds_inr, gain_inr) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing realized gain insert: %w", err)
	}
	defer gainStmt.Close()
	for _, g := range gains {
		_, err := gainStmt.Exec(g.TradeID, g.LotID, g.OwnerID, g.SecurityID, g.AssetID, g.AssetClass,
			g.SaleDate.Format(utils.DateFormat), g.AcquisitionDate.Format(utils.DateFormat),
			g.HoldingDays, g.Term, g.FiscalYear,
			g.Quantity.String(), g.CostNative.String(), g.ProceedsNative.String(), g.GainNative.String(),
			g.CostINR.String(), g.ProceedsINR.String(), g.GainINR.String())
		if err != nil {
			return fmt.Errorf("error inserting realized gain (trade %s, lot %s): %w", g.TradeID, g.LotID, err)
		}
	}

	taxStmt, err := dbTx.Prepare(`INSERT INTO tax_summary_fy (fiscal_year, asset_class, long_term_gain_inr, short_term_gain_inr, taxable_long_term_inr, ltcg_tax_inr, stcg_tax_inr, total_tax_inr) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing tax summary insert: %w", err)
	}
	defer taxStmt.Close()
	for _, t := range taxSummary {
		_, err := taxStmt.Exec(t.FiscalYear, t.AssetClass,
			t.LongTermGainINR.String(), t.ShortTermGainINR.String(), t.TaxableLongTermINR.String(),
			t.LTCGTaxINR.String(), t.STCGTaxINR.String(), t.TotalTaxINR.String())
		if err != nil {
			return fmt.Errorf("error inserting tax summary row (%s, %s): %w", t.FiscalYear, t.AssetClass, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing publish transaction: %w", err)
	}
	return nil
}

func parseStoredDecimal(column, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal in column %s: %q: %w", column, value, err)
	}
	return d, nil
}

func parseStoredDate(column, value string) (time.Time, error) {
	t, err := time.Parse(utils.DateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date in column %s: %q: %w", column, value, err)
	}
	return t, nil
}

package services

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/lotledger/backend/src/ledger"
	"github.com/username/lotledger/backend/src/logger"
	"github.com/username/lotledger/backend/src/models"
	"github.com/username/lotledger/backend/src/processors"
)

const (
	ckCurrentLots   = "res_current_lots"
	ckConsumptions  = "res_lot_consumes"
	ckRealizedGains = "res_gains_realized"
	ckTaxSummary    = "res_tax_summary_fy"
	ckCashBalances  = "res_cash_balances"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type ledgerServiceImpl struct {
	gainsProcessor processors.GainsProcessor
	taxProcessor   processors.TaxProcessor
	cashProcessor  processors.CashProcessor
	reportCache    *cache.Cache
}

func NewLedgerService(
	gainsProcessor processors.GainsProcessor,
	taxProcessor processors.TaxProcessor,
	cashProcessor processors.CashProcessor,
	reportCache *cache.Cache,
) LedgerService {
	return &ledgerServiceImpl{
		gainsProcessor: gainsProcessor,
		taxProcessor:   taxProcessor,
		cashProcessor:  cashProcessor,
		reportCache:    reportCache,
	}
}

// RunRebuild replays the full event history from the input tables and
// publishes every output table in one database transaction. A failure at any
// stage leaves the previously published outputs untouched; a successful run
// replaces them wholesale, so re-running is idempotent.
func (s *ledgerServiceImpl) RunRebuild() (*RebuildSummary, error) {
	startTime := time.Now()
	logger.L.Info("RunRebuild START")

	securities, err := fetchSecurities()
	if err != nil {
		return nil, err
	}
	trades, err := fetchTrades()
	if err != nil {
		return nil, err
	}
	actions, err := fetchLotActions()
	if err != nil {
		return nil, err
	}
	taxConfig, err := fetchTaxConfig()
	if err != nil {
		return nil, err
	}

	directory := ledger.NewSecurityDirectory(securities)

	events, err := ledger.NewNormalizer(directory).Normalize(trades, actions)
	if err != nil {
		return nil, fmt.Errorf("normalizing events: %w", err)
	}

	result, err := ledger.NewEngine(directory).Replay(events)
	if err != nil {
		return nil, fmt.Errorf("replaying events: %w", err)
	}

	gains := s.gainsProcessor.Calculate(result.Consumptions, directory, taxConfig)
	taxSummary := s.taxProcessor.Summarize(gains, taxConfig)

	if err := publishOutputs(result.Lots, result.Consumptions, gains, taxSummary); err != nil {
		return nil, fmt.Errorf("publishing rebuild outputs: %w", err)
	}

	s.invalidateCache()
	s.reportCache.Set(ckCashBalances, s.cashProcessor.Balances(events, directory), cache.NoExpiration)

	logger.L.Info("RunRebuild END",
		"eventCount", len(events),
		"openLots", len(result.Lots),
		"consumptions", len(result.Consumptions),
		"shortfalls", len(result.Shortfalls),
		"duration", time.Since(startTime))

	return &RebuildSummary{
		EventCount:       len(events),
		OpenLotCount:     len(result.Lots),
		ConsumptionCount: len(result.Consumptions),
		GainCount:        len(gains),
		Shortfalls:       result.Shortfalls,
	}, nil
}

// invalidateCache clears every cached report so the next read hits the
// freshly published tables.
func (s *ledgerServiceImpl) invalidateCache() {
	for _, key := range []string{ckCurrentLots, ckConsumptions, ckRealizedGains, ckTaxSummary, ckCashBalances} {
		s.reportCache.Delete(key)
	}
	logger.L.Info("Invalidated report caches")
}

func (s *ledgerServiceImpl) GetCurrentLots() ([]models.Lot, error) {
	if cached, found := s.reportCache.Get(ckCurrentLots); found {
		logger.L.Debug("Cache hit for current lots")
		return cached.([]models.Lot), nil
	}
	lots, err := fetchCurrentLots()
	if err != nil {
		return nil, err
	}
	s.reportCache.Set(ckCurrentLots, lots, cache.NoExpiration)
	return lots, nil
}

func (s *ledgerServiceImpl) GetConsumptions() ([]models.ConsumptionRecord, error) {
	if cached, found := s.reportCache.Get(ckConsumptions); found {
		logger.L.Debug("Cache hit for lot consumes")
		return cached.([]models.ConsumptionRecord), nil
	}
	consumes, err := fetchConsumptions()
	if err != nil {
		return nil, err
	}
	s.reportCache.Set(ckConsumptions, consumes, cache.NoExpiration)
	return consumes, nil
}

func (s *ledgerServiceImpl) GetRealizedGains() ([]models.RealizedGain, error) {
	if cached, found := s.reportCache.Get(ckRealizedGains); found {
		logger.L.Debug("Cache hit for realized gains")
		return cached.([]models.RealizedGain), nil
	}
	gains, err := fetchRealizedGains()
	if err != nil {
		return nil, err
	}
	s.reportCache.Set(ckRealizedGains, gains, cache.NoExpiration)
	return gains, nil
}

func (s *ledgerServiceImpl) GetTaxSummary() ([]models.TaxSummaryRow, error) {
	if cached, found := s.reportCache.Get(ckTaxSummary); found {
		logger.L.Debug("Cache hit for tax summary")
		return cached.([]models.TaxSummaryRow), nil
	}
	rows, err := fetchTaxSummary()
	if err != nil {
		return nil, err
	}
	s.reportCache.Set(ckTaxSummary, rows, DefaultCacheExpiration)
	return rows, nil
}

// GetCashBalances recomputes from the input tables on a cache miss; cash
// balances are derived in memory and never published to a table.
func (s *ledgerServiceImpl) GetCashBalances() ([]models.CashBalance, error) {
	if cached, found := s.reportCache.Get(ckCashBalances); found {
		logger.L.Debug("Cache hit for cash balances")
		return cached.([]models.CashBalance), nil
	}

	securities, err := fetchSecurities()
	if err != nil {
		return nil, err
	}
	trades, err := fetchTrades()
	if err != nil {
		return nil, err
	}
	directory := ledger.NewSecurityDirectory(securities)
	events, err := ledger.NewNormalizer(directory).Normalize(trades, nil)
	if err != nil {
		return nil, fmt.Errorf("normalizing trades for cash balances: %w", err)
	}

	balances := s.cashProcessor.Balances(events, directory)
	s.reportCache.Set(ckCashBalances, balances, cache.NoExpiration)
	return balances, nil
}

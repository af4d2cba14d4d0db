package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/lotledger/backend/src/logger"
	"github.com/username/lotledger/backend/src/services"
	"github.com/username/lotledger/backend/src/utils"
)

// LedgerHandler serves the rebuild trigger and the published ledger outputs.
type LedgerHandler struct {
	ledgerService services.LedgerService
}

func NewLedgerHandler(ledgerService services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// HandleRebuild runs a full replay of the event history. The rebuild is
// synchronous; the response carries the rebuild summary including any
// shortfall diagnostics.
func (h *LedgerHandler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ledgerService.RunRebuild()
	if err != nil {
		logger.L.Error("Rebuild failed", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("rebuild failed: %v", err), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// HandleGetLots returns the current open-lot snapshot with ETag support, so
// pollers can skip unchanged payloads.
func (h *LedgerHandler) HandleGetLots(w http.ResponseWriter, r *http.Request) {
	lots, err := h.ledgerService.GetCurrentLots()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error retrieving current lots: %v", err), http.StatusInternalServerError)
		return
	}

	currentETag, etagErr := utils.GenerateETag(lots)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for current lots", "error", etagErr)
	}
	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("%q", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, clientETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(clientETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lots)
}

func (h *LedgerHandler) HandleGetConsumptions(w http.ResponseWriter, r *http.Request) {
	consumes, err := h.ledgerService.GetConsumptions()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error retrieving lot consumes: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(consumes)
}

func (h *LedgerHandler) HandleGetRealizedGains(w http.ResponseWriter, r *http.Request) {
	gains, err := h.ledgerService.GetRealizedGains()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error retrieving realized gains: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(gains)
}

func (h *LedgerHandler) HandleGetTaxSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ledgerService.GetTaxSummary()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error retrieving tax summary: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func (h *LedgerHandler) HandleGetCashBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.ledgerService.GetCashBalances()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error retrieving cash balances: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(balances)
}

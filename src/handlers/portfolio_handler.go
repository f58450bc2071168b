package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/username/coinfolio/backend/src/logger"
	"github.com/username/coinfolio/backend/src/models"
	"github.com/username/coinfolio/backend/src/services"
	"github.com/username/coinfolio/backend/src/utils"
)

type PortfolioHandler struct {
	portfolioService services.PortfolioService
}

func NewPortfolioHandler(service services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: service,
	}
}

// sendReport writes a report payload with ETag support, so a client whose
// If-None-Match still matches costs a 304 instead of the full body.
func sendReport(w http.ResponseWriter, r *http.Request, payload interface{}) {
	currentETag, etagErr := utils.GenerateETag(payload)
	w.Header().Set("Cache-Control", "no-cache, private")
	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("%q", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, clientETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(clientETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	} else {
		logger.L.Warn("Proceeding without ETag check", "error", etagErr)
	}

	utils.SendJSONResponse(w, payload, http.StatusOK)
}

// HandleGetOrders serves the full order ledger, newest first.
func (h *PortfolioHandler) HandleGetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.portfolioService.GetOrders()
	if err != nil {
		logger.L.Error("Error retrieving orders from service", "error", err)
		utils.SendJSONError(w, "Error retrieving orders", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	sendReport(w, r, orders)
}

func (h *PortfolioHandler) HandleGetBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.portfolioService.GetBalances()
	if err != nil {
		logger.L.Error("Error retrieving balances from service", "error", err)
		utils.SendJSONError(w, "Error retrieving balances", http.StatusInternalServerError)
		return
	}
	if balances == nil {
		balances = []services.WalletBalance{}
	}
	sendReport(w, r, balances)
}

func (h *PortfolioHandler) HandleGetOpenPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.portfolioService.GetOpenPositions()
	if err != nil {
		logger.L.Error("Error retrieving open positions from service", "error", err)
		utils.SendJSONError(w, "Error retrieving open positions", http.StatusInternalServerError)
		return
	}
	if positions == nil {
		positions = []services.PositionReport{}
	}
	sendReport(w, r, positions)
}

func (h *PortfolioHandler) HandleGetClosedPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.portfolioService.GetClosedPositions()
	if err != nil {
		logger.L.Error("Error retrieving closed positions from service", "error", err)
		utils.SendJSONError(w, "Error retrieving closed positions", http.StatusInternalServerError)
		return
	}
	if positions == nil {
		positions = []services.PositionReport{}
	}
	sendReport(w, r, positions)
}

// HandleGetOffers lists the flat-spot splits the engine proposes: points
// where a market's running balance returned to exactly zero.
func (h *PortfolioHandler) HandleGetOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.portfolioService.GetOffers()
	if err != nil {
		logger.L.Error("Error retrieving closed-position offers from service", "error", err)
		utils.SendJSONError(w, "Error retrieving offers", http.StatusInternalServerError)
		return
	}
	if offers == nil {
		offers = []models.ClosedPositionOffer{}
	}
	sendReport(w, r, offers)
}

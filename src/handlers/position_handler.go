package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/username/coinfolio/backend/src/logger"
	"github.com/username/coinfolio/backend/src/models"
	"github.com/username/coinfolio/backend/src/services"
	"github.com/username/coinfolio/backend/src/trading"
	"github.com/username/coinfolio/backend/src/utils"
)

type PositionHandler struct {
	portfolioService services.PortfolioService
}

func NewPositionHandler(service services.PortfolioService) *PositionHandler {
	return &PositionHandler{
		portfolioService: service,
	}
}

type splitPositionRequest struct {
	OrderIDs []string `json:"order_ids"`
}

func (h *PositionHandler) HandleClosePosition(w http.ResponseWriter, r *http.Request) {
	positionID, ok := positionIDFromURL(w, r)
	if !ok {
		return
	}

	if err := h.portfolioService.ClosePosition(positionID); err != nil {
		sendPositionError(w, positionID, err)
		return
	}
	utils.SendJSONResponse(w, map[string]string{"status": "closed"}, http.StatusOK)
}

func (h *PositionHandler) HandleSplitPosition(w http.ResponseWriter, r *http.Request) {
	positionID, ok := positionIDFromURL(w, r)
	if !ok {
		return
	}

	var req splitPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(req.OrderIDs) == 0 {
		utils.SendJSONError(w, "order_ids must not be empty", http.StatusBadRequest)
		return
	}

	closedPosition, err := h.portfolioService.SplitPosition(positionID, req.OrderIDs)
	if err != nil {
		sendPositionError(w, positionID, err)
		return
	}
	utils.SendJSONResponse(w, closedPosition, http.StatusOK)
}

func (h *PositionHandler) HandleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	var offer models.ClosedPositionOffer
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		utils.SendJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := h.portfolioService.AcceptOffer(offer); err != nil {
		sendPositionError(w, offer.PositionID, err)
		return
	}
	utils.SendJSONResponse(w, map[string]string{"status": "accepted"}, http.StatusOK)
}

func positionIDFromURL(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	positionID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Invalid position id %q", raw), http.StatusBadRequest)
		return 0, false
	}
	return positionID, true
}

func sendPositionError(w http.ResponseWriter, positionID int64, err error) {
	switch {
	case errors.Is(err, trading.ErrPositionNotFound):
		utils.SendJSONError(w, fmt.Sprintf("Position %d not found", positionID), http.StatusNotFound)
	case errors.Is(err, trading.ErrOrderNotFound),
		errors.Is(err, trading.ErrPositionClosed),
		errors.Is(err, trading.ErrEmptyPosition):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		logger.L.Error("Internal error mutating position", "positionID", positionID, "error", err)
		utils.SendJSONError(w, "An internal error occurred", http.StatusInternalServerError)
	}
}

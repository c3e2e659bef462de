package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/JAGANADITHYA/walk1/internal/middleware"
	"github.com/JAGANADITHYA/walk1/internal/models"
	"github.com/JAGANADITHYA/walk1/internal/services"
)

// WalletHandler serves the ledger and both spend flows.
type WalletHandler struct {
	accounting *services.Accounting
	log        *logrus.Entry
}

func NewWalletHandler(accounting *services.Accounting, log *logrus.Entry) *WalletHandler {
	return &WalletHandler{accounting: accounting, log: log}
}

func (h *WalletHandler) ListTransactions(c *gin.Context) {
	txs, err := h.accounting.ListTransactions(c.Request.Context(), c.GetString(middleware.ContextUserID), queryLimit(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, txs)
}

func (h *WalletHandler) GetStations(c *gin.Context) {
	catalog := h.accounting.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"stations": catalog.Stations(),
		"fares":    catalog.Fares(),
	})
}

func (h *WalletHandler) QuoteMetroTicket(c *gin.Context) {
	quote, err := h.accounting.Catalog().Quote(c.Query("from"), c.Query("to"), models.TicketType(c.Query("type")))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

func (h *WalletHandler) ListMetroTickets(c *gin.Context) {
	tickets, err := h.accounting.ListTickets(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, tickets)
}

func (h *WalletHandler) PurchaseMetroTicket(c *gin.Context) {
	var req models.MetroPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ticket, err := h.accounting.PurchaseMetroTicket(c.Request.Context(), c.GetString(middleware.ContextUserID), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (h *WalletHandler) GetRewardCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, h.accounting.Catalog().Offers())
}

func (h *WalletHandler) ListRedemptions(c *gin.Context) {
	redemptions, err := h.accounting.ListRedemptions(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, redemptions)
}

func (h *WalletHandler) RedeemReward(c *gin.Context) {
	var req models.RedeemRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	redemption, err := h.accounting.RedeemReward(c.Request.Context(), c.GetString(middleware.ContextUserID), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, redemption)
}

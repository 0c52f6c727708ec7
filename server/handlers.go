package server

import (
	"errors"
	"net/http"

	"github.com/Pikkuherkko/HH-Lotto/models"
	"github.com/Pikkuherkko/HH-Lotto/raffle"
	"github.com/Pikkuherkko/HH-Lotto/service"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	raffle   service.RaffleService
	accounts service.AccountService
}

func (h *handlers) register(router *gin.Engine) {
	router.POST("/raffle/entries", h.enter)
	router.GET("/raffle/ready", h.ready)
	router.POST("/raffle/draws", h.triggerDraw)
	router.POST("/oracle/fulfillments", h.fulfill)
	router.GET("/raffle", h.status)
	router.GET("/raffle/participants", h.participants)
	router.GET("/raffle/winner", h.latestWinner)
	router.GET("/raffle/winners", h.winnerHistory)
	router.POST("/accounts/deposits", h.deposit)
	router.GET("/accounts/:address", h.account)
	router.POST("/claims", h.claim)
}

type enterRequest struct {
	Participant string `json:"participant" binding:"required"`
	// Pointer so a literal 0 passes binding and reaches the engine, which
	// classifies it as an underpayment rather than a malformed request.
	Amount *int64 `json:"amount" binding:"required"`
}

func (h *handlers) enter(c *gin.Context) {
	var req enterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.raffle.Enter(c.Request.Context(), models.Participant(req.Participant), *req.Amount); err != nil {
		writeRaffleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"participant": req.Participant,
		"amount":      *req.Amount,
	})
}

func (h *handlers) ready(c *gin.Context) {
	c.JSON(http.StatusOK, h.raffle.CheckReady())
}

func (h *handlers) triggerDraw(c *gin.Context) {
	requestID, err := h.raffle.TriggerDraw(c.Request.Context())
	if err != nil {
		writeRaffleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"request_id": requestID})
}

type fulfillmentRequest struct {
	RequestID string   `json:"request_id" binding:"required"`
	Words     []uint64 `json:"words"`
}

func (h *handlers) fulfill(c *gin.Context) {
	var req fulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.raffle.DeliverRandomness(c.Request.Context(), req.RequestID, req.Words)
	if err != nil {
		writeRaffleError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *handlers) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.raffle.Status())
}

func (h *handlers) participants(c *gin.Context) {
	participants := h.raffle.Participants()
	c.JSON(http.StatusOK, gin.H{
		"participants": participants,
		"count":        len(participants),
	})
}

func (h *handlers) latestWinner(c *gin.Context) {
	status := h.raffle.Status()
	if status.LastWinner == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no draw has settled yet"})
		return
	}
	c.JSON(http.StatusOK, status.LastWinner)
}

func (h *handlers) winnerHistory(c *gin.Context) {
	winners, err := h.raffle.WinnerHistory(c.Request.Context(), 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"winners": winners})
}

type depositRequest struct {
	Address string `json:"address" binding:"required"`
	Amount  int64  `json:"amount" binding:"required"`
}

func (h *handlers) deposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accounts.Deposit(c.Request.Context(), models.Participant(req.Address), req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *handlers) account(c *gin.Context) {
	address := models.Participant(c.Param("address"))

	account, err := h.accounts.GetAccount(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if account == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	c.JSON(http.StatusOK, account)
}

type claimRequest struct {
	Address string `json:"address" binding:"required"`
}

func (h *handlers) claim(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := h.accounts.Claim(c.Request.Context(), models.Participant(req.Address))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address": req.Address,
		"amount":  amount,
	})
}

// writeRaffleError maps engine errors onto HTTP statuses. Diagnostics ride
// along for the readiness failure so callers can see which conjunct failed.
func writeRaffleError(c *gin.Context, err error) {
	var notReady *raffle.UpkeepNotReadyError
	if errors.As(err, &notReady) {
		c.JSON(http.StatusConflict, gin.H{
			"error":             err.Error(),
			"state":             notReady.State,
			"participant_count": notReady.ParticipantCount,
			"pot_balance":       notReady.PotBalance,
		})
		return
	}

	switch {
	case errors.Is(err, raffle.ErrInsufficientPayment),
		errors.Is(err, raffle.ErrPaymentDeclined):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, raffle.ErrRaffleClosed),
		errors.Is(err, raffle.ErrRequestAlreadyOutstanding):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, raffle.ErrUnknownRequest):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, raffle.ErrPayoutTransferFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

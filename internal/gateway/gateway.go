package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"roulette-live-client/internal/chain"
	"roulette-live-client/internal/game"
	"roulette-live-client/internal/models"
	"roulette-live-client/internal/session"
)

// Gateway exposes the client's state and actions over a local HTTP surface,
// for the rendering layer and for operators. It holds no state of its own;
// every request reads or drives the live components.
type Gateway struct {
	state        *game.State
	ledger       *game.Ledger
	session      *session.Session
	orchestrator *chain.Orchestrator
	view         *models.BalanceView
}

func New(state *game.State, ledger *game.Ledger, sess *session.Session, orch *chain.Orchestrator, view *models.BalanceView) *Gateway {
	return &Gateway{
		state:        state,
		ledger:       ledger,
		session:      sess,
		orchestrator: orch,
		view:         view,
	}
}

// Router builds the gin engine with all routes attached.
func (g *Gateway) Router() *gin.Engine {
	router := gin.Default()

	router.GET("/state", g.GetState)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	bets := router.Group("/bets")
	{
		bets.POST("", g.PlaceBet)
		bets.POST("/cancel", g.CancelBets)
	}

	router.POST("/chat", g.SendChat)

	transfers := router.Group("/transfers")
	{
		transfers.POST("/deposit", g.Deposit)
		transfers.POST("/claim", g.Claim)
		transfers.GET("/:kind", g.GetTransfer)
		transfers.POST("/:kind/ack", g.AcknowledgeTransfer)
	}

	return router
}

// GetState returns everything the rendering layer needs in one read.
func (g *Gateway) GetState(c *gin.Context) {
	resp := gin.H{
		"connected": g.session.Connected(),
		"balance":   g.view.Get(),
		"bets":      g.ledger.WireBets(),
		"staked":    g.ledger.Total(),
		"chat":      g.session.Chat(),
	}

	if round := g.state.Round(); round != nil {
		resp["round"] = round
	}
	transfers := gin.H{}
	for _, kind := range []models.TransferKind{models.TransferDeposit, models.TransferClaim} {
		if op := g.orchestrator.Operation(kind); op != nil {
			transfers[string(kind)] = op
		}
	}
	if len(transfers) > 0 {
		resp["transfers"] = transfers
	}
	if winnings := g.session.LastWinnings(); winnings != nil {
		resp["last_winnings"] = *winnings
	}
	if errMsg := g.session.LastError(); errMsg != "" {
		resp["last_error"] = errMsg
	}

	c.JSON(http.StatusOK, resp)
}

type placeBetRequest struct {
	Key    string `json:"key" binding:"required"`
	Amount int64  `json:"amount" binding:"required"`
}

func (g *Gateway) PlaceBet(c *gin.Context) {
	var req placeBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	key, err := models.ParseBetKey(req.Key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := g.session.PlaceBet(key, req.Amount); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"staked":  g.ledger.Total(),
	})
}

func (g *Gateway) CancelBets(c *gin.Context) {
	if err := g.session.CancelAll(c.Request.Context()); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

func (g *Gateway) SendChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := g.session.SendChat(req.Message); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type transferRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

func (g *Gateway) Deposit(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	op, err := g.orchestrator.Deposit(c.Request.Context(), req.Amount)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"operation": op})
}

func (g *Gateway) Claim(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	op, err := g.orchestrator.Claim(c.Request.Context(), req.Amount)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"operation": op})
}

func (g *Gateway) GetTransfer(c *gin.Context) {
	kind, ok := transferKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown transfer kind"})
		return
	}

	op := g.orchestrator.Operation(kind)
	if op == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No operation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"operation": op})
}

func (g *Gateway) AcknowledgeTransfer(c *gin.Context) {
	kind, ok := transferKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown transfer kind"})
		return
	}

	if err := g.orchestrator.Acknowledge(kind); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func transferKind(s string) (models.TransferKind, bool) {
	switch models.TransferKind(s) {
	case models.TransferDeposit:
		return models.TransferDeposit, true
	case models.TransferClaim:
		return models.TransferClaim, true
	}
	return "", false
}

// statusFor maps domain errors onto HTTP statuses for the local surface.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrWrongPhase),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInsufficientBalance),
		errors.Is(err, models.ErrNoRound):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrOperationInProgress):
		return http.StatusConflict
	case errors.Is(err, models.ErrNotConnected):
		return http.StatusServiceUnavailable
	}

	var rejection *models.ServerRejection
	if errors.As(err, &rejection) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/richardliu001/auction-service/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RegisterHandlers mounts the authenticated /v1 API on g.
func RegisterHandlers(g *gin.RouterGroup, auctions *service.AuctionService, wallets *service.WalletService, log *zap.SugaredLogger) {
	a := &auctionHandler{svc: auctions, log: log}
	w := &walletHandler{svc: wallets, log: log}

	g.POST("/auctions", a.create)
	g.GET("/auctions", a.list)
	g.GET("/auctions/:id", a.get)
	g.POST("/auctions/:id/join", a.join)
	g.POST("/auctions/:id/bid", a.bid)
	g.POST("/auctions/:id/start", a.start)
	g.POST("/auctions/:id/finish", a.finish)

	g.GET("/wallet", w.summary)
	g.POST("/wallet/topup", w.topUp)
	g.GET("/wallet/transactions", w.history)
}

type walletHandler struct {
	svc *service.WalletService
	log *zap.SugaredLogger
}

type topUpReq struct {
	Points         *decimal.Decimal `json:"points" binding:"required"`
	IdempotencyKey string           `json:"idempotency_key" binding:"required"`
}

func (h *walletHandler) topUp(c *gin.Context) {
	var req topUpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	bal, err := h.svc.TopUp(c.Request.Context(), actorFrom(c).UserID, *req.Points, req.IdempotencyKey)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Wallet topped up successfully", "data": h.svc.SummaryOf(bal)})
}

func (h *walletHandler) summary(c *gin.Context) {
	sum, err := h.svc.Summary(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Wallet retrieved successfully", "data": sum})
}

func (h *walletHandler) history(c *gin.Context) {
	page, perPage, err := pageParams(c)
	if err != nil {
		writeBindError(c, err)
		return
	}
	out, err := h.svc.GetHistory(c.Request.Context(), actorFrom(c).UserID, page, perPage)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Transactions retrieved successfully",
		"data":     out.Items,
		"total":    out.Total,
		"page":     out.Page,
		"per_page": out.PerPage,
	})
}

var errBadPage = errors.New("page and per_page must be integers")

func pageParams(c *gin.Context) (int, int, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		return 0, 0, errBadPage
	}
	perPage, err := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if err != nil {
		return 0, 0, errBadPage
	}
	return page, perPage, nil
}

package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richardliu001/auction-service/internal/model"
	"github.com/richardliu001/auction-service/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type auctionHandler struct {
	svc *service.AuctionService
	log *zap.SugaredLogger
}

// auctionID parses :id; a malformed id is reported as a missing auction.
func (h *auctionHandler) auctionID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		writeError(c, h.log, service.ErrAuctionNotFound)
		return 0, false
	}
	return id, true
}

type createAuctionReq struct {
	ListingID     uint64           `json:"listing_id" binding:"required"`
	Type          string           `json:"type" binding:"required,oneof=scheduled live"`
	StartTime     *time.Time       `json:"start_time"`
	EndTime       *time.Time       `json:"end_time"`
	StartingPrice decimal.Decimal  `json:"starting_price"`
	ReservePrice  *decimal.Decimal `json:"reserve_price"`
	MinIncrement  *decimal.Decimal `json:"min_increment"`
	JoinFee       decimal.Decimal  `json:"join_fee"`
	Pending       bool             `json:"pending"`
}

func (h *auctionHandler) create(c *gin.Context) {
	var req createAuctionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	a, err := h.svc.Create(c.Request.Context(), actorFrom(c), service.CreateAuctionInput{
		ListingID:     req.ListingID,
		Type:          model.AuctionType(req.Type),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		StartingPrice: req.StartingPrice,
		ReservePrice:  req.ReservePrice,
		MinIncrement:  req.MinIncrement,
		JoinFee:       req.JoinFee,
		Pending:       req.Pending,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Auction created successfully", "data": a})
}

func (h *auctionHandler) list(c *gin.Context) {
	page, perPage, err := pageParams(c)
	if err != nil {
		writeBindError(c, err)
		return
	}
	out, err := h.svc.List(c.Request.Context(), service.ListFilter{
		Status:  model.AuctionStatus(c.Query("status")),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Auctions retrieved successfully",
		"data":     out.Items,
		"total":    out.Total,
		"page":     out.Page,
		"per_page": out.PerPage,
	})
}

func (h *auctionHandler) get(c *gin.Context) {
	id, ok := h.auctionID(c)
	if !ok {
		return
	}
	d, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Auction retrieved successfully", "data": d})
}

func (h *auctionHandler) join(c *gin.Context) {
	id, ok := h.auctionID(c)
	if !ok {
		return
	}
	p, err := h.svc.Join(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully joined auction", "data": p})
}

// bidReq carries exactly one of amount (currency) or points.
type bidReq struct {
	Amount *decimal.Decimal `json:"amount"`
	Points *decimal.Decimal `json:"points"`
}

func (h *auctionHandler) bid(c *gin.Context) {
	id, ok := h.auctionID(c)
	if !ok {
		return
	}
	var req bidReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if (req.Amount == nil) == (req.Points == nil) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"message": "send exactly one of amount or points"})
		return
	}

	var (
		r   *service.BidReceipt
		err error
	)
	if req.Points != nil {
		r, err = h.svc.PlaceBidPoints(c.Request.Context(), actorFrom(c), id, *req.Points)
	} else {
		r, err = h.svc.PlaceBid(c.Request.Context(), actorFrom(c), id, *req.Amount)
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bid placed successfully", "data": r})
}

func (h *auctionHandler) start(c *gin.Context) {
	id, ok := h.auctionID(c)
	if !ok {
		return
	}
	a, err := h.svc.Start(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Auction started", "data": a})
}

func (h *auctionHandler) finish(c *gin.Context) {
	id, ok := h.auctionID(c)
	if !ok {
		return
	}
	res, err := h.svc.Finish(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	msg := "Auction finished"
	if res.AlreadyFinished {
		msg = "Auction already finished"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "data": res})
}

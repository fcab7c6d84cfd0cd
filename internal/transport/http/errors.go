package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richardliu001/auction-service/internal/service"
	"go.uber.org/zap"
)

// statusFor maps service errors to HTTP codes; unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrAuctionNotFound), errors.Is(err, service.ErrWalletNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAuctionNotOpen),
		errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrBidTooLow),
		errors.Is(err, service.ErrJoinClosed),
		errors.Is(err, service.ErrAlreadyJoined),
		errors.Is(err, service.ErrAlreadyStarted),
		errors.Is(err, service.ErrAuctionExists):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, log *zap.SugaredLogger, err error) {
	code := statusFor(err)
	msg := err.Error()
	fields := []interface{}{
		"request_id", c.GetString(requestIDKey),
		"user_id", actorFrom(c).UserID,
		"path", c.FullPath(),
		"err", err,
	}
	if code == http.StatusInternalServerError {
		log.Errorw("request failed", fields...)
		msg = "internal error"
	} else {
		log.Debugw("request rejected", fields...)
	}
	c.AbortWithStatusJSON(code, gin.H{"message": msg})
}

func writeBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richardliu001/auction-service/internal/auth"
	"github.com/richardliu001/auction-service/internal/config"
	"github.com/richardliu001/auction-service/internal/metrics"
	"github.com/richardliu001/auction-service/internal/service"
	"go.uber.org/zap"
)

func NewRouter(auctions *service.AuctionService, wallets *service.WalletService, verifier *auth.Verifier,
	m *metrics.Metrics, rl config.RateLimitConfig, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(log, m))
	r.Use(RateLimitMiddleware(rl.RPS, rl.Burst))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "ok"}) })
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	v1 := r.Group("/v1", AuthMiddleware(verifier))
	RegisterHandlers(v1, auctions, wallets, log)
	return r
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/richardliu001/auction-service/internal/auth"
	"github.com/richardliu001/auction-service/internal/config"
	"github.com/richardliu001/auction-service/internal/logger"
	"github.com/richardliu001/auction-service/internal/metrics"
	"github.com/richardliu001/auction-service/internal/model"
	"github.com/richardliu001/auction-service/internal/money"
	"github.com/richardliu001/auction-service/internal/repo"
	"github.com/richardliu001/auction-service/internal/service"
	httptransport "github.com/richardliu001/auction-service/internal/transport/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// 1. load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Errorf("config: %w", err))
	}

	// 2. init logger
	log, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer log.Sync()

	// 3. postgres
	gdb, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{PrepareStmt: true})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	if cfg.Postgres.AutoMigrate {
		if err := gdb.AutoMigrate(model.All()...); err != nil {
			log.Fatalf("auto-migrate: %v", err)
		}
	}

	// 4. redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("redis ping: %v", err)
	}

	// 5. repo & services; events go to the outbox table and cmd/poller publishes them
	m := metrics.New()
	conv := money.NewConverter(cfg.Currency.PointsRatio)
	repository := repo.NewRepository(gdb, rdb, nil, log)
	auctions := service.NewAuctionService(repository, conv, m, log)
	wallets := service.NewWalletService(repository, conv, cfg.Currency.Code, m, log)

	// 6. gin router
	gin.SetMode(gin.ReleaseMode)
	router := httptransport.NewRouter(auctions, wallets,
		auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer), m, cfg.RateLimit, log)

	// 7. serve until SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: router}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("auction-server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

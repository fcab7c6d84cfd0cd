package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/richardliu001/auction-service/internal/config"
	"github.com/richardliu001/auction-service/internal/logger"
	"github.com/richardliu001/auction-service/internal/metrics"
	"github.com/richardliu001/auction-service/internal/money"
	"github.com/richardliu001/auction-service/internal/repo"
	"github.com/richardliu001/auction-service/internal/service"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	log, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer log.Sync()

	gdb, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{PrepareStmt: true})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("redis ping: %v", err)
	}

	// settlement writes outbox rows only; publishing is the poller's job
	repository := repo.NewRepository(gdb, rdb, nil, log)
	m := metrics.New()
	auctions := service.NewAuctionService(repository, money.NewConverter(cfg.Currency.PointsRatio), m, log)
	sched := service.NewScheduler(repository, auctions, cfg.Scheduler.Interval, cfg.Scheduler.LockTTL, m, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := sched.Run(ctx); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
}

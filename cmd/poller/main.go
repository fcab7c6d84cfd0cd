package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/richardliu001/auction-service/internal/config"
	"github.com/richardliu001/auction-service/internal/logger"
	"github.com/richardliu001/auction-service/internal/repo"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/segmentio/kafka-go"
)

const batchSize = 100

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

	// Hash keeps all events of one auction on one partition
	kw := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Kafka.Brokers...),
		Topic:    cfg.Kafka.Topic,
		Balancer: &kafka.Hash{},
	}
	defer kw.Close()

	repo := repo.NewRepository(gdb, nil, kw, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	log.Info("auction-poller started")
	for {
		select {
		case <-ctx.Done():
			log.Info("auction-poller stopped")
			return
		case <-ticker.C:
		}
		events, err := repo.PollOutbox(ctx, batchSize)
		if err != nil {
			log.Errorf("poll outbox: %v", err)
			continue
		}
		for _, evt := range events {
			if err := repo.PublishEvent(ctx, evt); err != nil {
				// stop the batch so later events of the same auction are not sent first
				log.Errorw("publish event", "id", evt.ID, "type", evt.EventType, "err", err)
				break
			}
			if err := repo.MarkOutboxProcessed(ctx, evt.ID); err != nil {
				log.Errorw("mark processed", "id", evt.ID, "err", err)
				break
			}
			log.Debugw("event sent", "id", evt.ID, "type", evt.EventType)
		}
	}
}

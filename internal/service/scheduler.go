package service

import (
	"context"
	"errors"
	"time"

	"github.com/richardliu001/auction-service/internal/metrics"
	"github.com/richardliu001/auction-service/internal/repo"
	"go.uber.org/zap"
)

const schedulerLockKey = "auction-status-scheduler"

// Scheduler advances auction status by time: it opens auctions whose start
// has passed and settles those whose end has passed.
type Scheduler struct {
	repo     repo.RepositoryInterface
	auctions *AuctionService
	interval time.Duration
	lockTTL  time.Duration
	metrics  *metrics.Metrics
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewScheduler(r repo.RepositoryInterface, auctions *AuctionService, interval, lockTTL time.Duration, m *metrics.Metrics, logger *zap.SugaredLogger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if lockTTL <= 0 || lockTTL > interval {
		lockTTL = interval
	}
	return &Scheduler{
		repo:     r,
		auctions: auctions,
		interval: interval,
		lockTTL:  lockTTL,
		metrics:  m,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// TickResult summarises one pass.
type TickResult struct {
	Opened  int64
	Settled []uint64
	Failed  []uint64
	Skipped bool
}

// Tick runs one pass. Another replica holding the lock makes it a no-op.
// A failed settlement is logged and the pass continues with the next auction.
func (s *Scheduler) Tick(ctx context.Context) (TickResult, error) {
	var res TickResult
	unlock, err := s.repo.AcquireLock(ctx, schedulerLockKey, s.lockTTL)
	if err != nil {
		if errors.Is(err, repo.ErrLockHeld) {
			s.log.Debugw("scheduler lock held elsewhere, skipping tick")
			res.Skipped = true
			return res, nil
		}
		return res, err
	}
	defer unlock()

	now := s.now()
	opened, err := s.repo.OpenDueAuctions(ctx, now)
	if err != nil {
		return res, err
	}
	res.Opened = opened
	s.metrics.Opened(opened)

	due, err := s.repo.DueForSettlement(ctx, now)
	if err != nil {
		return res, err
	}
	for _, id := range due {
		if _, err := s.auctions.Settle(ctx, id); err != nil {
			s.log.Errorw("scheduled settlement failed", "auction_id", id, "err", err)
			res.Failed = append(res.Failed, id)
			continue
		}
		res.Settled = append(res.Settled, id)
	}
	if opened > 0 || len(due) > 0 {
		s.log.Infow("auction statuses updated", "opened", opened,
			"settled", len(res.Settled), "failed", len(res.Failed), "at", now)
	}
	return res, nil
}

// Run ticks immediately and then on every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Infow("auction scheduler started", "interval", s.interval.String())
	for {
		if _, err := s.Tick(ctx); err != nil && ctx.Err() == nil {
			s.log.Errorw("scheduler tick", "err", err)
		}
		select {
		case <-ctx.Done():
			s.log.Info("auction scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

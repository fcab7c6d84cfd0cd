package service

import (
	"context"
	"testing"
	"time"

	"github.com/richardliu001/auction-service/internal/model"
	"github.com/richardliu001/auction-service/internal/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func (e *testEnv) scheduler(now time.Time) *Scheduler {
	return NewScheduler(e.repo, e.auctions, time.Minute, 0, e.metrics, zap.NewNop().Sugar()).
		WithClock(func() time.Time { return now })
}

func (e *testEnv) setWindow(t *testing.T, id uint64, start, end time.Time) {
	t.Helper()
	require.NoError(t, e.db.Model(&model.Auction{}).Where("id = ?", id).
		Updates(map[string]interface{}{"start_time": start, "end_time": end}).Error)
}

func TestSchedulerTick(t *testing.T) {
	e := newTestEnv(t)
	e.seedWallet(t, 1, "1000")
	e.seedWallet(t, 2, "1000")

	due := e.seedAuction(t, model.StatusUpcoming, "100", "50")
	notYet := e.seedAuction(t, model.StatusUpcoming, "100", "50")
	e.setWindow(t, notYet.ID, testNow.Add(time.Hour), testNow.Add(2*time.Hour))
	pending := e.seedAuction(t, model.StatusPending, "100", "50")

	expired := e.seedAuction(t, model.StatusOpening, "100", "50")
	_, err := e.auctions.PlaceBid(e.ctx, user(1), expired.ID, dec("200"))
	require.NoError(t, err)
	_, err = e.auctions.PlaceBid(e.ctx, user(2), expired.ID, dec("300"))
	require.NoError(t, err)
	e.setWindow(t, expired.ID, testNow.Add(-2*time.Hour), testNow.Add(-time.Minute))

	live := e.seedAuction(t, model.StatusLive, "100", "50")
	e.setWindow(t, live.ID, testNow.Add(-2*time.Hour), testNow.Add(-time.Minute))

	res, err := e.scheduler(testNow).Tick(e.ctx)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, int64(2), res.Opened)
	assert.Equal(t, []uint64{expired.ID}, res.Settled)
	assert.Empty(t, res.Failed)

	assert.Equal(t, model.StatusOpening, e.auction(t, due.ID).Status)
	assert.Equal(t, model.StatusOpening, e.auction(t, pending.ID).Status)
	assert.Equal(t, model.StatusUpcoming, e.auction(t, notYet.ID).Status)
	assert.Equal(t, model.StatusLive, e.auction(t, live.ID).Status, "live auctions end by admin only")

	got := e.auction(t, expired.ID)
	assert.Equal(t, model.StatusFinished, got.Status)
	assert.Equal(t, uint64(2), *got.WinnerID)
	requireDec(t, "1000", e.balance(t, 1))

	// A second pass finds nothing left to do.
	res, err = e.scheduler(testNow).Tick(e.ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Opened)
	assert.Empty(t, res.Settled)
	assert.Len(t, e.ledger(t, 1, model.TxRefund), 1)
}

func TestSchedulerTick_OpensThenSettlesLater(t *testing.T) {
	e := newTestEnv(t)
	a := e.seedAuction(t, model.StatusUpcoming, "100", "50")

	res, err := e.scheduler(testNow).Tick(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Opened)
	assert.Empty(t, res.Settled)

	res, err = e.scheduler(testNow.Add(2 * time.Hour)).Tick(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{a.ID}, res.Settled)
	assert.Equal(t, model.StatusFinished, e.auction(t, a.ID).Status)
}

type heldLockRepo struct {
	repo.RepositoryInterface
}

func (heldLockRepo) AcquireLock(context.Context, string, time.Duration) (func(), error) {
	return nil, repo.ErrLockHeld
}

func TestSchedulerTick_SkipsWhenLockHeld(t *testing.T) {
	e := newTestEnv(t)
	a := e.seedAuction(t, model.StatusUpcoming, "100", "50")

	s := NewScheduler(heldLockRepo{e.repo}, e.auctions, time.Minute, time.Second, nil, zap.NewNop().Sugar()).
		WithClock(func() time.Time { return testNow })
	res, err := s.Tick(e.ctx)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, model.StatusUpcoming, e.auction(t, a.ID).Status)
}

func TestSchedulerRun_StopsOnCancel(t *testing.T) {
	e := newTestEnv(t)
	a := e.seedAuction(t, model.StatusUpcoming, "100", "50")

	ctx, cancel := context.WithCancel(e.ctx)
	done := make(chan error, 1)
	go func() { done <- e.scheduler(testNow).Run(ctx) }()

	require.Eventually(t, func() bool {
		var st []model.AuctionStatus
		e.db.Model(&model.Auction{}).Where("id = ?", a.ID).Pluck("status", &st)
		return len(st) == 1 && st[0] == model.StatusOpening
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

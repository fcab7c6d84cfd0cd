package repo

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/google/uuid"
	"github.com/richardliu001/auction-service/internal/logger"
	"github.com/richardliu001/auction-service/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func must(l *zap.SugaredLogger, err error) *zap.SugaredLogger {
	if err != nil {
		panic(err)
	}
	return l
}

func TestUpdateWallet_VersionGuard(t *testing.T) {
	db := newTestDB(t)
	r := NewRepository(db, nil, nil, must(logger.NewLogger("error")))
	ctx := context.Background()
	require.NoError(t, db.Create(&model.Wallet{UserID: 1, Balance: decimal.NewFromInt(100), Currency: "SAR"}).Error)

	var stale model.Wallet
	require.NoError(t, db.Where("user_id = ?", 1).First(&stale).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		w, err := r.GetWalletForUpdate(ctx, tx, 1)
		if err != nil {
			return err
		}
		return r.UpdateWallet(ctx, tx, w.ID, w.Balance.Add(decimal.NewFromInt(10)), w.Version)
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		return r.UpdateWallet(ctx, tx, stale.ID, stale.Balance.Add(decimal.NewFromInt(10)), stale.Version)
	})
	assert.ErrorIs(t, err, ErrVersionConflict)

	err = db.Transaction(func(tx *gorm.DB) error {
		return r.UpdateWallet(ctx, tx, stale.ID, decimal.NewFromInt(-1), stale.Version+1)
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	w, err := r.GetWallet(ctx, 1)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(110)))
	assert.Equal(t, uint64(1), w.Version)
}

func TestGetParticipant_Missing(t *testing.T) {
	db := newTestDB(t)
	r := NewRepository(db, nil, nil, zap.NewNop().Sugar())

	p, err := r.GetParticipant(context.Background(), db, 1, 1)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestDueForSettlement(t *testing.T) {
	db := newTestDB(t)
	r := NewRepository(db, nil, nil, zap.NewNop().Sugar())
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Minute), now.Add(time.Hour)

	seed := func(listing uint64, st model.AuctionStatus, end *time.Time) uint64 {
		a := model.Auction{ListingID: listing, Type: model.AuctionScheduled, EndTime: end, Status: st}
		require.NoError(t, db.Create(&a).Error)
		return a.ID
	}
	opening := seed(1, model.StatusOpening, &past)
	pending := seed(2, model.StatusPending, &past)
	seed(3, model.StatusLive, &past)
	seed(4, model.StatusFinished, &past)
	seed(5, model.StatusOpening, &future)
	seed(6, model.StatusOpening, nil)

	ids, err := r.DueForSettlement(context.Background(), now)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{opening, pending}, ids)
}

func TestBalanceCache(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	r := NewRepository(nil, rdb, nil, zap.NewNop().Sugar())
	ctx := context.Background()

	mock.ExpectSet("balance:7", "850.5", balanceTTL).SetVal("OK")
	mock.ExpectGet("balance:7").SetVal("850.5")
	mock.ExpectGet("balance:8").RedisNil()

	require.NoError(t, r.CacheBalance(ctx, 7, decimal.RequireFromString("850.50")))
	bal, err := r.GetCachedBalance(ctx, 7)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("850.5")))

	_, err = r.GetCachedBalance(ctx, 8)
	assert.ErrorIs(t, err, redis.Nil)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBalanceCache_NoRedis(t *testing.T) {
	r := NewRepository(nil, nil, nil, zap.NewNop().Sugar())
	assert.NoError(t, r.CacheBalance(context.Background(), 1, decimal.NewFromInt(5)))
	_, err := r.GetCachedBalance(context.Background(), 1)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestAcquireLock(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	r := NewRepository(nil, rdb, nil, zap.NewNop().Sugar())
	ctx := context.Background()

	mock.Regexp().ExpectSetNX("lock:tick", `.+`, time.Minute).SetVal(true)
	mock.Regexp().ExpectSetNX("lock:tick", `.+`, time.Minute).SetVal(false)

	unlock, err := r.AcquireLock(ctx, "tick", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, unlock)

	_, err = r.AcquireLock(ctx, "tick", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishEvent_NoWriter(t *testing.T) {
	r := NewRepository(nil, nil, nil, zap.NewNop().Sugar())
	err := r.PublishEvent(context.Background(), model.OutboxEvent{ID: 1, Aggregate: "Auction", AggregateID: 1})
	assert.Error(t, err)
}

func TestCreateWallet_SecondInsertIsNoop(t *testing.T) {
	db := newTestDB(t)
	r := NewRepository(db, nil, nil, zap.NewNop().Sugar())
	ctx := context.Background()

	first := &model.Wallet{UserID: 3, Balance: decimal.NewFromInt(10), Currency: "SAR"}
	require.NoError(t, r.CreateWallet(ctx, db, first))
	require.NotZero(t, first.ID)

	second := &model.Wallet{UserID: 3, Balance: decimal.Zero, Currency: "SAR"}
	require.NoError(t, r.CreateWallet(ctx, db, second))

	var n int64
	require.NoError(t, db.Model(&model.Wallet{}).Where("user_id = ?", 3).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	w, err := r.GetWallet(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, first.ID, w.ID)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(10)))
}

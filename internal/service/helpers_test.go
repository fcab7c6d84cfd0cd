package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/richardliu001/auction-service/internal/auth"
	"github.com/richardliu001/auction-service/internal/metrics"
	"github.com/richardliu001/auction-service/internal/model"
	"github.com/richardliu001/auction-service/internal/money"
	"github.com/richardliu001/auction-service/internal/repo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db       *gorm.DB
	repo     *repo.Repository
	auctions *AuctionService
	wallets  *WalletService
	metrics  *metrics.Metrics
	ctx      context.Context
}

// newTestEnv opens a private in-memory SQLite database. One connection
// serialises transactions the way row locks do on Postgres.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))

	log := zap.NewNop().Sugar()
	m := metrics.New()
	r := repo.NewRepository(db, nil, nil, log)
	conv := money.NewConverter(500)
	return &testEnv{
		db:       db,
		repo:     r,
		auctions: NewAuctionService(r, conv, m, log).WithClock(func() time.Time { return testNow }),
		wallets:  NewWalletService(r, conv, "SAR", m, log),
		metrics:  m,
		ctx:      context.Background(),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func user(id uint64) auth.Actor { return auth.Actor{UserID: id, Role: auth.RoleUser} }

var admin = auth.Actor{UserID: 999, Role: auth.RoleAdmin}

func (e *testEnv) seedWallet(t *testing.T, userID uint64, balance string) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.Wallet{UserID: userID, Balance: dec(balance), Currency: "SAR"}).Error)
}

func (e *testEnv) seedAuction(t *testing.T, status model.AuctionStatus, current, increment string) *model.Auction {
	t.Helper()
	start, end := testNow.Add(-time.Hour), testNow.Add(time.Hour)
	var n int64
	require.NoError(t, e.db.Model(&model.Auction{}).Count(&n).Error)
	a := &model.Auction{
		ListingID:     uint64(n + 1),
		Type:          model.AuctionScheduled,
		StartTime:     &start,
		EndTime:       &end,
		StartingPrice: dec(current),
		CurrentPrice:  dec(current),
		MinIncrement:  dec(increment),
		JoinFee:       decimal.Zero,
		Status:        status,
	}
	require.NoError(t, e.db.Create(a).Error)
	return a
}

func (e *testEnv) balance(t *testing.T, userID uint64) decimal.Decimal {
	t.Helper()
	var w model.Wallet
	require.NoError(t, e.db.Where("user_id = ?", userID).First(&w).Error)
	return w.Balance
}

func (e *testEnv) auction(t *testing.T, id uint64) model.Auction {
	t.Helper()
	var a model.Auction
	require.NoError(t, e.db.First(&a, id).Error)
	return a
}

func (e *testEnv) ledger(t *testing.T, userID uint64, typ model.TxType) []model.Transaction {
	t.Helper()
	var txs []model.Transaction
	require.NoError(t, e.db.Where("user_id = ? AND type = ?", userID, typ).Order("id").Find(&txs).Error)
	return txs
}

func requireDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

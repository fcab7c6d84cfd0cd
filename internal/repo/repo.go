package repo

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/richardliu001/auction-service/internal/model"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrInsufficientFunds is returned when wallet balance is not enough.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrVersionConflict means the wallet row changed under a held lock.
	ErrVersionConflict = errors.New("optimistic lock conflict")
	// ErrLockHeld is returned when another instance owns a distributed lock.
	ErrLockHeld = errors.New("lock already held")
)

// RepositoryInterface restricts Repo methods so services can be tested against fakes.
// Methods taking tx must be called inside a transaction obtained from DB(ctx).
type RepositoryInterface interface {
	DB(ctx context.Context) *gorm.DB

	GetWallet(ctx context.Context, userID uint64) (*model.Wallet, error)
	GetWalletForUpdate(ctx context.Context, tx *gorm.DB, userID uint64) (*model.Wallet, error)
	CreateWallet(ctx context.Context, tx *gorm.DB, w *model.Wallet) error
	UpdateWallet(ctx context.Context, tx *gorm.DB, walletID uint64, newBalance decimal.Decimal, oldVersion uint64) error
	CreateTransaction(ctx context.Context, tx *gorm.DB, t *model.Transaction) error
	TxExists(ctx context.Context, tx *gorm.DB, walletID uint64, idemKey string, txType model.TxType) (bool, *model.Transaction, error)
	ListTransactions(ctx context.Context, walletID uint64, offset, limit int) ([]model.Transaction, int64, error)

	CreateAuction(ctx context.Context, tx *gorm.DB, a *model.Auction) error
	AuctionExistsForListing(ctx context.Context, tx *gorm.DB, listingID uint64) (bool, error)
	GetAuction(ctx context.Context, id uint64) (*model.Auction, error)
	GetAuctionForUpdate(ctx context.Context, tx *gorm.DB, id uint64) (*model.Auction, error)
	ListAuctions(ctx context.Context, status model.AuctionStatus, offset, limit int) ([]model.Auction, int64, error)
	UpdateAuction(ctx context.Context, tx *gorm.DB, id uint64, fields map[string]interface{}) error
	OpenDueAuctions(ctx context.Context, now time.Time) (int64, error)
	DueForSettlement(ctx context.Context, now time.Time) ([]uint64, error)

	CreateBid(ctx context.Context, tx *gorm.DB, b *model.Bid) error
	ListBids(ctx context.Context, tx *gorm.DB, auctionID uint64) ([]model.Bid, error)

	GetParticipant(ctx context.Context, tx *gorm.DB, auctionID, userID uint64) (*model.AuctionParticipant, error)
	CreateParticipant(ctx context.Context, tx *gorm.DB, p *model.AuctionParticipant) error
	RecordParticipantBid(ctx context.Context, tx *gorm.DB, auctionID, userID uint64, amount decimal.Decimal) error
	MarkWinner(ctx context.Context, tx *gorm.DB, auctionID, userID uint64) error

	CreateOutboxEvent(ctx context.Context, tx *gorm.DB, evt *model.OutboxEvent) error
	PollOutbox(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	MarkOutboxProcessed(ctx context.Context, id uint64) error
	PublishEvent(ctx context.Context, evt model.OutboxEvent) error

	CacheBalance(ctx context.Context, userID uint64, bal decimal.Decimal) error
	GetCachedBalance(ctx context.Context, userID uint64) (decimal.Decimal, error)
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Repository implements RepositoryInterface on gorm, Redis and Kafka.
// rdb and writer may be nil; caching and locking then degrade to no-ops
// and publishing fails.
type Repository struct {
	db     *gorm.DB
	rdb    *redis.Client
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

// NewRepository constructs repo.
func NewRepository(db *gorm.DB, rdb *redis.Client, w *kafka.Writer, logger *zap.SugaredLogger) *Repository {
	return &Repository{db: db, rdb: rdb, writer: w, log: logger}
}

// DB returns underlying *gorm.DB
func (r *Repository) DB(ctx context.Context) *gorm.DB { return r.db.WithContext(ctx) }

var _ RepositoryInterface = (*Repository)(nil)

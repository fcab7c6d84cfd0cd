package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/richardliu001/auction-service/internal/auth"
	"github.com/richardliu001/auction-service/internal/metrics"
	"github.com/richardliu001/auction-service/internal/model"
	"github.com/richardliu001/auction-service/internal/money"
	"github.com/richardliu001/auction-service/internal/repo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var defaultMinIncrement = decimal.NewFromInt(50)

// AuctionService runs joins, bids, starts and settlements. Every mutating
// method is one DB transaction that locks the auction row before any wallet.
type AuctionService struct {
	repo    repo.RepositoryInterface
	conv    money.Converter
	metrics *metrics.Metrics
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewAuctionService(r repo.RepositoryInterface, conv money.Converter, m *metrics.Metrics, logger *zap.SugaredLogger) *AuctionService {
	return &AuctionService{
		repo:    r,
		conv:    conv,
		metrics: m,
		log:     logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source; used by tests and the scheduler.
func (s *AuctionService) WithClock(now func() time.Time) *AuctionService {
	s.now = now
	return s
}

// CreateAuctionInput describes a new auction for a listing.
type CreateAuctionInput struct {
	ListingID     uint64
	Type          model.AuctionType
	StartTime     *time.Time
	EndTime       *time.Time
	StartingPrice decimal.Decimal
	ReservePrice  *decimal.Decimal
	MinIncrement  *decimal.Decimal
	JoinFee       decimal.Decimal
	Pending       bool
}

func (in CreateAuctionInput) validate() error {
	switch {
	case in.ListingID == 0:
		return fmt.Errorf("%w: listing_id is required", ErrInvalidInput)
	case in.Type != model.AuctionScheduled && in.Type != model.AuctionLive:
		return fmt.Errorf("%w: type must be scheduled or live", ErrInvalidInput)
	case in.Type == model.AuctionScheduled && (in.StartTime == nil || in.EndTime == nil):
		return fmt.Errorf("%w: scheduled auctions need start_time and end_time", ErrInvalidInput)
	case in.StartTime != nil && in.EndTime != nil && !in.EndTime.After(*in.StartTime):
		return fmt.Errorf("%w: end_time must be after start_time", ErrInvalidInput)
	case in.StartingPrice.IsNegative():
		return fmt.Errorf("%w: starting_price must be >= 0", ErrInvalidInput)
	case in.ReservePrice != nil && in.ReservePrice.IsNegative():
		return fmt.Errorf("%w: reserve_price must be >= 0", ErrInvalidInput)
	case in.MinIncrement != nil && in.MinIncrement.LessThan(decimal.NewFromInt(1)):
		return fmt.Errorf("%w: min_increment must be >= 1", ErrInvalidInput)
	case in.JoinFee.IsNegative():
		return fmt.Errorf("%w: join_fee must be >= 0", ErrInvalidInput)
	}
	return nil
}

// Create opens a new auction in upcoming (or pending) state.
func (s *AuctionService) Create(ctx context.Context, actor auth.Actor, in CreateAuctionInput) (*model.Auction, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	a := &model.Auction{
		ListingID:     in.ListingID,
		Type:          in.Type,
		StartTime:     utcPtr(in.StartTime),
		EndTime:       utcPtr(in.EndTime),
		StartingPrice: in.StartingPrice.Round(2),
		CurrentPrice:  in.StartingPrice.Round(2),
		ReservePrice:  in.ReservePrice,
		MinIncrement:  defaultMinIncrement,
		JoinFee:       in.JoinFee.Round(2),
		Status:        model.StatusUpcoming,
	}
	if in.MinIncrement != nil {
		a.MinIncrement = in.MinIncrement.Round(2)
	}
	if in.Pending {
		a.Status = model.StatusPending
	}
	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.repo.AuctionExistsForListing(ctx, tx, in.ListingID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAuctionExists
		}
		return s.repo.CreateAuction(ctx, tx, a)
	})
	if err != nil {
		return nil, err
	}
	s.log.Infow("auction created", "auction_id", a.ID, "listing_id", a.ListingID, "by", actor.UserID)
	return a, nil
}

// AuctionDetail is an auction with its bids, newest first.
type AuctionDetail struct {
	*model.Auction
	Bids []model.Bid `json:"bids"`
}

// Get returns one auction and its bids.
func (s *AuctionService) Get(ctx context.Context, id uint64) (*AuctionDetail, error) {
	a, err := s.repo.GetAuction(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	bids, err := s.repo.ListBids(ctx, s.repo.DB(ctx), id)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(bids)-1; i < j; i, j = i+1, j-1 {
		bids[i], bids[j] = bids[j], bids[i]
	}
	if bids == nil {
		bids = []model.Bid{}
	}
	return &AuctionDetail{Auction: a, Bids: bids}, nil
}

// ListFilter narrows List.
type ListFilter struct {
	Status  model.AuctionStatus
	Page    int
	PerPage int
}

// List pages auctions, newest first.
func (s *AuctionService) List(ctx context.Context, f ListFilter) (Page[model.Auction], error) {
	if f.Status != "" && !f.Status.Valid() {
		return Page[model.Auction]{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}
	page, perPage, offset := normalizePage(f.Page, f.PerPage)
	items, total, err := s.repo.ListAuctions(ctx, f.Status, offset, perPage)
	if err != nil {
		return Page[model.Auction]{}, err
	}
	if items == nil {
		items = []model.Auction{}
	}
	return Page[model.Auction]{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

// Start puts an upcoming auction live. Admin only.
func (s *AuctionService) Start(ctx context.Context, actor auth.Actor, id uint64) (*model.Auction, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	var out *model.Auction
	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.lockAuction(ctx, tx, id)
		if err != nil {
			return err
		}
		if a.Status != model.StatusUpcoming {
			return ErrAlreadyStarted
		}
		if err := s.repo.UpdateAuction(ctx, tx, a.ID, map[string]interface{}{"status": model.StatusLive}); err != nil {
			return err
		}
		a.Status = model.StatusLive
		evt := outboxEvent("Auction", a.ID, model.EventAuctionStarted, map[string]interface{}{
			"auction_id": a.ID, "status": a.Status, "by": actor.UserID,
		})
		if err := s.repo.CreateOutboxEvent(ctx, tx, evt); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Infow("auction started", "auction_id", id, "by", actor.UserID)
	return out, nil
}

// Join charges the join fee and records the user as a participant.
func (s *AuctionService) Join(ctx context.Context, actor auth.Actor, id uint64) (*model.AuctionParticipant, error) {
	var (
		p   *model.AuctionParticipant
		bal *decimal.Decimal
	)
	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.lockAuction(ctx, tx, id)
		if err != nil {
			return err
		}
		if a.Status != model.StatusUpcoming {
			return ErrJoinClosed
		}
		existing, err := s.repo.GetParticipant(ctx, tx, a.ID, actor.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyJoined
		}

		if a.JoinFee.IsPositive() {
			w, err := s.repo.GetWalletForUpdate(ctx, tx, actor.UserID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrInsufficientFunds
				}
				return err
			}
			if w.Balance.LessThan(a.JoinFee) {
				return ErrInsufficientFunds
			}
			entry := model.Transaction{
				AuctionID:   &a.ID,
				Type:        model.TxFee,
				Description: fmt.Sprintf("Auction join fee for auction #%d", a.ID),
			}
			if _, err := moveFunds(ctx, s.repo, tx, w, a.JoinFee.Neg(), entry); err != nil {
				return err
			}
			b := w.Balance
			bal = &b
		}

		p = &model.AuctionParticipant{
			AuctionID:  a.ID,
			UserID:     actor.UserID,
			JoinFee:    a.JoinFee,
			TotalSpent: decimal.Zero,
			JoinedAt:   s.now(),
		}
		if err := s.repo.CreateParticipant(ctx, tx, p); err != nil {
			return err
		}
		evt := outboxEvent("Auction", a.ID, model.EventAuctionJoined, map[string]interface{}{
			"auction_id": a.ID, "user_id": actor.UserID, "join_fee": a.JoinFee,
		})
		return s.repo.CreateOutboxEvent(ctx, tx, evt)
	})
	if err != nil {
		s.metrics.Join(outcome(err))
		s.log.Warnw("join failed", "auction_id", id, "user_id", actor.UserID, "err", err)
		return nil, err
	}
	s.metrics.Join("ok")
	if bal != nil {
		s.metrics.Ledger(string(model.TxFee))
		if err := s.repo.CacheBalance(ctx, actor.UserID, *bal); err != nil {
			s.log.Warnw("cache balance", "user_id", actor.UserID, "err", err)
		}
	}
	s.log.Infow("auction joined", "auction_id", id, "user_id", actor.UserID)
	return p, nil
}

func (s *AuctionService) lockAuction(ctx context.Context, tx *gorm.DB, id uint64) (*model.Auction, error) {
	a, err := s.repo.GetAuctionForUpdate(ctx, tx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAuctionNotFound
	}
	return err
}

// outcome labels a failed operation for metrics.
func outcome(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrBidTooLow):
		return "too_low"
	case errors.Is(err, ErrAuctionNotOpen), errors.Is(err, ErrJoinClosed):
		return "closed"
	case errors.Is(err, ErrAlreadyJoined):
		return "duplicate"
	case errors.Is(err, ErrAuctionNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid"
	default:
		return "error"
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/richardliu001/auction-service/internal/auth"
	"github.com/richardliu001/auction-service/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BidReceipt is returned for an accepted bid.
type BidReceipt struct {
	Bid          model.Bid       `json:"bid"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Balance      decimal.Decimal `json:"balance"`
}

// PlaceBidPoints converts points to currency and places the bid.
func (s *AuctionService) PlaceBidPoints(ctx context.Context, actor auth.Actor, auctionID uint64, points decimal.Decimal) (*BidReceipt, error) {
	if !points.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return s.PlaceBid(ctx, actor, auctionID, s.conv.PointsToCurrency(points))
}

// PlaceBid debits the bidder and raises the auction price in one transaction.
// Lock order is auction, then wallet.
func (s *AuctionService) PlaceBid(ctx context.Context, actor auth.Actor, auctionID uint64, amount decimal.Decimal) (*BidReceipt, error) {
	if !amount.IsPositive() {
		s.metrics.Bid(outcome(ErrInvalidAmount))
		return nil, ErrInvalidAmount
	}
	amount = amount.Round(2)

	var receipt *BidReceipt
	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.lockAuction(ctx, tx, auctionID)
		if err != nil {
			return err
		}
		w, err := s.repo.GetWalletForUpdate(ctx, tx, actor.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if !a.Status.AcceptsBids() {
			return ErrAuctionNotOpen
		}
		if w == nil || w.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
		if floor := a.MinimumBid(); amount.LessThan(floor) {
			return fmt.Errorf("%w: minimum is %s", ErrBidTooLow, floor.StringFixed(2))
		}

		bid := model.Bid{
			AuctionID: a.ID,
			BidderID:  actor.UserID,
			Amount:    amount,
			CreatedAt: s.now(),
		}
		if err := s.repo.CreateBid(ctx, tx, &bid); err != nil {
			return err
		}
		if err := s.repo.UpdateAuction(ctx, tx, a.ID, map[string]interface{}{"current_price": amount}); err != nil {
			return err
		}
		entry := model.Transaction{
			AuctionID: &a.ID,
			Type:      model.TxBid,
			Description: fmt.Sprintf("Bid placed in auction #%d: %s points (%s %s)",
				a.ID, s.conv.CurrencyToPoints(amount).String(), amount.StringFixed(2), w.Currency),
		}
		if _, err := moveFunds(ctx, s.repo, tx, w, amount.Neg(), entry); err != nil {
			return err
		}
		if err := s.repo.RecordParticipantBid(ctx, tx, a.ID, actor.UserID, amount); err != nil {
			return err
		}
		evt := outboxEvent("Auction", a.ID, model.EventBidPlaced, map[string]interface{}{
			"auction_id": a.ID, "bid_id": bid.ID, "bidder_id": actor.UserID, "amount": amount,
		})
		if err := s.repo.CreateOutboxEvent(ctx, tx, evt); err != nil {
			return err
		}
		receipt = &BidReceipt{Bid: bid, CurrentPrice: amount, Balance: w.Balance}
		return nil
	})
	if err != nil {
		s.metrics.Bid(outcome(err))
		s.log.Warnw("bid rejected", "auction_id", auctionID, "user_id", actor.UserID, "amount", amount.String(), "err", err)
		return nil, err
	}

	s.metrics.Bid("ok")
	s.metrics.Ledger(string(model.TxBid))
	if err := s.repo.CacheBalance(ctx, actor.UserID, receipt.Balance); err != nil {
		s.log.Warnw("cache balance", "user_id", actor.UserID, "err", err)
	}
	s.log.Infow("bid placed", "auction_id", auctionID, "user_id", actor.UserID, "amount", amount.String())
	return receipt, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/richardliu001/auction-service/internal/auth"
	"github.com/richardliu001/auction-service/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Refund is money returned to one losing bidder.
type Refund struct {
	UserID       uint64          `json:"user_id"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// SettlementResult describes a finished auction.
type SettlementResult struct {
	AuctionID uint64  `json:"auction_id"`
	WinnerID  *uint64 `json:"winner_id"`
	// FinalPrice is the winning bid; WinnerPaid is the sum of all the winner's bids.
	FinalPrice      *decimal.Decimal `json:"final_price,omitempty"`
	WinnerPaid      *decimal.Decimal `json:"winner_paid,omitempty"`
	Refunds         []Refund         `json:"refunds"`
	AlreadyFinished bool             `json:"already_finished"`
}

// Finish settles an auction on an admin's request.
func (s *AuctionService) Finish(ctx context.Context, actor auth.Actor, id uint64) (*SettlementResult, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.Settle(ctx, id)
}

// Settle picks the winner and refunds every other bidder the sum of their bids.
// The whole settlement is one transaction under the auction row lock; calling
// it on a finished auction writes nothing.
func (s *AuctionService) Settle(ctx context.Context, id uint64) (*SettlementResult, error) {
	var res *SettlementResult
	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.lockAuction(ctx, tx, id)
		if err != nil {
			return err
		}
		if !a.Status.CanMoveTo(model.StatusFinished) {
			res = &SettlementResult{AuctionID: a.ID, WinnerID: a.WinnerID, Refunds: []Refund{}, AlreadyFinished: true}
			if a.WinnerID != nil {
				fp := a.CurrentPrice
				res.FinalPrice = &fp
			}
			return nil
		}

		bids, err := s.repo.ListBids(ctx, tx, a.ID)
		if err != nil {
			return err
		}
		res = &SettlementResult{AuctionID: a.ID, Refunds: []Refund{}}
		fields := map[string]interface{}{"status": model.StatusFinished}

		if len(bids) == 0 {
			if err := s.repo.UpdateAuction(ctx, tx, a.ID, fields); err != nil {
				return err
			}
			return s.repo.CreateOutboxEvent(ctx, tx, outboxEvent("Auction", a.ID, model.EventAuctionFinished,
				map[string]interface{}{"auction_id": a.ID, "winner_id": nil}))
		}

		top := highestBid(bids)
		winner := top.BidderID
		fields["winner_id"] = winner
		if err := s.repo.UpdateAuction(ctx, tx, a.ID, fields); err != nil {
			return err
		}
		if err := s.repo.MarkWinner(ctx, tx, a.ID, winner); err != nil {
			return err
		}

		totals, order := sumByBidder(bids)
		for _, userID := range order {
			if userID == winner {
				continue
			}
			owed := totals[userID]
			w, err := s.repo.GetWalletForUpdate(ctx, tx, userID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("refund user %d: %w", userID, ErrWalletNotFound)
				}
				return err
			}
			entry := model.Transaction{
				AuctionID: &a.ID,
				Type:      model.TxRefund,
				Description: fmt.Sprintf("Refund for losing auction #%d: %s points (%s %s)",
					a.ID, s.conv.CurrencyToPoints(owed).String(), owed.StringFixed(2), w.Currency),
			}
			if _, err := moveFunds(ctx, s.repo, tx, w, owed, entry); err != nil {
				return err
			}
			evt := outboxEvent("Auction", a.ID, model.EventRefundIssued, map[string]interface{}{
				"auction_id": a.ID, "user_id": userID, "wallet_id": w.ID, "amount": owed, "balance": w.Balance,
			})
			if err := s.repo.CreateOutboxEvent(ctx, tx, evt); err != nil {
				return err
			}
			res.Refunds = append(res.Refunds, Refund{UserID: userID, Amount: owed, BalanceAfter: w.Balance})
		}

		final := top.Amount
		paid := totals[winner]
		res.WinnerID = &winner
		res.FinalPrice = &final
		res.WinnerPaid = &paid
		return s.repo.CreateOutboxEvent(ctx, tx, outboxEvent("Auction", a.ID, model.EventAuctionFinished,
			map[string]interface{}{"auction_id": a.ID, "winner_id": winner, "final_price": final, "winner_paid": paid}))
	})
	if err != nil {
		s.log.Errorw("settlement failed", "auction_id", id, "err", err)
		return nil, err
	}

	switch {
	case res.AlreadyFinished:
		s.metrics.Settlement("noop", 0)
		return res, nil
	case res.WinnerID == nil:
		s.metrics.Settlement("no_bids", 0)
		s.log.Infow("auction finished without bids", "auction_id", id)
		return res, nil
	}
	s.metrics.Settlement("won", len(res.Refunds))
	for _, r := range res.Refunds {
		s.metrics.Ledger(string(model.TxRefund))
		if err := s.repo.CacheBalance(ctx, r.UserID, r.BalanceAfter); err != nil {
			s.log.Warnw("cache balance", "user_id", r.UserID, "err", err)
		}
	}
	s.log.Infow("auction finished", "auction_id", id, "winner_id", *res.WinnerID,
		"final_price", res.FinalPrice.String(), "refunds", len(res.Refunds))
	return res, nil
}

// highestBid applies the winner rule: highest amount, then earliest, then lowest id.
func highestBid(bids []model.Bid) model.Bid {
	top := bids[0]
	for _, b := range bids[1:] {
		if b.Outranks(top) {
			top = b
		}
	}
	return top
}

// sumByBidder totals bids per bidder; order is ascending user id, which is
// also the wallet lock order.
func sumByBidder(bids []model.Bid) (map[uint64]decimal.Decimal, []uint64) {
	totals := make(map[uint64]decimal.Decimal)
	for _, b := range bids {
		totals[b.BidderID] = totals[b.BidderID].Add(b.Amount)
	}
	order := make([]uint64, 0, len(totals))
	for id := range totals {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return totals, order
}

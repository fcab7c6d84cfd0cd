package repo

import (
	"context"
	"time"

	"github.com/richardliu001/auction-service/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateAuction inserts an auction.
func (r *Repository) CreateAuction(ctx context.Context, tx *gorm.DB, a *model.Auction) error {
	return tx.WithContext(ctx).Create(a).Error
}

// AuctionExistsForListing reports whether the listing already has an auction.
func (r *Repository) AuctionExistsForListing(ctx context.Context, tx *gorm.DB, listingID uint64) (bool, error) {
	var n int64
	err := tx.WithContext(ctx).Model(&model.Auction{}).Where("listing_id = ?", listingID).Count(&n).Error
	return n > 0, err
}

// GetAuction reads an auction without locking.
func (r *Repository) GetAuction(ctx context.Context, id uint64) (*model.Auction, error) {
	var a model.Auction
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAuctionForUpdate locks the auction row.
func (r *Repository) GetAuctionForUpdate(ctx context.Context, tx *gorm.DB, id uint64) (*model.Auction, error) {
	var a model.Auction
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAuctions pages auctions, optionally by status.
func (r *Repository) ListAuctions(ctx context.Context, status model.AuctionStatus, offset, limit int) ([]model.Auction, int64, error) {
	var (
		out   []model.Auction
		total int64
	)
	q := r.db.WithContext(ctx).Model(&model.Auction{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("id desc").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

// UpdateAuction applies column updates to a locked auction row.
func (r *Repository) UpdateAuction(ctx context.Context, tx *gorm.DB, id uint64, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	return tx.WithContext(ctx).Model(&model.Auction{}).Where("id = ?", id).Updates(fields).Error
}

// OpenDueAuctions moves upcoming and pending auctions whose start has passed to opening.
func (r *Repository) OpenDueAuctions(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Auction{}).
		Where("status IN ? AND start_time IS NOT NULL AND start_time <= ?",
			[]model.AuctionStatus{model.StatusUpcoming, model.StatusPending}, now).
		Updates(map[string]interface{}{"status": model.StatusOpening, "updated_at": now})
	return res.RowsAffected, res.Error
}

// DueForSettlement lists opening and pending auctions whose end has passed.
func (r *Repository) DueForSettlement(ctx context.Context, now time.Time) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&model.Auction{}).
		Where("status IN ? AND end_time IS NOT NULL AND end_time <= ?",
			[]model.AuctionStatus{model.StatusOpening, model.StatusPending}, now).
		Order("end_time asc").Order("id asc").
		Pluck("id", &ids).Error
	return ids, err
}

// CreateBid appends a bid.
func (r *Repository) CreateBid(ctx context.Context, tx *gorm.DB, b *model.Bid) error {
	return tx.WithContext(ctx).Create(b).Error
}

// ListBids returns an auction's bids in insertion order.
func (r *Repository) ListBids(ctx context.Context, tx *gorm.DB, auctionID uint64) ([]model.Bid, error) {
	var bids []model.Bid
	err := tx.WithContext(ctx).Where("auction_id = ?", auctionID).Order("id asc").Find(&bids).Error
	return bids, err
}

// GetParticipant returns nil without error when the user has not joined.
func (r *Repository) GetParticipant(ctx context.Context, tx *gorm.DB, auctionID, userID uint64) (*model.AuctionParticipant, error) {
	var ps []model.AuctionParticipant
	if err := tx.WithContext(ctx).
		Where("auction_id = ? AND user_id = ?", auctionID, userID).
		Limit(1).Find(&ps).Error; err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, nil
	}
	return &ps[0], nil
}

// CreateParticipant inserts the join record and bumps participants_count.
func (r *Repository) CreateParticipant(ctx context.Context, tx *gorm.DB, p *model.AuctionParticipant) error {
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Model(&model.Auction{}).Where("id = ?", p.AuctionID).
		UpdateColumn("participants_count", gorm.Expr("participants_count + ?", 1)).Error
}

// RecordParticipantBid updates a joined bidder's running totals; non-participants are ignored.
func (r *Repository) RecordParticipantBid(ctx context.Context, tx *gorm.DB, auctionID, userID uint64, amount decimal.Decimal) error {
	return tx.WithContext(ctx).Model(&model.AuctionParticipant{}).
		Where("auction_id = ? AND user_id = ?", auctionID, userID).
		Updates(map[string]interface{}{
			"total_bids":  gorm.Expr("total_bids + ?", 1),
			"total_spent": gorm.Expr("total_spent + ?", amount),
		}).Error
}

// MarkWinner flags the winning participant, if they joined.
func (r *Repository) MarkWinner(ctx context.Context, tx *gorm.DB, auctionID, userID uint64) error {
	return tx.WithContext(ctx).Model(&model.AuctionParticipant{}).
		Where("auction_id = ? AND user_id = ?", auctionID, userID).
		Update("is_winner", true).Error
}

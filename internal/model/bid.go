package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bid is never updated or deleted once written.
type Bid struct {
	ID        uint64          `gorm:"primaryKey" json:"id"`
	AuctionID uint64          `gorm:"not null;index:idx_bids_auction_amount,priority:1" json:"auction_id"`
	BidderID  uint64          `gorm:"not null;index" json:"bidder_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(15,2);not null;index:idx_bids_auction_amount,priority:2" json:"amount"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Bid) TableName() string { return "bids" }

// Outranks reports whether b beats other as the winning bid:
// higher amount, then earlier creation, then lower id.
func (b Bid) Outranks(other Bid) bool {
	if c := b.Amount.Cmp(other.Amount); c != 0 {
		return c > 0
	}
	if !b.CreatedAt.Equal(other.CreatedAt) {
		return b.CreatedAt.Before(other.CreatedAt)
	}
	return b.ID < other.ID
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type AuctionParticipant struct {
	ID         uint64          `gorm:"primaryKey" json:"id"`
	AuctionID  uint64          `gorm:"not null;uniqueIndex:idx_participant_auction_user,priority:1" json:"auction_id"`
	UserID     uint64          `gorm:"not null;uniqueIndex:idx_participant_auction_user,priority:2" json:"user_id"`
	JoinFee    decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"join_fee"`
	TotalBids  int             `gorm:"not null;default:0" json:"total_bids"`
	TotalSpent decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"total_spent"`
	IsWinner   bool            `gorm:"not null;default:false" json:"is_winner"`
	JoinedAt   time.Time       `gorm:"autoCreateTime" json:"joined_at"`
}

func (AuctionParticipant) TableName() string { return "auction_participants" }

// All returns every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Wallet{}, &Transaction{}, &OutboxEvent{},
		&Auction{}, &Bid{}, &AuctionParticipant{},
	}
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the single balance a user spends from; one per user.
type Wallet struct {
	ID        uint64          `gorm:"primaryKey;column:id" json:"id"`
	UserID    uint64          `gorm:"not null;uniqueIndex" json:"user_id"`
	Balance   decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"balance"`
	Currency  string          `gorm:"size:10;not null" json:"currency"`
	Version   uint64          `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Wallet) TableName() string { return "wallets" }

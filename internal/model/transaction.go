package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxType classifies a ledger entry.
type TxType string

const (
	TxBid      TxType = "bid"
	TxRefund   TxType = "refund"
	TxFee      TxType = "fee"
	TxPurchase TxType = "purchase"
	TxTopUp    TxType = "topup"
)

const TxStatusSuccess = "success"

// Transaction is an append-only ledger row written for every balance change.
type Transaction struct {
	ID             uint64          `gorm:"primaryKey" json:"id"`
	UserID         uint64          `gorm:"not null;index" json:"user_id"`
	WalletID       uint64          `gorm:"not null;index" json:"wallet_id"`
	AuctionID      *uint64         `gorm:"index" json:"auction_id,omitempty"`
	Type           TxType          `gorm:"size:30;not null" json:"type"`
	Amount         decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	BalanceBefore  decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"balance_before"`
	BalanceAfter   decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"balance_after"`
	Status         string          `gorm:"size:30;not null" json:"status"`
	Description    string          `gorm:"type:text" json:"description"`
	IdempotencyKey *string         `gorm:"size:64" json:"-"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Transaction) TableName() string { return "transactions" }

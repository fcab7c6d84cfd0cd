package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type AuctionType string

const (
	AuctionScheduled AuctionType = "scheduled"
	AuctionLive      AuctionType = "live"
)

// AuctionStatus moves forward only: upcoming|pending -> opening|live -> finished.
type AuctionStatus string

const (
	StatusUpcoming AuctionStatus = "upcoming"
	StatusPending  AuctionStatus = "pending"
	StatusOpening  AuctionStatus = "opening"
	StatusLive     AuctionStatus = "live"
	StatusFinished AuctionStatus = "finished"
)

var statusRank = map[AuctionStatus]int{
	StatusUpcoming: 0,
	StatusPending:  0,
	StatusOpening:  1,
	StatusLive:     1,
	StatusFinished: 2,
}

// Valid reports whether s is a known status.
func (s AuctionStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanMoveTo reports whether a transition from s to next is forward.
func (s AuctionStatus) CanMoveTo(next AuctionStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	return ok && to > from
}

// AcceptsBids is true while the auction is opening or live.
func (s AuctionStatus) AcceptsBids() bool {
	return s == StatusOpening || s == StatusLive
}

type Auction struct {
	ID                uint64           `gorm:"primaryKey" json:"id"`
	ListingID         uint64           `gorm:"not null;uniqueIndex" json:"listing_id"`
	Type              AuctionType      `gorm:"size:20;not null;default:scheduled" json:"type"`
	StartTime         *time.Time       `gorm:"index" json:"start_time"`
	EndTime           *time.Time       `gorm:"index" json:"end_time"`
	StartingPrice     decimal.Decimal  `gorm:"type:numeric(15,2);not null;default:0" json:"starting_price"`
	CurrentPrice      decimal.Decimal  `gorm:"type:numeric(15,2);not null;default:0" json:"current_price"`
	ReservePrice      *decimal.Decimal `gorm:"type:numeric(15,2)" json:"reserve_price,omitempty"`
	MinIncrement      decimal.Decimal  `gorm:"type:numeric(15,2);not null;default:50" json:"min_increment"`
	JoinFee           decimal.Decimal  `gorm:"type:numeric(15,2);not null;default:0" json:"join_fee"`
	Status            AuctionStatus    `gorm:"size:30;not null;default:upcoming;index" json:"status"`
	WinnerID          *uint64          `json:"winner_id"`
	ParticipantsCount int              `gorm:"not null;default:0" json:"participants_count"`
	CreatedAt         time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Auction) TableName() string { return "auctions" }

// MinimumBid is the lowest amount the next bid may carry.
func (a *Auction) MinimumBid() decimal.Decimal {
	return a.CurrentPrice.Add(a.MinIncrement)
}

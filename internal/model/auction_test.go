package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAuctionStatus_CanMoveTo(t *testing.T) {
	tests := []struct {
		from, to AuctionStatus
		want     bool
	}{
		{StatusUpcoming, StatusOpening, true},
		{StatusPending, StatusOpening, true},
		{StatusUpcoming, StatusLive, true},
		{StatusOpening, StatusFinished, true},
		{StatusLive, StatusFinished, true},
		{StatusPending, StatusFinished, true},
		{StatusOpening, StatusLive, false},
		{StatusFinished, StatusOpening, false},
		{StatusOpening, StatusUpcoming, false},
		{StatusFinished, StatusFinished, false},
		{AuctionStatus("bogus"), StatusFinished, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.from.CanMoveTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestAuctionStatus_AcceptsBids(t *testing.T) {
	assert.True(t, StatusOpening.AcceptsBids())
	assert.True(t, StatusLive.AcceptsBids())
	assert.False(t, StatusUpcoming.AcceptsBids())
	assert.False(t, StatusPending.AcceptsBids())
	assert.False(t, StatusFinished.AcceptsBids())
}

func TestAuction_MinimumBid(t *testing.T) {
	a := Auction{CurrentPrice: decimal.NewFromInt(100), MinIncrement: decimal.NewFromInt(50)}
	assert.Equal(t, "150", a.MinimumBid().String())
}

func TestBid_Outranks(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	high := Bid{ID: 2, Amount: decimal.NewFromInt(300), CreatedAt: t0.Add(time.Minute)}
	low := Bid{ID: 1, Amount: decimal.NewFromInt(200), CreatedAt: t0}
	assert.True(t, high.Outranks(low))
	assert.False(t, low.Outranks(high))

	early := Bid{ID: 5, Amount: decimal.NewFromInt(300), CreatedAt: t0}
	assert.True(t, early.Outranks(high), "equal amount: earlier wins")

	sameTimeLowID := Bid{ID: 1, Amount: decimal.NewFromInt(300), CreatedAt: t0}
	assert.True(t, sameTimeLowID.Outranks(early), "equal amount and time: lower id wins")
}

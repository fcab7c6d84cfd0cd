package service

import (
	"errors"

	"github.com/richardliu001/auction-service/internal/repo"
)

// Validation errors.
var (
	// ErrInvalidAmount means non-positive amount passed.
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidInput  = errors.New("invalid input")
)

var ErrForbidden = errors.New("only admin can perform this action")

// Not-found errors.
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrWalletNotFound  = errors.New("wallet not found")
)

// State errors: business rules rejected the operation and nothing was written.
var (
	ErrInsufficientFunds = repo.ErrInsufficientFunds
	ErrAuctionNotOpen    = errors.New("auction not open")
	ErrBidTooLow         = errors.New("bid too low")
	ErrJoinClosed        = errors.New("you can only join upcoming auctions")
	ErrAlreadyJoined     = errors.New("you already joined this auction")
	ErrAlreadyStarted    = errors.New("auction already started or finished")
	ErrAuctionExists     = errors.New("auction already exists for this listing")
)

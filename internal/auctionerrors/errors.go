package auctionerrors

import "errors"

// Ledger-level errors
var (
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrProductHasAuction = errors.New("product already has an auction")
	ErrNoBids            = errors.New("no bids found for auction")
	ErrStaleBid          = errors.New("bid lost the race, current price moved")
	ErrInvalidTransition = errors.New("invalid auction status transition")
)

// Validation errors
var (
	ErrInvalidBid         = errors.New("invalid bid")
	ErrBidTooLow          = errors.New("bid amount too low")
	ErrInvalidAutoBid     = errors.New("invalid auto-bid ceiling")
	ErrAuctionNotActive   = errors.New("auction is not active")
	ErrAuctionExpired     = errors.New("auction has ended")
	ErrNotParticipant     = errors.New("user is not a participant in this auction")
	ErrAlreadyParticipant = errors.New("user already joined this auction")
	ErrEntryFeeUnpaid     = errors.New("entry fee has not been paid")
)

// Concurrency and settlement errors
var (
	ErrBusy         = errors.New("auction is busy, retry")
	ErrRefundFailed = errors.New("entry fee refund failed")
)

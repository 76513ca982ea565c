package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrNoBids           = errors.New("no bids found for auction")
	ErrUserNoBids       = errors.New("user has not placed any bids")
	ErrTimeout          = errors.New("timed out waiting for auction lock")
	ErrStoreUnavailable = errors.New("auction store unavailable")
)

// Business logic errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrBidTooLow     = errors.New("bid amount too low")
	ErrSelfBid       = errors.New("owners cannot bid on their own auction")
	ErrAuctionEnded  = errors.New("auction has ended")
	ErrNotOwner      = errors.New("caller does not own this auction")
	ErrEndsTooSoon   = errors.New("end time must be at least five minutes in the future")
	ErrAuctionFrozen = errors.New("auction cannot be modified once bids exist")
)

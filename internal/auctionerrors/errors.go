package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound     = errors.New("auction not found")
	ErrNoBids              = errors.New("no bids found for auction")
	ErrConcurrencyConflict = errors.New("auction was modified concurrently")
)

// business logic errors
var (
	ErrInvalidInput = errors.New("invalid request")
	ErrInvalidState = errors.New("operation not allowed in current auction state")
	ErrAuctionEnded = errors.New("auction has ended")
	ErrBidTooLow    = errors.New("bid amount too low")
)

package biddingerrors

import "errors"

// Repository-level errors
var (
	ErrProductNotFound    = errors.New("product not found")
	ErrBidderNotFound     = errors.New("bidder not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrDepartmentNotFound = errors.New("department not found")
	ErrNoBids             = errors.New("no bids found for product")
	ErrStorage            = errors.New("storage failure")
)

// business logic errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrSelfBid      = errors.New("seller cannot bid on own product")
	ErrBidTooLow    = errors.New("bid amount too low")
)

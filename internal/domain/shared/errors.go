package shared

import "errors"

// Domain-specific errors
var (
	// Auction errors
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrAuctionNotActive  = errors.New("auction is not accepting bids")
	ErrInvalidStartTime  = errors.New("start time must be before end time")
	ErrInvalidPrice      = errors.New("starting and step price must be greater than 0")
	ErrInvalidTimeFormat = errors.New("invalid time format")

	// Bid errors
	ErrBidTooLow   = errors.New("bid amount below the required minimum")
	ErrNoBidsFound = errors.New("no bids found")

	// Wallet errors
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrInsufficientFunds      = errors.New("insufficient available funds")
	ErrWalletUpdateFailed     = errors.New("wallet update failed")
	ErrInvalidAmount          = errors.New("amount must be greater than 0")
	ErrReconciliationRequired = errors.New("hold transaction missing, manual reconciliation required")

	// User errors
	ErrUserNotFound   = errors.New("user not found")
	ErrAddressMissing = errors.New("user has no shipping address")

	// Item errors
	ErrItemNotFound     = errors.New("item not found")
	ErrItemNotAvailable = errors.New("item is not available for auction")
)

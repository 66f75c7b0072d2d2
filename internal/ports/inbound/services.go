package inbound

import (
	"context"
	"time"

	"marketplace-escrow-engine/internal/domain/auction"
	"marketplace-escrow-engine/internal/domain/bid"
	"marketplace-escrow-engine/internal/domain/shared"
	"marketplace-escrow-engine/internal/domain/wallet"

	"github.com/google/uuid"
)

// BidService defines the bid placement operations
type BidService interface {
	// PlaceBid validates and records a bid, reserving the bidder's funds
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*bid.Bid, error)
}

// AuctionService defines the auction operations
type AuctionService interface {
	// CreateAuction lists an item for auction
	CreateAuction(ctx context.Context, req CreateAuctionRequest) (*auction.Auction, error)

	// GetAuctionStatus retrieves an auction with its highest active bid
	GetAuctionStatus(ctx context.Context, auctionID uuid.UUID) (*AuctionStatus, error)

	// ListAuctions retrieves auctions with an optional status filter
	ListAuctions(ctx context.Context, status *auction.Status, page, pageSize int) ([]*auction.Auction, error)

	// GetBidHistory retrieves all bids on an auction, highest first
	GetBidHistory(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)
}

// WalletService defines the wallet operations outside the bid flow
type WalletService interface {
	// Deposit credits external funds into a user's wallet
	Deposit(ctx context.Context, userID uuid.UUID, amount int64) (*wallet.Wallet, error)

	// GetWallet retrieves a user's wallet
	GetWallet(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error)
}

// SweepService defines the periodic lifecycle sweep
type SweepService interface {
	// RunLifecycleSweep promotes due upcoming auctions and finalizes due
	// ongoing ones
	RunLifecycleSweep(ctx context.Context, now time.Time) (*shared.SweepResult, error)
}

// request to place a bid
type PlaceBidRequest struct {
	AuctionID uuid.UUID `json:"auction_id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    int64     `json:"amount"`
}

// request to create an auction
type CreateAuctionRequest struct {
	ItemID        uuid.UUID `json:"item_id"`
	SellerID      uuid.UUID `json:"seller_id"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	StartingPrice int64     `json:"starting_price"`
	StepPrice     int64     `json:"step_price"`
	BuyNowPrice   *int64    `json:"buy_now_price,omitempty"`
}

// AuctionStatus pairs an auction with its current highest active bid
type AuctionStatus struct {
	Auction    *auction.Auction `json:"auction"`
	HighestBid *bid.Bid         `json:"highest_bid,omitempty"`
}

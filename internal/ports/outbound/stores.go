package outbound

import (
	"context"
	"time"

	"marketplace-escrow-engine/internal/domain/auction"
	"marketplace-escrow-engine/internal/domain/bid"
	"marketplace-escrow-engine/internal/domain/shared"
	"marketplace-escrow-engine/internal/domain/wallet"

	"github.com/google/uuid"
)

// TxRunner executes a function within a single database transaction. The
// TxOps handed to fn are bound to that transaction; any error returned by
// fn rolls everything back.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ops TxOps) error) error
}

// TxOps exposes transaction-scoped store handles
type TxOps interface {
	Auctions() AuctionStore
	Bids() BidStore
	Wallets() WalletLedger
	Items() ItemStore
	Orders() OrderStore
}

// AuctionStore defines the interface for auction data operations
type AuctionStore interface {
	// Create creates a new auction
	Create(ctx context.Context, a *auction.Auction) error

	// GetByID retrieves an auction by ID
	GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error)

	// GetForUpdate retrieves an auction and locks its row for the
	// duration of the enclosing transaction
	GetForUpdate(ctx context.Context, id uuid.UUID) (*auction.Auction, error)

	// Transition conditionally moves an auction from one status to
	// another. It reports whether this call performed the transition;
	// false means the auction was no longer in the expected status.
	Transition(ctx context.Context, id uuid.UUID, from, to auction.Status) (bool, error)

	// UpdatePrice sets the current price and total bid count
	UpdatePrice(ctx context.Context, id uuid.UUID, price int64, totalBids int) error

	// SetEndTime overwrites the end time (buy-now settlement ends early)
	SetEndTime(ctx context.Context, id uuid.UUID, endTime time.Time) error

	// DueUpcoming lists upcoming auctions whose start time has passed
	DueUpcoming(ctx context.Context, now time.Time, limit int) ([]*auction.Auction, error)

	// DueEnded lists ongoing auctions whose end time has passed
	DueEnded(ctx context.Context, now time.Time, limit int) ([]*auction.Auction, error)

	// List retrieves auctions with optional status filter
	List(ctx context.Context, status *auction.Status, page, pageSize int) ([]*auction.Auction, error)
}

// BidStore defines the interface for bid data operations
type BidStore interface {
	// Create creates a new bid
	Create(ctx context.Context, b *bid.Bid) error

	// GetByID retrieves a bid by ID
	GetByID(ctx context.Context, id uuid.UUID) (*bid.Bid, error)

	// HighestActive retrieves the highest active bid on an auction
	HighestActive(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error)

	// HighestActiveForUser retrieves a bidder's own highest active bid
	// on an auction
	HighestActiveForUser(ctx context.Context, auctionID, bidderID uuid.UUID) (*bid.Bid, error)

	// ListByAuction retrieves all bids for an auction, highest first
	ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)

	// ListRefundable retrieves the active and outbid bids on an auction,
	// excluding those placed by excludeBidder. The winner's earlier bids
	// are excluded because their holds rolled into the cumulative
	// winning hold.
	ListRefundable(ctx context.Context, auctionID, excludeBidder uuid.UUID) ([]*bid.Bid, error)

	// UpdateStatus moves a bid to a new status
	UpdateStatus(ctx context.Context, id uuid.UUID, status bid.Status) error
}

// WalletLedger defines the atomic wallet primitives. Each mutation is a
// single guarded read-modify-write that never drives available funds
// negative, paired with an append-only transaction record.
type WalletLedger interface {
	// GetByOwner retrieves a user's wallet
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*wallet.Wallet, error)

	// Hold reserves amount against a bid: balance -= amount, held += amount
	Hold(ctx context.Context, walletID uuid.UUID, amount int64, bidID, auctionID uuid.UUID) error

	// Release reverses a hold: balance += amount, held -= amount
	Release(ctx context.Context, walletID uuid.UUID, amount int64, bidID, auctionID uuid.UUID) error

	// SettleHold clears a winner's reservation without a balance change:
	// held -= amount. The money already left the balance when held.
	SettleHold(ctx context.Context, walletID uuid.UUID, amount int64, bidID, auctionID uuid.UUID) error

	// Payout credits sale proceeds: balance += amount
	Payout(ctx context.Context, walletID uuid.UUID, amount int64, bidID, auctionID uuid.UUID) error

	// Deposit credits external funds: balance += amount
	Deposit(ctx context.Context, walletID uuid.UUID, amount int64) error

	// FindHoldForBid retrieves the hold transaction recorded for a bid,
	// used to recover the exact amount to refund a loser
	FindHoldForBid(ctx context.Context, bidID uuid.UUID) (*wallet.Transaction, error)
}

// ItemStore defines the catalog operations the engine consumes
type ItemStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*shared.Item, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status shared.ItemStatus) error
}

// UserDirectory defines the user/address lookups the engine consumes
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*shared.User, error)

	// DefaultAddress retrieves the user's default shipping address
	DefaultAddress(ctx context.Context, userID uuid.UUID) (*shared.Address, error)

	// AnyAddress retrieves the user's first available address, used as a
	// fallback when no default exists
	AnyAddress(ctx context.Context, userID uuid.UUID) (*shared.Address, error)
}

// OrderStore defines the order-creation operations the finalizer consumes
type OrderStore interface {
	CreateOrder(ctx context.Context, buyerID, addressID uuid.UUID) (uuid.UUID, error)
	AddOrderItem(ctx context.Context, orderID, itemID uuid.UUID, qty int, price int64) error
}

// FeeRule computes the marketplace commission withheld from a sale
type FeeRule interface {
	Fee(amount int64) int64
}

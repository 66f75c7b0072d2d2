package bid

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the status of a bid
type Status string

const (
	// StatusActive marks a bid still in the running for its auction
	StatusActive Status = "active"
	// StatusOutbid marks a bid surpassed by a later one
	StatusOutbid Status = "outbid"
	// StatusWinner marks the single winning bid of an ended auction
	StatusWinner Status = "winner"
	// StatusReleased marks a losing bid whose escrowed funds were returned
	StatusReleased Status = "released"
)

// Bid represents a bid on an auction. Bids are never deleted; status
// records their fate.
type Bid struct {
	ID        uuid.UUID `json:"id"`
	AuctionID uuid.UUID `json:"auction_id"`
	BidderID  uuid.UUID `json:"bidder_id"`
	Amount    int64     `json:"amount"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive returns true if the bid has not been outbid or settled
func (b *Bid) IsActive() bool {
	return b.Status == StatusActive
}

// Settled returns true if the bid reached a terminal status
func (b *Bid) Settled() bool {
	return b.Status == StatusWinner || b.Status == StatusReleased
}

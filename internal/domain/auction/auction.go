package auction

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle status of an auction
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOngoing  Status = "ongoing"
	StatusEnded    Status = "ended"
)

// Auction represents a timed ascending auction for an item
type Auction struct {
	ID            uuid.UUID `json:"id"`
	ItemID        uuid.UUID `json:"item_id"`
	SellerID      uuid.UUID `json:"seller_id"`
	StartingPrice int64     `json:"starting_price"`
	StepPrice     int64     `json:"step_price"`
	BuyNowPrice   *int64    `json:"buy_now_price,omitempty"`
	CurrentPrice  *int64    `json:"current_price,omitempty"`
	TotalBids     int       `json:"total_bids"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsOngoing returns true if the auction is currently accepting bids
func (a *Auction) IsOngoing() bool {
	return a.Status == StatusOngoing
}

// IsEnded returns true if the auction has ended
func (a *Auction) IsEnded() bool {
	return a.Status == StatusEnded
}

// WithinWindow returns true if now falls inside [StartTime, EndTime)
func (a *Auction) WithinWindow(now time.Time) bool {
	return !now.Before(a.StartTime) && now.Before(a.EndTime)
}

// Floor returns the minimum acceptable bid amount: the current price
// (starting price while there are no bids) plus one step.
func (a *Auction) Floor() int64 {
	base := a.StartingPrice
	if a.CurrentPrice != nil {
		base = *a.CurrentPrice
	}
	return base + a.StepPrice
}

// BuyNowReached returns true if amount meets or exceeds the buy-now price.
// Auctions without a buy-now price never settle instantly.
func (a *Auction) BuyNowReached(amount int64) bool {
	return a.BuyNowPrice != nil && amount >= *a.BuyNowPrice
}

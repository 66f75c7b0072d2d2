package shared

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered marketplace user
type User struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ItemStatus represents the sale status of an item
type ItemStatus string

const (
	ItemAvailable ItemStatus = "available"
	ItemInAuction ItemStatus = "in_auction"
	ItemSold      ItemStatus = "sold"
)

// Item represents a listed item. Only the fields the escrow engine needs
// are carried; the catalog subsystem owns the rest.
type Item struct {
	ID        uuid.UUID  `json:"id"`
	SellerID  uuid.UUID  `json:"seller_id"`
	Name      string     `json:"name"`
	Status    ItemStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Address is a user shipping address. Orders need one at finalize time.
type Address struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Line      string    `json:"line"`
	IsDefault bool      `json:"is_default"`
}

// Order is created by the finalizer for the winning bid and owned by the
// fulfillment subsystem afterwards.
type Order struct {
	ID        uuid.UUID `json:"id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	AddressID uuid.UUID `json:"address_id"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderItem is a single line of an order
type OrderItem struct {
	ID      uuid.UUID `json:"id"`
	OrderID uuid.UUID `json:"order_id"`
	ItemID  uuid.UUID `json:"item_id"`
	Qty     int       `json:"qty"`
	Price   int64     `json:"price"`
}

// SweepResult summarizes one lifecycle sweep run
type SweepResult struct {
	Promoted  int `json:"promoted"`
	Finalized int `json:"finalized"`
	Failed    int `json:"failed"`
}

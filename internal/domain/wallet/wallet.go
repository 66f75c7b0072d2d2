package wallet

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the status of a wallet
type Status string

const (
	StatusActive Status = "active"
	StatusFrozen Status = "frozen"
)

// TxType classifies a ledger transaction
type TxType string

const (
	// TxHold reserves funds against a bid
	TxHold TxType = "hold"
	// TxRelease reverses a hold, returning funds to available balance
	TxRelease TxType = "release"
	// TxPayout credits sale proceeds to a seller
	TxPayout TxType = "payout"
	// TxDeposit credits external funds into the wallet
	TxDeposit TxType = "deposit"
)

// Wallet holds a user's balance and the portion reserved against open
// bids. Amounts are integer minor currency units.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Balance   int64     `json:"balance"`
	Held      int64     `json:"held"`
	Currency  string    `json:"currency"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Available returns the funds not reserved against bids
func (w *Wallet) Available() int64 {
	return w.Balance - w.Held
}

// CanHold returns true if amount can be reserved without driving the
// available balance negative
func (w *Wallet) CanHold(amount int64) bool {
	return w.Status == StatusActive && amount > 0 && w.Available() >= amount
}

// Transaction is one append-only ledger entry. Amount is signed: debits
// are negative, credits positive. BidID and AuctionID tie escrow entries
// back to the bid that caused them, which is how the exact amount to
// refund a losing bid is recovered.
type Transaction struct {
	ID        uuid.UUID  `json:"id"`
	WalletID  uuid.UUID  `json:"wallet_id"`
	Amount    int64      `json:"amount"`
	Type      TxType     `json:"type"`
	BidID     *uuid.UUID `json:"bid_id,omitempty"`
	AuctionID *uuid.UUID `json:"auction_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

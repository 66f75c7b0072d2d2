package db

import (
	"marketplace-escrow-engine/internal/ports/outbound"
)

// StoreFactory creates pool-bound stores for use outside transactions
type StoreFactory struct {
	conn *Connection
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(conn *Connection) *StoreFactory {
	return &StoreFactory{conn: conn}
}

// TxRunner returns the transaction runner backed by this connection
func (f *StoreFactory) TxRunner() outbound.TxRunner {
	return f.conn
}

// Auctions returns a pool-bound auction store
func (f *StoreFactory) Auctions() outbound.AuctionStore {
	return &AuctionStore{q: f.conn.GetDB()}
}

// Bids returns a pool-bound bid store
func (f *StoreFactory) Bids() outbound.BidStore {
	return &BidStore{q: f.conn.GetDB()}
}

// Wallets returns a pool-bound wallet ledger
func (f *StoreFactory) Wallets() outbound.WalletLedger {
	return &WalletLedger{q: f.conn.GetDB()}
}

// Items returns a pool-bound item store
func (f *StoreFactory) Items() outbound.ItemStore {
	return &ItemStore{q: f.conn.GetDB()}
}

// Users returns a pool-bound user directory
func (f *StoreFactory) Users() outbound.UserDirectory {
	return &UserDirectory{q: f.conn.GetDB()}
}

// Orders returns a pool-bound order store
func (f *StoreFactory) Orders() outbound.OrderStore {
	return &OrderStore{q: f.conn.GetDB()}
}

package app

import (
	"testing"
	"time"

	"marketplace-escrow-engine/internal/domain/auction"
	"marketplace-escrow-engine/internal/domain/bid"
	"marketplace-escrow-engine/internal/domain/shared"
	"marketplace-escrow-engine/internal/domain/wallet"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// fixture wires the engine and finalizer against in-memory fakes with a
// controllable clock.
type fixture struct {
	store      *memStore
	users      *memUsers
	notifier   *memNotifier
	engine     *BidPlacementEngine
	finalizer  *AuctionFinalizer
	auctionSvc *AuctionService
	walletSvc  *WalletService
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    newMemStore(),
		users:    newMemUsers(),
		notifier: &memNotifier{},
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	clock := func() time.Time { return f.now }
	logger := zerolog.Nop()

	// 10% commission keeps the payout math easy to eyeball
	f.finalizer = NewAuctionFinalizer(AuctionFinalizerParams{
		TxRunner: f.store,
		Users:    f.users,
		Fees:     feeFunc(func(amount int64) int64 { return amount / 10 }),
		Notifier: f.notifier,
		Logger:   logger,
		Clock:    clock,
	})

	f.engine = NewBidPlacementEngine(BidPlacementEngineParams{
		TxRunner:  f.store,
		Finalizer: f.finalizer,
		Notifier:  f.notifier,
		Logger:    logger,
		Clock:     clock,
	})

	f.auctionSvc = NewAuctionService(AuctionServiceParams{
		TxRunner: f.store,
		Auctions: f.store.Auctions(),
		Bids:     f.store.Bids(),
		Items:    f.store.Items(),
		Users:    f.users,
		Logger:   logger,
		Clock:    clock,
	})

	f.walletSvc = NewWalletService(WalletServiceParams{
		Wallets: f.store.Wallets(),
		Logger:  logger,
	})

	return f
}

// addUser registers a user with a funded wallet and a default address
func (f *fixture) addUser(t *testing.T, name string, balance int64) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	f.users.users[userID] = &shared.User{ID: userID, Name: name}
	f.users.addresses[userID] = []*shared.Address{
		{ID: uuid.New(), UserID: userID, Line: name + " street 1", IsDefault: true},
	}

	walletID := uuid.New()
	f.store.wallets[walletID] = &wallet.Wallet{
		ID:        walletID,
		OwnerID:   userID,
		Balance:   balance,
		Currency:  "IDR",
		Status:    wallet.StatusActive,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}

	return userID
}

func (f *fixture) addItem(t *testing.T, sellerID uuid.UUID, status shared.ItemStatus) uuid.UUID {
	t.Helper()

	itemID := uuid.New()
	f.store.items[itemID] = &shared.Item{
		ID:        itemID,
		SellerID:  sellerID,
		Name:      "item",
		Status:    status,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	return itemID
}

// addAuction seeds an ongoing auction that started an hour ago and runs
// for another hour
func (f *fixture) addAuction(t *testing.T, sellerID uuid.UUID, startingPrice, stepPrice int64, buyNow *int64) *auction.Auction {
	t.Helper()

	itemID := f.addItem(t, sellerID, shared.ItemInAuction)
	a := &auction.Auction{
		ID:            uuid.New(),
		ItemID:        itemID,
		SellerID:      sellerID,
		StartingPrice: startingPrice,
		StepPrice:     stepPrice,
		BuyNowPrice:   buyNow,
		StartTime:     f.now.Add(-time.Hour),
		EndTime:       f.now.Add(time.Hour),
		Status:        auction.StatusOngoing,
		CreatedAt:     f.now.Add(-time.Hour),
		UpdatedAt:     f.now.Add(-time.Hour),
	}
	f.store.auctions[a.ID] = a
	return a
}

func (f *fixture) wallet(t *testing.T, userID uuid.UUID) *wallet.Wallet {
	t.Helper()

	for _, w := range f.store.wallets {
		if w.OwnerID == userID {
			return w
		}
	}
	t.Fatalf("no wallet for user %s", userID)
	return nil
}

func (f *fixture) bid(t *testing.T, id uuid.UUID) *bid.Bid {
	t.Helper()

	b, ok := f.store.bids[id]
	if !ok {
		t.Fatalf("bid %s not found", id)
	}
	return b
}

func (f *fixture) auction(t *testing.T, id uuid.UUID) *auction.Auction {
	t.Helper()

	a, ok := f.store.auctions[id]
	if !ok {
		t.Fatalf("auction %s not found", id)
	}
	return a
}

// checkWalletInvariants asserts the ledger bookkeeping rules for every
// wallet: non-negative balance and held, and held equal to the net of
// the wallet's escrow transactions.
func (f *fixture) checkWalletInvariants(t *testing.T) {
	t.Helper()

	escrow := make(map[uuid.UUID]int64)
	for _, tx := range f.store.txlog {
		switch tx.Type {
		case wallet.TxHold:
			escrow[tx.WalletID] += -tx.Amount
		case wallet.TxRelease:
			if tx.Amount > 0 {
				escrow[tx.WalletID] -= tx.Amount
			} else {
				escrow[tx.WalletID] += tx.Amount
			}
		}
	}

	for id, w := range f.store.wallets {
		if w.Balance < 0 {
			t.Errorf("wallet %s has negative balance %d", id, w.Balance)
		}
		if w.Held < 0 {
			t.Errorf("wallet %s has negative held %d", id, w.Held)
		}
		if w.Held != escrow[id] {
			t.Errorf("wallet %s held %d does not match escrow ledger net %d", id, w.Held, escrow[id])
		}
	}
}

func int64ptr(v int64) *int64 { return &v }

package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"marketplace-escrow-engine/internal/domain/auction"
	"marketplace-escrow-engine/internal/domain/bid"
	"marketplace-escrow-engine/internal/domain/shared"
	"marketplace-escrow-engine/internal/domain/wallet"
	"marketplace-escrow-engine/internal/ports/outbound"

	"github.com/google/uuid"
)

// errInjected simulates an infrastructure failure mid-transaction
var errInjected = errors.New("injected failure")

// memStore is an in-memory stand-in for the database adapter. WithinTx
// snapshots all state before running the callback and restores it on
// error, so rollback atomicity is observable in tests.
type memStore struct {
	mu         sync.Mutex
	auctions   map[uuid.UUID]*auction.Auction
	bids       map[uuid.UUID]*bid.Bid
	wallets    map[uuid.UUID]*wallet.Wallet
	txlog      []*wallet.Transaction
	items      map[uuid.UUID]*shared.Item
	orders     map[uuid.UUID]*shared.Order
	orderItems []*shared.OrderItem

	failBidCreate      bool
	failOrderCreate    bool
	failAuctionCreate  bool
	failListRefundable bool
}

func newMemStore() *memStore {
	return &memStore{
		auctions: make(map[uuid.UUID]*auction.Auction),
		bids:     make(map[uuid.UUID]*bid.Bid),
		wallets:  make(map[uuid.UUID]*wallet.Wallet),
		items:    make(map[uuid.UUID]*shared.Item),
		orders:   make(map[uuid.UUID]*shared.Order),
	}
}

func copyInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyAuction(a *auction.Auction) *auction.Auction {
	c := *a
	c.BuyNowPrice = copyInt64(a.BuyNowPrice)
	c.CurrentPrice = copyInt64(a.CurrentPrice)
	return &c
}

func (s *memStore) snapshot() *memStore {
	c := newMemStore()
	for id, a := range s.auctions {
		c.auctions[id] = copyAuction(a)
	}
	for id, b := range s.bids {
		cb := *b
		c.bids[id] = &cb
	}
	for id, w := range s.wallets {
		cw := *w
		c.wallets[id] = &cw
	}
	c.txlog = append([]*wallet.Transaction(nil), s.txlog...)
	for id, i := range s.items {
		ci := *i
		c.items[id] = &ci
	}
	for id, o := range s.orders {
		co := *o
		c.orders[id] = &co
	}
	c.orderItems = append([]*shared.OrderItem(nil), s.orderItems...)
	return c
}

func (s *memStore) restore(c *memStore) {
	s.auctions = c.auctions
	s.bids = c.bids
	s.wallets = c.wallets
	s.txlog = c.txlog
	s.items = c.items
	s.orders = c.orders
	s.orderItems = c.orderItems
}

// WithinTx implements outbound.TxRunner
func (s *memStore) WithinTx(ctx context.Context, fn func(ops outbound.TxOps) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) Auctions() outbound.AuctionStore { return &memAuctions{s} }
func (s *memStore) Bids() outbound.BidStore         { return &memBids{s} }
func (s *memStore) Wallets() outbound.WalletLedger  { return &memWallets{s} }
func (s *memStore) Items() outbound.ItemStore       { return &memItems{s} }
func (s *memStore) Orders() outbound.OrderStore     { return &memOrders{s} }

// --- auctions ---

type memAuctions struct{ st *memStore }

func (m *memAuctions) Create(ctx context.Context, a *auction.Auction) error {
	if m.st.failAuctionCreate {
		return errInjected
	}
	m.st.auctions[a.ID] = copyAuction(a)
	return nil
}

func (m *memAuctions) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	a, ok := m.st.auctions[id]
	if !ok {
		return nil, shared.ErrAuctionNotFound
	}
	return copyAuction(a), nil
}

func (m *memAuctions) GetForUpdate(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	return m.GetByID(ctx, id)
}

func (m *memAuctions) Transition(ctx context.Context, id uuid.UUID, from, to auction.Status) (bool, error) {
	a, ok := m.st.auctions[id]
	if !ok {
		return false, shared.ErrAuctionNotFound
	}
	if a.Status != from {
		return false, nil
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	return true, nil
}

func (m *memAuctions) UpdatePrice(ctx context.Context, id uuid.UUID, price int64, totalBids int) error {
	a, ok := m.st.auctions[id]
	if !ok {
		return shared.ErrAuctionNotFound
	}
	a.CurrentPrice = &price
	a.TotalBids = totalBids
	return nil
}

func (m *memAuctions) SetEndTime(ctx context.Context, id uuid.UUID, endTime time.Time) error {
	a, ok := m.st.auctions[id]
	if !ok {
		return shared.ErrAuctionNotFound
	}
	a.EndTime = endTime
	return nil
}

func (m *memAuctions) DueUpcoming(ctx context.Context, now time.Time, limit int) ([]*auction.Auction, error) {
	return m.due(auction.StatusUpcoming, func(a *auction.Auction) bool { return !a.StartTime.After(now) }, limit), nil
}

func (m *memAuctions) DueEnded(ctx context.Context, now time.Time, limit int) ([]*auction.Auction, error) {
	return m.due(auction.StatusOngoing, func(a *auction.Auction) bool { return !a.EndTime.After(now) }, limit), nil
}

func (m *memAuctions) due(status auction.Status, pred func(*auction.Auction) bool, limit int) []*auction.Auction {
	var out []*auction.Auction
	for _, a := range m.st.auctions {
		if a.Status == status && pred(a) {
			out = append(out, copyAuction(a))
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func (m *memAuctions) List(ctx context.Context, status *auction.Status, page, pageSize int) ([]*auction.Auction, error) {
	var out []*auction.Auction
	for _, a := range m.st.auctions {
		if status == nil || a.Status == *status {
			out = append(out, copyAuction(a))
		}
	}
	return out, nil
}

// --- bids ---

type memBids struct{ st *memStore }

func (m *memBids) Create(ctx context.Context, b *bid.Bid) error {
	if m.st.failBidCreate {
		return errInjected
	}
	cb := *b
	m.st.bids[b.ID] = &cb
	return nil
}

func (m *memBids) GetByID(ctx context.Context, id uuid.UUID) (*bid.Bid, error) {
	b, ok := m.st.bids[id]
	if !ok {
		return nil, shared.ErrNoBidsFound
	}
	cb := *b
	return &cb, nil
}

func (m *memBids) HighestActive(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	return m.highest(auctionID, nil)
}

func (m *memBids) HighestActiveForUser(ctx context.Context, auctionID, bidderID uuid.UUID) (*bid.Bid, error) {
	return m.highest(auctionID, &bidderID)
}

func (m *memBids) highest(auctionID uuid.UUID, bidderID *uuid.UUID) (*bid.Bid, error) {
	var best *bid.Bid
	for _, b := range m.st.bids {
		if b.AuctionID != auctionID || b.Status != bid.StatusActive {
			continue
		}
		if bidderID != nil && b.BidderID != *bidderID {
			continue
		}
		if best == nil || b.Amount > best.Amount ||
			(b.Amount == best.Amount && b.CreatedAt.Before(best.CreatedAt)) {
			best = b
		}
	}
	if best == nil {
		return nil, shared.ErrNoBidsFound
	}
	cb := *best
	return &cb, nil
}

func (m *memBids) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	var out []*bid.Bid
	for _, b := range m.st.bids {
		if b.AuctionID == auctionID {
			cb := *b
			out = append(out, &cb)
		}
	}
	return out, nil
}

func (m *memBids) ListRefundable(ctx context.Context, auctionID, excludeBidder uuid.UUID) ([]*bid.Bid, error) {
	if m.st.failListRefundable {
		return nil, errInjected
	}
	var out []*bid.Bid
	for _, b := range m.st.bids {
		if b.AuctionID != auctionID || b.BidderID == excludeBidder {
			continue
		}
		if b.Status == bid.StatusActive || b.Status == bid.StatusOutbid {
			cb := *b
			out = append(out, &cb)
		}
	}
	return out, nil
}

func (m *memBids) UpdateStatus(ctx context.Context, id uuid.UUID, status bid.Status) error {
	b, ok := m.st.bids[id]
	if !ok {
		return shared.ErrNoBidsFound
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	return nil
}

// --- wallets ---

type memWallets struct{ st *memStore }

func (m *memWallets) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*wallet.Wallet, error) {
	for _, w := range m.st.wallets {
		if w.OwnerID == ownerID {
			cw := *w
			return &cw, nil
		}
	}
	return nil, shared.ErrWalletNotFound
}

func (m *memWallets) get(walletID uuid.UUID) (*wallet.Wallet, error) {
	w, ok := m.st.wallets[walletID]
	if !ok {
		return nil, shared.ErrWalletNotFound
	}
	return w, nil
}

func (m *memWallets) Hold(ctx context.Context, walletID uuid.UUID, amount int64, bidID, auctionID uuid.UUID) error {
	w, err := m.get(walletID)
	if err != nil {
		return err
	}
	if !w.CanHold(amount) {
		return shared.ErrWalletUpdateFailed
	}
	w.Balance -= amount
	w.Held += amount
	m.append(walletID, -amount, wallet.TxHold, &bidID, &auctionID)
	return nil
}

func (m *memWallets) Release(ctx context.Context, walletID uuid.UUID, amount int64, bidID, auctionID uuid.UUID) error {
	w, err := m.get(walletID)
	if err != nil {
		return err
	}
	if amount <= 0 || w.Held < amount {
		return shared.ErrWalletUpdateFailed
	}
	w.Balance += amount
	w.Held -= amount
	m.append(walletID, amount, wallet.TxRelease, &bidID, &auctionID)
	return nil
}

func (m *memWallets) SettleHold(ctx context.Context, walletID uuid.UUID, amount int64, bidID, auctionID uuid.UUID) error {
	w, err := m.get(walletID)
	if err != nil {
		return err
	}
	if amount <= 0 || w.Held < amount {
		return shared.ErrWalletUpdateFailed
	}
	w.Held -= amount
	m.append(walletID, -amount, wallet.TxRelease, &bidID, &auctionID)
	return nil
}

func (m *memWallets) Payout(ctx context.Context, walletID uuid.UUID, amount int64, bidID, auctionID uuid.UUID) error {
	w, err := m.get(walletID)
	if err != nil {
		return err
	}
	if amount < 0 {
		return shared.ErrWalletUpdateFailed
	}
	w.Balance += amount
	m.append(walletID, amount, wallet.TxPayout, &bidID, &auctionID)
	return nil
}

func (m *memWallets) Deposit(ctx context.Context, walletID uuid.UUID, amount int64) error {
	w, err := m.get(walletID)
	if err != nil {
		return err
	}
	if amount <= 0 {
		return shared.ErrInvalidAmount
	}
	w.Balance += amount
	m.append(walletID, amount, wallet.TxDeposit, nil, nil)
	return nil
}

func (m *memWallets) FindHoldForBid(ctx context.Context, bidID uuid.UUID) (*wallet.Transaction, error) {
	for i := len(m.st.txlog) - 1; i >= 0; i-- {
		t := m.st.txlog[i]
		if t.Type == wallet.TxHold && t.BidID != nil && *t.BidID == bidID {
			ct := *t
			return &ct, nil
		}
	}
	return nil, shared.ErrReconciliationRequired
}

func (m *memWallets) append(walletID uuid.UUID, amount int64, txType wallet.TxType, bidID, auctionID *uuid.UUID) {
	m.st.txlog = append(m.st.txlog, &wallet.Transaction{
		ID:        uuid.New(),
		WalletID:  walletID,
		Amount:    amount,
		Type:      txType,
		BidID:     bidID,
		AuctionID: auctionID,
		CreatedAt: time.Now(),
	})
}

// --- items ---

type memItems struct{ st *memStore }

func (m *memItems) GetByID(ctx context.Context, id uuid.UUID) (*shared.Item, error) {
	i, ok := m.st.items[id]
	if !ok {
		return nil, shared.ErrItemNotFound
	}
	ci := *i
	return &ci, nil
}

func (m *memItems) UpdateStatus(ctx context.Context, id uuid.UUID, status shared.ItemStatus) error {
	i, ok := m.st.items[id]
	if !ok {
		return shared.ErrItemNotFound
	}
	i.Status = status
	return nil
}

// --- orders ---

type memOrders struct{ st *memStore }

func (m *memOrders) CreateOrder(ctx context.Context, buyerID, addressID uuid.UUID) (uuid.UUID, error) {
	if m.st.failOrderCreate {
		return uuid.Nil, errInjected
	}
	o := &shared.Order{
		ID:        uuid.New(),
		BuyerID:   buyerID,
		AddressID: addressID,
		CreatedAt: time.Now(),
	}
	m.st.orders[o.ID] = o
	return o.ID, nil
}

func (m *memOrders) AddOrderItem(ctx context.Context, orderID, itemID uuid.UUID, qty int, price int64) error {
	m.st.orderItems = append(m.st.orderItems, &shared.OrderItem{
		ID:      uuid.New(),
		OrderID: orderID,
		ItemID:  itemID,
		Qty:     qty,
		Price:   price,
	})
	return nil
}

// --- users and addresses ---

type memUsers struct {
	users     map[uuid.UUID]*shared.User
	addresses map[uuid.UUID][]*shared.Address
}

func newMemUsers() *memUsers {
	return &memUsers{
		users:     make(map[uuid.UUID]*shared.User),
		addresses: make(map[uuid.UUID][]*shared.Address),
	}
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) DefaultAddress(ctx context.Context, userID uuid.UUID) (*shared.Address, error) {
	for _, a := range m.addresses[userID] {
		if a.IsDefault {
			return a, nil
		}
	}
	return nil, shared.ErrAddressMissing
}

func (m *memUsers) AnyAddress(ctx context.Context, userID uuid.UUID) (*shared.Address, error) {
	if addrs := m.addresses[userID]; len(addrs) > 0 {
		return addrs[0], nil
	}
	return nil, shared.ErrAddressMissing
}

// --- notifier ---

type recordedNotice struct {
	UserID  uuid.UUID
	Title   string
	Message string
}

type memNotifier struct {
	mu      sync.Mutex
	notices []recordedNotice
}

func (m *memNotifier) Notify(ctx context.Context, userID uuid.UUID, title, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, recordedNotice{UserID: userID, Title: title, Message: message})
}

func (m *memNotifier) sentTo(userID uuid.UUID) []recordedNotice {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []recordedNotice
	for _, n := range m.notices {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// --- fee rule ---

type feeFunc func(int64) int64

func (f feeFunc) Fee(amount int64) int64 { return f(amount) }

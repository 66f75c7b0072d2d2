package db

import (
	"context"
	"database/sql"
	"fmt"

	"marketplace-escrow-engine/internal/domain/bid"
	"marketplace-escrow-engine/internal/domain/shared"

	"github.com/google/uuid"
)

// BidStore implements the bid store interface
type BidStore struct {
	q querier
}

// NewBidStore creates a new bid store
func NewBidStore(conn *Connection) *BidStore {
	return &BidStore{q: conn.GetDB()}
}

const bidColumns = `id, auction_id, bidder_id, amount, status, created_at, updated_at`

func scanBid(row interface{ Scan(...interface{}) error }) (*bid.Bid, error) {
	var b bid.Bid
	err := row.Scan(
		&b.ID,
		&b.AuctionID,
		&b.BidderID,
		&b.Amount,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create creates a new bid
func (s *BidStore) Create(ctx context.Context, b *bid.Bid) error {
	query := `
		INSERT INTO bids (id, auction_id, bidder_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.q.ExecContext(ctx, query,
		b.ID,
		b.AuctionID,
		b.BidderID,
		b.Amount,
		b.Status,
		b.CreatedAt,
		b.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create bid: %w", err)
	}

	return nil
}

// GetByID retrieves a bid by ID
func (s *BidStore) GetByID(ctx context.Context, id uuid.UUID) (*bid.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`

	b, err := scanBid(s.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrNoBidsFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	return b, nil
}

// HighestActive retrieves the highest active bid on an auction
func (s *BidStore) HighestActive(ctx context.Context, auctionID uuid.UUID) (*bid.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE auction_id = $1 AND status = $2
		ORDER BY amount DESC, created_at ASC
		LIMIT 1
	`

	b, err := scanBid(s.q.QueryRowContext(ctx, query, auctionID, bid.StatusActive))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrNoBidsFound
		}
		return nil, fmt.Errorf("failed to get highest bid: %w", err)
	}

	return b, nil
}

// HighestActiveForUser retrieves a bidder's own highest active bid on an
// auction
func (s *BidStore) HighestActiveForUser(ctx context.Context, auctionID, bidderID uuid.UUID) (*bid.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE auction_id = $1 AND bidder_id = $2 AND status = $3
		ORDER BY amount DESC, created_at ASC
		LIMIT 1
	`

	b, err := scanBid(s.q.QueryRowContext(ctx, query, auctionID, bidderID, bid.StatusActive))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrNoBidsFound
		}
		return nil, fmt.Errorf("failed to get user's highest bid: %w", err)
	}

	return b, nil
}

// ListByAuction retrieves all bids for an auction, highest first
func (s *BidStore) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE auction_id = $1
		ORDER BY amount DESC, created_at ASC
	`

	return s.queryBids(ctx, query, auctionID)
}

// ListRefundable retrieves the active and outbid bids on an auction,
// excluding those placed by excludeBidder
func (s *BidStore) ListRefundable(ctx context.Context, auctionID, excludeBidder uuid.UUID) ([]*bid.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE auction_id = $1 AND bidder_id != $2 AND status IN ($3, $4)
		ORDER BY created_at ASC
	`

	return s.queryBids(ctx, query, auctionID, excludeBidder, bid.StatusActive, bid.StatusOutbid)
}

// UpdateStatus moves a bid to a new status
func (s *BidStore) UpdateStatus(ctx context.Context, id uuid.UUID, status bid.Status) error {
	query := `
		UPDATE bids
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := s.q.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update bid status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrNoBidsFound
	}

	return nil
}

func (s *BidStore) queryBids(ctx context.Context, query string, args ...interface{}) ([]*bid.Bid, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	var bids []*bid.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bids: %w", err)
	}

	return bids, nil
}

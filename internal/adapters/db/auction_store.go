package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marketplace-escrow-engine/internal/domain/auction"
	"marketplace-escrow-engine/internal/domain/shared"

	"github.com/google/uuid"
)

// AuctionStore implements the auction store interface
type AuctionStore struct {
	q querier
}

// NewAuctionStore creates a new auction store
func NewAuctionStore(conn *Connection) *AuctionStore {
	return &AuctionStore{q: conn.GetDB()}
}

const auctionColumns = `id, item_id, seller_id, starting_price, step_price, buy_now_price,
	       current_price, total_bids, start_time, end_time, status, created_at, updated_at`

func scanAuction(row interface{ Scan(...interface{}) error }) (*auction.Auction, error) {
	var a auction.Auction
	err := row.Scan(
		&a.ID,
		&a.ItemID,
		&a.SellerID,
		&a.StartingPrice,
		&a.StepPrice,
		&a.BuyNowPrice,
		&a.CurrentPrice,
		&a.TotalBids,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create creates a new auction
func (s *AuctionStore) Create(ctx context.Context, a *auction.Auction) error {
	query := `
		INSERT INTO auctions (id, item_id, seller_id, starting_price, step_price, buy_now_price,
		                      current_price, total_bids, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.q.ExecContext(ctx, query,
		a.ID,
		a.ItemID,
		a.SellerID,
		a.StartingPrice,
		a.StepPrice,
		a.BuyNowPrice,
		a.CurrentPrice,
		a.TotalBids,
		a.StartTime,
		a.EndTime,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create auction: %w", err)
	}

	return nil
}

// GetByID retrieves an auction by ID
func (s *AuctionStore) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`

	a, err := scanAuction(s.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}

	return a, nil
}

// GetForUpdate retrieves an auction and locks its row until the enclosing
// transaction ends, serializing concurrent bids on the same auction.
func (s *AuctionStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1 FOR UPDATE`

	a, err := scanAuction(s.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("failed to lock auction: %w", err)
	}

	return a, nil
}

// Transition conditionally moves an auction between statuses. The status
// predicate in the WHERE clause is the concurrency guard: of two racing
// callers only one sees rows affected.
func (s *AuctionStore) Transition(ctx context.Context, id uuid.UUID, from, to auction.Status) (bool, error) {
	query := `
		UPDATE auctions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := s.q.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to transition auction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// UpdatePrice sets the current price and total bid count
func (s *AuctionStore) UpdatePrice(ctx context.Context, id uuid.UUID, price int64, totalBids int) error {
	query := `
		UPDATE auctions
		SET current_price = $2, total_bids = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := s.q.ExecContext(ctx, query, id, price, totalBids)
	if err != nil {
		return fmt.Errorf("failed to update auction price: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrAuctionNotFound
	}

	return nil
}

// SetEndTime overwrites the end time of an auction
func (s *AuctionStore) SetEndTime(ctx context.Context, id uuid.UUID, endTime time.Time) error {
	query := `
		UPDATE auctions
		SET end_time = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := s.q.ExecContext(ctx, query, id, endTime)
	if err != nil {
		return fmt.Errorf("failed to set auction end time: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrAuctionNotFound
	}

	return nil
}

// DueUpcoming lists upcoming auctions whose start time has passed
func (s *AuctionStore) DueUpcoming(ctx context.Context, now time.Time, limit int) ([]*auction.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE status = $1 AND start_time <= $2
		ORDER BY start_time ASC
		LIMIT $3
	`

	return s.queryAuctions(ctx, query, auction.StatusUpcoming, now, limit)
}

// DueEnded lists ongoing auctions whose end time has passed
func (s *AuctionStore) DueEnded(ctx context.Context, now time.Time, limit int) ([]*auction.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE status = $1 AND end_time <= $2
		ORDER BY end_time ASC
		LIMIT $3
	`

	return s.queryAuctions(ctx, query, auction.StatusOngoing, now, limit)
}

// List retrieves auctions with optional status filter
func (s *AuctionStore) List(ctx context.Context, status *auction.Status, page, pageSize int) ([]*auction.Auction, error) {
	baseQuery := `SELECT ` + auctionColumns + ` FROM auctions`

	var whereClause string
	var args []interface{}
	argCount := 1

	if status != nil {
		whereClause = " WHERE status = $1"
		args = append(args, *status)
		argCount++
	}

	limitClause := fmt.Sprintf(" LIMIT $%d", argCount)
	offsetClause := fmt.Sprintf(" OFFSET $%d", argCount+1)
	args = append(args, pageSize, (page-1)*pageSize)

	query := baseQuery + whereClause + " ORDER BY created_at DESC" + limitClause + offsetClause

	return s.queryAuctions(ctx, query, args...)
}

func (s *AuctionStore) queryAuctions(ctx context.Context, query string, args ...interface{}) ([]*auction.Auction, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query auctions: %w", err)
	}
	defer rows.Close()

	var auctions []*auction.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		auctions = append(auctions, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auctions: %w", err)
	}

	return auctions, nil
}

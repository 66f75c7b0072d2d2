package db

import (
	"context"
	"database/sql"
	"fmt"

	"marketplace-escrow-engine/internal/domain/shared"

	"github.com/google/uuid"
)

// ItemStore implements the catalog operations the engine consumes
type ItemStore struct {
	q querier
}

// NewItemStore creates a new item store
func NewItemStore(conn *Connection) *ItemStore {
	return &ItemStore{q: conn.GetDB()}
}

// GetByID retrieves an item by ID
func (s *ItemStore) GetByID(ctx context.Context, id uuid.UUID) (*shared.Item, error) {
	query := `
		SELECT id, seller_id, name, status, created_at, updated_at
		FROM items
		WHERE id = $1
	`

	var item shared.Item
	err := s.q.QueryRowContext(ctx, query, id).Scan(
		&item.ID,
		&item.SellerID,
		&item.Name,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return &item, nil
}

// UpdateStatus moves an item to a new sale status
func (s *ItemStore) UpdateStatus(ctx context.Context, id uuid.UUID, status shared.ItemStatus) error {
	query := `
		UPDATE items
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := s.q.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrItemNotFound
	}

	return nil
}

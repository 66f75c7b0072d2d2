package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStore implements the order-creation operations the finalizer consumes
type OrderStore struct {
	q querier
}

// NewOrderStore creates a new order store
func NewOrderStore(conn *Connection) *OrderStore {
	return &OrderStore{q: conn.GetDB()}
}

// CreateOrder creates an order for a buyer and returns its ID
func (s *OrderStore) CreateOrder(ctx context.Context, buyerID, addressID uuid.UUID) (uuid.UUID, error) {
	query := `
		INSERT INTO orders (id, buyer_id, address_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	orderID := uuid.New()
	_, err := s.q.ExecContext(ctx, query, orderID, buyerID, addressID, time.Now())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create order: %w", err)
	}

	return orderID, nil
}

// AddOrderItem adds a single line to an order
func (s *OrderStore) AddOrderItem(ctx context.Context, orderID, itemID uuid.UUID, qty int, price int64) error {
	query := `
		INSERT INTO order_items (id, order_id, item_id, qty, price)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.q.ExecContext(ctx, query, uuid.New(), orderID, itemID, qty, price)
	if err != nil {
		return fmt.Errorf("failed to add order item: %w", err)
	}

	return nil
}

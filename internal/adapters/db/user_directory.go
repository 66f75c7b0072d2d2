package db

import (
	"context"
	"database/sql"
	"fmt"

	"marketplace-escrow-engine/internal/domain/shared"

	"github.com/google/uuid"
)

// UserDirectory implements the user and address lookups the engine consumes
type UserDirectory struct {
	q querier
}

// NewUserDirectory creates a new user directory
func NewUserDirectory(conn *Connection) *UserDirectory {
	return &UserDirectory{q: conn.GetDB()}
}

// GetByID retrieves a user by ID
func (d *UserDirectory) GetByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	query := `
		SELECT id, name
		FROM users
		WHERE id = $1
	`

	var user shared.User
	err := d.q.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// DefaultAddress retrieves the user's default shipping address
func (d *UserDirectory) DefaultAddress(ctx context.Context, userID uuid.UUID) (*shared.Address, error) {
	query := `
		SELECT id, user_id, line, is_default
		FROM addresses
		WHERE user_id = $1 AND is_default = TRUE
		LIMIT 1
	`

	return d.queryAddress(ctx, query, userID)
}

// AnyAddress retrieves the user's first available address
func (d *UserDirectory) AnyAddress(ctx context.Context, userID uuid.UUID) (*shared.Address, error) {
	query := `
		SELECT id, user_id, line, is_default
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, id ASC
		LIMIT 1
	`

	return d.queryAddress(ctx, query, userID)
}

func (d *UserDirectory) queryAddress(ctx context.Context, query string, userID uuid.UUID) (*shared.Address, error) {
	var addr shared.Address
	err := d.q.QueryRowContext(ctx, query, userID).Scan(
		&addr.ID,
		&addr.UserID,
		&addr.Line,
		&addr.IsDefault,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrAddressMissing
		}
		return nil, fmt.Errorf("failed to get address: %w", err)
	}

	return &addr, nil
}

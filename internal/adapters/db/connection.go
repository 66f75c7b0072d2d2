package db

import (
	"context"
	"database/sql"
	"fmt"

	"marketplace-escrow-engine/internal/config"
	"marketplace-escrow-engine/internal/ports/outbound"

	_ "github.com/lib/pq"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx,
// letting every store run against either the pool or a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Connection represents a database connection
type Connection struct {
	db *sql.DB
}

// NewConnection creates a new database connection
func NewConnection(cfg *config.Config) (*Connection, error) {
	db, err := sql.Open("postgres", cfg.Database.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &Connection{db: db}, nil
}

// GetDB returns the underlying sql.DB instance
func (c *Connection) GetDB() *sql.DB {
	return c.db
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.db.Close()
}

// txOps binds every store to one transaction
type txOps struct {
	auctions *AuctionStore
	bids     *BidStore
	wallets  *WalletLedger
	items    *ItemStore
	orders   *OrderStore
}

func (t *txOps) Auctions() outbound.AuctionStore { return t.auctions }
func (t *txOps) Bids() outbound.BidStore         { return t.bids }
func (t *txOps) Wallets() outbound.WalletLedger  { return t.wallets }
func (t *txOps) Items() outbound.ItemStore       { return t.items }
func (t *txOps) Orders() outbound.OrderStore     { return t.orders }

// WithinTx executes fn inside a single database transaction, handing it
// transaction-bound store handles. Any error from fn rolls everything
// back, including panics.
func (c *Connection) WithinTx(ctx context.Context, fn func(ops outbound.TxOps) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	ops := &txOps{
		auctions: &AuctionStore{q: tx},
		bids:     &BidStore{q: tx},
		wallets:  &WalletLedger{q: tx},
		items:    &ItemStore{q: tx},
		orders:   &OrderStore{q: tx},
	}

	if err := fn(ops); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx failed: %v, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marketplace-escrow-engine/internal/domain/shared"
	"marketplace-escrow-engine/internal/domain/wallet"

	"github.com/google/uuid"
)

// WalletLedger implements the wallet ledger interface. Every mutation is
// a single guarded UPDATE whose WHERE clause enforces the wallet
// invariant (balance - held >= 0, held >= 0) so that concurrent holds on
// the same wallet from different auctions cannot lose updates or
// overdraw, plus an append to the wallet_transactions log.
type WalletLedger struct {
	q querier
}

// NewWalletLedger creates a new wallet ledger
func NewWalletLedger(conn *Connection) *WalletLedger {
	return &WalletLedger{q: conn.GetDB()}
}

// GetByOwner retrieves a user's wallet
func (l *WalletLedger) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*wallet.Wallet, error) {
	query := `
		SELECT id, owner_id, balance, held, currency, status, created_at, updated_at
		FROM wallets
		WHERE owner_id = $1
	`

	var w wallet.Wallet
	err := l.q.QueryRowContext(ctx, query, ownerID).Scan(
		&w.ID,
		&w.OwnerID,
		&w.Balance,
		&w.Held,
		&w.Currency,
		&w.Status,
		&w.CreatedAt,
		&w.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return &w, nil
}

// Hold reserves funds against a bid: balance -= amount, held += amount.
// Admission is guarded on the pre-state available funds so a bid that
// passed validation cannot overdraw the wallet in a race.
func (l *WalletLedger) Hold(ctx context.Context, walletID uuid.UUID, amount int64, bidID, auctionID uuid.UUID) error {
	query := `
		UPDATE wallets
		SET balance = balance - $2, held = held + $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		  AND balance - held >= $2
	`

	if err := l.guardedUpdate(ctx, query, walletID, amount, wallet.StatusActive); err != nil {
		return err
	}

	return l.appendTransaction(ctx, walletID, -amount, wallet.TxHold, &bidID, &auctionID)
}

// Release reverses a hold: balance += amount, held -= amount
func (l *WalletLedger) Release(ctx context.Context, walletID uuid.UUID, amount int64, bidID, auctionID uuid.UUID) error {
	query := `
		UPDATE wallets
		SET balance = balance + $2, held = held - $2, updated_at = NOW()
		WHERE id = $1 AND held - $2 >= 0
	`

	if err := l.guardedUpdate(ctx, query, walletID, amount); err != nil {
		return err
	}

	return l.appendTransaction(ctx, walletID, amount, wallet.TxRelease, &bidID, &auctionID)
}

// SettleHold clears a winner's reservation with no balance change: the
// money already left the balance when the holds were taken.
func (l *WalletLedger) SettleHold(ctx context.Context, walletID uuid.UUID, amount int64, bidID, auctionID uuid.UUID) error {
	query := `
		UPDATE wallets
		SET held = held - $2, updated_at = NOW()
		WHERE id = $1 AND held - $2 >= 0
	`

	if err := l.guardedUpdate(ctx, query, walletID, amount); err != nil {
		return err
	}

	return l.appendTransaction(ctx, walletID, -amount, wallet.TxRelease, &bidID, &auctionID)
}

// Payout credits sale proceeds to a seller
func (l *WalletLedger) Payout(ctx context.Context, walletID uuid.UUID, amount int64, bidID, auctionID uuid.UUID) error {
	query := `
		UPDATE wallets
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
	`

	if err := l.guardedUpdate(ctx, query, walletID, amount); err != nil {
		return err
	}

	return l.appendTransaction(ctx, walletID, amount, wallet.TxPayout, &bidID, &auctionID)
}

// Deposit credits external funds into a wallet
func (l *WalletLedger) Deposit(ctx context.Context, walletID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return shared.ErrInvalidAmount
	}

	query := `
		UPDATE wallets
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`

	if err := l.guardedUpdate(ctx, query, walletID, amount, wallet.StatusActive); err != nil {
		return err
	}

	return l.appendTransaction(ctx, walletID, amount, wallet.TxDeposit, nil, nil)
}

// FindHoldForBid retrieves the hold transaction recorded for a bid
func (l *WalletLedger) FindHoldForBid(ctx context.Context, bidID uuid.UUID) (*wallet.Transaction, error) {
	query := `
		SELECT id, wallet_id, amount, type, bid_id, auction_id, created_at
		FROM wallet_transactions
		WHERE bid_id = $1 AND type = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var t wallet.Transaction
	err := l.q.QueryRowContext(ctx, query, bidID, wallet.TxHold).Scan(
		&t.ID,
		&t.WalletID,
		&t.Amount,
		&t.Type,
		&t.BidID,
		&t.AuctionID,
		&t.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrReconciliationRequired
		}
		return nil, fmt.Errorf("failed to find hold transaction: %w", err)
	}

	return &t, nil
}

// guardedUpdate runs a conditional wallet UPDATE and maps a zero row
// count to ErrWalletUpdateFailed: the row was missing, frozen, or the
// invariant predicate rejected the mutation.
func (l *WalletLedger) guardedUpdate(ctx context.Context, query string, walletID uuid.UUID, amount int64, extra ...interface{}) error {
	args := append([]interface{}{walletID, amount}, extra...)

	result, err := l.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrWalletUpdateFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return shared.ErrWalletUpdateFailed
	}

	return nil
}

func (l *WalletLedger) appendTransaction(ctx context.Context, walletID uuid.UUID, amount int64, txType wallet.TxType, bidID, auctionID *uuid.UUID) error {
	query := `
		INSERT INTO wallet_transactions (id, wallet_id, amount, type, bid_id, auction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := l.q.ExecContext(ctx, query,
		uuid.New(),
		walletID,
		amount,
		txType,
		bidID,
		auctionID,
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to record wallet transaction: %w", err)
	}

	return nil
}

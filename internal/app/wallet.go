package app

import (
	"context"

	"marketplace-escrow-engine/internal/domain/shared"
	"marketplace-escrow-engine/internal/domain/wallet"
	"marketplace-escrow-engine/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WalletService exposes the wallet operations that are not part of the
// bid/escrow flow: deposits and balance reads.
type WalletService struct {
	wallets outbound.WalletLedger
	logger  zerolog.Logger
}

type WalletServiceParams struct {
	Wallets outbound.WalletLedger
	Logger  zerolog.Logger
}

// NewWalletService creates a new wallet service
func NewWalletService(params WalletServiceParams) *WalletService {
	return &WalletService{
		wallets: params.Wallets,
		logger:  params.Logger.With().Str("component", "wallet_service").Logger(),
	}
}

// Deposit credits external funds into a user's wallet
func (s *WalletService) Deposit(ctx context.Context, userID uuid.UUID, amount int64) (*wallet.Wallet, error) {
	if amount <= 0 {
		return nil, shared.ErrInvalidAmount
	}

	w, err := s.wallets.GetByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.wallets.Deposit(ctx, w.ID, amount); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("wallet_id", w.ID.String()).
		Int64("amount", amount).
		Msg("Deposit credited")

	return s.wallets.GetByOwner(ctx, userID)
}

// GetWallet retrieves a user's wallet
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	return s.wallets.GetByOwner(ctx, userID)
}

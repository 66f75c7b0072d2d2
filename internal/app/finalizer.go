package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-escrow-engine/internal/domain/auction"
	"marketplace-escrow-engine/internal/domain/bid"
	"marketplace-escrow-engine/internal/domain/shared"
	"marketplace-escrow-engine/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// notice is a pending user notification, accumulated inside a settlement
// transaction and delivered only after it commits.
type notice struct {
	userID  uuid.UUID
	title   string
	message string
}

func dispatch(ctx context.Context, notifier outbound.Notifier, notices []notice) {
	if notifier == nil {
		return
	}
	for _, n := range notices {
		notifier.Notify(ctx, n.userID, n.title, n.message)
	}
}

// AuctionFinalizer settles ended auctions exactly once: winner payout to
// the seller, loser refunds, order creation, item status update. It is
// reachable from the buy-now trigger and the lifecycle sweep; the
// conditional Ongoing to Ended transition makes the race between the two
// safe.
type AuctionFinalizer struct {
	txRunner outbound.TxRunner
	users    outbound.UserDirectory
	fees     outbound.FeeRule
	notifier outbound.Notifier
	logger   zerolog.Logger
	clock    func() time.Time
}

type AuctionFinalizerParams struct {
	TxRunner outbound.TxRunner
	Users    outbound.UserDirectory
	Fees     outbound.FeeRule
	Notifier outbound.Notifier
	Logger   zerolog.Logger
	// Clock overrides the time source, nil means time.Now
	Clock func() time.Time
}

// NewAuctionFinalizer creates a new auction finalizer
func NewAuctionFinalizer(params AuctionFinalizerParams) *AuctionFinalizer {
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &AuctionFinalizer{
		txRunner: params.TxRunner,
		users:    params.Users,
		fees:     params.Fees,
		notifier: params.Notifier,
		logger:   params.Logger.With().Str("component", "auction_finalizer").Logger(),
		clock:    clock,
	}
}

// Finalize settles an ended auction. Calling it on an auction that has
// already ended is a no-op, so retries from the sweep are safe.
func (f *AuctionFinalizer) Finalize(ctx context.Context, auctionID uuid.UUID) error {
	f.logger.Info().Str("auction_id", auctionID.String()).Msg("Finalizing auction")

	var notices []notice

	err := f.txRunner.WithinTx(ctx, func(ops outbound.TxOps) error {
		a, err := ops.Auctions().GetForUpdate(ctx, auctionID)
		if err != nil {
			return err
		}

		if a.IsEnded() {
			f.logger.Debug().Str("auction_id", auctionID.String()).Msg("Auction already ended, nothing to do")
			return nil
		}

		winner, err := ops.Bids().HighestActive(ctx, auctionID)
		if err != nil {
			if errors.Is(err, shared.ErrNoBidsFound) {
				return f.settleNoBids(ctx, ops, a)
			}
			return err
		}

		notices, err = f.settle(ctx, ops, a, winner, f.clock(), false)
		return err
	})

	if err != nil {
		f.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to finalize auction")
		return err
	}

	dispatch(ctx, f.notifier, notices)
	return nil
}

// settle performs the settlement of one auction with a known winning bid.
// It runs on the caller's transaction: the buy-now trigger passes the
// TxOps of the bid placement itself, the sweep path its own. The first
// write is the conditional status transition; a caller that loses it
// stops immediately.
func (f *AuctionFinalizer) settle(ctx context.Context, ops outbound.TxOps, a *auction.Auction, winner *bid.Bid, now time.Time, endNow bool) ([]notice, error) {
	ended, err := ops.Auctions().Transition(ctx, a.ID, auction.StatusOngoing, auction.StatusEnded)
	if err != nil {
		return nil, err
	}
	if !ended {
		f.logger.Warn().Str("auction_id", a.ID.String()).Msg("Auction no longer ongoing, skipping settlement")
		return nil, nil
	}

	if endNow {
		if err := ops.Auctions().SetEndTime(ctx, a.ID, now); err != nil {
			return nil, err
		}
	}

	if err := ops.Bids().UpdateStatus(ctx, winner.ID, bid.StatusWinner); err != nil {
		return nil, err
	}

	fee := f.fees.Fee(winner.Amount)
	netToSeller := winner.Amount - fee

	sellerWallet, err := ops.Wallets().GetByOwner(ctx, a.SellerID)
	if err != nil {
		return nil, err
	}
	if err := ops.Wallets().Payout(ctx, sellerWallet.ID, netToSeller, winner.ID, a.ID); err != nil {
		return nil, err
	}

	// The winner's money already left their balance via the cumulative
	// holds; settling only clears the reservation.
	winnerWallet, err := ops.Wallets().GetByOwner(ctx, winner.BidderID)
	if err != nil {
		return nil, err
	}
	if err := ops.Wallets().SettleHold(ctx, winnerWallet.ID, winner.Amount, winner.ID, a.ID); err != nil {
		return nil, err
	}

	notices, err := f.refundLosers(ctx, ops, a, winner)
	if err != nil {
		return nil, err
	}

	if err := ops.Items().UpdateStatus(ctx, a.ItemID, shared.ItemSold); err != nil {
		return nil, err
	}

	addr, err := f.shippingAddress(ctx, winner.BidderID)
	if err != nil {
		return nil, err
	}

	orderID, err := ops.Orders().CreateOrder(ctx, winner.BidderID, addr.ID)
	if err != nil {
		return nil, err
	}
	if err := ops.Orders().AddOrderItem(ctx, orderID, a.ItemID, 1, winner.Amount); err != nil {
		return nil, err
	}

	notices = append(notices,
		notice{
			userID:  winner.BidderID,
			title:   "Auction won",
			message: fmt.Sprintf("You won the auction with a bid of %d", winner.Amount),
		},
		notice{
			userID:  a.SellerID,
			title:   "Item sold",
			message: fmt.Sprintf("Your item sold for %d, %d credited after fees", winner.Amount, netToSeller),
		},
	)

	f.logger.Info().
		Str("auction_id", a.ID.String()).
		Str("winner_id", winner.BidderID.String()).
		Int64("final_price", winner.Amount).
		Int64("fee", fee).
		Str("order_id", orderID.String()).
		Msg("Auction settled")

	return notices, nil
}

// refundLosers releases the held funds of every losing bid. Each loser is
// isolated: a per-bid failure is logged and skipped so one bad record
// cannot block the winner, the seller, or the other losers. Failing to
// list the losers at all is not isolated: it aborts the settlement so the
// sweep retries instead of ending the auction with every refund dropped.
func (f *AuctionFinalizer) refundLosers(ctx context.Context, ops outbound.TxOps, a *auction.Auction, winner *bid.Bid) ([]notice, error) {
	losers, err := ops.Bids().ListRefundable(ctx, a.ID, winner.BidderID)
	if err != nil {
		f.logger.Error().Err(err).Str("auction_id", a.ID.String()).Msg("Failed to list losing bids")
		return nil, err
	}

	var notices []notice
	for _, loser := range losers {
		holdTx, err := ops.Wallets().FindHoldForBid(ctx, loser.ID)
		if err != nil {
			if errors.Is(err, shared.ErrReconciliationRequired) {
				// The bid is still marked released so the sweep does
				// not retry it forever; the log line is the input for
				// manual reconciliation.
				f.logger.Warn().
					Str("bid_id", loser.ID.String()).
					Str("auction_id", a.ID.String()).
					Msg("Hold transaction missing for losing bid, manual reconciliation required")
				f.markReleased(ctx, ops, loser.ID)
				continue
			}
			f.logger.Error().Err(err).Str("bid_id", loser.ID.String()).Msg("Failed to look up hold transaction")
			continue
		}

		// Holds are recorded as negative ledger amounts.
		amount := -holdTx.Amount
		if err := ops.Wallets().Release(ctx, holdTx.WalletID, amount, loser.ID, a.ID); err != nil {
			f.logger.Warn().Err(err).
				Str("bid_id", loser.ID.String()).
				Str("wallet_id", holdTx.WalletID.String()).
				Int64("amount", amount).
				Msg("Failed to release held funds for losing bid, manual reconciliation required")
			f.markReleased(ctx, ops, loser.ID)
			continue
		}

		f.markReleased(ctx, ops, loser.ID)
		notices = append(notices, notice{
			userID:  loser.BidderID,
			title:   "Bid refunded",
			message: fmt.Sprintf("Your held funds of %d were returned, the auction has ended", amount),
		})
	}

	return notices, nil
}

func (f *AuctionFinalizer) markReleased(ctx context.Context, ops outbound.TxOps, bidID uuid.UUID) {
	if err := ops.Bids().UpdateStatus(ctx, bidID, bid.StatusReleased); err != nil {
		f.logger.Error().Err(err).Str("bid_id", bidID.String()).Msg("Failed to mark bid released")
	}
}

// settleNoBids ends an auction that attracted no bids: the item reverts
// to its pre-auction available status and no money moves.
func (f *AuctionFinalizer) settleNoBids(ctx context.Context, ops outbound.TxOps, a *auction.Auction) error {
	ended, err := ops.Auctions().Transition(ctx, a.ID, auction.StatusOngoing, auction.StatusEnded)
	if err != nil {
		return err
	}
	if !ended {
		return nil
	}

	if err := ops.Items().UpdateStatus(ctx, a.ItemID, shared.ItemAvailable); err != nil {
		return err
	}

	f.logger.Info().Str("auction_id", a.ID.String()).Msg("Auction ended with no bids")
	return nil
}

// shippingAddress resolves the winner's shipping address, falling back to
// the first available address when no default exists.
func (f *AuctionFinalizer) shippingAddress(ctx context.Context, userID uuid.UUID) (*shared.Address, error) {
	addr, err := f.users.DefaultAddress(ctx, userID)
	if err == nil {
		return addr, nil
	}
	if !errors.Is(err, shared.ErrAddressMissing) {
		return nil, err
	}

	addr, err = f.users.AnyAddress(ctx, userID)
	if err != nil {
		return nil, err
	}
	return addr, nil
}

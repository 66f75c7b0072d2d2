package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-escrow-engine/internal/domain/bid"
	"marketplace-escrow-engine/internal/domain/shared"
	"marketplace-escrow-engine/internal/ports/inbound"
	"marketplace-escrow-engine/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BidPlacementEngine validates and records bids, driving the escrow hold
// against the bidder's wallet. All mutations of one placement happen in a
// single transaction; a failure anywhere rolls the hold back with the rest.
type BidPlacementEngine struct {
	txRunner  outbound.TxRunner
	finalizer *AuctionFinalizer
	notifier  outbound.Notifier
	logger    zerolog.Logger
	clock     func() time.Time
}

type BidPlacementEngineParams struct {
	TxRunner  outbound.TxRunner
	Finalizer *AuctionFinalizer
	Notifier  outbound.Notifier
	Logger    zerolog.Logger
	// Clock overrides the time source, nil means time.Now
	Clock func() time.Time
}

// NewBidPlacementEngine creates a new bid placement engine
func NewBidPlacementEngine(params BidPlacementEngineParams) *BidPlacementEngine {
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &BidPlacementEngine{
		txRunner:  params.TxRunner,
		finalizer: params.Finalizer,
		notifier:  params.Notifier,
		logger:    params.Logger.With().Str("component", "bid_engine").Logger(),
		clock:     clock,
	}
}

// PlaceBid places a new bid on an auction
func (e *BidPlacementEngine) PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*bid.Bid, error) {
	e.logger.Info().
		Str("auction_id", req.AuctionID.String()).
		Str("user_id", req.UserID.String()).
		Int64("amount", req.Amount).
		Msg("Attempting to place bid")

	if req.Amount <= 0 {
		e.logger.Warn().Int64("amount", req.Amount).Msg("Invalid bid amount (must be > 0)")
		return nil, shared.ErrBidTooLow
	}

	now := e.clock()
	var placed *bid.Bid
	var notices []notice

	err := e.txRunner.WithinTx(ctx, func(ops outbound.TxOps) error {
		// Lock the auction row so concurrent bids on this auction
		// serialize on the price floor and previous-highest lookup.
		a, err := ops.Auctions().GetForUpdate(ctx, req.AuctionID)
		if err != nil {
			return err
		}

		if !a.IsOngoing() || !a.WithinWindow(now) {
			e.logger.Warn().
				Str("auction_id", a.ID.String()).
				Str("status", string(a.Status)).
				Time("end_time", a.EndTime).
				Msg("Auction not accepting bids")
			return shared.ErrAuctionNotActive
		}

		if req.Amount < a.Floor() {
			e.logger.Warn().
				Str("auction_id", a.ID.String()).
				Int64("floor", a.Floor()).
				Int64("amount", req.Amount).
				Msg("Bid amount below floor")
			return shared.ErrBidTooLow
		}

		w, err := ops.Wallets().GetByOwner(ctx, req.UserID)
		if err != nil {
			return err
		}

		// A re-raise escrows only the marginal delta over the bidder's
		// own prior bid; the prior hold stays in place.
		delta := req.Amount
		ownBid, err := ops.Bids().HighestActiveForUser(ctx, req.AuctionID, req.UserID)
		if err != nil && !errors.Is(err, shared.ErrNoBidsFound) {
			return err
		}
		if ownBid != nil {
			if req.Amount <= ownBid.Amount {
				return shared.ErrBidTooLow
			}
			delta = req.Amount - ownBid.Amount
		}

		if delta > w.Available() {
			e.logger.Warn().
				Str("user_id", req.UserID.String()).
				Int64("delta", delta).
				Int64("available", w.Available()).
				Msg("Insufficient available funds")
			return shared.ErrInsufficientFunds
		}

		// Previous highest bid from any bidder, looked up before the
		// new bid lands.
		prev, err := ops.Bids().HighestActive(ctx, req.AuctionID)
		if err != nil && !errors.Is(err, shared.ErrNoBidsFound) {
			return err
		}

		newBid := &bid.Bid{
			ID:        uuid.New(),
			AuctionID: req.AuctionID,
			BidderID:  req.UserID,
			Amount:    req.Amount,
			Status:    bid.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := ops.Wallets().Hold(ctx, w.ID, delta, newBid.ID, a.ID); err != nil {
			return err
		}

		if err := ops.Bids().Create(ctx, newBid); err != nil {
			return fmt.Errorf("failed to record bid: %w", err)
		}

		if ownBid != nil {
			// Bookkeeping only: the prior hold rolled into the new
			// cumulative hold.
			if err := ops.Bids().UpdateStatus(ctx, ownBid.ID, bid.StatusOutbid); err != nil {
				return err
			}
		}

		if prev != nil && prev.BidderID != req.UserID {
			if err := ops.Bids().UpdateStatus(ctx, prev.ID, bid.StatusOutbid); err != nil {
				return err
			}
			notices = append(notices, notice{
				userID:  prev.BidderID,
				title:   "You have been outbid",
				message: fmt.Sprintf("A higher bid of %d was placed on an auction you are bidding on", req.Amount),
			})
		}

		if err := ops.Auctions().UpdatePrice(ctx, a.ID, req.Amount, a.TotalBids+1); err != nil {
			return err
		}

		if a.BuyNowReached(req.Amount) {
			settleNotices, err := e.finalizer.settle(ctx, ops, a, newBid, now, true)
			if err != nil {
				return err
			}
			notices = append(notices, settleNotices...)
		}

		placed = newBid
		return nil
	})

	if err != nil {
		return nil, err
	}

	// Notifications are best effort and sent only after the commit.
	dispatch(ctx, e.notifier, notices)

	e.logger.Info().
		Str("bid_id", placed.ID.String()).
		Str("auction_id", placed.AuctionID.String()).
		Int64("amount", placed.Amount).
		Msg("Bid placed successfully")

	return placed, nil
}

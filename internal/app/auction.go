package app

import (
	"context"
	"errors"
	"time"

	"marketplace-escrow-engine/internal/domain/auction"
	"marketplace-escrow-engine/internal/domain/bid"
	"marketplace-escrow-engine/internal/domain/shared"
	"marketplace-escrow-engine/internal/ports/inbound"
	"marketplace-escrow-engine/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuctionService implements auction creation and read operations
type AuctionService struct {
	txRunner outbound.TxRunner
	auctions outbound.AuctionStore
	bids     outbound.BidStore
	items    outbound.ItemStore
	users    outbound.UserDirectory
	logger   zerolog.Logger
	clock    func() time.Time
}

type AuctionServiceParams struct {
	TxRunner outbound.TxRunner
	Auctions outbound.AuctionStore
	Bids     outbound.BidStore
	Items    outbound.ItemStore
	Users    outbound.UserDirectory
	Logger   zerolog.Logger
	// Clock overrides the time source, nil means time.Now
	Clock func() time.Time
}

// NewAuctionService creates a new auction service
func NewAuctionService(params AuctionServiceParams) *AuctionService {
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &AuctionService{
		txRunner: params.TxRunner,
		auctions: params.Auctions,
		bids:     params.Bids,
		items:    params.Items,
		users:    params.Users,
		logger:   params.Logger.With().Str("component", "auction_service").Logger(),
		clock:    clock,
	}
}

// CreateAuction lists an item for auction
func (s *AuctionService) CreateAuction(ctx context.Context, req inbound.CreateAuctionRequest) (*auction.Auction, error) {
	s.logger.Info().
		Str("item_id", req.ItemID.String()).
		Str("seller_id", req.SellerID.String()).
		Int64("starting_price", req.StartingPrice).
		Int64("step_price", req.StepPrice).
		Msg("Attempting to create auction")

	if req.StartingPrice <= 0 || req.StepPrice <= 0 {
		return nil, shared.ErrInvalidPrice
	}
	if req.BuyNowPrice != nil && *req.BuyNowPrice <= req.StartingPrice {
		return nil, shared.ErrInvalidPrice
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		s.logger.Warn().Err(err).Str("start_time", req.StartTime).Msg("Invalid start time format")
		return nil, shared.ErrInvalidTimeFormat
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		s.logger.Warn().Err(err).Str("end_time", req.EndTime).Msg("Invalid end time format")
		return nil, shared.ErrInvalidTimeFormat
	}
	if !startTime.Before(endTime) {
		return nil, shared.ErrInvalidStartTime
	}

	if _, err := s.users.GetByID(ctx, req.SellerID); err != nil {
		return nil, err
	}

	now := s.clock()
	status := auction.StatusUpcoming
	if !startTime.After(now) {
		status = auction.StatusOngoing
	}

	a := &auction.Auction{
		ID:            uuid.New(),
		ItemID:        req.ItemID,
		SellerID:      req.SellerID,
		StartingPrice: req.StartingPrice,
		StepPrice:     req.StepPrice,
		BuyNowPrice:   req.BuyNowPrice,
		StartTime:     startTime,
		EndTime:       endTime,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.txRunner.WithinTx(ctx, func(ops outbound.TxOps) error {
		item, err := ops.Items().GetByID(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if item.Status != shared.ItemAvailable {
			return shared.ErrItemNotAvailable
		}
		if item.SellerID != req.SellerID {
			return shared.ErrItemNotAvailable
		}

		if err := ops.Items().UpdateStatus(ctx, item.ID, shared.ItemInAuction); err != nil {
			return err
		}
		return ops.Auctions().Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("auction_id", a.ID.String()).
		Str("status", string(a.Status)).
		Time("end_time", a.EndTime).
		Msg("Auction created")

	return a, nil
}

// GetAuctionStatus retrieves an auction with its highest active bid
func (s *AuctionService) GetAuctionStatus(ctx context.Context, auctionID uuid.UUID) (*inbound.AuctionStatus, error) {
	a, err := s.auctions.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	var highest *bid.Bid
	highest, err = s.bids.HighestActive(ctx, auctionID)
	if err != nil && !errors.Is(err, shared.ErrNoBidsFound) {
		return nil, err
	}

	return &inbound.AuctionStatus{Auction: a, HighestBid: highest}, nil
}

// ListAuctions retrieves auctions with an optional status filter
func (s *AuctionService) ListAuctions(ctx context.Context, status *auction.Status, page, pageSize int) ([]*auction.Auction, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.auctions.List(ctx, status, page, pageSize)
}

// GetBidHistory retrieves all bids on an auction, highest first
func (s *AuctionService) GetBidHistory(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	if _, err := s.auctions.GetByID(ctx, auctionID); err != nil {
		return nil, err
	}
	return s.bids.ListByAuction(ctx, auctionID)
}

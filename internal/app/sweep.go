package app

import (
	"context"
	"sync"
	"time"

	"marketplace-escrow-engine/internal/domain/auction"
	"marketplace-escrow-engine/internal/domain/shared"
	"marketplace-escrow-engine/internal/ports/outbound"

	"github.com/alitto/pond"
	"github.com/rs/zerolog"
)

// LifecycleSweep promotes due upcoming auctions to ongoing and finalizes
// due ongoing ones. Both steps are conditioned on current status, so
// running the sweep twice at the same instant is safe.
type LifecycleSweep struct {
	auctions  outbound.AuctionStore
	finalizer *AuctionFinalizer
	pool      *pond.WorkerPool
	batchSize int
	logger    zerolog.Logger
}

type LifecycleSweepParams struct {
	Auctions  outbound.AuctionStore
	Finalizer *AuctionFinalizer
	Pool      *pond.WorkerPool
	BatchSize int
	Logger    zerolog.Logger
}

// NewLifecycleSweep creates a new lifecycle sweep
func NewLifecycleSweep(params LifecycleSweepParams) *LifecycleSweep {
	batch := params.BatchSize
	if batch <= 0 {
		batch = 50
	}
	return &LifecycleSweep{
		auctions:  params.Auctions,
		finalizer: params.Finalizer,
		pool:      params.Pool,
		batchSize: batch,
		logger:    params.Logger.With().Str("component", "lifecycle_sweep").Logger(),
	}
}

// RunLifecycleSweep executes one sweep pass
func (s *LifecycleSweep) RunLifecycleSweep(ctx context.Context, now time.Time) (*shared.SweepResult, error) {
	result := &shared.SweepResult{}

	promoted, err := s.promoteDue(ctx, now)
	if err != nil {
		return nil, err
	}
	result.Promoted = promoted

	finalized, failed, err := s.finalizeDue(ctx, now)
	if err != nil {
		return nil, err
	}
	result.Finalized = finalized
	result.Failed = failed

	if result.Promoted > 0 || result.Finalized > 0 || result.Failed > 0 {
		s.logger.Info().
			Int("promoted", result.Promoted).
			Int("finalized", result.Finalized).
			Int("failed", result.Failed).
			Msg("Lifecycle sweep completed")
	}

	return result, nil
}

// promoteDue transitions upcoming auctions whose start time has passed.
// The conditional transition makes a lost race with another sweep a
// silent skip rather than an error.
func (s *LifecycleSweep) promoteDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.auctions.DueUpcoming(ctx, now, s.batchSize)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, a := range due {
		ok, err := s.auctions.Transition(ctx, a.ID, auction.StatusUpcoming, auction.StatusOngoing)
		if err != nil {
			s.logger.Error().Err(err).Str("auction_id", a.ID.String()).Msg("Failed to promote auction")
			continue
		}
		if ok {
			promoted++
			s.logger.Debug().Str("auction_id", a.ID.String()).Msg("Auction promoted to ongoing")
		}
	}

	return promoted, nil
}

// finalizeDue settles ongoing auctions whose end time has passed, fanning
// the work out over the worker pool. Finalize is idempotent, so an
// auction picked up by two overlapping sweeps settles once.
func (s *LifecycleSweep) finalizeDue(ctx context.Context, now time.Time) (int, int, error) {
	due, err := s.auctions.DueEnded(ctx, now, s.batchSize)
	if err != nil {
		return 0, 0, err
	}

	var mu sync.Mutex
	finalized, failed := 0, 0

	group := s.pool.Group()
	for _, a := range due {
		auctionID := a.ID
		group.Submit(func() {
			err := s.finalizer.Finalize(ctx, auctionID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return
			}
			finalized++
		})
	}
	group.Wait()

	return finalized, failed, nil
}

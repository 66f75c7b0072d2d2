package sweeper

import (
	"context"
	"sync"
	"time"

	"marketplace-escrow-engine/internal/ports/inbound"

	"github.com/rs/zerolog"
)

// Sweeper drives the lifecycle sweep on a fixed interval. A failed run is
// logged and retried on the next tick; the sweep itself is idempotent.
type Sweeper struct {
	sweep    inbound.SweepService
	interval time.Duration
	logger   zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

type SweeperParams struct {
	Sweep    inbound.SweepService
	Interval time.Duration
	Logger   zerolog.Logger
}

// NewSweeper creates a new sweeper
func NewSweeper(params SweeperParams) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())

	interval := params.Interval
	if interval <= 0 {
		interval = time.Second
	}

	return &Sweeper{
		sweep:    params.Sweep,
		interval: interval,
		logger:   params.Logger.With().Str("component", "sweeper").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the sweep loop
func (s *Sweeper) Start() {
	s.logger.Info().Dur("interval", s.interval).Msg("Starting lifecycle sweeper")

	s.wg.Add(1)
	go s.loop()
}

// Stop gracefully stops the sweeper
func (s *Sweeper) Stop() {
	s.logger.Info().Msg("Stopping lifecycle sweeper")
	s.cancel()
	s.wg.Wait()
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.sweep.RunLifecycleSweep(s.ctx, time.Now()); err != nil {
				s.logger.Error().Err(err).Msg("Lifecycle sweep run failed")
			}
		case <-s.ctx.Done():
			s.logger.Info().Msg("Sweeper loop stopped")
			return
		}
	}
}

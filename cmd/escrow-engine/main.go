package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alitto/pond"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"marketplace-escrow-engine/internal/adapters/db"
	"marketplace-escrow-engine/internal/adapters/fees"
	"marketplace-escrow-engine/internal/adapters/httpapi"
	"marketplace-escrow-engine/internal/adapters/notifier"
	"marketplace-escrow-engine/internal/adapters/sweeper"
	"marketplace-escrow-engine/internal/app"
	"marketplace-escrow-engine/internal/config"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	initLogging(cfg)

	log.Info().Msg("Starting Marketplace Escrow Engine...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	log.Info().Msg("Database connection established")

	// Create stores
	stores := db.NewStoreFactory(dbConn)

	// Create Redis client for the notifier
	redisClient := notifier.NewClient(cfg.Redis)
	if err := notifier.Ping(redisClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	log.Info().Msg("Redis connection established")

	userNotifier := notifier.NewRedisNotifier(notifier.RedisNotifierParams{
		RedisClient: redisClient,
		Logger:      log.Logger,
	})

	// Create business services
	feeRule := fees.NewCommissionRule(cfg.Commission)

	finalizer := app.NewAuctionFinalizer(app.AuctionFinalizerParams{
		TxRunner: stores.TxRunner(),
		Users:    stores.Users(),
		Fees:     feeRule,
		Notifier: userNotifier,
		Logger:   log.Logger,
	})

	bidEngine := app.NewBidPlacementEngine(app.BidPlacementEngineParams{
		TxRunner:  stores.TxRunner(),
		Finalizer: finalizer,
		Notifier:  userNotifier,
		Logger:    log.Logger,
	})

	auctionService := app.NewAuctionService(app.AuctionServiceParams{
		TxRunner: stores.TxRunner(),
		Auctions: stores.Auctions(),
		Bids:     stores.Bids(),
		Items:    stores.Items(),
		Users:    stores.Users(),
		Logger:   log.Logger,
	})

	walletService := app.NewWalletService(app.WalletServiceParams{
		Wallets: stores.Wallets(),
		Logger:  log.Logger,
	})

	log.Info().Msg("Business services initialized")

	// Create lifecycle sweep with its worker pool
	sweepPool := pond.New(cfg.Sweep.MaxWorkers, cfg.Sweep.BatchSize, pond.Context(ctx))
	defer sweepPool.StopAndWait()

	sweepService := app.NewLifecycleSweep(app.LifecycleSweepParams{
		Auctions:  stores.Auctions(),
		Finalizer: finalizer,
		Pool:      sweepPool,
		BatchSize: cfg.Sweep.BatchSize,
		Logger:    log.Logger,
	})

	lifecycleSweeper := sweeper.NewSweeper(sweeper.SweeperParams{
		Sweep:    sweepService,
		Interval: cfg.Sweep.Interval,
		Logger:   log.Logger,
	})

	lifecycleSweeper.Start()
	log.Info().Msg("Lifecycle sweeper started")

	// Create HTTP server
	apiHandler := httpapi.NewHandler(httpapi.HandlerParams{
		Bids:     bidEngine,
		Auctions: auctionService,
		Wallets:  walletService,
		Logger:   log.Logger,
	})

	apiServer := httpapi.NewServer(httpapi.ServerParams{
		Config:  cfg,
		Handler: apiHandler,
		Logger:  log.Logger,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
			cancel()
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	lifecycleSweeper.Stop()
	log.Info().Msg("Lifecycle sweeper stopped")

	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	}

	log.Info().Msg("Graceful shutdown completed")
}

func initLogging(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set log format
	if cfg.Logging.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Console format for development
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &log.Logger
}

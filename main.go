package main

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	auction "auction-service/internal/auctionService"
	"auction-service/internal/config"
	"auction-service/internal/repository"
	"auction-service/internal/scheduler"
	"auction-service/internal/server"
	"auction-service/internal/settlement"
	"auction-service/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	store, err := buildStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}

	auctionSvc := auction.NewAuctionService(store, buildNotifier(cfg))
	auctionSvc.SetMaxRetainedBids(cfg.Bidding.MaxRetainedBids)

	if cfg.Sweep.Enabled {
		sweeper := scheduler.NewSweeper(auctionSvc, cfg.Sweep.Interval)
		if err := sweeper.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start sweeper: %v\n", err)
			os.Exit(1)
		}
		defer sweeper.Stop()
	}

	router := server.SetupRouter(auctionSvc)

	fmt.Printf("Starting auction server on %s...\n", cfg.Server.HTTPAddr)
	if err := router.Run(cfg.Server.HTTPAddr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// buildStore selects Postgres when a DSN is configured, the in-memory store
// otherwise.
func buildStore(cfg config.Config) (repository.AuctionStore, error) {
	if cfg.DB.DSN == "" {
		utils.Info("using in-memory auction store", nil)
		return repository.NewMemoryStore(), nil
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	utils.Info("using postgres auction store", nil)
	return repository.NewPostgresStore(db), nil
}

// buildNotifier selects the queue-backed notifier when enabled, falling back
// to the direct order-service HTTP call.
func buildNotifier(cfg config.Config) settlement.Notifier {
	if cfg.Queue.Enabled {
		return settlement.NewQueueNotifier(cfg.Queue.URL, cfg.Queue.Name)
	}
	return settlement.NewOrderServiceNotifier(cfg.Orders.ServiceURL, cfg.Orders.Timeout)
}

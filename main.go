package main

import (
	auction "auction-house/internal/auctionService"
	bidding "auction-house/internal/biddingService"
	"auction-house/internal/clock"
	"auction-house/internal/config"
	"auction-house/internal/lifecycle"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	"auction-house/internal/sweeper"
	"auction-house/utils"
	"fmt"
	"os"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	clk := clock.NewSystem()
	store := repository.NewMemoryStoreWithTimeout(cfg.LockWaitTimeout)

	lifecycleMgr := lifecycle.NewManager(store)
	auctionSvc := auction.NewAuctionService(store, clk, lifecycleMgr)
	biddingSvc := bidding.NewBiddingService(store, clk, lifecycleMgr)

	sweep := sweeper.New(lifecycleMgr, clk)
	if err := sweep.Start(cfg.SweepSchedule); err != nil {
		utils.Fatal("failed to start sweeper", map[string]any{"error": err.Error()})
	}
	defer sweep.Stop()

	router := server.SetupRouter(auctionSvc, biddingSvc)

	fmt.Printf("Starting auction server on %s...\n", cfg.ServerAddress)
	if err := router.Run(cfg.ServerAddress); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

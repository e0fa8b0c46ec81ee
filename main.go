package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auction "ownit/internal/auctionService"
	"ownit/internal/config"
	"ownit/internal/events"
	"ownit/internal/payments"
	"ownit/internal/repository"
	"ownit/internal/server"
	"ownit/utils"
)

func main() {
	cfg := config.Load()
	utils.SetLogLevel(cfg.LogLevel)

	ledger := repository.NewMemoryLedger()
	bank := payments.NewWalletBank()
	hub := events.NewHub()

	publisher := events.MultiPublisher{hub}
	var amqpPublisher *events.AMQPPublisher
	if cfg.AMQPURL != "" {
		var err error
		amqpPublisher, err = events.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			utils.Fatal("failed to connect event publisher", map[string]any{"error": err.Error()})
		}
		publisher = append(publisher, amqpPublisher)
	}

	service := auction.NewAuctionService(ledger, bank, payments.LogNotifier{}, publisher, cfg.LockTimeout)

	scheduler := auction.NewScheduler(service, cfg.SweepInterval)
	scheduler.Start()

	router := server.SetupRouter(service, hub)
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{"addr": cfg.Addr()})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("server failed", map[string]any{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Info("shutting down gracefully", nil)

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Error("server shutdown failed", map[string]any{"error": err.Error()})
	}

	hub.Close()
	if amqpPublisher != nil {
		amqpPublisher.Close()
	}
	utils.Info("server stopped", nil)
}

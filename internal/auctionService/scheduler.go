package auction

import (
	"context"
	"sync"
	"time"

	"ownit/utils"
)

// Scheduler runs the expiry sweep on a fixed interval, independent of bid
// traffic, so auctions end on time even when nobody is bidding. It is safe to
// run alongside manual end requests: each sweep goes through the same
// per-auction lock and status CAS as every other settlement path.
type Scheduler struct {
	service  *AuctionService
	interval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewScheduler creates a Scheduler sweeping every interval
func NewScheduler(service *AuctionService, interval time.Duration) *Scheduler {
	return &Scheduler{
		service:  service,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in a background goroutine
func (sc *Scheduler) Start() {
	go func() {
		defer close(sc.done)

		ticker := time.NewTicker(sc.interval)
		defer ticker.Stop()

		utils.Info("auction lifecycle scheduler started", map[string]any{
			"interval": sc.interval.String(),
		})

		for {
			select {
			case <-ticker.C:
				sc.sweep()
			case <-sc.stop:
				return
			}
		}
	}()
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish
func (sc *Scheduler) Stop() {
	sc.stopOnce.Do(func() { close(sc.stop) })
	<-sc.done
	utils.Info("auction lifecycle scheduler stopped", nil)
}

func (sc *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sc.interval)
	defer cancel()

	ended, err := sc.service.RunExpirySweep(ctx)
	if err != nil {
		utils.Error("expiry sweep failed", map[string]any{"error": err.Error()})
		return
	}
	if ended > 0 {
		utils.Info("expiry sweep ended auctions", map[string]any{"count": ended})
	}
}

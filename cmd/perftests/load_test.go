package perftests

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	auction "ownit/internal/auctionService"
	"ownit/internal/events"
	"ownit/internal/payments"
	"ownit/internal/repository"
)

// LoadScenario defines configurable benchmark parameters
type LoadScenario struct {
	Name            string
	NumUsers        int
	NumAuctions     int
	ReadRatio       int
	MaxBidIncrement int
	Burst           bool // if true, no delay between ops
}

// OperationMetrics collects latencies safely
type OperationMetrics struct {
	latencies atomic.Value // stores []time.Duration
}

func (om *OperationMetrics) Record(d time.Duration) {
	v := om.latencies.Load()
	var l []time.Duration
	if v != nil {
		l = v.([]time.Duration)
	}
	l = append(l, d)
	om.latencies.Store(l)
}

func (om *OperationMetrics) Stats() (min, max, avg, p95, p99 time.Duration) {
	v := om.latencies.Load()
	if v == nil {
		return
	}
	latencies := v.([]time.Duration)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	min = latencies[0]
	max = latencies[len(latencies)-1]

	var total time.Duration
	for _, d := range latencies {
		total += d
	}
	avg = total / time.Duration(len(latencies))
	p95 = latencies[int(0.95*float64(len(latencies)))]
	p99 = latencies[int(0.99*float64(len(latencies)))]
	return
}

// setupService creates the service with numAuctions active free-entry
// auctions and numUsers joined to every auction
func setupService(b *testing.B, numAuctions, numUsers int) (*auction.AuctionService, []string, []string) {
	ledger := repository.NewMemoryLedger()
	bank := payments.NewWalletBank()
	svc := auction.NewAuctionService(ledger, bank, payments.LogNotifier{}, events.MultiPublisher{}, 5*time.Second)

	ctx := context.Background()
	auctionIDs := make([]string, numAuctions)
	userIDs := make([]string, numUsers)
	for i := range userIDs {
		userIDs[i] = fmt.Sprintf("user_%d", i)
	}

	for i := 0; i < numAuctions; i++ {
		created, err := svc.CreateAuction(auction.CreateAuctionCommand{
			ProductID: fmt.Sprintf("product_%d", i),
			SellerID:  "seller",
			BasePrice: 100,
			EndTime:   time.Now().UTC().Add(time.Hour),
		})
		if err != nil {
			b.Fatalf("failed to create auction: %v", err)
		}
		if _, err := svc.StartAuction(ctx, created.AuctionID); err != nil {
			b.Fatalf("failed to start auction: %v", err)
		}
		for _, userID := range userIDs {
			if err := svc.JoinAuction(ctx, created.AuctionID, userID); err != nil {
				b.Fatalf("failed to join auction: %v", err)
			}
		}
		auctionIDs[i] = created.AuctionID
	}
	return svc, auctionIDs, userIDs
}

// Benchmark_Load_AuctionSystem runs multiple scenarios
func Benchmark_Load_AuctionSystem(b *testing.B) {
	scenarios := []LoadScenario{
		{"Low-Contention-WriteHeavy", 200, 200, 0, 50, false},
		{"High-Contention-WriteHeavy", 100, 10, 0, 20, false},
		{"Mixed-Workload", 100, 50, 7, 30, false},
		{"ReadHeavy", 100, 50, 9, 20, false},
		{"Edge-Case-SingleAuction", 100, 1, 5, 10, false},
		{"Peak-Burst", 100, 50, 0, 20, true},
	}

	for _, s := range scenarios {
		b.Run(s.Name, func(b *testing.B) {
			runParallelScenario(b, s)
		})
	}
}

func runParallelScenario(b *testing.B, s LoadScenario) {
	b.ReportAllocs()

	svc, auctionIDs, userIDs := setupService(b, s.NumAuctions, s.NumUsers)
	ctx := context.Background()

	var totalOps, successfulBids, failedBids, totalReads int64
	auctionSuccess := make([]int64, s.NumAuctions)
	highWater := make([]int64, s.NumAuctions)
	for i := range highWater {
		highWater[i] = 100
	}
	metrics := &OperationMetrics{}

	start := time.Now()

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano() + int64(time.Now().Nanosecond())))

		for pb.Next() {
			auctionIndex := rnd.Intn(s.NumAuctions)
			auctionID := auctionIDs[auctionIndex]
			opType := rnd.Intn(10)

			opStart := time.Now()
			if opType < s.ReadRatio {
				if _, err := svc.GetWinningBid(auctionID); err != nil {
					b.Logf("ignored read error: %v", err)
				}
				atomic.AddInt64(&totalReads, 1)
			} else {
				// Bid above the per-auction high-water mark so most bids are
				// accepted even under contention.
				amount := atomic.AddInt64(&highWater[auctionIndex], int64(rnd.Intn(s.MaxBidIncrement)+1))
				userID := userIDs[rnd.Intn(len(userIDs))]
				if _, err := svc.PlaceBid(ctx, auctionID, userID, float64(amount)); err != nil {
					atomic.AddInt64(&failedBids, 1)
				} else {
					atomic.AddInt64(&successfulBids, 1)
					atomic.AddInt64(&auctionSuccess[auctionIndex], 1)
				}
			}

			metrics.Record(time.Since(opStart))
			atomic.AddInt64(&totalOps, 1)

			if !s.Burst {
				time.Sleep(time.Millisecond)
			}
		}
	})

	elapsed := time.Since(start)
	throughput := float64(totalOps) / elapsed.Seconds()
	min, max, avg, p95, p99 := metrics.Stats()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	b.Logf(
		"Scenario: %s | Auctions: %d | Total Ops: %d | Success Bids: %d | Failed Bids: %d | Reads: %d | Elapsed: %s | Throughput: %.2f ops/sec | Latency(us) min: %.2f avg: %.2f max: %.2f p95: %.2f p99: %.2f | Memory Alloc: %.2f MB",
		s.Name, s.NumAuctions, totalOps, successfulBids, failedBids, totalReads, elapsed,
		throughput,
		float64(min.Microseconds()), float64(avg.Microseconds()), float64(max.Microseconds()),
		float64(p95.Microseconds()), float64(p99.Microseconds()),
		float64(mem.Alloc)/1024/1024,
	)

	for i, v := range auctionSuccess {
		if v > 0 {
			b.Logf("Auction %d successful bids: %d", i, v)
		}
	}
}

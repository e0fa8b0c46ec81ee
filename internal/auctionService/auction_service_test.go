package auction

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"ownit/internal/auctionerrors"
	"ownit/internal/events"
	model "ownit/internal/models"
	"ownit/internal/payments"
	"ownit/internal/repository"
	"ownit/utils"

	"github.com/stretchr/testify/require"
)

// recordingPublisher captures published events for assertions
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) PublishEvent(topic, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events.Event{Topic: topic, Type: eventType, Payload: payload})
}

func (p *recordingPublisher) byType(eventType string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// recordingNotifier captures notifications for assertions
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notification
}

type notification struct {
	userID    string
	notifType string
}

func (n *recordingNotifier) NotifyUser(userID, notifType string, payload map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{userID: userID, notifType: notifType})
}

func (n *recordingNotifier) count(notifType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, call := range n.calls {
		if call.notifType == notifType {
			c++
		}
	}
	return c
}

type testEnv struct {
	svc       *AuctionService
	ledger    *repository.MemoryLedger
	bank      *payments.WalletBank
	notifier  *recordingNotifier
	publisher *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ledger := repository.NewMemoryLedger()
	bank := payments.NewWalletBank()
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}
	svc := NewAuctionService(ledger, bank, notifier, publisher, time.Second)
	return &testEnv{svc: svc, ledger: ledger, bank: bank, notifier: notifier, publisher: publisher}
}

// newActiveAuction creates and starts an auction with the given base price
func (e *testEnv) newActiveAuction(t *testing.T, basePrice float64, endIn time.Duration) string {
	t.Helper()
	created, err := e.svc.CreateAuction(CreateAuctionCommand{
		ProductID: "product-" + utils.GenerateID(),
		SellerID:  "seller1",
		BasePrice: basePrice,
		EntryFee:  10,
		EndTime:   time.Now().UTC().Add(endIn),
	})
	require.NoError(t, err)
	_, err = e.svc.StartAuction(context.Background(), created.AuctionID)
	require.NoError(t, err)
	return created.AuctionID
}

// join pays each user's entry fee from the wallet and joins them
func (e *testEnv) join(t *testing.T, auctionID string, userIDs ...string) {
	t.Helper()
	for _, userID := range userIDs {
		e.bank.Credit(userID, 100)
		_, err := e.bank.PayEntryFeeFromWallet(auctionID, userID, 10)
		require.NoError(t, err)
		require.NoError(t, e.svc.JoinAuction(context.Background(), auctionID, userID))
	}
}

// Tests PlaceBid validation and the committed state after acceptance
func TestAuctionService_PlaceBid(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(e *testEnv) string
		bidderID      string
		amount        float64
		expectedError error
	}{
		{
			name: "valid_first_bid",
			setup: func(e *testEnv) string {
				id := e.newActiveAuction(t, 50, time.Hour)
				e.join(t, id, "user1")
				return id
			},
			bidderID: "user1",
			amount:   60,
		},
		{
			name:          "empty_bidder",
			setup:         func(e *testEnv) string { return e.newActiveAuction(t, 50, time.Hour) },
			bidderID:      "",
			amount:        60,
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name:          "non_positive_amount",
			setup:         func(e *testEnv) string { return e.newActiveAuction(t, 50, time.Hour) },
			bidderID:      "user1",
			amount:        0,
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name:          "auction_not_found",
			setup:         func(e *testEnv) string { return "missing" },
			bidderID:      "user1",
			amount:        60,
			expectedError: auctionerrors.ErrAuctionNotFound,
		},
		{
			name:          "not_a_participant",
			setup:         func(e *testEnv) string { return e.newActiveAuction(t, 50, time.Hour) },
			bidderID:      "stranger",
			amount:        60,
			expectedError: auctionerrors.ErrNotParticipant,
		},
		{
			name: "bid_at_current_price",
			setup: func(e *testEnv) string {
				id := e.newActiveAuction(t, 50, time.Hour)
				e.join(t, id, "user1")
				return id
			},
			bidderID:      "user1",
			amount:        50,
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name: "auction_not_active",
			setup: func(e *testEnv) string {
				created, err := e.svc.CreateAuction(CreateAuctionCommand{
					ProductID: "p-pending",
					SellerID:  "seller1",
					BasePrice: 50,
					EndTime:   time.Now().UTC().Add(time.Hour),
				})
				require.NoError(t, err)
				return created.AuctionID
			},
			bidderID:      "user1",
			amount:        60,
			expectedError: auctionerrors.ErrAuctionNotActive,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e := newTestEnv(t)
			auctionID := tc.setup(e)

			bid, err := e.svc.PlaceBid(context.Background(), auctionID, tc.bidderID, tc.amount)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, bid.BidID)
			require.Equal(t, tc.amount, bid.Amount)
			require.False(t, bid.IsAutoBid)

			auction, err := e.svc.GetAuction(auctionID)
			require.NoError(t, err)
			require.Equal(t, tc.amount, auction.CurrentPrice)
			require.Equal(t, []string{bid.BidID}, auction.Bids)

			newBids := e.publisher.byType(events.TypeNewBid)
			require.Len(t, newBids, 1)
		})
	}
}

// An expired auction rejects bids even before any sweep runs
func TestAuctionService_PlaceBid_Expired(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	auctionID := e.newActiveAuction(t, 50, time.Hour)
	e.join(t, auctionID, "user1")

	auction, err := e.svc.GetAuction(auctionID)
	require.NoError(t, err)

	// Freeze the clock one millisecond before the end: accepted.
	e.svc.now = func() time.Time { return auction.EndTime.Add(-time.Millisecond) }
	_, err = e.svc.PlaceBid(context.Background(), auctionID, "user1", 60)
	require.NoError(t, err)

	// One millisecond past the end: rejected, no sweep involved.
	e.svc.now = func() time.Time { return auction.EndTime.Add(time.Millisecond) }
	_, err = e.svc.PlaceBid(context.Background(), auctionID, "user1", 70)
	require.ErrorIs(t, err, auctionerrors.ErrAuctionExpired)
}

// Tests JoinAuction entry-fee gating
func TestAuctionService_JoinAuction(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	auctionID := e.newActiveAuction(t, 50, time.Hour)

	// Without a paid entry fee the join is refused.
	err := e.svc.JoinAuction(context.Background(), auctionID, "user1")
	require.ErrorIs(t, err, auctionerrors.ErrEntryFeeUnpaid)

	e.bank.Credit("user1", 100)
	_, err = e.bank.PayEntryFeeFromWallet(auctionID, "user1", 10)
	require.NoError(t, err)

	require.NoError(t, e.svc.JoinAuction(context.Background(), auctionID, "user1"))
	require.ErrorIs(t, e.svc.JoinAuction(context.Background(), auctionID, "user1"), auctionerrors.ErrAlreadyParticipant)
}

// Outbid notification goes to the previous leader on every accepted bid
func TestAuctionService_PlaceBid_OutbidNotification(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	auctionID := e.newActiveAuction(t, 10, time.Hour)
	e.join(t, auctionID, "user1", "user2")

	_, err := e.svc.PlaceBid(context.Background(), auctionID, "user1", 20)
	require.NoError(t, err)
	require.Equal(t, 0, e.notifier.count("outbid"))

	_, err = e.svc.PlaceBid(context.Background(), auctionID, "user2", 30)
	require.NoError(t, err)
	require.Equal(t, 1, e.notifier.count("outbid"))
}

// N concurrent bids at distinct amounts: every accepted bid strictly raised
// the price, the final price is the maximum accepted amount, and nothing is
// dropped or double-applied
func TestAuctionService_ConcurrentBids_NoLostUpdates(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	auctionID := e.newActiveAuction(t, 0, time.Hour)

	const bidders = 20
	userIDs := make([]string, bidders)
	for i := range userIDs {
		userIDs[i] = fmt.Sprintf("user%d", i+1)
	}
	e.join(t, auctionID, userIDs...)

	var wg sync.WaitGroup
	accepted := make([]bool, bidders)
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			_, err := e.svc.PlaceBid(context.Background(), auctionID, userIDs[i], float64(i+1))
			accepted[i] = err == nil
		}()
	}
	wg.Wait()

	bids, err := e.svc.GetBidsForAuction(auctionID)
	require.NoError(t, err)

	acceptedCount := 0
	maxAccepted := 0.0
	prev := 0.0
	seen := make(map[float64]bool)
	for _, b := range bids {
		require.Greater(t, b.Amount, prev, "accepted amounts must be strictly increasing")
		require.False(t, seen[b.Amount], "no amount may be applied twice")
		seen[b.Amount] = true
		prev = b.Amount
		if b.Amount > maxAccepted {
			maxAccepted = b.Amount
		}
		acceptedCount++
	}

	wins := 0
	for _, ok := range accepted {
		if ok {
			wins++
		}
	}
	require.Equal(t, wins, acceptedCount, "every accepted call appears exactly once in the log")

	auction, err := e.svc.GetAuction(auctionID)
	require.NoError(t, err)
	require.Equal(t, maxAccepted, auction.CurrentPrice)
	// The highest amount always beats whatever price it observed.
	require.Equal(t, float64(bidders), auction.CurrentPrice)
}

// A caller that cannot get the auction's lock in time receives ErrBusy
func TestAuctionService_LockTimeout_Busy(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)
	e.svc.lockTimeout = 50 * time.Millisecond
	auctionID := e.newActiveAuction(t, 10, time.Hour)
	e.join(t, auctionID, "user1")

	release, err := e.svc.locks.Acquire(context.Background(), auctionID)
	require.NoError(t, err)
	defer release()

	_, err = e.svc.PlaceBid(context.Background(), auctionID, "user1", 20)
	require.ErrorIs(t, err, auctionerrors.ErrBusy)
}

// Tests CreateAuction input validation
func TestAuctionService_CreateAuction(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t)

	_, err := e.svc.CreateAuction(CreateAuctionCommand{SellerID: "s1", BasePrice: 10, EndTime: time.Now().Add(time.Hour)})
	require.ErrorIs(t, err, auctionerrors.ErrInvalidBid)

	_, err = e.svc.CreateAuction(CreateAuctionCommand{ProductID: "p1", SellerID: "s1", BasePrice: -1, EndTime: time.Now().Add(time.Hour)})
	require.ErrorIs(t, err, auctionerrors.ErrInvalidBid)

	_, err = e.svc.CreateAuction(CreateAuctionCommand{ProductID: "p1", SellerID: "s1", BasePrice: 10, EndTime: time.Now().Add(-time.Hour)})
	require.ErrorIs(t, err, auctionerrors.ErrInvalidBid)

	created, err := e.svc.CreateAuction(CreateAuctionCommand{ProductID: "p1", SellerID: "s1", BasePrice: 10, EntryFee: 5, EndTime: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	require.Equal(t, model.AuctionPending, created.Status)
	require.Equal(t, 10.0, created.CurrentPrice)
	require.NotEmpty(t, created.ChatRoomID)

	// One auction per product.
	_, err = e.svc.CreateAuction(CreateAuctionCommand{ProductID: "p1", SellerID: "s1", BasePrice: 10, EndTime: time.Now().Add(time.Hour)})
	require.ErrorIs(t, err, auctionerrors.ErrProductHasAuction)
}

package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ownit/internal/auctionerrors"
	"ownit/internal/events"
	"ownit/internal/keylock"
	model "ownit/internal/models"
	"ownit/internal/payments"
	"ownit/internal/repository"
	"ownit/utils"
)

// endedBySystem marks auctions closed by the expiry sweep rather than an actor
const endedBySystem = "system"

// AuctionService defines the business logic of the real-time bidding engine.
// Every mutating operation on one auction runs under that auction's lock, so
// two concurrent bids on the same auction are serialized: exactly one observes
// the pre-bid price and succeeds, the other gets ErrBidTooLow or ErrStaleBid
// and may resubmit at the fresh price. Different auctions proceed in parallel.
type AuctionService struct {
	ledger      repository.AuctionLedger
	bank        payments.Bank
	notifier    payments.Notifier
	publisher   events.Publisher
	locks       *keylock.KeyLock
	lockTimeout time.Duration
	now         func() time.Time
}

// NewAuctionService creates a new AuctionService instance. lockTimeout bounds
// how long a caller may wait for an auction's lock before getting ErrBusy.
func NewAuctionService(
	ledger repository.AuctionLedger,
	bank payments.Bank,
	notifier payments.Notifier,
	publisher events.Publisher,
	lockTimeout time.Duration,
) *AuctionService {
	return &AuctionService{
		ledger:      ledger,
		bank:        bank,
		notifier:    notifier,
		publisher:   publisher,
		locks:       keylock.New(),
		lockTimeout: lockTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// acquire takes the per-auction lock, surfacing ErrBusy on timeout
func (s *AuctionService) acquire(ctx context.Context, auctionID string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	release, err := s.locks.Acquire(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: lock auction %s: %w", auctionID, auctionerrors.ErrBusy)
	}
	return release, nil
}

// CreateAuctionCommand carries the seller's inputs for a new auction
type CreateAuctionCommand struct {
	ProductID   string
	SellerID    string
	BasePrice   float64
	BuyNowPrice float64
	EntryFee    float64
	StartTime   time.Time
	EndTime     time.Time
}

// CreateAuction registers a pending auction for an approved product. A product
// may have at most one auction; the current price starts at the base price.
// The auction's discussion channel is allocated here and carried as an opaque
// id.
func (s *AuctionService) CreateAuction(cmd CreateAuctionCommand) (model.Auction, error) {
	if cmd.ProductID == "" || cmd.SellerID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - missing product or seller id", auctionerrors.ErrInvalidBid)
	}
	if cmd.BasePrice < 0 {
		return model.Auction{}, fmt.Errorf("service: %w - negative base price", auctionerrors.ErrInvalidBid)
	}
	if cmd.EntryFee < 0 {
		return model.Auction{}, fmt.Errorf("service: %w - negative entry fee", auctionerrors.ErrInvalidBid)
	}
	now := s.now()
	start := cmd.StartTime
	if start.IsZero() {
		start = now
	}
	if !cmd.EndTime.After(start) {
		return model.Auction{}, fmt.Errorf("service: %w - end time must be after start time", auctionerrors.ErrInvalidBid)
	}

	auction := model.Auction{
		AuctionID:    utils.GenerateID(),
		ProductID:    cmd.ProductID,
		SellerID:     cmd.SellerID,
		BasePrice:    cmd.BasePrice,
		CurrentPrice: cmd.BasePrice,
		BuyNowPrice:  cmd.BuyNowPrice,
		EntryFee:     cmd.EntryFee,
		StartTime:    start,
		EndTime:      cmd.EndTime,
		Status:       model.AuctionPending,
		ChatRoomID:   utils.GenerateID(),
		CreatedAt:    now,
	}
	if err := s.ledger.CreateAuction(auction); err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to create auction for product %s: %w", cmd.ProductID, err)
	}
	return auction, nil
}

// StartAuction transitions a pending auction to active and notifies the seller
func (s *AuctionService) StartAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	if auctionID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}

	release, err := s.acquire(ctx, auctionID)
	if err != nil {
		return model.Auction{}, err
	}
	defer release()

	if err := s.ledger.TransitionStatus(auctionID, model.AuctionPending, model.AuctionActive); err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to start auction %s: %w", auctionID, err)
	}

	auction, err := s.ledger.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to load started auction %s: %w", auctionID, err)
	}

	s.notifier.NotifyUser(auction.SellerID, "auction_start", map[string]any{
		"auction_id": auctionID,
	})
	return auction, nil
}

// JoinAuction adds a user to the auction's participant set. When the auction
// carries an entry fee, joining requires a paid entry-fee record for this
// (user, auction) pair.
func (s *AuctionService) JoinAuction(ctx context.Context, auctionID, userID string) error {
	if auctionID == "" || userID == "" {
		return fmt.Errorf("service: %w - missing auctionID or userID", auctionerrors.ErrInvalidBid)
	}

	release, err := s.acquire(ctx, auctionID)
	if err != nil {
		return err
	}
	defer release()

	snap, err := s.ledger.GetSnapshot(auctionID)
	if err != nil {
		return fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}
	if snap.Status != model.AuctionActive {
		return fmt.Errorf("service: join auction %s (status %s): %w", auctionID, snap.Status, auctionerrors.ErrAuctionNotActive)
	}
	if snap.IsParticipant(userID) {
		return fmt.Errorf("service: join auction %s as %s: %w", auctionID, userID, auctionerrors.ErrAlreadyParticipant)
	}
	if snap.EntryFee > 0 && !s.bank.EntryFeeStatus(auctionID, userID) {
		return fmt.Errorf("service: join auction %s as %s: %w", auctionID, userID, auctionerrors.ErrEntryFeeUnpaid)
	}

	if err := s.ledger.AddParticipant(auctionID, userID); err != nil {
		return fmt.Errorf("service: failed to join auction %s as %s: %w", auctionID, userID, err)
	}
	return nil
}

// PlaceBid validates and commits a bid, then lets standing auto-bid
// commitments react. The whole sequence, including the auto-bid cascade, runs
// under the auction's lock as one logical transaction.
func (s *AuctionService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64) (model.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidBid)
	}
	if amount <= 0 {
		return model.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}

	// Cheap pre-check against a snapshot before contending for the lock
	snap, err := s.ledger.GetSnapshot(auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}
	if err := ValidateBid(snap, bidderID, amount, false, 0, s.now()); err != nil {
		return model.Bid{}, fmt.Errorf("service: %w", err)
	}

	release, err := s.acquire(ctx, auctionID)
	if err != nil {
		return model.Bid{}, err
	}
	defer release()

	bid, err := s.commitBid(auctionID, bidderID, amount, false, 0)
	if err != nil {
		return model.Bid{}, err
	}

	s.resolveAutoBids(auctionID, bid)
	return bid, nil
}

// SetAutoBid registers a standing commitment to bid automatically up to
// maxAmount. The registration itself places an opening auto-bid one increment
// above the current price through the normal bid path, then resolves any
// resulting proxy battle with other standing commitments.
func (s *AuctionService) SetAutoBid(ctx context.Context, auctionID, bidderID string, maxAmount float64) (model.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidBid)
	}
	if maxAmount <= 0 {
		return model.Bid{}, fmt.Errorf("service: %w - non-positive auto-bid ceiling", auctionerrors.ErrInvalidBid)
	}

	release, err := s.acquire(ctx, auctionID)
	if err != nil {
		return model.Bid{}, err
	}
	defer release()

	snap, err := s.ledger.GetSnapshot(auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}

	amount := snap.CurrentPrice + MinIncrement
	if amount > maxAmount {
		amount = maxAmount
	}
	if err := ValidateBid(snap, bidderID, amount, true, maxAmount, s.now()); err != nil {
		return model.Bid{}, fmt.Errorf("service: %w", err)
	}

	bid, err := s.commitBid(auctionID, bidderID, amount, true, maxAmount)
	if err != nil {
		return model.Bid{}, err
	}

	s.resolveAutoBids(auctionID, bid)
	return bid, nil
}

// commitBid re-validates under the ledger's atomic section, appends the bid,
// publishes the new_bid event and sends outbid/seller notifications. Caller
// must hold the auction's lock.
func (s *AuctionService) commitBid(auctionID, bidderID string, amount float64, isAutoBid bool, maxAutoBid float64) (model.Bid, error) {
	now := s.now()
	bid := model.Bid{
		BidID:      utils.GenerateID(),
		AuctionID:  auctionID,
		BidderID:   bidderID,
		Amount:     amount,
		IsAutoBid:  isAutoBid,
		MaxAutoBid: maxAutoBid,
		CreatedAt:  now,
	}

	previousLeader := s.currentLeader(auctionID)

	if err := s.ledger.AppendBid(auctionID, bid, now); err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to record bid on auction %s by %s: %w", auctionID, bidderID, err)
	}

	s.publisher.PublishEvent(auctionID, events.TypeNewBid, events.NewBidPayload{
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		IsAutoBid: isAutoBid,
		Timestamp: now,
	})

	if previousLeader != "" && previousLeader != bidderID {
		s.notifier.NotifyUser(previousLeader, "outbid", map[string]any{
			"auction_id":    auctionID,
			"current_price": amount,
		})
	}
	if auction, err := s.ledger.GetAuction(auctionID); err == nil {
		s.notifier.NotifyUser(auction.SellerID, "new_bid", map[string]any{
			"auction_id": auctionID,
			"amount":     amount,
		})
	}
	return bid, nil
}

// currentLeader returns the bidder currently holding the highest bid, or ""
func (s *AuctionService) currentLeader(auctionID string) string {
	winning, err := s.ledger.GetWinningBid(auctionID)
	if err != nil {
		return ""
	}
	return winning.BidderID
}

// EndAuction settles an auction on an explicit end request. The status CAS
// guarantees a single settlement even when this races the expiry sweep.
func (s *AuctionService) EndAuction(ctx context.Context, auctionID, actorID string) (model.Auction, error) {
	if auctionID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}
	if actorID == "" {
		actorID = endedBySystem
	}

	release, err := s.acquire(ctx, auctionID)
	if err != nil {
		return model.Auction{}, err
	}
	defer release()

	if err := s.settle(auctionID, actorID); err != nil {
		return model.Auction{}, err
	}
	auction, err := s.ledger.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to load settled auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// CancelAuction cancels a pending or active auction. Cancellation skips winner
// determination and refunds every paid entrant.
func (s *AuctionService) CancelAuction(ctx context.Context, auctionID, actorID string) (model.Auction, error) {
	if auctionID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}

	release, err := s.acquire(ctx, auctionID)
	if err != nil {
		return model.Auction{}, err
	}
	defer release()

	if err := s.cancel(auctionID, actorID); err != nil {
		return model.Auction{}, err
	}
	auction, err := s.ledger.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to load cancelled auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// RunExpirySweep ends every active auction whose end time has passed and
// returns the number of auctions it settled. Auctions settled concurrently by
// a manual end lose the status CAS here and are skipped silently.
func (s *AuctionService) RunExpirySweep(ctx context.Context) (int, error) {
	expired := s.ledger.ListExpired(s.now())
	ended := 0

	for _, auctionID := range expired {
		if err := ctx.Err(); err != nil {
			return ended, fmt.Errorf("service: expiry sweep interrupted: %w", err)
		}

		release, err := s.acquire(ctx, auctionID)
		if err != nil {
			utils.Warn("expiry sweep: auction busy, will retry next sweep", map[string]any{
				"auction_id": auctionID,
			})
			continue
		}

		err = s.settle(auctionID, endedBySystem)
		release()

		switch {
		case err == nil:
			ended++
		case errors.Is(err, auctionerrors.ErrInvalidTransition):
			// Lost the race to a manual end; nothing to do.
		default:
			utils.Error("expiry sweep: settlement failed", map[string]any{
				"auction_id": auctionID,
				"error":      err.Error(),
			})
		}
	}
	return ended, nil
}

// GetAuction returns one auction record
func (s *AuctionService) GetAuction(auctionID string) (model.Auction, error) {
	if auctionID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}
	auction, err := s.ledger.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// ListAuctions returns all auction records
func (s *AuctionService) ListAuctions() []model.Auction {
	return s.ledger.ListAuctions()
}

// GetBidsForAuction returns the chronological bid log of an auction
func (s *AuctionService) GetBidsForAuction(auctionID string) ([]model.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}
	bids, err := s.ledger.GetBidsByAuction(auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// GetWinningBid returns the highest bid for an auction
func (s *AuctionService) GetWinningBid(auctionID string) (model.Bid, error) {
	if auctionID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}
	winning, err := s.ledger.GetWinningBid(auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to get winning bid for auction %s: %w", auctionID, err)
	}
	return winning, nil
}

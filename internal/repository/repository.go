package repository

import (
	"fmt"
	"sync"
	"time"

	"ownit/internal/auctionerrors"
	model "ownit/internal/models"
)

// AuctionLedger defines the authoritative auction state store. All mutations
// on a single auction are atomic: AppendBid re-checks status, price and end
// time under the store's lock, and TransitionStatus is a compare-and-swap.
type AuctionLedger interface {
	CreateAuction(auction model.Auction) error
	GetAuction(auctionID string) (model.Auction, error)
	GetSnapshot(auctionID string) (model.AuctionSnapshot, error)
	ListAuctions() []model.Auction
	AppendBid(auctionID string, bid model.Bid, now time.Time) error
	TransitionStatus(auctionID string, from, to model.AuctionStatus) error
	AddParticipant(auctionID, userID string) error
	GetBidsByAuction(auctionID string) ([]model.Bid, error)
	GetWinningBid(auctionID string) (model.Bid, error)
	SetResult(auctionID, winnerID string, finalPrice float64, endedBy string) error
	ListExpired(now time.Time) []string
}

// MemoryLedger is a concurrency-safe in-memory implementation of AuctionLedger
type MemoryLedger struct {
	mu        sync.RWMutex
	auctions  map[string]*model.Auction // key: auctionID
	bids      map[string][]model.Bid    // key: auctionID -> chronological bid log
	byProduct map[string]string         // key: productID -> auctionID (one auction per product)
}

// NewMemoryLedger creates a new in-memory ledger instance
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		auctions:  make(map[string]*model.Auction),
		bids:      make(map[string][]model.Bid),
		byProduct: make(map[string]string),
	}
}

// CreateAuction registers a new auction. A product may have at most one
// auction; a second registration fails with ErrProductHasAuction.
func (r *MemoryLedger) CreateAuction(auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[auction.AuctionID]; ok {
		return fmt.Errorf("create auction %s: auction id already exists", auction.AuctionID)
	}
	if existing, ok := r.byProduct[auction.ProductID]; ok {
		return fmt.Errorf("create auction for product %s (existing auction %s): %w",
			auction.ProductID, existing, auctionerrors.ErrProductHasAuction)
	}

	a := auction
	a.Bids = append([]string(nil), auction.Bids...)
	a.Participants = append([]string(nil), auction.Participants...)
	r.auctions[a.AuctionID] = &a
	r.byProduct[a.ProductID] = a.AuctionID
	return nil
}

// GetAuction returns a copy of the auction record
func (r *MemoryLedger) GetAuction(auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return copyAuction(a), nil
}

// GetSnapshot returns the read-only view bid validation works against
func (r *MemoryLedger) GetSnapshot(auctionID string) (model.AuctionSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.AuctionSnapshot{}, fmt.Errorf("snapshot auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	participants := make(map[string]struct{}, len(a.Participants))
	for _, id := range a.Participants {
		participants[id] = struct{}{}
	}
	return model.AuctionSnapshot{
		AuctionID:    a.AuctionID,
		Status:       a.Status,
		CurrentPrice: a.CurrentPrice,
		EntryFee:     a.EntryFee,
		EndTime:      a.EndTime,
		Participants: participants,
	}, nil
}

// ListAuctions returns copies of all auction records
func (r *MemoryLedger) ListAuctions() []model.Auction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		out = append(out, copyAuction(a))
	}
	return out
}

// AppendBid atomically re-validates and commits a bid. The re-check closes the
// race window between a caller's snapshot validation and the commit: status
// must still be active, the auction must not have expired, and the amount must
// still exceed the current price (otherwise the bid lost the race and the
// caller should retry against the fresh price).
func (r *MemoryLedger) AppendBid(auctionID string, bid model.Bid, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return fmt.Errorf("append bid to auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if a.Status != model.AuctionActive {
		return fmt.Errorf("append bid to auction %s (status %s): %w", auctionID, a.Status, auctionerrors.ErrAuctionNotActive)
	}
	if !now.Before(a.EndTime) {
		return fmt.Errorf("append bid to auction %s: %w", auctionID, auctionerrors.ErrAuctionExpired)
	}
	if bid.Amount <= a.CurrentPrice {
		return fmt.Errorf("append bid of %.2f to auction %s (current price %.2f): %w",
			bid.Amount, auctionID, a.CurrentPrice, auctionerrors.ErrStaleBid)
	}

	r.bids[auctionID] = append(r.bids[auctionID], bid)
	a.Bids = append(a.Bids, bid.BidID)
	a.CurrentPrice = bid.Amount
	a.LastBidTime = now
	return nil
}

// TransitionStatus is a compare-and-swap on the auction status. It fails with
// ErrInvalidTransition if the current status does not match from, which is how
// racing end paths (scheduler sweep vs manual end) are reduced to one winner.
func (r *MemoryLedger) TransitionStatus(auctionID string, from, to model.AuctionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return fmt.Errorf("transition auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if a.Status != from {
		return fmt.Errorf("transition auction %s from %s to %s (current %s): %w",
			auctionID, from, to, a.Status, auctionerrors.ErrInvalidTransition)
	}
	if a.Status.Terminal() {
		return fmt.Errorf("transition auction %s: already %s: %w", auctionID, a.Status, auctionerrors.ErrInvalidTransition)
	}
	a.Status = to
	return nil
}

// AddParticipant records that a user joined the auction
func (r *MemoryLedger) AddParticipant(auctionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return fmt.Errorf("join auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	for _, id := range a.Participants {
		if id == userID {
			return fmt.Errorf("join auction %s as %s: %w", auctionID, userID, auctionerrors.ErrAlreadyParticipant)
		}
	}
	a.Participants = append(a.Participants, userID)
	return nil
}

// GetBidsByAuction returns the auction's bid log in chronological order
func (r *MemoryLedger) GetBidsByAuction(auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return append([]model.Bid(nil), r.bids[auctionID]...), nil
}

// GetWinningBid returns the highest bid for an auction. Ties on amount are
// broken by earliest creation time: the first bidder to reach the winning
// amount wins.
func (r *MemoryLedger) GetWinningBid(auctionID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bids, ok := r.bids[auctionID]
	if !ok || len(bids) == 0 {
		return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}

	winning := bids[0]
	for _, b := range bids[1:] {
		if b.Amount > winning.Amount || (b.Amount == winning.Amount && b.CreatedAt.Before(winning.CreatedAt)) {
			winning = b
		}
	}
	return winning, nil
}

// SetResult records the settlement outcome on the auction record
func (r *MemoryLedger) SetResult(auctionID, winnerID string, finalPrice float64, endedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return fmt.Errorf("set result for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	a.WinnerID = winnerID
	a.EndedBy = endedBy
	if finalPrice > 0 {
		a.CurrentPrice = finalPrice
	}
	return nil
}

// ListExpired returns the ids of active auctions whose end time has passed
func (r *MemoryLedger) ListExpired(now time.Time) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var expired []string
	for id, a := range r.auctions {
		if a.Status == model.AuctionActive && !now.Before(a.EndTime) {
			expired = append(expired, id)
		}
	}
	return expired
}

func copyAuction(a *model.Auction) model.Auction {
	out := *a
	out.Bids = append([]string(nil), a.Bids...)
	out.Participants = append([]string(nil), a.Participants...)
	return out
}

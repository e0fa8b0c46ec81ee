package auction

import (
	"time"

	model "ownit/internal/models"
	"ownit/utils"
)

// commitment is one bidder's standing auto-bid position, derived from the bid
// log each time it is needed. The ceiling is the maximum MaxAutoBid among the
// bidder's auto-bids on the auction; registeredAt is when the auto-bid that
// set that ceiling was placed, and breaks ties between equal ceilings.
type commitment struct {
	bidderID     string
	ceiling      float64
	registeredAt time.Time
}

// resolveAutoBids runs the proxy-bidding cascade after an accepted bid. It
// repeatedly finds the strongest standing commitment opposing the current
// leader and lets it issue a synthetic bid through the same validated ledger
// path as a manual bid, until no ceiling beats the price or one commitment
// stands unopposed. The winner ends up paying one increment above the
// second-highest opposing ceiling, never their own ceiling. The caller must
// hold the auction's lock, so the whole cascade is one logical transaction
// that no external bid can interleave.
func (s *AuctionService) resolveAutoBids(auctionID string, trigger model.Bid) {
	bids, err := s.ledger.GetBidsByAuction(auctionID)
	if err != nil {
		utils.Error("auto-bid resolution: failed to load bid log", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return
	}

	leader := trigger.BidderID
	price := trigger.Amount

	// Safety bound: each round permanently eliminates at least one
	// commitment, so the number of distinct bidders caps the cascade.
	maxRounds := distinctBidders(bids)

	for round := 0; round < maxRounds; round++ {
		challenger, ok := strongestOpponent(bids, leader, price)
		if !ok {
			return
		}

		// Bid the smallest amount that beats every other standing ceiling,
		// capped at the challenger's own ceiling.
		amount := maxOpposingCeiling(bids, challenger.bidderID, price) + MinIncrement
		if amount > challenger.ceiling {
			amount = challenger.ceiling
		}
		if amount <= price {
			return
		}

		bid, err := s.commitBid(auctionID, challenger.bidderID, amount, true, challenger.ceiling)
		if err != nil {
			utils.Error("auto-bid resolution: synthetic bid rejected", map[string]any{
				"auction_id": auctionID,
				"bidder_id":  challenger.bidderID,
				"amount":     amount,
				"error":      err.Error(),
			})
			return
		}

		bids = append(bids, bid)
		leader = bid.BidderID
		price = bid.Amount
	}

	if _, ok := strongestOpponent(bids, leader, price); ok {
		utils.Warn("auto-bid resolution: iteration cap reached with opposition standing", map[string]any{
			"auction_id": auctionID,
			"price":      price,
		})
	}
}

// strongestOpponent returns the standing commitment with the highest ceiling
// above price, excluding the current leader. Equal ceilings go to the earlier
// registered commitment, so resolution is deterministic and cannot starve.
func strongestOpponent(bids []model.Bid, leader string, price float64) (commitment, bool) {
	var best commitment
	found := false
	for _, c := range standingCommitments(bids, price) {
		if c.bidderID == leader {
			continue
		}
		if !found ||
			c.ceiling > best.ceiling ||
			(c.ceiling == best.ceiling && c.registeredAt.Before(best.registeredAt)) {
			best = c
			found = true
		}
	}
	return best, found
}

// maxOpposingCeiling returns the highest standing ceiling above price among
// auto-bidders other than bidderID, or price if there is none.
func maxOpposingCeiling(bids []model.Bid, bidderID string, price float64) float64 {
	max := price
	for _, c := range standingCommitments(bids, price) {
		if c.bidderID != bidderID && c.ceiling > max {
			max = c.ceiling
		}
	}
	return max
}

// standingCommitments derives the live auto-bid commitments from the bid log:
// one per distinct bidder whose best ceiling still exceeds price.
func standingCommitments(bids []model.Bid, price float64) []commitment {
	byBidder := make(map[string]commitment)
	var order []string

	for _, b := range bids {
		if !b.IsAutoBid || b.MaxAutoBid <= price {
			continue
		}
		existing, ok := byBidder[b.BidderID]
		if !ok {
			byBidder[b.BidderID] = commitment{
				bidderID:     b.BidderID,
				ceiling:      b.MaxAutoBid,
				registeredAt: b.CreatedAt,
			}
			order = append(order, b.BidderID)
			continue
		}
		if b.MaxAutoBid > existing.ceiling {
			existing.ceiling = b.MaxAutoBid
			existing.registeredAt = b.CreatedAt
			byBidder[b.BidderID] = existing
		}
	}

	out := make([]commitment, 0, len(order))
	for _, id := range order {
		out = append(out, byBidder[id])
	}
	return out
}

// distinctBidders counts the distinct bidders present in the bid log
func distinctBidders(bids []model.Bid) int {
	seen := make(map[string]struct{}, len(bids))
	for _, b := range bids {
		seen[b.BidderID] = struct{}{}
	}
	return len(seen)
}

package auction

import (
	"fmt"
	"time"

	"ownit/internal/auctionerrors"
	model "ownit/internal/models"
)

// MinIncrement is the minimum bid increment, one unit of currency
const MinIncrement = 1.0

// ValidateBid is the pure go/no-go decision for a proposed bid against an
// auction snapshot. It has no side effects, so it doubles as a cheap pre-check
// before the auction's lock is taken; the ledger re-applies the authoritative
// status, expiry and price checks inside its atomic section.
func ValidateBid(snap model.AuctionSnapshot, bidderID string, amount float64, isAutoBid bool, maxAutoBid float64, now time.Time) error {
	if snap.Status != model.AuctionActive {
		return fmt.Errorf("validate bid on auction %s (status %s): %w",
			snap.AuctionID, snap.Status, auctionerrors.ErrAuctionNotActive)
	}
	if !now.Before(snap.EndTime) {
		return fmt.Errorf("validate bid on auction %s: %w", snap.AuctionID, auctionerrors.ErrAuctionExpired)
	}
	if !snap.IsParticipant(bidderID) {
		return fmt.Errorf("validate bid on auction %s by %s: %w",
			snap.AuctionID, bidderID, auctionerrors.ErrNotParticipant)
	}
	if amount <= snap.CurrentPrice {
		return fmt.Errorf("validate bid of %.2f on auction %s (current price %.2f): %w",
			amount, snap.AuctionID, snap.CurrentPrice, auctionerrors.ErrBidTooLow)
	}
	if isAutoBid {
		if maxAutoBid <= snap.CurrentPrice {
			return fmt.Errorf("validate auto-bid ceiling %.2f on auction %s (current price %.2f): %w",
				maxAutoBid, snap.AuctionID, snap.CurrentPrice, auctionerrors.ErrInvalidAutoBid)
		}
		if maxAutoBid < amount {
			return fmt.Errorf("validate auto-bid of %.2f above ceiling %.2f on auction %s: %w",
				amount, maxAutoBid, snap.AuctionID, auctionerrors.ErrInvalidAutoBid)
		}
	}
	return nil
}

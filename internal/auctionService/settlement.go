package auction

import (
	"errors"
	"fmt"

	"ownit/internal/auctionerrors"
	"ownit/internal/events"
	model "ownit/internal/models"
	"ownit/utils"
)

// settle completes one active auction: status CAS, winner determination,
// entry-fee refunds for non-winners and the auction_end event. The CAS makes
// settlement exactly-once; a concurrent settlement path observes
// ErrInvalidTransition here and should treat it as a benign no-op. Caller must
// hold the auction's lock.
func (s *AuctionService) settle(auctionID, endedBy string) error {
	if err := s.ledger.TransitionStatus(auctionID, model.AuctionActive, model.AuctionCompleted); err != nil {
		return fmt.Errorf("service: failed to complete auction %s: %w", auctionID, err)
	}

	winnerID := ""
	finalPrice := 0.0
	winning, err := s.ledger.GetWinningBid(auctionID)
	switch {
	case err == nil:
		winnerID = winning.BidderID
		finalPrice = winning.Amount
	case errors.Is(err, auctionerrors.ErrNoBids):
		// No bids: the auction completes without a winner.
	default:
		utils.Error("settlement: failed to determine winner", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
	}

	if err := s.ledger.SetResult(auctionID, winnerID, finalPrice, endedBy); err != nil {
		utils.Error("settlement: failed to record result", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
	}

	if winnerID != "" {
		s.notifier.NotifyUser(winnerID, "auction_won", map[string]any{
			"auction_id":  auctionID,
			"final_price": finalPrice,
		})
	}

	s.refundEntrants(auctionID, winnerID)

	s.publisher.PublishEvent(auctionID, events.TypeAuctionEnd, events.AuctionEndPayload{
		AuctionID:  auctionID,
		WinnerID:   winnerID,
		FinalPrice: finalPrice,
	})
	return nil
}

// cancel moves a pending or active auction to cancelled, skipping winner
// determination, and refunds every paid entrant. Caller must hold the
// auction's lock.
func (s *AuctionService) cancel(auctionID, actorID string) error {
	auction, err := s.ledger.GetAuction(auctionID)
	if err != nil {
		return fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}
	if auction.Status.Terminal() {
		return fmt.Errorf("service: cancel auction %s (status %s): %w",
			auctionID, auction.Status, auctionerrors.ErrInvalidTransition)
	}

	if err := s.ledger.TransitionStatus(auctionID, auction.Status, model.AuctionCancelled); err != nil {
		return fmt.Errorf("service: failed to cancel auction %s: %w", auctionID, err)
	}
	if err := s.ledger.SetResult(auctionID, "", 0, actorID); err != nil {
		utils.Error("cancellation: failed to record result", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
	}

	s.refundEntrants(auctionID, "")

	s.publisher.PublishEvent(auctionID, events.TypeAuctionEnd, events.AuctionEndPayload{
		AuctionID: auctionID,
	})
	return nil
}

// refundEntrants issues one refund per paid entry-fee record, skipping the
// winner's. Each refund is independent: a gateway failure on one payment is
// logged and flagged for reconciliation, and the rest of the batch continues.
func (s *AuctionService) refundEntrants(auctionID, winnerID string) {
	for _, payment := range s.bank.PaidEntries(auctionID) {
		if winnerID != "" && payment.UserID == winnerID {
			continue
		}
		if err := s.bank.IssueRefund(payment); err != nil {
			utils.Error("settlement: refund failed, flagged for manual reconciliation", map[string]any{
				"auction_id": auctionID,
				"user_id":    payment.UserID,
				"payment_id": payment.PaymentID,
				"error":      err.Error(),
			})
			continue
		}
		s.notifier.NotifyUser(payment.UserID, "entry_fee_refunded", map[string]any{
			"auction_id": auctionID,
			"amount":     payment.Amount,
		})
	}
}

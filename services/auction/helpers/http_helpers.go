package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"ownit/internal/auctionerrors"
	model "ownit/internal/models"
	"ownit/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message.
// BidTooLow and StaleBid are conflicts the client resolves by resubmitting at
// the fresh price; Busy asks for a retry after backoff.
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusOK, "no bids found for auction"
	case errors.Is(err, auctionerrors.ErrProductHasAuction):
		return http.StatusConflict, "product already has an auction"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrStaleBid):
		return http.StatusConflict, "bid lost the race, resubmit at current price"
	case errors.Is(err, auctionerrors.ErrInvalidAutoBid):
		return http.StatusBadRequest, "invalid auto-bid ceiling"
	case errors.Is(err, auctionerrors.ErrAuctionNotActive):
		return http.StatusBadRequest, "auction is not active"
	case errors.Is(err, auctionerrors.ErrAuctionExpired):
		return http.StatusBadRequest, "auction has already ended"
	case errors.Is(err, auctionerrors.ErrNotParticipant):
		return http.StatusBadRequest, "join the auction before bidding"
	case errors.Is(err, auctionerrors.ErrAlreadyParticipant):
		return http.StatusBadRequest, "already a participant in this auction"
	case errors.Is(err, auctionerrors.ErrEntryFeeUnpaid):
		return http.StatusForbidden, "entry fee must be paid before joining"
	case errors.Is(err, auctionerrors.ErrInvalidTransition):
		return http.StatusConflict, "auction already settled"
	case errors.Is(err, auctionerrors.ErrBusy):
		return http.StatusServiceUnavailable, "auction busy, retry"
	case errors.Is(err, auctionerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// IsPriceConflict reports whether the error should carry the current price in
// the response body
func IsPriceConflict(err error) bool {
	return errors.Is(err, auctionerrors.ErrBidTooLow) || errors.Is(err, auctionerrors.ErrStaleBid)
}

// ToBidResponse converts a bid model to its response DTO
func ToBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:      bid.BidID,
		AuctionID:  bid.AuctionID,
		BidderID:   bid.BidderID,
		Amount:     bid.Amount,
		IsAutoBid:  bid.IsAutoBid,
		MaxAutoBid: bid.MaxAutoBid,
		CreatedAt:  bid.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToAuctionResponse converts an auction model to its response DTO
func ToAuctionResponse(a model.Auction) AuctionResponse {
	return AuctionResponse{
		AuctionID:    a.AuctionID,
		ProductID:    a.ProductID,
		SellerID:     a.SellerID,
		BasePrice:    a.BasePrice,
		CurrentPrice: a.CurrentPrice,
		BuyNowPrice:  a.BuyNowPrice,
		EntryFee:     a.EntryFee,
		Status:       string(a.Status),
		StartTime:    a.StartTime.UTC().Format(time.RFC3339),
		EndTime:      a.EndTime.UTC().Format(time.RFC3339),
		WinnerID:     a.WinnerID,
		EndedBy:      a.EndedBy,
		BidCount:     len(a.Bids),
		Participants: len(a.Participants),
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ownit/internal/auctionerrors"
	auction "ownit/internal/auctionService"
	"ownit/internal/events"
	model "ownit/internal/models"
	"ownit/services/auction/helpers"
	"ownit/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=auction_handler.go -destination=mock_service.go -package=handler

type AuctionServiceInterface interface {
	CreateAuction(cmd auction.CreateAuctionCommand) (model.Auction, error)
	StartAuction(ctx context.Context, auctionID string) (model.Auction, error)
	JoinAuction(ctx context.Context, auctionID, userID string) error
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64) (model.Bid, error)
	SetAutoBid(ctx context.Context, auctionID, bidderID string, maxAmount float64) (model.Bid, error)
	EndAuction(ctx context.Context, auctionID, actorID string) (model.Auction, error)
	CancelAuction(ctx context.Context, auctionID, actorID string) (model.Auction, error)
	RunExpirySweep(ctx context.Context) (int, error)
	GetAuction(auctionID string) (model.Auction, error)
	ListAuctions() []model.Auction
	GetBidsForAuction(auctionID string) ([]model.Bid, error)
	GetWinningBid(auctionID string) (model.Bid, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
	hub     *events.Hub
}

func NewAuctionHandler(service AuctionServiceInterface, hub *events.Hub) *AuctionHandler {
	return &AuctionHandler{service: service, hub: hub}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	created, err := h.service.CreateAuction(auction.CreateAuctionCommand{
		ProductID:   req.ProductID,
		SellerID:    req.SellerID,
		BasePrice:   req.BasePrice,
		BuyNowPrice: req.BuyNowPrice,
		EntryFee:    req.EntryFee,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		h.respondError(c, "CreateAuctionHandler", err, map[string]any{"product_id": req.ProductID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToAuctionResponse(created), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": created.AuctionID,
		"product_id": created.ProductID,
	})
}

// ListAuctionsHandler handles GET /auctions
func (h *AuctionHandler) ListAuctionsHandler(c *gin.Context) {
	auctions := h.service.ListAuctions()
	resp := make([]helpers.AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		resp = append(resp, helpers.ToAuctionResponse(a))
	}
	utils.JSONResponse(c, http.StatusOK, resp, "auctions retrieved successfully")
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	a, err := h.service.GetAuction(auctionID)
	if err != nil {
		h.respondError(c, "GetAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, helpers.ToAuctionResponse(a), "auction retrieved successfully")
}

// StartAuctionHandler handles PUT /auctions/:auction_id/start
func (h *AuctionHandler) StartAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	a, err := h.service.StartAuction(c.Request.Context(), auctionID)
	if err != nil {
		h.respondError(c, "StartAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToAuctionResponse(a), "auction started successfully")
	helpers.LogSuccess("StartAuctionHandler", "auction started successfully", map[string]any{
		"auction_id": auctionID,
	})
}

// JoinAuctionHandler handles POST /auctions/:auction_id/join
func (h *AuctionHandler) JoinAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.JoinAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "JoinAuctionHandler", err)
		return
	}

	if err := h.service.JoinAuction(c.Request.Context(), auctionID, req.UserID); err != nil {
		h.respondError(c, "JoinAuctionHandler", err, map[string]any{
			"auction_id": auctionID,
			"user_id":    req.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"auction_id": auctionID, "user_id": req.UserID}, "joined auction successfully")
	helpers.LogSuccess("JoinAuctionHandler", "joined auction successfully", map[string]any{
		"auction_id": auctionID,
		"user_id":    req.UserID,
	})
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bid, err := h.service.PlaceBid(c.Request.Context(), auctionID, req.BidderID, req.Amount)
	if err != nil {
		h.respondBidError(c, "PlaceBidHandler", auctionID, err, map[string]any{
			"auction_id": auctionID,
			"bidder_id":  req.BidderID,
			"amount":     req.Amount,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": auctionID,
		"bidder_id":  req.BidderID,
		"amount":     bid.Amount,
	})
}

// SetAutoBidHandler handles POST /auctions/:auction_id/autobid
func (h *AuctionHandler) SetAutoBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.AutoBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SetAutoBidHandler", err)
		return
	}

	bid, err := h.service.SetAutoBid(c.Request.Context(), auctionID, req.BidderID, req.MaxBid)
	if err != nil {
		h.respondBidError(c, "SetAutoBidHandler", auctionID, err, map[string]any{
			"auction_id": auctionID,
			"bidder_id":  req.BidderID,
			"max_bid":    req.MaxBid,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToBidResponse(bid), "auto-bid registered successfully")
	helpers.LogSuccess("SetAutoBidHandler", "auto-bid registered successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": auctionID,
		"bidder_id":  req.BidderID,
		"max_bid":    req.MaxBid,
	})
}

// EndAuctionHandler handles PUT /auctions/:auction_id/end
func (h *AuctionHandler) EndAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.EndAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		helpers.HandleBindError(c, "EndAuctionHandler", err)
		return
	}

	a, err := h.service.EndAuction(c.Request.Context(), auctionID, req.ActorID)
	if err != nil {
		h.respondError(c, "EndAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToAuctionResponse(a), "auction ended successfully")
	helpers.LogSuccess("EndAuctionHandler", "auction ended successfully", map[string]any{
		"auction_id": auctionID,
		"winner_id":  a.WinnerID,
	})
}

// CancelAuctionHandler handles PUT /auctions/:auction_id/cancel
func (h *AuctionHandler) CancelAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.EndAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		helpers.HandleBindError(c, "CancelAuctionHandler", err)
		return
	}

	a, err := h.service.CancelAuction(c.Request.Context(), auctionID, req.ActorID)
	if err != nil {
		h.respondError(c, "CancelAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToAuctionResponse(a), "auction cancelled successfully")
	helpers.LogSuccess("CancelAuctionHandler", "auction cancelled successfully", map[string]any{
		"auction_id": auctionID,
	})
}

// GetBidsByAuctionHandler handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) GetBidsByAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.GetBidsForAuction(auctionID)
	if err != nil {
		h.respondError(c, "GetBidsByAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, helpers.ToBidResponse(b))
	}
	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
}

// GetWinningBidHandler handles GET /auctions/:auction_id/winning
func (h *AuctionHandler) GetWinningBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bid, err := h.service.GetWinningBid(auctionID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrNoBids) {
			utils.JSONError(c, http.StatusNotFound, err, "no winning bid found")
			utils.Info("GetWinningBidHandler: no winning bid found", map[string]any{"auction_id": auctionID})
			return
		}
		h.respondError(c, "GetWinningBidHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToBidResponse(bid), "winning bid retrieved successfully")
}

// RunSweepHandler handles POST /sweep
func (h *AuctionHandler) RunSweepHandler(c *gin.Context) {
	ended, err := h.service.RunExpirySweep(c.Request.Context())
	if err != nil {
		h.respondError(c, "RunSweepHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.SweepResponse{EndedCount: ended},
		fmt.Sprintf("ended %d expired auctions", ended))
	helpers.LogSuccess("RunSweepHandler", "expiry sweep completed", map[string]any{"ended_count": ended})
}

// StreamEventsHandler handles GET /auctions/:auction_id/events. It streams
// the auction's new_bid and auction_end events over SSE until the client
// disconnects. Missed events are not replayed; clients re-fetch on reconnect.
func (h *AuctionHandler) StreamEventsHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	if _, err := h.service.GetAuction(auctionID); err != nil {
		h.respondError(c, "StreamEventsHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	ch, unsubscribe := h.hub.Subscribe(auctionID)
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(event.Type, event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// respondError maps a service error to an HTTP response and logs it
func (h *AuctionHandler) respondError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := helpers.MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	logFields := map[string]any{"handler": handlerName, "error": err.Error()}
	for k, v := range fields {
		logFields[k] = v
	}
	utils.Error(handlerName+": request failed", logFields)
}

// respondBidError is respondError plus the current price on price conflicts,
// so a rejected bidder can correct their bid without a round-trip re-fetch
func (h *AuctionHandler) respondBidError(c *gin.Context, handlerName, auctionID string, err error, fields map[string]any) {
	if helpers.IsPriceConflict(err) {
		if a, lookupErr := h.service.GetAuction(auctionID); lookupErr == nil {
			status, message := helpers.MapErrorToHTTP(err)
			utils.JSONErrorWithData(c, status, fmt.Errorf("%s: %w", message, err), message,
				helpers.CurrentPriceData{CurrentPrice: a.CurrentPrice})
			utils.Warn(handlerName+": bid rejected on price", map[string]any{
				"auction_id":    auctionID,
				"current_price": a.CurrentPrice,
				"error":         err.Error(),
			})
			return
		}
	}
	h.respondError(c, handlerName, err, fields)
}

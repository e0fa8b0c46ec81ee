package helpers

import "time"

// Request/Response DTOs
type CreateAuctionRequest struct {
	ProductID   string    `json:"product_id" binding:"required"`
	SellerID    string    `json:"seller_id" binding:"required"`
	BasePrice   float64   `json:"base_price" binding:"min=0"`
	BuyNowPrice float64   `json:"buy_now_price" binding:"omitempty,gt=0"`
	EntryFee    float64   `json:"entry_fee" binding:"min=0"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time" binding:"required"`
}

type PlaceBidRequest struct {
	BidderID string  `json:"bidder_id" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
}

type AutoBidRequest struct {
	BidderID string  `json:"bidder_id" binding:"required"`
	MaxBid   float64 `json:"max_bid" binding:"required,gt=0"`
}

type JoinAuctionRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type EndAuctionRequest struct {
	ActorID string `json:"actor_id"`
}

type BidResponse struct {
	BidID      string  `json:"bid_id"`
	AuctionID  string  `json:"auction_id"`
	BidderID   string  `json:"bidder_id"`
	Amount     float64 `json:"amount"`
	IsAutoBid  bool    `json:"is_auto_bid"`
	MaxAutoBid float64 `json:"max_auto_bid,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

type AuctionResponse struct {
	AuctionID    string  `json:"auction_id"`
	ProductID    string  `json:"product_id"`
	SellerID     string  `json:"seller_id"`
	BasePrice    float64 `json:"base_price"`
	CurrentPrice float64 `json:"current_price"`
	BuyNowPrice  float64 `json:"buy_now_price,omitempty"`
	EntryFee     float64 `json:"entry_fee"`
	Status       string  `json:"status"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	WinnerID     string  `json:"winner_id,omitempty"`
	EndedBy      string  `json:"ended_by,omitempty"`
	BidCount     int     `json:"bid_count"`
	Participants int     `json:"participants"`
}

type SweepResponse struct {
	EndedCount int `json:"ended_count"`
}

// CurrentPriceData is attached to rejected-bid error responses so clients can
// immediately offer a corrected amount
type CurrentPriceData struct {
	CurrentPrice float64 `json:"current_price"`
}

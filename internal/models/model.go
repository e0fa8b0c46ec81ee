package models

import "time"

// AuctionStatus is the lifecycle state of an auction.
type AuctionStatus string

const (
	AuctionPending   AuctionStatus = "pending"
	AuctionActive    AuctionStatus = "active"
	AuctionCompleted AuctionStatus = "completed"
	AuctionCancelled AuctionStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s.
func (s AuctionStatus) Terminal() bool {
	return s == AuctionCompleted || s == AuctionCancelled
}

// User represents a participant in the auction platform
type User struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Auction represents one item under timed competitive bidding
type Auction struct {
	AuctionID    string        `json:"auction_id"`
	ProductID    string        `json:"product_id"`
	SellerID     string        `json:"seller_id"`
	BasePrice    float64       `json:"base_price"`
	CurrentPrice float64       `json:"current_price"`
	BuyNowPrice  float64       `json:"buy_now_price,omitempty"` // 0 means not offered
	EntryFee     float64       `json:"entry_fee"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	LastBidTime  time.Time     `json:"last_bid_time,omitempty"`
	Status       AuctionStatus `json:"status"`
	Bids         []string      `json:"bids"`         // bid ids, insertion order = chronological
	Participants []string      `json:"participants"` // user ids that joined after paying the entry fee
	WinnerID     string        `json:"winner_id,omitempty"`
	EndedBy      string        `json:"ended_by,omitempty"` // actor id or "system" for scheduler sweeps
	ChatRoomID   string        `json:"chat_room_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Bid represents one price commitment on an auction. Bids are immutable
// once created; the bid history is an append-only log.
type Bid struct {
	BidID      string    `json:"bid_id"`
	AuctionID  string    `json:"auction_id"`
	BidderID   string    `json:"bidder_id"`
	Amount     float64   `json:"amount"`
	IsAutoBid  bool      `json:"is_auto_bid"`
	MaxAutoBid float64   `json:"max_auto_bid,omitempty"` // ceiling, only meaningful when IsAutoBid
	CreatedAt  time.Time `json:"created_at"`
}

// AuctionSnapshot is a read-only view of the auction fields bid validation
// needs. Mutating it has no effect on the ledger.
type AuctionSnapshot struct {
	AuctionID    string
	Status       AuctionStatus
	CurrentPrice float64
	EntryFee     float64
	EndTime      time.Time
	Participants map[string]struct{}
}

// IsParticipant reports whether userID has joined the auction.
func (s AuctionSnapshot) IsParticipant(userID string) bool {
	_, ok := s.Participants[userID]
	return ok
}

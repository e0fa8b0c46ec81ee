// Package events fans out auction state changes to subscribers. Delivery is
// best-effort and at-most-once per event: a disconnected or slow subscriber
// misses events and reconciles with a full re-fetch on reconnect. Events for
// one auction are published from inside that auction's serialized section, so
// a given subscriber observes them in ledger commit order.
package events

import "time"

// Event types emitted by the bidding core
const (
	TypeNewBid     = "new_bid"
	TypeAuctionEnd = "auction_end"
)

// Event is one state-change notification on an auction topic
type Event struct {
	Topic     string    `json:"topic"` // auction id
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBidPayload is the payload of a new_bid event
type NewBidPayload struct {
	AuctionID string    `json:"auction_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    float64   `json:"amount"`
	IsAutoBid bool      `json:"is_auto_bid"`
	Timestamp time.Time `json:"timestamp"`
}

// AuctionEndPayload is the payload of an auction_end event. WinnerID is empty
// when the auction ended without bids.
type AuctionEndPayload struct {
	AuctionID  string  `json:"auction_id"`
	WinnerID   string  `json:"winner_id,omitempty"`
	FinalPrice float64 `json:"final_price"`
}

// Publisher is the outbound port of the event fanout. Implementations must
// never block the caller indefinitely: publishing happens inside the
// per-auction serialized section.
type Publisher interface {
	PublishEvent(topic, eventType string, payload any)
}

// MultiPublisher fans one event out to several publishers
type MultiPublisher []Publisher

// PublishEvent forwards the event to every wrapped publisher
func (m MultiPublisher) PublishEvent(topic, eventType string, payload any) {
	for _, p := range m {
		p.PublishEvent(topic, eventType, payload)
	}
}

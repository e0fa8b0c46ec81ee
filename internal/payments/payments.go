package payments

import (
	"fmt"
	"sync"
	"time"

	"ownit/internal/auctionerrors"
	"ownit/utils"
)

//go:generate mockgen -source=payments.go -destination=mock_payments.go -package=payments

// PaymentMethod tags how an entry fee was paid. Stripe payments refund
// through the payment intent; wallet payments refund by crediting the balance.
type PaymentMethod string

const (
	MethodStripe PaymentMethod = "stripe"
	MethodWallet PaymentMethod = "wallet"
)

// PaymentStatus is the state of one entry-fee payment
type PaymentStatus string

const (
	StatusPending  PaymentStatus = "pending"
	StatusPaid     PaymentStatus = "paid"
	StatusRefunded PaymentStatus = "refunded"
)

// EntryPayment is one (user, auction) entry-fee record
type EntryPayment struct {
	PaymentID string        `json:"payment_id"`
	UserID    string        `json:"user_id"`
	AuctionID string        `json:"auction_id"`
	Amount    float64       `json:"amount"`
	Status    PaymentStatus `json:"status"`
	Method    PaymentMethod `json:"method"`
	IntentID  string        `json:"intent_id,omitempty"` // stripe payment intent, empty for wallet
	CreatedAt time.Time     `json:"created_at"`
}

// Bank is the payment-collaborator surface the bidding core consumes. The
// core never mutates wallet balances itself; it reads the paid fact before a
// join and issues refunds during settlement. IssueRefund must be idempotent:
// settlement retries at the edges may call it twice on the same record.
type Bank interface {
	EntryFeeStatus(auctionID, userID string) bool
	PaidEntries(auctionID string) []EntryPayment
	IssueRefund(payment EntryPayment) error
}

// Notifier delivers fire-and-forget user notifications (outbid, won, started)
type Notifier interface {
	NotifyUser(userID, notifType string, payload map[string]any)
}

// WalletBank is an in-memory Bank holding wallet balances and entry-fee
// records for both payment methods
type WalletBank struct {
	mu       sync.Mutex
	balances map[string]float64                  // key: userID
	entries  map[string]map[string]*EntryPayment // key: auctionID -> userID
}

// NewWalletBank creates an empty WalletBank
func NewWalletBank() *WalletBank {
	return &WalletBank{
		balances: make(map[string]float64),
		entries:  make(map[string]map[string]*EntryPayment),
	}
}

// Credit adds funds to a user's wallet
func (b *WalletBank) Credit(userID string, amount float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[userID] += amount
}

// Balance returns a user's wallet balance
func (b *WalletBank) Balance(userID string) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[userID]
}

// PayEntryFeeFromWallet debits the user's wallet and records a paid entry
func (b *WalletBank) PayEntryFeeFromWallet(auctionID, userID string, amount float64) (EntryPayment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p := b.entry(auctionID, userID); p != nil && p.Status == StatusPaid {
		return EntryPayment{}, fmt.Errorf("pay entry fee for auction %s: already paid by %s", auctionID, userID)
	}
	if b.balances[userID] < amount {
		return EntryPayment{}, fmt.Errorf("pay entry fee for auction %s: insufficient wallet balance for %s", auctionID, userID)
	}
	b.balances[userID] -= amount

	payment := &EntryPayment{
		PaymentID: utils.GenerateID(),
		UserID:    userID,
		AuctionID: auctionID,
		Amount:    amount,
		Status:    StatusPaid,
		Method:    MethodWallet,
		CreatedAt: time.Now().UTC(),
	}
	b.put(payment)
	return *payment, nil
}

// RecordStripePayment records a paid entry backed by a stripe payment intent.
// The actual charge happens outside the bidding core.
func (b *WalletBank) RecordStripePayment(auctionID, userID, intentID string, amount float64) (EntryPayment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p := b.entry(auctionID, userID); p != nil && p.Status == StatusPaid {
		return EntryPayment{}, fmt.Errorf("record stripe payment for auction %s: already paid by %s", auctionID, userID)
	}

	payment := &EntryPayment{
		PaymentID: utils.GenerateID(),
		UserID:    userID,
		AuctionID: auctionID,
		Amount:    amount,
		Status:    StatusPaid,
		Method:    MethodStripe,
		IntentID:  intentID,
		CreatedAt: time.Now().UTC(),
	}
	b.put(payment)
	return *payment, nil
}

// EntryFeeStatus reports whether the user has a paid entry for the auction
func (b *WalletBank) EntryFeeStatus(auctionID, userID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.entry(auctionID, userID)
	return p != nil && p.Status == StatusPaid
}

// PaidEntries returns copies of all paid entry-fee records for an auction
func (b *WalletBank) PaidEntries(auctionID string) []EntryPayment {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []EntryPayment
	for _, p := range b.entries[auctionID] {
		if p.Status == StatusPaid {
			out = append(out, *p)
		}
	}
	return out
}

// IssueRefund refunds one entry-fee payment. Wallet payments credit the
// balance back; stripe payments are resolved through the stored intent.
// Calling it again on an already refunded record is a no-op.
func (b *WalletBank) IssueRefund(payment EntryPayment) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.entry(payment.AuctionID, payment.UserID)
	if p == nil {
		return fmt.Errorf("refund for auction %s user %s: no payment record: %w",
			payment.AuctionID, payment.UserID, auctionerrors.ErrRefundFailed)
	}
	if p.Status == StatusRefunded {
		return nil
	}
	if p.Status != StatusPaid {
		return fmt.Errorf("refund for auction %s user %s (status %s): %w",
			payment.AuctionID, payment.UserID, p.Status, auctionerrors.ErrRefundFailed)
	}

	switch p.Method {
	case MethodWallet:
		b.balances[p.UserID] += p.Amount
	case MethodStripe:
		if p.IntentID == "" {
			return fmt.Errorf("refund for auction %s user %s: missing payment intent: %w",
				p.AuctionID, p.UserID, auctionerrors.ErrRefundFailed)
		}
		// The gateway call itself lives outside the core; the stored intent id
		// is what a real gateway refund needs.
	}
	p.Status = StatusRefunded
	return nil
}

func (b *WalletBank) entry(auctionID, userID string) *EntryPayment {
	if m, ok := b.entries[auctionID]; ok {
		return m[userID]
	}
	return nil
}

func (b *WalletBank) put(p *EntryPayment) {
	if b.entries[p.AuctionID] == nil {
		b.entries[p.AuctionID] = make(map[string]*EntryPayment)
	}
	b.entries[p.AuctionID][p.UserID] = p
}

// LogNotifier is a Notifier that only logs. It stands in for the notification
// subsystem, which is outside the bidding core.
type LogNotifier struct{}

// NotifyUser logs the notification at info level
func (LogNotifier) NotifyUser(userID, notifType string, payload map[string]any) {
	fields := map[string]any{"user_id": userID, "type": notifType}
	for k, v := range payload {
		fields[k] = v
	}
	utils.Info("notification dispatched", fields)
}

package payments

import (
	"testing"

	"ownit/internal/auctionerrors"

	"github.com/stretchr/testify/require"
)

func TestWalletBank_PayEntryFeeFromWallet(t *testing.T) {
	t.Parallel()

	bank := NewWalletBank()
	bank.Credit("user1", 30)

	payment, err := bank.PayEntryFeeFromWallet("auction1", "user1", 10)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, payment.Status)
	require.Equal(t, MethodWallet, payment.Method)
	require.Equal(t, 20.0, bank.Balance("user1"))
	require.True(t, bank.EntryFeeStatus("auction1", "user1"))

	// Paying twice for the same auction is refused.
	_, err = bank.PayEntryFeeFromWallet("auction1", "user1", 10)
	require.Error(t, err)

	// Insufficient balance.
	_, err = bank.PayEntryFeeFromWallet("auction2", "user1", 50)
	require.Error(t, err)
	require.Equal(t, 20.0, bank.Balance("user1"))
}

func TestWalletBank_RecordStripePayment(t *testing.T) {
	t.Parallel()

	bank := NewWalletBank()

	payment, err := bank.RecordStripePayment("auction1", "user1", "pi_123", 10)
	require.NoError(t, err)
	require.Equal(t, MethodStripe, payment.Method)
	require.Equal(t, "pi_123", payment.IntentID)
	require.True(t, bank.EntryFeeStatus("auction1", "user1"))

	_, err = bank.RecordStripePayment("auction1", "user1", "pi_456", 10)
	require.Error(t, err)
}

func TestWalletBank_IssueRefund(t *testing.T) {
	t.Parallel()

	bank := NewWalletBank()
	bank.Credit("user1", 10)

	payment, err := bank.PayEntryFeeFromWallet("auction1", "user1", 10)
	require.NoError(t, err)
	require.Equal(t, 0.0, bank.Balance("user1"))

	require.NoError(t, bank.IssueRefund(payment))
	require.Equal(t, 10.0, bank.Balance("user1"))
	require.False(t, bank.EntryFeeStatus("auction1", "user1"))

	// Refunding again is a no-op, not a double credit.
	require.NoError(t, bank.IssueRefund(payment))
	require.Equal(t, 10.0, bank.Balance("user1"))
}

func TestWalletBank_IssueRefund_StripeRequiresIntent(t *testing.T) {
	t.Parallel()

	bank := NewWalletBank()

	payment, err := bank.RecordStripePayment("auction1", "user1", "pi_123", 10)
	require.NoError(t, err)
	require.NoError(t, bank.IssueRefund(payment))

	// No record at all.
	err = bank.IssueRefund(EntryPayment{AuctionID: "auction9", UserID: "ghost"})
	require.ErrorIs(t, err, auctionerrors.ErrRefundFailed)
}

func TestWalletBank_PaidEntries(t *testing.T) {
	t.Parallel()

	bank := NewWalletBank()
	bank.Credit("user1", 10)
	bank.Credit("user2", 10)

	p1, err := bank.PayEntryFeeFromWallet("auction1", "user1", 10)
	require.NoError(t, err)
	_, err = bank.PayEntryFeeFromWallet("auction1", "user2", 10)
	require.NoError(t, err)

	require.Len(t, bank.PaidEntries("auction1"), 2)

	require.NoError(t, bank.IssueRefund(p1))
	entries := bank.PaidEntries("auction1")
	require.Len(t, entries, 1)
	require.Equal(t, "user2", entries[0].UserID)
}

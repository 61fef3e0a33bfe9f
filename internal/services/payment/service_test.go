package payment

import (
	"context"
	"testing"

	"catalyst/internal/models"
	"catalyst/internal/repositories/repotest"
	"catalyst/internal/services/fees"
	"catalyst/internal/services/ledger"
	"catalyst/internal/services/notification"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type stubGateway struct {
	result *GatewayResult
	err    error
}

func (g *stubGateway) Charge(_ context.Context, in ChargeInput) (*GatewayResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	r := *g.result
	r.Gross = in.Amount
	r.Channel = in.Channel
	return &r, nil
}

func newService(store *repotest.Store, gw Gateway) Service {
	return NewService(store, ledger.NewService(store), fees.NewCalculator(), gw)
}

func TestRecordGatewayResult_CardCreditsNet(t *testing.T) {
	store := repotest.New()
	svc := newService(store, nil)
	user := store.SeedUser(models.User{
		Email: "a@example.com", Username: "alice", Password: "x",
		IsFreeUser: true,
	})

	entry, err := svc.RecordGatewayResult(GatewayResult{
		UserID:        user.ID,
		Gross:         dec("100.00"),
		Channel:       models.ChannelCard,
		ExternalTxnID: "pi_100",
		Succeeded:     true,
	})
	require.NoError(t, err)
	assert.True(t, entry.NewValue.Equal(dec("92.50")), "2.2%%+30c processing plus 5%% platform fee off the gross")
	assert.Equal(t, "pi_100", entry.Reference)

	after, err := store.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.True(t, after.AccountBalance.Equal(dec("92.50")))
	assert.True(t, after.IsActive)
	assert.False(t, after.IsFreeUser)

	mails := store.OutboxMessages()
	require.Len(t, mails, 1)
	assert.Equal(t, notification.KindWalletCredit, mails[0].Kind)
}

func TestRecordGatewayResult_BankFeeCap(t *testing.T) {
	store := repotest.New()
	svc := newService(store, nil)
	user := store.SeedUser(models.User{Email: "a@example.com", Username: "alice", Password: "x"})

	entry, err := svc.RecordGatewayResult(GatewayResult{
		UserID:        user.ID,
		Gross:         dec("1000.00"),
		Channel:       models.ChannelBank,
		ExternalTxnID: "pi_1000",
		Succeeded:     true,
	})
	require.NoError(t, err)
	assert.True(t, entry.NewValue.Equal(dec("945.00")), "ACH fee capped at $5")
}

func TestRecordGatewayResult_FailureWritesAuditOnly(t *testing.T) {
	store := repotest.New()
	svc := newService(store, nil)
	user := store.SeedUser(models.User{
		Email: "a@example.com", Username: "alice", Password: "x",
		AccountBalance: dec("10.00"),
	})

	entry, err := svc.RecordGatewayResult(GatewayResult{
		UserID:        user.ID,
		Gross:         dec("50.00"),
		Channel:       models.ChannelCard,
		ExternalTxnID: "pi_declined",
		Succeeded:     false,
		FailureReason: "card_declined",
	})
	require.NoError(t, err)
	assert.Nil(t, entry)

	after, _ := store.GetUserByID(user.ID)
	assert.True(t, after.AccountBalance.Equal(dec("10.00")), "failed charges never touch the wallet")

	fp, err := store.GetFailedPaymentByExternalID("pi_declined")
	require.NoError(t, err)
	assert.Equal(t, "card_declined", fp.FailureReason)

	// Webhook retries of the same failed charge are rejected.
	_, err = svc.RecordGatewayResult(GatewayResult{
		UserID: user.ID, Gross: dec("50.00"), Channel: models.ChannelCard,
		ExternalTxnID: "pi_declined", Succeeded: false,
	})
	assert.ErrorIs(t, err, ErrDuplicateTransaction)
}

func TestRecordGatewayResult_Validation(t *testing.T) {
	svc := newService(repotest.New(), nil)

	_, err := svc.RecordGatewayResult(GatewayResult{Gross: decimal.Zero, Channel: models.ChannelCard, ExternalTxnID: "x"})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RecordGatewayResult(GatewayResult{Gross: dec("10.00"), Channel: "paypal", ExternalTxnID: "x"})
	assert.ErrorIs(t, err, ErrUnknownChannel)

	_, err = svc.RecordGatewayResult(GatewayResult{Gross: dec("10.00"), Channel: models.ChannelCard})
	assert.ErrorIs(t, err, ErrMissingTransactionID)

	_, err = svc.RecordGatewayResult(GatewayResult{
		UserID: 404, Gross: dec("10.00"), Channel: models.ChannelCard,
		ExternalTxnID: "pi_nouser", Succeeded: true,
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCharge_DeclinedSurfacesError(t *testing.T) {
	store := repotest.New()
	gw := &stubGateway{result: &GatewayResult{
		ExternalTxnID: "pi_declined",
		Succeeded:     false,
		FailureReason: "insufficient_funds",
	}}
	svc := newService(store, gw)
	user := store.SeedUser(models.User{Email: "a@example.com", Username: "alice", Password: "x"})

	_, err := svc.Charge(context.Background(), ChargeInput{
		UserID: user.ID, Amount: dec("25.00"), Channel: models.ChannelCard,
	})
	assert.ErrorIs(t, err, ErrPaymentDeclined)

	fp, err := store.GetFailedPaymentByExternalID("pi_declined")
	require.NoError(t, err)
	assert.Equal(t, "insufficient_funds", fp.FailureReason)
}

func TestCharge_SucceededCredits(t *testing.T) {
	store := repotest.New()
	gw := &stubGateway{result: &GatewayResult{ExternalTxnID: "pi_ok", Succeeded: true}}
	svc := newService(store, gw)
	user := store.SeedUser(models.User{Email: "a@example.com", Username: "alice", Password: "x"})

	entry, err := svc.Charge(context.Background(), ChargeInput{
		UserID: user.ID, Amount: dec("100.00"), Channel: models.ChannelBank,
	})
	require.NoError(t, err)
	assert.True(t, entry.NewValue.Equal(dec("94.20")))
}

package user

import (
	"testing"

	"catalyst/internal/models"
	"catalyst/internal/repositories/repotest"
	"catalyst/internal/services/ledger"
	"catalyst/internal/services/notification"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newFixture(t *testing.T) (*repotest.Store, Service) {
	t.Helper()
	store := repotest.New()
	return store, NewService(store, ledger.NewService(store), nil)
}

func TestRegister(t *testing.T) {
	store, svc := newFixture(t)

	u, err := svc.Register(RegisterInput{
		Email: "a@example.com", Username: "alice", Password: "hunter2hunter2",
		FirstName: "Alice", LastName: "Adams",
	})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "hunter2hunter2", u.Password, "password must be stored hashed")

	_, err = svc.Register(RegisterInput{Email: "a@example.com", Username: "other", Password: "hunter2hunter2"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(RegisterInput{Email: "b@example.com", Username: "alice", Password: "hunter2hunter2"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	msgs := store.OutboxMessages()
	require.NotEmpty(t, msgs)
	assert.Equal(t, notification.KindWelcome, msgs[0].Kind)
}

func TestRegister_Validation(t *testing.T) {
	_, svc := newFixture(t)

	_, err := svc.Register(RegisterInput{Email: "", Username: "x", Password: "hunter2hunter2"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(RegisterInput{Email: "a@example.com", Username: "x", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProvisionAnonymous_UniqueUsername(t *testing.T) {
	store, svc := newFixture(t)
	store.SeedUser(models.User{Email: "taken@example.com", Username: "donor", Password: "x"})

	u, err := svc.ProvisionAnonymousWithin(store, "donor@fund.org", "Anon", "Donor")
	require.NoError(t, err)

	assert.True(t, u.IsFreeUser)
	assert.True(t, u.IsAnonymousInvestor)
	assert.NotEqual(t, "donor", u.Username, "must not collide with the existing username")
	assert.Contains(t, u.Username, "donor")
}

func TestAdminAdjustBalance(t *testing.T) {
	store, svc := newFixture(t)
	u := store.SeedUser(models.User{Email: "a@example.com", Username: "alice", Password: "x"})

	entry, err := svc.AdminAdjustBalance(AdjustBalanceInput{
		UserID: u.ID, Amount: dec("75.00"), AdminUsername: "root", Reference: "txn-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Manually, root", entry.PaymentType)
	assert.Equal(t, "txn-1", entry.Reference)

	updated, _ := store.GetUserByID(u.ID)
	assert.True(t, updated.AccountBalance.Equal(dec("75.00")))
	assert.True(t, updated.IsActive, "manual credit activates the account")

	var creditMails int
	for _, m := range store.OutboxMessages() {
		if m.Kind == notification.KindWalletCredit {
			creditMails++
		}
	}
	assert.Equal(t, 1, creditMails)
}

func TestAdminAdjustBalance_DebitGuard(t *testing.T) {
	store, svc := newFixture(t)
	u := store.SeedUser(models.User{
		Email: "a@example.com", Username: "alice", Password: "x",
		AccountBalance: dec("10.00"),
	})

	_, err := svc.AdminAdjustBalance(AdjustBalanceInput{
		UserID: u.ID, Amount: dec("-20.00"), AdminUsername: "root",
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// The same debit with the explicit override goes through.
	_, err = svc.AdminAdjustBalance(AdjustBalanceInput{
		UserID: u.ID, Amount: dec("-20.00"), AdminUsername: "root", AllowNegative: true,
	})
	require.NoError(t, err)
	updated, _ := store.GetUserByID(u.ID)
	assert.True(t, updated.AccountBalance.Equal(dec("-10.00")))
}

func TestAllocateGroupBalance(t *testing.T) {
	store, svc := newFixture(t)
	u := store.SeedUser(models.User{Email: "a@example.com", Username: "alice", Password: "x"})
	g := store.SeedGroup(models.Group{Name: "Pool", OriginalBalance: dec("100.00")})

	entry, err := svc.AllocateGroupBalance(GroupAllocationInput{
		UserID: u.ID, GroupID: g.ID, Amount: dec("60.00"), AdminUsername: "root",
	})
	require.NoError(t, err)
	require.NotNil(t, entry.GroupID)
	assert.Equal(t, g.ID, *entry.GroupID)

	gb, err := store.GetGroupBalanceForUpdate(u.ID, g.ID)
	require.NoError(t, err)
	assert.True(t, gb.Balance.Equal(dec("60.00")))

	updated, _ := store.GetUserByID(u.ID)
	assert.True(t, updated.IsActive)
}

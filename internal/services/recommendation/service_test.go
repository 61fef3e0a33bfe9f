package recommendation

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
	return store, NewService(store, ledger.NewService(store))
}

func TestAllocate_PersonalWallet(t *testing.T) {
	store, svc := newFixture(t)
	user := store.SeedUser(models.User{
		Email: "a@example.com", Username: "alice", Password: "x",
		AccountBalance: dec("200.00"), IsActive: true,
	})
	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm", ContactEmail: "owner@example.com"})

	result, err := svc.Allocate(AllocateInput{
		UserID:     user.ID,
		CampaignID: campaign.ID,
		Amount:     dec("150.00"),
	})
	require.NoError(t, err)

	assert.True(t, result.AppliedAmount.Equal(dec("150.00")))
	assert.True(t, result.CampaignNewTotal.Equal(dec("150.00")))

	updated, _ := store.GetUserByID(user.ID)
	assert.True(t, updated.AccountBalance.Equal(dec("50.00")))

	rec, err := svc.Get(result.RecommendationID)
	require.NoError(t, err)
	assert.Equal(t, models.RecommendationPending, rec.Status)
	assert.Equal(t, "a@example.com", rec.UserEmail)

	entries, _ := store.AllLedgerEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Solar Farm", entries[0].InvestmentName)
	assert.True(t, entries[0].Delta().Equal(dec("-150.00")))
}

func TestAllocate_ClampsToWallet(t *testing.T) {
	store, svc := newFixture(t)
	user := store.SeedUser(models.User{
		Email: "a@example.com", Username: "alice", Password: "x",
		AccountBalance: dec("80.00"),
	})
	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm"})

	result, err := svc.Allocate(AllocateInput{
		UserID: user.ID, CampaignID: campaign.ID, Amount: dec("100.00"),
	})
	require.NoError(t, err)

	assert.True(t, result.RequestedAmount.Equal(dec("100.00")))
	assert.True(t, result.AppliedAmount.Equal(dec("80.00")))

	updated, _ := store.GetUserByID(user.ID)
	assert.True(t, updated.AccountBalance.IsZero())
}

func TestAllocate_GroupPoolOrdering(t *testing.T) {
	store, svc := newFixture(t)
	user := store.SeedUser(models.User{Email: "a@example.com", Username: "alice", Password: "x"})
	groupA := store.SeedGroup(models.Group{Name: "A", OriginalBalance: dec("100.00")})
	groupB := store.SeedGroup(models.Group{Name: "B", OriginalBalance: dec("100.00")})
	store.SeedGroupBalance(models.GroupAccountBalance{UserID: user.ID, GroupID: groupA.ID, Balance: dec("30.00")})
	store.SeedGroupBalance(models.GroupAccountBalance{UserID: user.ID, GroupID: groupB.ID, Balance: dec("50.00")})
	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm"})

	result, err := svc.Allocate(AllocateInput{
		UserID:           user.ID,
		CampaignID:       campaign.ID,
		Amount:           dec("40.00"),
		UseGroupBalances: true,
	})
	require.NoError(t, err)
	assert.True(t, result.AppliedAmount.Equal(dec("40.00")))

	// Pool A (created first) is drained fully, pool B covers the rest.
	entries, _ := store.AllLedgerEntries()
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].GroupID)
	assert.Equal(t, groupA.ID, *entries[0].GroupID)
	assert.True(t, entries[0].Delta().Equal(dec("-30.00")))
	require.NotNil(t, entries[1].GroupID)
	assert.Equal(t, groupB.ID, *entries[1].GroupID)
	assert.True(t, entries[1].Delta().Equal(dec("-10.00")))

	gbA, _ := store.GetGroupBalanceForUpdate(user.ID, groupA.ID)
	assert.True(t, gbA.Balance.IsZero())
	gbB, _ := store.GetGroupBalanceForUpdate(user.ID, groupB.ID)
	assert.True(t, gbB.Balance.Equal(dec("40.00")))
}

func TestAllocate_GroupShortfallReducesAmount(t *testing.T) {
	store, svc := newFixture(t)
	user := store.SeedUser(models.User{
		Email: "a@example.com", Username: "alice", Password: "x",
		AccountBalance: dec("5.00"),
	})
	group := store.SeedGroup(models.Group{Name: "A", OriginalBalance: dec("100.00")})
	store.SeedGroupBalance(models.GroupAccountBalance{UserID: user.ID, GroupID: group.ID, Balance: dec("20.00")})
	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm"})

	result, err := svc.Allocate(AllocateInput{
		UserID:           user.ID,
		CampaignID:       campaign.ID,
		Amount:           dec("100.00"),
		UseGroupBalances: true,
	})
	require.NoError(t, err)

	// 20 from the pool, 5 from the wallet; the recommendation records only
	// what actually moved.
	assert.True(t, result.AppliedAmount.Equal(dec("25.00")))
	rec, _ := svc.Get(result.RecommendationID)
	assert.True(t, rec.Amount.Equal(dec("25.00")))

	updated, _ := store.GetUserByID(user.ID)
	assert.True(t, updated.AccountBalance.IsZero())
}

func TestAllocate_NoFundsAtAll(t *testing.T) {
	store, svc := newFixture(t)
	user := store.SeedUser(models.User{Email: "a@example.com", Username: "alice", Password: "x"})
	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm"})

	_, err := svc.Allocate(AllocateInput{
		UserID: user.ID, CampaignID: campaign.ID, Amount: dec("10.00"),
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	recs, _ := store.AllRecommendations()
	assert.Empty(t, recs, "no recommendation may be recorded without funds moving")
}

func TestAllocate_InvalidAmount(t *testing.T) {
	store, svc := newFixture(t)
	user := store.SeedUser(models.User{Email: "a@example.com", Username: "alice", Password: "x"})
	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm"})

	_, err := svc.Allocate(AllocateInput{UserID: user.ID, CampaignID: campaign.ID, Amount: decimal.Zero})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestReject_ReversesToPersonalWallet(t *testing.T) {
	store, svc := newFixture(t)
	user := store.SeedUser(models.User{Email: "a@example.com", Username: "alice", Password: "x"})
	group := store.SeedGroup(models.Group{Name: "A", OriginalBalance: dec("100.00")})
	store.SeedGroupBalance(models.GroupAccountBalance{UserID: user.ID, GroupID: group.ID, Balance: dec("40.00")})
	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm"})
	admin := store.SeedUser(models.User{Email: "root@example.com", Username: "admin", Password: "x", Role: "admin"})

	result, err := svc.Allocate(AllocateInput{
		UserID: user.ID, CampaignID: campaign.ID, Amount: dec("40.00"), UseGroupBalances: true,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Reject(result.RecommendationID, admin.ID, "duplicate"))

	// Reversal lands on the personal wallet, not back in the pool.
	updated, _ := store.GetUserByID(user.ID)
	assert.True(t, updated.AccountBalance.Equal(dec("40.00")))
	gb, _ := store.GetGroupBalanceForUpdate(user.ID, group.ID)
	assert.True(t, gb.Balance.IsZero())

	rec, _ := svc.Get(result.RecommendationID)
	assert.Equal(t, models.RecommendationRejected, rec.Status)
	assert.Equal(t, "duplicate", rec.RejectionMemo)
	require.NotNil(t, rec.RejectedByID)
	assert.Equal(t, admin.ID, *rec.RejectedByID)
}

func TestReject_TwiceIsStateConflict(t *testing.T) {
	store, svc := newFixture(t)
	user := store.SeedUser(models.User{
		Email: "a@example.com", Username: "alice", Password: "x",
		AccountBalance: dec("50.00"),
	})
	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm"})
	admin := store.SeedUser(models.User{Email: "root@example.com", Username: "admin", Password: "x"})

	result, err := svc.Allocate(AllocateInput{UserID: user.ID, CampaignID: campaign.ID, Amount: dec("50.00")})
	require.NoError(t, err)

	require.NoError(t, svc.Reject(result.RecommendationID, admin.ID, ""))
	err = svc.Reject(result.RecommendationID, admin.ID, "")
	assert.ErrorIs(t, err, ErrStateConflict)

	// No double credit.
	updated, _ := store.GetUserByID(user.ID)
	assert.True(t, updated.AccountBalance.Equal(dec("50.00")))
}

func TestCampaignTotalIsDerived(t *testing.T) {
	store, svc := newFixture(t)
	user := store.SeedUser(models.User{
		Email: "a@example.com", Username: "alice", Password: "x",
		AccountBalance: dec("100.00"),
	})
	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm"})
	admin := store.SeedUser(models.User{Email: "root@example.com", Username: "admin", Password: "x"})

	before, _, err := store.CampaignTotals(campaign.ID)
	require.NoError(t, err)

	result, err := svc.Allocate(AllocateInput{UserID: user.ID, CampaignID: campaign.ID, Amount: dec("60.00")})
	require.NoError(t, err)
	assert.True(t, result.CampaignNewTotal.Equal(dec("60.00")))

	require.NoError(t, svc.Reject(result.RecommendationID, admin.ID, ""))

	after, _, err := store.CampaignTotals(campaign.ID)
	require.NoError(t, err)
	assert.True(t, after.Equal(before), "rejecting must return the derived total to its prior value")
}

func TestAllocate_EmailSideEffects(t *testing.T) {
	store, svc := newFixture(t)
	user := store.SeedUser(models.User{
		Email: "a@example.com", Username: "alice", Password: "x",
		AccountBalance: dec("100.00"), IsActive: true,
	})
	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm", ContactEmail: "owner@example.com"})

	_, err := svc.Allocate(AllocateInput{UserID: user.ID, CampaignID: campaign.ID, Amount: dec("10.00")})
	require.NoError(t, err)

	kinds := map[string]int{}
	for _, msg := range store.OutboxMessages() {
		kinds[msg.Kind]++
	}
	assert.Equal(t, 1, kinds[notification.KindDonationReceipt])
	assert.Equal(t, 1, kinds[notification.KindCampaignUpdate])
}

func TestAllocate_FollowNotifications(t *testing.T) {
	store, svc := newFixture(t)
	donor := store.SeedUser(models.User{
		Email: "a@example.com", Username: "alice", Password: "x",
		FirstName: "Alice", LastName: "Adams",
		AccountBalance: dec("100.00"), IsActive: true,
	})
	follower := store.SeedUser(models.User{
		Email: "b@example.com", Username: "bob", Password: "x", IsActive: true,
	})
	pendingFollower := store.SeedUser(models.User{
		Email: "c@example.com", Username: "carol", Password: "x", IsActive: true,
	})
	lead := store.SeedUser(models.User{
		Email: "d@example.com", Username: "dave", Password: "x", IsActive: true,
	})
	quietFollowee := store.SeedUser(models.User{
		Email: "e@example.com", Username: "eve", Password: "x", IsActive: true,
	})
	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm"})

	// Bob's follow of the donor is accepted; Carol's is still pending.
	store.SeedFollow(follower.ID, donor.ID)
	require.NoError(t, store.CreateFollowRequest(&models.FollowRequest{
		RequesterID: pendingFollower.ID, FolloweeID: donor.ID,
	}))

	// The donor follows Dave and Eve. Only Dave already backed the campaign.
	store.SeedFollow(donor.ID, lead.ID)
	store.SeedFollow(donor.ID, quietFollowee.ID)
	require.NoError(t, store.CreateRecommendation(&models.Recommendation{
		UserID: lead.ID, UserEmail: lead.Email, CampaignID: campaign.ID,
		Amount: dec("50.00"), Status: models.RecommendationApproved,
	}))

	_, err := svc.Allocate(AllocateInput{UserID: donor.ID, CampaignID: campaign.ID, Amount: dec("10.00")})
	require.NoError(t, err)

	byKind := map[string][]string{}
	for _, msg := range store.OutboxMessages() {
		byKind[msg.Kind] = append(byKind[msg.Kind], msg.Recipient)
	}
	assert.Equal(t, []string{"b@example.com"}, byKind[notification.KindFollowerInvested],
		"only accepted followers are told")
	assert.Equal(t, []string{"d@example.com"}, byKind[notification.KindFollowedLead],
		"only followed users who backed the same campaign are told")

	for _, msg := range store.OutboxMessages() {
		if msg.Kind == notification.KindFollowerInvested {
			assert.Contains(t, msg.Subject, "Alice Adams")
		}
	}
}

func TestAllocate_AnonymousDonorHiddenInFanOut(t *testing.T) {
	store, svc := newFixture(t)
	donor := store.SeedUser(models.User{
		Email: "a@example.com", Username: "alice", Password: "x",
		FirstName: "Alice", LastName: "Adams",
		AccountBalance: dec("100.00"), IsActive: true, IsAnonymousInvestor: true,
	})
	follower := store.SeedUser(models.User{
		Email: "b@example.com", Username: "bob", Password: "x", IsActive: true,
	})
	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm"})
	store.SeedFollow(follower.ID, donor.ID)

	_, err := svc.Allocate(AllocateInput{UserID: donor.ID, CampaignID: campaign.ID, Amount: dec("10.00")})
	require.NoError(t, err)

	var found bool
	for _, msg := range store.OutboxMessages() {
		if msg.Kind == notification.KindFollowerInvested {
			found = true
			assert.NotContains(t, msg.Subject, "Alice")
			assert.Contains(t, msg.Subject, "Someone")
		}
	}
	assert.True(t, found)
}

func TestAllocate_GrantLinkedSuppressesReceipt(t *testing.T) {
	store, svc := newFixture(t)
	user := store.SeedUser(models.User{
		Email: "a@example.com", Username: "alice", Password: "x",
		AccountBalance: dec("100.00"),
	})
	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm"})

	grantID := uint(7)
	result, err := svc.Allocate(AllocateInput{
		UserID: user.ID, CampaignID: campaign.ID, Amount: dec("10.00"), GrantID: &grantID,
	})
	require.NoError(t, err)

	rec, _ := svc.Get(result.RecommendationID)
	require.NotNil(t, rec.PendingGrantID)
	assert.Equal(t, grantID, *rec.PendingGrantID)

	for _, msg := range store.OutboxMessages() {
		assert.NotEqual(t, notification.KindDonationReceipt, msg.Kind)
	}
}

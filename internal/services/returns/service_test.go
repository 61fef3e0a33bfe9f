package returns

import (
	"testing"

	"catalyst/internal/models"
	"catalyst/internal/repositories/repotest"
	"catalyst/internal/services/ledger"
	"catalyst/internal/services/notification"
	"catalyst/internal/services/recommendation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedApprovedInvestment(t *testing.T, store *repotest.Store, recSvc recommendation.Service, email, username, amount string, campaignID uint) *models.User {
	t.Helper()
	u := store.SeedUser(models.User{
		Email: email, Username: username, Password: "x",
		AccountBalance: dec(amount), IsActive: true,
	})
	result, err := recSvc.Allocate(recommendation.AllocateInput{
		UserID: u.ID, CampaignID: campaignID, Amount: dec(amount),
	})
	require.NoError(t, err)
	require.NoError(t, recSvc.Approve(result.RecommendationID))
	return u
}

func TestDistribute_ProRata(t *testing.T) {
	store := repotest.New()
	ledgerSvc := ledger.NewService(store)
	recSvc := recommendation.NewService(store, ledgerSvc)
	svc := NewService(store, ledgerSvc)

	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm"})
	alice := seedApprovedInvestment(t, store, recSvc, "a@example.com", "alice", "300.00", campaign.ID)
	bob := seedApprovedInvestment(t, store, recSvc, "b@example.com", "bob", "700.00", campaign.ID)

	master, err := svc.Distribute(DistributeInput{
		CampaignID:  campaign.ID,
		GrossReturn: dec("100.00"),
		MemoNote:    "Q2 distribution",
		CreatedByID: 99,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, master.TotalInvestors)
	assert.True(t, master.TotalInvestmentAmount.Equal(dec("1000.00")))

	history, total, err := svc.History(&campaign.ID, 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, history[0].Details, 2)

	byUser := map[uint]models.ReturnDetail{}
	for _, d := range history[0].Details {
		byUser[d.UserID] = d
	}
	assert.True(t, byUser[alice.ID].ReturnAmount.Equal(dec("30.00")))
	assert.True(t, byUser[alice.ID].PercentageOfTotalInvestment.Equal(dec("30.00")))
	assert.True(t, byUser[bob.ID].ReturnAmount.Equal(dec("70.00")))
	assert.True(t, byUser[bob.ID].PercentageOfTotalInvestment.Equal(dec("70.00")))

	// Payouts land on the wallets (which were emptied by the allocations).
	aliceNow, _ := store.GetUserByID(alice.ID)
	assert.True(t, aliceNow.AccountBalance.Equal(dec("30.00")))
	bobNow, _ := store.GetUserByID(bob.ID)
	assert.True(t, bobNow.AccountBalance.Equal(dec("70.00")))

	var payoutMails int
	for _, m := range store.OutboxMessages() {
		if m.Kind == notification.KindReturnPayout {
			payoutMails++
		}
	}
	assert.Equal(t, 2, payoutMails)
}

func TestDistribute_SkipsInactiveAndUnapproved(t *testing.T) {
	store := repotest.New()
	ledgerSvc := ledger.NewService(store)
	recSvc := recommendation.NewService(store, ledgerSvc)
	svc := NewService(store, ledgerSvc)

	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm"})
	active := seedApprovedInvestment(t, store, recSvc, "a@example.com", "alice", "100.00", campaign.ID)

	// Approved investment from a user who has since been deactivated.
	dormant := store.SeedUser(models.User{
		Email: "d@example.com", Username: "dormant", Password: "x",
		AccountBalance: dec("100.00"), IsActive: true,
	})
	result, err := recSvc.Allocate(recommendation.AllocateInput{
		UserID: dormant.ID, CampaignID: campaign.ID, Amount: dec("100.00"),
	})
	require.NoError(t, err)
	require.NoError(t, recSvc.Approve(result.RecommendationID))
	deactivated, _ := store.GetUserByID(dormant.ID)
	deactivated.IsActive = false
	require.NoError(t, store.SaveUser(deactivated))

	// Pending (never approved) investment from an active user.
	pending := store.SeedUser(models.User{
		Email: "p@example.com", Username: "pend", Password: "x",
		AccountBalance: dec("100.00"), IsActive: true,
	})
	_, err = recSvc.Allocate(recommendation.AllocateInput{
		UserID: pending.ID, CampaignID: campaign.ID, Amount: dec("100.00"),
	})
	require.NoError(t, err)

	master, err := svc.Distribute(DistributeInput{
		CampaignID: campaign.ID, GrossReturn: dec("50.00"), CreatedByID: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, master.TotalInvestors)
	activeNow, _ := store.GetUserByID(active.ID)
	assert.True(t, activeNow.AccountBalance.Equal(dec("50.00")), "sole eligible investor takes the whole return")
}

func TestDistribute_Validation(t *testing.T) {
	store := repotest.New()
	svc := NewService(store, ledger.NewService(store))

	_, err := svc.Distribute(DistributeInput{CampaignID: 1, GrossReturn: decimal.Zero})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	campaign := store.SeedCampaign(models.Campaign{Name: "Empty"})
	_, err = svc.Distribute(DistributeInput{CampaignID: campaign.ID, GrossReturn: dec("10.00")})
	assert.ErrorIs(t, err, ErrNoInvestors)

	_, err = svc.Distribute(DistributeInput{CampaignID: campaign.ID + 100, GrossReturn: dec("10.00")})
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

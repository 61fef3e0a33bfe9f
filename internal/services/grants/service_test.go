package grants

import (
	"testing"

	"catalyst/internal/models"
	"catalyst/internal/repositories/repotest"
	"catalyst/internal/services/fees"
	"catalyst/internal/services/ledger"
	"catalyst/internal/services/notification"
	"catalyst/internal/services/recommendation"
	"catalyst/internal/services/user"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newFixture(t *testing.T) (*repotest.Store, Service) {
	t.Helper()
	store := repotest.New()
	ledgerSvc := ledger.NewService(store)
	recSvc := recommendation.NewService(store, ledgerSvc)
	userSvc := user.NewService(store, ledgerSvc, nil)
	svc := NewService(store, ledgerSvc, recSvc, fees.NewCalculator(), userSvc, "ops@example.com")
	return store, svc
}

func TestCreate_ProvisionsAnonymousDonor(t *testing.T) {
	store, svc := newFixture(t)

	grant, err := svc.Create(CreateInput{
		Email:       "donor@fund.org",
		FirstName:   "Dana",
		Amount:      dec("500.00"),
		DAFProvider: "SomeDAF",
	})
	require.NoError(t, err)

	assert.Equal(t, models.GrantPending, grant.Status)
	assert.True(t, grant.AmountAfterFees.Equal(dec("475.00")), "5%% platform fee on the gross")
	assert.True(t, grant.InvestedSum.Equal(dec("475.00")), "defaults to the net credit")

	donor, err := store.GetUserByEmail("donor@fund.org")
	require.NoError(t, err)
	assert.True(t, donor.IsFreeUser)
	assert.True(t, donor.AccountBalance.IsZero(), "no credit before transit")

	kinds := map[string]int{}
	for _, m := range store.OutboxMessages() {
		kinds[m.Kind]++
	}
	assert.Equal(t, 1, kinds[notification.KindWelcome])
	assert.Equal(t, 1, kinds[notification.KindGrantInstr])
	assert.Equal(t, 1, kinds[notification.KindGrantAdminAlert])
}

func TestCreate_Validation(t *testing.T) {
	_, svc := newFixture(t)

	_, err := svc.Create(CreateInput{Email: "d@x.org", Amount: decimal.Zero})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Create(CreateInput{Amount: dec("10.00")})
	assert.ErrorIs(t, err, ErrMissingEmail)
}

func TestCreate_ReferenceIsIdempotent(t *testing.T) {
	_, svc := newFixture(t)

	first, err := svc.Create(CreateInput{
		Email: "d@x.org", Amount: dec("100.00"), DAFProvider: "SomeDAF", Reference: "pledge-1",
	})
	require.NoError(t, err)

	second, err := svc.Create(CreateInput{
		Email: "d@x.org", Amount: dec("100.00"), DAFProvider: "SomeDAF", Reference: "pledge-1",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same reference must return the existing grant")
}

func TestSetInTransit_UndesignatedCreditsWallet(t *testing.T) {
	store, svc := newFixture(t)
	admin := store.SeedUser(models.User{Email: "root@example.com", Username: "admin", Password: "x"})

	grant, err := svc.Create(CreateInput{Email: "d@x.org", Amount: dec("200.00"), DAFProvider: "SomeDAF"})
	require.NoError(t, err)

	grant, err = svc.SetInTransit(grant.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GrantInTransit, grant.Status)
	require.NotNil(t, grant.ApprovedByID)
	assert.Equal(t, admin.ID, *grant.ApprovedByID)
	assert.NotNil(t, grant.TransitDate)

	donor, _ := store.GetUserByEmail("d@x.org")
	assert.True(t, donor.AccountBalance.Equal(dec("190.00")))
	assert.True(t, donor.IsActive)
	assert.False(t, donor.IsFreeUser)
}

func TestSetInTransit_OnlyFromPending(t *testing.T) {
	store, svc := newFixture(t)
	admin := store.SeedUser(models.User{Email: "root@example.com", Username: "admin", Password: "x"})

	grant, err := svc.Create(CreateInput{Email: "d@x.org", Amount: dec("100.00"), DAFProvider: "SomeDAF"})
	require.NoError(t, err)

	_, err = svc.SetInTransit(grant.ID, admin.ID)
	require.NoError(t, err)

	_, err = svc.SetInTransit(grant.ID, admin.ID)
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestSetInTransit_InsufficientCombinedCapacity(t *testing.T) {
	store, svc := newFixture(t)
	admin := store.SeedUser(models.User{Email: "root@example.com", Username: "admin", Password: "x"})
	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm"})

	grant, err := svc.Create(CreateInput{
		Email:       "d@x.org",
		Amount:      dec("100.00"),
		InvestedSum: dec("500.00"), // pledged allocation far above the credit
		DAFProvider: "SomeDAF",
		CampaignID:  &campaign.ID,
	})
	require.NoError(t, err)

	_, err = svc.SetInTransit(grant.ID, admin.ID)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	donor, _ := store.GetUserByEmail("d@x.org")
	assert.True(t, donor.AccountBalance.IsZero(), "failed transit must not credit")
	unchanged, _ := svc.Get(grant.ID)
	assert.Equal(t, models.GrantPending, unchanged.Status)
}

func TestMarkReceived_OnlyFromInTransit(t *testing.T) {
	store, svc := newFixture(t)
	admin := store.SeedUser(models.User{Email: "root@example.com", Username: "admin", Password: "x"})

	grant, err := svc.Create(CreateInput{Email: "d@x.org", Amount: dec("100.00"), DAFProvider: "SomeDAF"})
	require.NoError(t, err)

	_, err = svc.MarkReceived(grant.ID)
	assert.ErrorIs(t, err, ErrStateConflict)

	_, err = svc.SetInTransit(grant.ID, admin.ID)
	require.NoError(t, err)

	grant, err = svc.MarkReceived(grant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GrantReceived, grant.Status)

	donor, _ := store.GetUserByEmail("d@x.org")
	assert.True(t, donor.AccountBalance.Equal(dec("95.00")), "received is acknowledgement only")
}

func TestReject_FromPendingRecordsMetadataOnly(t *testing.T) {
	store, svc := newFixture(t)
	admin := store.SeedUser(models.User{Email: "root@example.com", Username: "admin", Password: "x"})

	grant, err := svc.Create(CreateInput{Email: "d@x.org", Amount: dec("100.00"), DAFProvider: "SomeDAF"})
	require.NoError(t, err)

	grant, err = svc.Reject(grant.ID, admin.ID, "fund declined")
	require.NoError(t, err)
	assert.Equal(t, models.GrantRejected, grant.Status)
	assert.Equal(t, "fund declined", grant.RejectionMemo)
	require.NotNil(t, grant.RejectedByID)
	assert.Equal(t, admin.ID, *grant.RejectedByID)

	entries, _ := store.AllLedgerEntries()
	assert.Empty(t, entries, "no funds ever moved")
}

// Full scenario: anonymous pledge designated to a campaign, credited and
// allocated in transit, then rejected — wallet and campaign total must end
// exactly where they started.
func TestGrantLifecycle_EndToEnd(t *testing.T) {
	store, svc := newFixture(t)
	admin := store.SeedUser(models.User{Email: "root@example.com", Username: "admin", Password: "x"})
	campaign := store.SeedCampaign(models.Campaign{Name: "Campaign Seven"})

	grant, err := svc.Create(CreateInput{
		Email:       "donor@fund.org",
		Amount:      dec("500.00"),
		DAFProvider: "SomeDAF",
		CampaignID:  &campaign.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.GrantPending, grant.Status)

	donor, _ := store.GetUserByEmail("donor@fund.org")
	assert.True(t, donor.AccountBalance.IsZero())

	grant, err = svc.SetInTransit(grant.ID, admin.ID)
	require.NoError(t, err)

	// Credit of 475 was immediately allocated in full.
	donor, _ = store.GetUserByEmail("donor@fund.org")
	assert.True(t, donor.AccountBalance.IsZero())

	rec, err := store.RecommendationByGrant(grant.ID)
	require.NoError(t, err)
	assert.True(t, rec.Amount.Equal(dec("475.00")))
	assert.Equal(t, models.RecommendationPending, rec.Status)

	raised, _, _ := store.CampaignTotals(campaign.ID)
	assert.True(t, raised.Equal(dec("475.00")))

	grant, err = svc.Reject(grant.ID, admin.ID, "fund pulled out")
	require.NoError(t, err)
	assert.Equal(t, models.GrantRejected, grant.Status)

	// Allocation reversed, then the credit reversed: wallet back to zero.
	donor, _ = store.GetUserByEmail("donor@fund.org")
	assert.True(t, donor.AccountBalance.IsZero())

	rec, _ = store.RecommendationByGrant(grant.ID)
	assert.Equal(t, models.RecommendationRejected, rec.Status)

	raised, _, _ = store.CampaignTotals(campaign.ID)
	assert.True(t, raised.IsZero(), "campaign total must return to its pre-pledge value")

	// A second rejection must not double-reverse.
	_, err = svc.Reject(grant.ID, admin.ID, "again")
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestReject_InTransit_FailsIfFundsSpent(t *testing.T) {
	store, svc := newFixture(t)
	admin := store.SeedUser(models.User{Email: "root@example.com", Username: "admin", Password: "x"})

	grant, err := svc.Create(CreateInput{Email: "d@x.org", Amount: dec("100.00"), DAFProvider: "SomeDAF"})
	require.NoError(t, err)
	_, err = svc.SetInTransit(grant.ID, admin.ID)
	require.NoError(t, err)

	// Donor spends most of the credit before the rejection lands.
	donor, _ := store.GetUserByEmail("d@x.org")
	ledgerSvc := ledger.NewService(store)
	_, err = ledgerSvc.ApplyDelta(ledger.Delta{UserID: donor.ID, Amount: dec("-90.00"), Reason: "spend"})
	require.NoError(t, err)

	_, err = svc.Reject(grant.ID, admin.ID, "late rejection")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	unchanged, _ := svc.Get(grant.ID)
	assert.Equal(t, models.GrantInTransit, unchanged.Status, "failed reversal must not flip status")
}

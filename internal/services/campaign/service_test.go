package campaign

import (
	"testing"

	"catalyst/internal/models"
	"catalyst/internal/repositories/repotest"
	"catalyst/internal/services/ledger"
	"catalyst/internal/services/recommendation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestView_DerivedTotals(t *testing.T) {
	store := repotest.New()
	ledgerSvc := ledger.NewService(store)
	recSvc := recommendation.NewService(store, ledgerSvc)
	svc := NewService(store)

	created, err := svc.Create(CreateInput{
		Name:                  "Solar Farm",
		AddedTotalAdminRaised: dec("1000.00"),
	})
	require.NoError(t, err)

	u1 := store.SeedUser(models.User{
		Email: "a@example.com", Username: "alice", Password: "x",
		AccountBalance: dec("200.00"),
	})
	u2 := store.SeedUser(models.User{
		Email: "b@example.com", Username: "bob", Password: "x",
		AccountBalance: dec("300.00"),
	})

	_, err = recSvc.Allocate(recommendation.AllocateInput{UserID: u1.ID, CampaignID: created.ID, Amount: dec("200.00")})
	require.NoError(t, err)
	r2, err := recSvc.Allocate(recommendation.AllocateInput{UserID: u2.ID, CampaignID: created.ID, Amount: dec("300.00")})
	require.NoError(t, err)

	view, err := svc.Get(created.ID)
	require.NoError(t, err)
	assert.True(t, view.RaisedTotal.Equal(dec("1500.00")), "derived sum plus the admin offset")
	assert.EqualValues(t, 2, view.InvestorCount)

	// Rejection immediately drops out of the derived total.
	require.NoError(t, recSvc.Reject(r2.RecommendationID, u1.ID, ""))
	view, err = svc.Get(created.ID)
	require.NoError(t, err)
	assert.True(t, view.RaisedTotal.Equal(dec("1200.00")))
	assert.EqualValues(t, 1, view.InvestorCount)
}

func TestCreate_RequiresName(t *testing.T) {
	svc := NewService(repotest.New())
	_, err := svc.Create(CreateInput{})
	assert.ErrorIs(t, err, ErrMissingName)
}

package export

import (
	"bytes"
	"testing"

	"catalyst/internal/models"
	"catalyst/internal/repositories/repotest"
	"catalyst/internal/services/ledger"
	"catalyst/internal/services/recommendation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func openRows(t *testing.T, buf *bytes.Buffer, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestRecommendationsExport(t *testing.T) {
	store := repotest.New()
	ledgerSvc := ledger.NewService(store)
	recSvc := recommendation.NewService(store, ledgerSvc)
	svc := NewService(store)

	campaign := store.SeedCampaign(models.Campaign{Name: "Solar Farm"})
	user := store.SeedUser(models.User{
		Email: "a@example.com", Username: "alice", FirstName: "Alice",
		LastName: "Ames", Password: "x", AccountBalance: dec("100.00"),
	})
	_, err := recSvc.Allocate(recommendation.AllocateInput{
		UserID: user.ID, CampaignID: campaign.ID, Amount: dec("60.00"),
	})
	require.NoError(t, err)

	buf, err := svc.Recommendations()
	require.NoError(t, err)

	rows := openRows(t, buf, "Recommendations")
	require.Len(t, rows, 2)
	assert.Equal(t, "Email", rows[0][1])
	assert.Equal(t, "a@example.com", rows[1][1])
	assert.Equal(t, "60.00", rows[1][4])
	assert.Equal(t, "pending", rows[1][5])
}

func TestLedgerExport(t *testing.T) {
	store := repotest.New()
	ledgerSvc := ledger.NewService(store)
	svc := NewService(store)

	user := store.SeedUser(models.User{Email: "a@example.com", Username: "alice", Password: "x"})
	_, err := ledgerSvc.ApplyDelta(ledger.Delta{
		UserID: user.ID, Amount: dec("25.00"), Reason: "Stripe Card", Reference: "pi_1",
	})
	require.NoError(t, err)

	buf, err := svc.Ledger()
	require.NoError(t, err)

	rows := openRows(t, buf, "Balance Changes")
	require.Len(t, rows, 2)
	assert.Equal(t, "0.00", rows[1][3])
	assert.Equal(t, "25.00", rows[1][4])
	assert.Equal(t, "25.00", rows[1][5])
	assert.Equal(t, "Stripe Card", rows[1][6])
	assert.Equal(t, "pi_1", rows[1][9])
}

func TestGrantsExport_Empty(t *testing.T) {
	svc := NewService(repotest.New())
	buf, err := svc.Grants()
	require.NoError(t, err)

	rows := openRows(t, buf, "Pending Grants")
	require.Len(t, rows, 1, "header only")
	assert.Equal(t, "DAF Provider", rows[0][5])
}

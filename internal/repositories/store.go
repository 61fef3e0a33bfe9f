// Package repositories provides the data access layer. All balance-bearing
// rows are read with row locks inside transactions; the ledger table is
// append-only.
package repositories

import (
	"time"

	"catalyst/internal/models"

	"github.com/shopspring/decimal"
)

// UserStore accesses users and the personal wallet balance stored on them.
type UserStore interface {
	CreateUser(user *models.User) error
	GetUserByID(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	// GetUserForUpdate locks the user row for the rest of the enclosing
	// transaction. Callers must be inside InTransaction.
	GetUserForUpdate(id uint) (*models.User, error)
	SaveUser(user *models.User) error
	UsernameTaken(username string) (bool, error)
}

// FollowStore accesses the follow graph between users. Accepted edges drive
// the allocation notification fan-out.
type FollowStore interface {
	CreateFollowRequest(fr *models.FollowRequest) error
	GetFollowRequestForUpdate(id uint) (*models.FollowRequest, error)
	GetFollowRequestByPair(requesterID, followeeID uint) (*models.FollowRequest, error)
	SaveFollowRequest(fr *models.FollowRequest) error
	ListIncomingFollowRequests(followeeID uint, status models.FollowStatus) ([]models.FollowRequest, error)
	// AcceptedFollowerEmails lists emails of active, not opted-out users with
	// an accepted request to follow the given user.
	AcceptedFollowerEmails(followeeID uint) ([]string, error)
	// AcceptedFolloweeEmails lists emails of active, not opted-out users the
	// given user follows.
	AcceptedFolloweeEmails(requesterID uint) ([]string, error)
}

// GroupStore accesses groups and per-member sub-balances.
type GroupStore interface {
	GetGroupByID(id uint) (*models.Group, error)
	// GroupBalancesForUpdate returns a user's sub-balances ordered by row id
	// ascending (first-funded pools first), locked for update.
	GroupBalancesForUpdate(userID uint) ([]models.GroupAccountBalance, error)
	GetGroupBalanceForUpdate(userID, groupID uint) (*models.GroupAccountBalance, error)
	CreateGroupBalance(gb *models.GroupAccountBalance) error
	SaveGroupBalance(gb *models.GroupAccountBalance) error
	// GroupAllocatedTotal sums all members' current sub-balances.
	GroupAllocatedTotal(groupID uint) (decimal.Decimal, error)
	// GroupInvestedTotal sums the amounts already spent out of the group's
	// pool, derived from ledger entries that debited a sub-balance toward a
	// campaign.
	GroupInvestedTotal(groupID uint) (decimal.Decimal, error)
	GroupBalanceTotalForUser(userID uint) (decimal.Decimal, error)
}

// LedgerStore appends to and reads the balance change log.
type LedgerStore interface {
	AppendLedger(entry *models.BalanceChangeLog) error
	LedgerHistoryForUser(userID uint, limit, offset int) ([]models.BalanceChangeLog, int64, error)
	// GrantCreditEntry returns the wallet credit entry written when the
	// given grant went in transit.
	GrantCreditEntry(userID, grantID uint) (*models.BalanceChangeLog, error)
	// LedgerDeltaSumForUser reconstructs a personal wallet balance from the
	// log (entries without a group id).
	LedgerDeltaSumForUser(userID uint) (decimal.Decimal, error)
	AllLedgerEntries() ([]models.BalanceChangeLog, error)
}

// GrantStore accesses pending grants and the DAF provider directory.
type GrantStore interface {
	CreateGrant(grant *models.PendingGrant) error
	GetGrantByID(id uint) (*models.PendingGrant, error)
	GetGrantForUpdate(id uint) (*models.PendingGrant, error)
	GetGrantByReference(reference string) (*models.PendingGrant, error)
	SaveGrant(grant *models.PendingGrant) error
	ListGrants(statuses []models.GrantStatus, limit, offset int) ([]models.PendingGrant, int64, error)
	AllGrants() ([]models.PendingGrant, error)
	ListDAFProviders() ([]models.DAFProviderEntry, error)
	GetDAFProviderURL(name string) (string, error)
	CreateDAFProvider(p *models.DAFProviderEntry) error
}

// RecommendationStore accesses allocations and campaign aggregates derived
// from them.
type RecommendationStore interface {
	CreateRecommendation(rec *models.Recommendation) error
	GetRecommendationByID(id uint) (*models.Recommendation, error)
	GetRecommendationForUpdate(id uint) (*models.Recommendation, error)
	SaveRecommendation(rec *models.Recommendation) error
	ListRecommendations(campaignID *uint, statuses []models.RecommendationStatus, limit, offset int) ([]models.Recommendation, int64, error)
	AllRecommendations() ([]models.Recommendation, error)
	// RecommendationByGrant finds the allocation spawned by a grant, if any.
	RecommendationByGrant(grantID uint) (*models.Recommendation, error)
	// ApprovedRecommendationsForActiveUsers feeds the returns distributor.
	ApprovedRecommendationsForActiveUsers(campaignID uint) ([]models.Recommendation, error)
	// CampaignTotals derives the raised amount (excluding the admin offset)
	// and distinct investor count from approved and pending recommendations
	// with positive amounts and non-empty emails.
	CampaignTotals(campaignID uint) (raised decimal.Decimal, investors int64, err error)
	// EmailsRecommendedCampaign lists distinct user emails among the given
	// set that already recommended the campaign.
	EmailsRecommendedCampaign(campaignID uint, emails []string) ([]string, error)
}

type CampaignStore interface {
	CreateCampaign(c *models.Campaign) error
	GetCampaignByID(id uint) (*models.Campaign, error)
	ListCampaigns() ([]models.Campaign, error)
}

type ReturnStore interface {
	CreateReturnMaster(master *models.ReturnMaster) error
	CreateReturnDetail(detail *models.ReturnDetail) error
	ListReturnHistory(campaignID *uint, limit, offset int) ([]models.ReturnMaster, int64, error)
}

type OutboxStore interface {
	EnqueueEmail(msg *models.OutboxEmail) error
	// ClaimOutboxBatch locks up to batchSize pending rows (skipping rows
	// locked by live workers) and stamps them with workerID.
	ClaimOutboxBatch(workerID string, batchSize int, lockTTL time.Duration) ([]models.OutboxEmail, error)
	MarkOutboxSent(id uint) error
	MarkOutboxFailed(id uint, sendErr string, maxAttempts int) error
}

type PaymentStore interface {
	CreateFailedPayment(fp *models.FailedPayment) error
	GetFailedPaymentByExternalID(externalID string) (*models.FailedPayment, error)
}

// DataStore is the full persistence surface. InTransaction runs fn against a
// transaction-scoped DataStore; every financial operation runs inside exactly
// one such transaction.
type DataStore interface {
	UserStore
	FollowStore
	GroupStore
	LedgerStore
	GrantStore
	RecommendationStore
	CampaignStore
	ReturnStore
	OutboxStore
	PaymentStore

	InTransaction(fn func(tx DataStore) error) error
}

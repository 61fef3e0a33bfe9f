// Package repotest provides an in-memory DataStore for service tests. It
// mirrors the query semantics of the GORM store closely enough for unit tests
// that must not touch Postgres. Transactions are pass-through: services are
// written validate-then-mutate, so tests still observe all-or-nothing
// behavior on validation failures.
package repotest

import (
	"sort"
	"strings"
	"sync"
	"time"

	"catalyst/internal/models"
	"catalyst/internal/repositories"

	"github.com/shopspring/decimal"
)

type Store struct {
	mu sync.Mutex

	users          map[uint]*models.User
	follows        map[uint]*models.FollowRequest
	groups         map[uint]*models.Group
	groupBalances  map[uint]*models.GroupAccountBalance
	ledger         []models.BalanceChangeLog
	grants         map[uint]*models.PendingGrant
	providers      []models.DAFProviderEntry
	recs           map[uint]*models.Recommendation
	campaigns      map[uint]*models.Campaign
	returnMasters  map[uint]*models.ReturnMaster
	returnDetails  []models.ReturnDetail
	failedPayments map[string]*models.FailedPayment
	outbox         map[uint]*models.OutboxEmail

	nextUserID          uint
	nextFollowID        uint
	nextGroupID         uint
	nextGroupBalanceID  uint
	nextLedgerID        uint
	nextGrantID         uint
	nextProviderID      uint
	nextRecID           uint
	nextCampaignID      uint
	nextReturnMasterID  uint
	nextReturnDetailID  uint
	nextFailedPaymentID uint
	nextOutboxID        uint
}

func New() *Store {
	return &Store{
		users:          make(map[uint]*models.User),
		follows:        make(map[uint]*models.FollowRequest),
		groups:         make(map[uint]*models.Group),
		groupBalances:  make(map[uint]*models.GroupAccountBalance),
		grants:         make(map[uint]*models.PendingGrant),
		recs:           make(map[uint]*models.Recommendation),
		campaigns:      make(map[uint]*models.Campaign),
		returnMasters:  make(map[uint]*models.ReturnMaster),
		failedPayments: make(map[string]*models.FailedPayment),
		outbox:         make(map[uint]*models.OutboxEmail),
	}
}

var _ repositories.DataStore = (*Store)(nil)

// InTransaction runs fn against the same store. There is no rollback.
func (s *Store) InTransaction(fn func(tx repositories.DataStore) error) error {
	return fn(s)
}

// --- users ---

func (s *Store) CreateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicateEmail
		}
		if u.Username == user.Username {
			return repositories.ErrDuplicateUsername
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = time.Now()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) GetUserByID(id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (s *Store) GetUserForUpdate(id uint) (*models.User, error) {
	return s.GetUserByID(id)
}

func (s *Store) SaveUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) UsernameTaken(username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// --- follow graph ---

func (s *Store) CreateFollowRequest(fr *models.FollowRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextFollowID++
	fr.ID = s.nextFollowID
	fr.CreatedAt = time.Now()
	if fr.Status == "" {
		fr.Status = models.FollowPending
	}
	cp := *fr
	s.follows[fr.ID] = &cp
	return nil
}

func (s *Store) GetFollowRequestForUpdate(id uint) (*models.FollowRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fr, ok := s.follows[id]
	if !ok {
		return nil, repositories.ErrFollowRequestNotFound
	}
	cp := *fr
	return &cp, nil
}

func (s *Store) GetFollowRequestByPair(requesterID, followeeID uint) (*models.FollowRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sortedKeys(s.follows) {
		fr := s.follows[id]
		if fr.RequesterID == requesterID && fr.FolloweeID == followeeID {
			cp := *fr
			return &cp, nil
		}
	}
	return nil, repositories.ErrFollowRequestNotFound
}

func (s *Store) SaveFollowRequest(fr *models.FollowRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.follows[fr.ID]; !ok {
		return repositories.ErrFollowRequestNotFound
	}
	cp := *fr
	s.follows[fr.ID] = &cp
	return nil
}

func (s *Store) ListIncomingFollowRequests(followeeID uint, status models.FollowStatus) ([]models.FollowRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var frs []models.FollowRequest
	for _, id := range sortedKeys(s.follows) {
		fr := s.follows[id]
		if fr.FolloweeID == followeeID && fr.Status == status {
			frs = append(frs, *fr)
		}
	}
	return frs, nil
}

func (s *Store) AcceptedFollowerEmails(followeeID uint) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var emails []string
	for _, id := range sortedKeys(s.follows) {
		fr := s.follows[id]
		if fr.FolloweeID != followeeID || fr.Status != models.FollowAccepted {
			continue
		}
		if email, ok := s.notifiableEmail(fr.RequesterID); ok {
			emails = append(emails, email)
		}
	}
	return emails, nil
}

func (s *Store) AcceptedFolloweeEmails(requesterID uint) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var emails []string
	for _, id := range sortedKeys(s.follows) {
		fr := s.follows[id]
		if fr.RequesterID != requesterID || fr.Status != models.FollowAccepted {
			continue
		}
		if email, ok := s.notifiableEmail(fr.FolloweeID); ok {
			emails = append(emails, email)
		}
	}
	return emails, nil
}

// notifiableEmail mirrors the gorm store's join filter: active users with a
// non-empty email who have not opted out. Callers must hold s.mu.
func (s *Store) notifiableEmail(userID uint) (string, bool) {
	u, ok := s.users[userID]
	if !ok {
		return "", false
	}
	if !u.IsActive || u.Email == "" || u.OptOutEmailNotifications {
		return "", false
	}
	return u.Email, true
}

// --- groups ---

func (s *Store) GetGroupByID(id uint) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, repositories.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *Store) GroupBalancesForUpdate(userID uint) ([]models.GroupAccountBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.GroupAccountBalance
	for _, id := range sortedKeys(s.groupBalances) {
		gb := s.groupBalances[id]
		if gb.UserID == userID {
			out = append(out, *gb)
		}
	}
	return out, nil
}

func (s *Store) GetGroupBalanceForUpdate(userID, groupID uint) (*models.GroupAccountBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, gb := range s.groupBalances {
		if gb.UserID == userID && gb.GroupID == groupID {
			cp := *gb
			return &cp, nil
		}
	}
	return nil, repositories.ErrGroupBalanceNotFound
}

func (s *Store) CreateGroupBalance(gb *models.GroupAccountBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextGroupBalanceID++
	gb.ID = s.nextGroupBalanceID
	gb.CreatedAt = time.Now()
	cp := *gb
	s.groupBalances[gb.ID] = &cp
	return nil
}

func (s *Store) SaveGroupBalance(gb *models.GroupAccountBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groupBalances[gb.ID]; !ok {
		return repositories.ErrGroupBalanceNotFound
	}
	cp := *gb
	s.groupBalances[gb.ID] = &cp
	return nil
}

func (s *Store) GroupAllocatedTotal(groupID uint) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, gb := range s.groupBalances {
		if gb.GroupID == groupID {
			total = total.Add(gb.Balance)
		}
	}
	return total, nil
}

func (s *Store) GroupInvestedTotal(groupID uint) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for i := range s.ledger {
		e := &s.ledger[i]
		if e.GroupID != nil && *e.GroupID == groupID && e.InvestmentName != "" {
			total = total.Add(e.OldValue.Sub(e.NewValue))
		}
	}
	return total, nil
}

func (s *Store) GroupBalanceTotalForUser(userID uint) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, gb := range s.groupBalances {
		if gb.UserID == userID {
			total = total.Add(gb.Balance)
		}
	}
	return total, nil
}

// --- ledger ---

func (s *Store) AppendLedger(entry *models.BalanceChangeLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLedgerID++
	entry.ID = s.nextLedgerID
	if entry.ChangeDate.IsZero() {
		entry.ChangeDate = time.Now()
	}
	s.ledger = append(s.ledger, *entry)
	return nil
}

func (s *Store) LedgerHistoryForUser(userID uint, limit, offset int) ([]models.BalanceChangeLog, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.BalanceChangeLog
	for i := len(s.ledger) - 1; i >= 0; i-- {
		if s.ledger[i].UserID == userID {
			all = append(all, s.ledger[i])
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (s *Store) GrantCreditEntry(userID, grantID uint) (*models.BalanceChangeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.ledger {
		e := s.ledger[i]
		if e.UserID == userID && e.PendingGrantID != nil && *e.PendingGrantID == grantID &&
			e.GroupID == nil && e.NewValue.GreaterThan(e.OldValue) {
			return &e, nil
		}
	}
	return nil, repositories.ErrLedgerEntryNotFound
}

func (s *Store) LedgerDeltaSumForUser(userID uint) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for i := range s.ledger {
		e := &s.ledger[i]
		if e.UserID == userID && e.GroupID == nil {
			total = total.Add(e.NewValue.Sub(e.OldValue))
		}
	}
	return total, nil
}

func (s *Store) AllLedgerEntries() ([]models.BalanceChangeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.BalanceChangeLog, len(s.ledger))
	copy(out, s.ledger)
	return out, nil
}

// --- grants ---

func (s *Store) CreateGrant(grant *models.PendingGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextGrantID++
	grant.ID = s.nextGrantID
	grant.CreatedAt = time.Now()
	cp := *grant
	s.grants[grant.ID] = &cp
	return nil
}

func (s *Store) GetGrantByID(id uint) (*models.PendingGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[id]
	if !ok {
		return nil, repositories.ErrGrantNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *Store) GetGrantForUpdate(id uint) (*models.PendingGrant, error) {
	return s.GetGrantByID(id)
}

func (s *Store) GetGrantByReference(reference string) (*models.PendingGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sortedKeys(s.grants) {
		if s.grants[id].Reference == reference {
			cp := *s.grants[id]
			return &cp, nil
		}
	}
	return nil, repositories.ErrGrantNotFound
}

func (s *Store) SaveGrant(grant *models.PendingGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grants[grant.ID]; !ok {
		return repositories.ErrGrantNotFound
	}
	cp := *grant
	s.grants[grant.ID] = &cp
	return nil
}

func (s *Store) ListGrants(statuses []models.GrantStatus, limit, offset int) ([]models.PendingGrant, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match := func(g *models.PendingGrant) bool {
		if len(statuses) == 0 {
			return true
		}
		for _, st := range statuses {
			if g.Status == st {
				return true
			}
		}
		return false
	}
	keys := sortedKeys(s.grants)
	var all []models.PendingGrant
	for i := len(keys) - 1; i >= 0; i-- {
		if g := s.grants[keys[i]]; match(g) {
			all = append(all, *g)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (s *Store) AllGrants() ([]models.PendingGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PendingGrant
	for _, id := range sortedKeys(s.grants) {
		out = append(out, *s.grants[id])
	}
	return out, nil
}

func (s *Store) ListDAFProviders() ([]models.DAFProviderEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DAFProviderEntry
	for _, p := range s.providers {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].ProviderName) < strings.ToLower(out[j].ProviderName)
	})
	return out, nil
}

func (s *Store) GetDAFProviderURL(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.providers {
		if p.ProviderName == name {
			return p.ProviderURL, nil
		}
	}
	return "", nil
}

func (s *Store) CreateDAFProvider(p *models.DAFProviderEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProviderID++
	p.ID = s.nextProviderID
	s.providers = append(s.providers, *p)
	return nil
}

// --- recommendations ---

func (s *Store) CreateRecommendation(rec *models.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRecID++
	rec.ID = s.nextRecID
	rec.CreatedAt = time.Now()
	cp := *rec
	s.recs[rec.ID] = &cp
	return nil
}

func (s *Store) GetRecommendationByID(id uint) (*models.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recs[id]
	if !ok {
		return nil, repositories.ErrRecommendationNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) GetRecommendationForUpdate(id uint) (*models.Recommendation, error) {
	return s.GetRecommendationByID(id)
}

func (s *Store) SaveRecommendation(rec *models.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[rec.ID]; !ok {
		return repositories.ErrRecommendationNotFound
	}
	cp := *rec
	s.recs[rec.ID] = &cp
	return nil
}

func (s *Store) ListRecommendations(campaignID *uint, statuses []models.RecommendationStatus, limit, offset int) ([]models.Recommendation, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match := func(r *models.Recommendation) bool {
		if campaignID != nil && r.CampaignID != *campaignID {
			return false
		}
		if len(statuses) == 0 {
			return true
		}
		for _, st := range statuses {
			if r.Status == st {
				return true
			}
		}
		return false
	}
	keys := sortedKeys(s.recs)
	var all []models.Recommendation
	for i := len(keys) - 1; i >= 0; i-- {
		if r := s.recs[keys[i]]; match(r) {
			all = append(all, *r)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (s *Store) AllRecommendations() ([]models.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Recommendation
	for _, id := range sortedKeys(s.recs) {
		out = append(out, *s.recs[id])
	}
	return out, nil
}

func (s *Store) RecommendationByGrant(grantID uint) (*models.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := sortedKeys(s.recs)
	for i := len(keys) - 1; i >= 0; i-- {
		r := s.recs[keys[i]]
		if r.PendingGrantID != nil && *r.PendingGrantID == grantID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repositories.ErrRecommendationNotFound
}

func (s *Store) ApprovedRecommendationsForActiveUsers(campaignID uint) ([]models.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Recommendation
	for _, id := range sortedKeys(s.recs) {
		r := s.recs[id]
		if r.CampaignID != campaignID || r.Status != models.RecommendationApproved {
			continue
		}
		u, ok := s.users[r.UserID]
		if !ok || !u.IsActive {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *Store) CampaignTotals(campaignID uint) (decimal.Decimal, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raised := decimal.Zero
	seen := make(map[string]bool)
	for _, r := range s.recs {
		if r.CampaignID != campaignID || r.UserEmail == "" || !r.Amount.IsPositive() {
			continue
		}
		if r.Status != models.RecommendationPending && r.Status != models.RecommendationApproved {
			continue
		}
		raised = raised.Add(r.Amount)
		seen[r.UserEmail] = true
	}
	return raised, int64(len(seen)), nil
}

func (s *Store) EmailsRecommendedCampaign(campaignID uint, emails []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[string]bool, len(emails))
	for _, e := range emails {
		want[e] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, id := range sortedKeys(s.recs) {
		r := s.recs[id]
		if r.CampaignID == campaignID && want[r.UserEmail] && !seen[r.UserEmail] {
			seen[r.UserEmail] = true
			out = append(out, r.UserEmail)
		}
	}
	return out, nil
}

// --- campaigns and returns ---

func (s *Store) CreateCampaign(c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCampaignID++
	c.ID = s.nextCampaignID
	c.CreatedAt = time.Now()
	cp := *c
	s.campaigns[c.ID] = &cp
	return nil
}

func (s *Store) GetCampaignByID(id uint) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, repositories.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListCampaigns() ([]models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Campaign
	for _, id := range sortedKeys(s.campaigns) {
		out = append(out, *s.campaigns[id])
	}
	return out, nil
}

func (s *Store) CreateReturnMaster(master *models.ReturnMaster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextReturnMasterID++
	master.ID = s.nextReturnMasterID
	master.CreatedAt = time.Now()
	cp := *master
	s.returnMasters[master.ID] = &cp
	return nil
}

func (s *Store) CreateReturnDetail(detail *models.ReturnDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextReturnDetailID++
	detail.ID = s.nextReturnDetailID
	detail.CreatedAt = time.Now()
	s.returnDetails = append(s.returnDetails, *detail)
	return nil
}

func (s *Store) ListReturnHistory(campaignID *uint, limit, offset int) ([]models.ReturnMaster, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := sortedKeys(s.returnMasters)
	var all []models.ReturnMaster
	for i := len(keys) - 1; i >= 0; i-- {
		m := s.returnMasters[keys[i]]
		if campaignID != nil && m.CampaignID != *campaignID {
			continue
		}
		cp := *m
		for _, d := range s.returnDetails {
			if d.ReturnMasterID == m.ID {
				cp.Details = append(cp.Details, d)
			}
		}
		all = append(all, cp)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

// --- outbox ---

func (s *Store) EnqueueEmail(msg *models.OutboxEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextOutboxID++
	msg.ID = s.nextOutboxID
	msg.CreatedAt = time.Now()
	if msg.Status == "" {
		msg.Status = models.OutboxPending
	}
	cp := *msg
	s.outbox[msg.ID] = &cp
	return nil
}

func (s *Store) ClaimOutboxBatch(workerID string, batchSize int, lockTTL time.Duration) ([]models.OutboxEmail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	staleBefore := time.Now().Add(-lockTTL)
	now := time.Now()
	var claimed []models.OutboxEmail
	for _, id := range sortedKeys(s.outbox) {
		if len(claimed) >= batchSize {
			break
		}
		m := s.outbox[id]
		if m.Status != models.OutboxPending {
			continue
		}
		if m.LockedAt != nil && m.LockedAt.After(staleBefore) {
			continue
		}
		lockTime := now
		m.LockedAt = &lockTime
		m.LockedBy = workerID
		claimed = append(claimed, *m)
	}
	return claimed, nil
}

func (s *Store) MarkOutboxSent(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.outbox[id]
	if !ok {
		return nil
	}
	now := time.Now()
	m.Status = models.OutboxSent
	m.SentAt = &now
	m.LockedAt = nil
	m.LockedBy = ""
	return nil
}

func (s *Store) MarkOutboxFailed(id uint, sendErr string, maxAttempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.outbox[id]
	if !ok {
		return nil
	}
	m.Attempts++
	m.LastError = sendErr
	m.LockedAt = nil
	m.LockedBy = ""
	if m.Attempts >= maxAttempts {
		m.Status = models.OutboxDead
	}
	return nil
}

// --- payments ---

func (s *Store) CreateFailedPayment(fp *models.FailedPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.failedPayments[fp.ExternalTxnID]; ok {
		return repositories.ErrDuplicateReference
	}
	s.nextFailedPaymentID++
	fp.ID = s.nextFailedPaymentID
	fp.CreatedAt = time.Now()
	cp := *fp
	s.failedPayments[fp.ExternalTxnID] = &cp
	return nil
}

func (s *Store) GetFailedPaymentByExternalID(externalID string) (*models.FailedPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fp, ok := s.failedPayments[externalID]
	if !ok {
		return nil, repositories.ErrPaymentNotFound
	}
	cp := *fp
	return &cp, nil
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Seed helpers used by service tests.

func (s *Store) SeedUser(u models.User) *models.User {
	_ = s.CreateUser(&u)
	return &u
}

func (s *Store) SeedGroup(g models.Group) *models.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextGroupID++
	g.ID = s.nextGroupID
	g.CreatedAt = time.Now()
	cp := g
	s.groups[g.ID] = &cp
	return &g
}

// SeedFollow records an accepted follow edge from requester to followee.
func (s *Store) SeedFollow(requesterID, followeeID uint) *models.FollowRequest {
	fr := models.FollowRequest{
		RequesterID: requesterID,
		FolloweeID:  followeeID,
		Status:      models.FollowAccepted,
	}
	_ = s.CreateFollowRequest(&fr)
	return &fr
}

func (s *Store) SeedCampaign(c models.Campaign) *models.Campaign {
	_ = s.CreateCampaign(&c)
	return &c
}

func (s *Store) SeedGroupBalance(gb models.GroupAccountBalance) *models.GroupAccountBalance {
	_ = s.CreateGroupBalance(&gb)
	return &gb
}

// OutboxMessages returns all enqueued emails ordered by id, for assertions.
func (s *Store) OutboxMessages() []models.OutboxEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.OutboxEmail
	for _, id := range sortedKeys(s.outbox) {
		out = append(out, *s.outbox[id])
	}
	return out
}

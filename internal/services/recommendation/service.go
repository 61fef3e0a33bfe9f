// Package recommendation implements the allocation operation: moving a user's
// available funds toward a campaign, group pools first when requested, with
// one ledger entry per balance touched and a pending Recommendation row
// recording the allocation.
package recommendation

import (
	"errors"
	"fmt"
	"time"

	"catalyst/internal/models"
	"catalyst/internal/repositories"
	"catalyst/internal/services/ledger"
	"catalyst/internal/services/notification"

	"github.com/shopspring/decimal"
)

type Service interface {
	// Allocate runs in its own transaction.
	Allocate(in AllocateInput) (*AllocationResult, error)
	// AllocateWithin composes into the caller's transaction (grant intake).
	AllocateWithin(tx repositories.DataStore, in AllocateInput) (*AllocationResult, error)

	// Reject flips the recommendation to rejected and credits its amount
	// back to the user's personal wallet.
	Reject(recommendationID, adminID uint, memo string) error
	RejectWithin(tx repositories.DataStore, recommendationID, adminID uint, memo string) error

	Approve(recommendationID uint) error
	Get(id uint) (*models.Recommendation, error)
	List(campaignID *uint, statuses []models.RecommendationStatus, limit, offset int) ([]models.Recommendation, int64, error)
}

type service struct {
	store  repositories.DataStore
	ledger ledger.Service
}

func NewService(store repositories.DataStore, ledgerSvc ledger.Service) Service {
	if store == nil {
		panic("store is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	return &service{store: store, ledger: ledgerSvc}
}

func (s *service) Allocate(in AllocateInput) (*AllocationResult, error) {
	var result *AllocationResult
	err := s.store.InTransaction(func(tx repositories.DataStore) error {
		var err error
		result, err = s.AllocateWithin(tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// poolDraw is one planned debit against a group sub-balance.
type poolDraw struct {
	groupID uint
	amount  decimal.Decimal
}

func (s *service) AllocateWithin(tx repositories.DataStore, in AllocateInput) (*AllocationResult, error) {
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	user, err := tx.GetUserForUpdate(in.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	campaign, err := tx.GetCampaignByID(in.CampaignID)
	if err != nil {
		if errors.Is(err, repositories.ErrCampaignNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}

	requested := in.Amount
	planned := requested
	var draws []poolDraw
	walletDraw := decimal.Zero

	if in.UseGroupBalances {
		// Drain pools in creation order, then fall back to the wallet. The
		// plan is computed against locked rows, so executing it cannot fail.
		pools, err := tx.GroupBalancesForUpdate(in.UserID)
		if err != nil {
			return nil, err
		}
		remaining := requested
		for _, pool := range pools {
			if remaining.IsZero() {
				break
			}
			if !pool.Balance.IsPositive() {
				continue
			}
			step := decimal.Min(pool.Balance, remaining)
			draws = append(draws, poolDraw{groupID: pool.GroupID, amount: step})
			remaining = remaining.Sub(step)
		}
		if remaining.IsPositive() && user.AccountBalance.IsPositive() {
			walletDraw = decimal.Min(user.AccountBalance, remaining)
			remaining = remaining.Sub(walletDraw)
		}
		// Whatever could not be funded shrinks the allocation.
		planned = requested.Sub(remaining)
	} else {
		// Personal wallet only: clamp the request to what is there.
		planned = decimal.Min(requested, user.AccountBalance)
		walletDraw = planned
	}

	if !planned.IsPositive() {
		return nil, ErrInsufficientFunds
	}

	reason := in.ReasonTag
	if reason == "" {
		reason = user.Username
	}

	rec := &models.Recommendation{
		UserID:         user.ID,
		UserEmail:      user.Email,
		UserFullName:   user.FullName(),
		CampaignID:     campaign.ID,
		Amount:         planned,
		Status:         models.RecommendationPending,
		PendingGrantID: in.GrantID,
	}
	if err := tx.CreateRecommendation(rec); err != nil {
		return nil, err
	}

	for _, draw := range draws {
		groupID := draw.groupID
		_, err := s.ledger.ApplyWithin(tx, ledger.Delta{
			UserID:         user.ID,
			Amount:         draw.amount.Neg(),
			Reason:         reason,
			GroupID:        &groupID,
			PendingGrantID: in.GrantID,
			InvestmentName: campaign.Name,
		})
		if err != nil {
			return nil, err
		}
	}
	if walletDraw.IsPositive() {
		_, err := s.ledger.ApplyWithin(tx, ledger.Delta{
			UserID:         user.ID,
			Amount:         walletDraw.Neg(),
			Reason:         reason,
			PendingGrantID: in.GrantID,
			InvestmentName: campaign.Name,
		})
		if err != nil {
			return nil, err
		}
	}

	raised, investors, err := tx.CampaignTotals(campaign.ID)
	if err != nil {
		return nil, err
	}
	newTotal := raised.Add(campaign.AddedTotalAdminRaised)

	s.enqueueAllocationEmails(tx, user, campaign, planned, newTotal, investors, in.GrantID != nil)

	return &AllocationResult{
		RecommendationID: rec.ID,
		RequestedAmount:  requested,
		AppliedAmount:    planned,
		CampaignNewTotal: newTotal,
	}, nil
}

// enqueueAllocationEmails records the allocation's notifications in the
// outbox. Enqueue failures are logged into the transaction error path only if
// the insert itself fails; delivery failures never affect the allocation.
func (s *service) enqueueAllocationEmails(tx repositories.DataStore, user *models.User, campaign *models.Campaign, amount, newTotal decimal.Decimal, investors int64, grantLinked bool) {
	if !user.OptOutEmailNotifications && !grantLinked && user.Email != "" {
		_ = tx.EnqueueEmail(notification.DonationReceipt(user.Email, campaign.Name, amount))
	}
	if campaign.ContactEmail != "" {
		_ = tx.EnqueueEmail(notification.CampaignUpdate(campaign.ContactEmail, campaign.Name, newTotal, investors))
	}

	donorName := user.FullName()
	if user.IsAnonymousInvestor || donorName == "" {
		donorName = "Someone"
	}

	// Tell the donor's accepted followers about the new allocation.
	followers, err := tx.AcceptedFollowerEmails(user.ID)
	if err != nil {
		return
	}
	for _, email := range followers {
		_ = tx.EnqueueEmail(notification.FollowerInvested(email, donorName, campaign.Name))
	}

	// Users the donor follows who already recommended this campaign hear
	// that their lead was followed.
	followees, err := tx.AcceptedFolloweeEmails(user.ID)
	if err != nil {
		return
	}
	leads, err := tx.EmailsRecommendedCampaign(campaign.ID, followees)
	if err != nil {
		return
	}
	for _, email := range leads {
		if email == user.Email {
			continue
		}
		_ = tx.EnqueueEmail(notification.FollowedLead(email, donorName, campaign.Name))
	}
}

func (s *service) Reject(recommendationID, adminID uint, memo string) error {
	return s.store.InTransaction(func(tx repositories.DataStore) error {
		return s.RejectWithin(tx, recommendationID, adminID, memo)
	})
}

func (s *service) RejectWithin(tx repositories.DataStore, recommendationID, adminID uint, memo string) error {
	rec, err := tx.GetRecommendationForUpdate(recommendationID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecommendationNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !rec.Status.CanReject() {
		return ErrStateConflict
	}

	// Reverse the debit into the personal wallet. Group provenance is not
	// tracked per recommendation, so pools are not refilled.
	if rec.Amount.IsPositive() {
		_, err = s.ledger.ApplyWithin(tx, ledger.Delta{
			UserID: rec.UserID,
			Amount: rec.Amount,
			Reason: fmt.Sprintf("Reverted Recommendation Amount, Recommendation Id= %d", rec.ID),
		})
		if err != nil {
			return err
		}
	}

	now := time.Now()
	rec.Status = models.RecommendationRejected
	rec.RejectionMemo = memo
	rec.RejectedByID = &adminID
	rec.RejectionDate = &now
	return tx.SaveRecommendation(rec)
}

func (s *service) Approve(recommendationID uint) error {
	return s.store.InTransaction(func(tx repositories.DataStore) error {
		rec, err := tx.GetRecommendationForUpdate(recommendationID)
		if err != nil {
			if errors.Is(err, repositories.ErrRecommendationNotFound) {
				return ErrNotFound
			}
			return err
		}
		if rec.Status != models.RecommendationPending {
			return ErrStateConflict
		}
		rec.Status = models.RecommendationApproved
		return tx.SaveRecommendation(rec)
	})
}

func (s *service) Get(id uint) (*models.Recommendation, error) {
	rec, err := s.store.GetRecommendationByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecommendationNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *service) List(campaignID *uint, statuses []models.RecommendationStatus, limit, offset int) ([]models.Recommendation, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListRecommendations(campaignID, statuses, limit, offset)
}

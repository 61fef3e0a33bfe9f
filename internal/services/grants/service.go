// Package grants implements the pending grant lifecycle: a third-party (DAF
// or foundation) pledge is recorded as Pending, credited to the donor's
// wallet when it goes In Transit, optionally allocated straight to the
// designated campaign, and fully reversed if rejected afterwards.
package grants

import (
	"errors"
	"fmt"
	"time"

	"catalyst/internal/models"
	"catalyst/internal/repositories"
	"catalyst/internal/services/fees"
	"catalyst/internal/services/ledger"
	"catalyst/internal/services/notification"
	"catalyst/internal/services/recommendation"
	"catalyst/internal/services/user"

	"github.com/shopspring/decimal"
)

type CreateInput struct {
	Email     string
	FirstName string
	LastName  string

	Amount      decimal.Decimal // gross pledge
	InvestedSum decimal.Decimal // target allocation; zero defaults to the net credit
	DAFProvider string
	DAFName     string
	CampaignID  *uint

	// Reference is a client-supplied dedup key. A non-empty reference that
	// was already recorded returns the existing grant instead of a new one.
	Reference string
}

type Service interface {
	Create(in CreateInput) (*models.PendingGrant, error)
	// SetInTransit credits the donor's wallet with the fee-adjusted pledge
	// and, for designated grants, allocates to the campaign in the same
	// transaction.
	SetInTransit(grantID, adminID uint) (*models.PendingGrant, error)
	// Reject reverses whatever SetInTransit moved, then records rejection
	// metadata. Legal from Pending and In Transit only.
	Reject(grantID, adminID uint, memo string) (*models.PendingGrant, error)
	// MarkReceived acknowledges fund arrival. No balance effect.
	MarkReceived(grantID uint) (*models.PendingGrant, error)

	Get(id uint) (*models.PendingGrant, error)
	List(statuses []models.GrantStatus, limit, offset int) ([]models.PendingGrant, int64, error)
	ListProviders() ([]models.DAFProviderEntry, error)
}

type service struct {
	store      repositories.DataStore
	ledger     ledger.Service
	recs       recommendation.Service
	fees       *fees.Calculator
	users      user.Service
	adminEmail string
}

func NewService(store repositories.DataStore, ledgerSvc ledger.Service, recSvc recommendation.Service, feeCalc *fees.Calculator, userSvc user.Service, adminEmail string) Service {
	if store == nil {
		panic("store is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if recSvc == nil {
		panic("recommendation service is required")
	}
	if feeCalc == nil {
		panic("fee calculator is required")
	}
	if userSvc == nil {
		panic("user service is required")
	}
	return &service{
		store:      store,
		ledger:     ledgerSvc,
		recs:       recSvc,
		fees:       feeCalc,
		users:      userSvc,
		adminEmail: adminEmail,
	}
}

func (s *service) Create(in CreateInput) (*models.PendingGrant, error) {
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if in.Email == "" {
		return nil, ErrMissingEmail
	}

	if in.Reference != "" {
		existing, err := s.store.GetGrantByReference(in.Reference)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repositories.ErrGrantNotFound) {
			return nil, err
		}
	}

	net, err := s.fees.Net(in.Amount, models.ChannelGrant)
	if err != nil {
		return nil, ErrInvalidAmount
	}
	investedSum := in.InvestedSum
	if !investedSum.IsPositive() {
		investedSum = net
	}

	var grant *models.PendingGrant
	err = s.store.InTransaction(func(tx repositories.DataStore) error {
		donor, err := tx.GetUserByEmail(in.Email)
		if errors.Is(err, repositories.ErrUserNotFound) {
			donor, err = s.users.ProvisionAnonymousWithin(tx, in.Email, in.FirstName, in.LastName)
		}
		if err != nil {
			return err
		}

		var campaignName string
		if in.CampaignID != nil {
			campaign, err := tx.GetCampaignByID(*in.CampaignID)
			if err != nil {
				if errors.Is(err, repositories.ErrCampaignNotFound) {
					return ErrCampaignNotFound
				}
				return err
			}
			campaignName = campaign.Name
		}

		grant = &models.PendingGrant{
			UserID:          donor.ID,
			Amount:          in.Amount,
			AmountAfterFees: net,
			InvestedSum:     investedSum,
			DAFProvider:     in.DAFProvider,
			DAFName:         in.DAFName,
			CampaignID:      in.CampaignID,
			Status:          models.GrantPending,
			Reference:       in.Reference,
		}
		if err := tx.CreateGrant(grant); err != nil {
			return err
		}

		providerURL, err := tx.GetDAFProviderURL(in.DAFProvider)
		if err != nil {
			return err
		}
		_ = tx.EnqueueEmail(notification.GrantInstructions(donor.Email, in.DAFProvider, providerURL, in.Amount))
		if s.adminEmail != "" {
			_ = tx.EnqueueEmail(notification.GrantAdminAlert(s.adminEmail, donor.Email, in.DAFProvider, in.Amount, campaignName))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grant, nil
}

func (s *service) SetInTransit(grantID, adminID uint) (*models.PendingGrant, error) {
	var grant *models.PendingGrant
	err := s.store.InTransaction(func(tx repositories.DataStore) error {
		var err error
		grant, err = tx.GetGrantForUpdate(grantID)
		if err != nil {
			if errors.Is(err, repositories.ErrGrantNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !grant.Status.CanTransition(models.GrantInTransit) {
			return ErrStateConflict
		}

		donor, err := tx.GetUserForUpdate(grant.UserID)
		if err != nil {
			return err
		}
		groupTotal, err := tx.GroupBalanceTotalForUser(donor.ID)
		if err != nil {
			return err
		}

		// The pledge must cover its own target allocation: wallet plus
		// pools plus the incoming credit must reach InvestedSum.
		available := donor.AccountBalance.Add(groupTotal).Add(grant.AmountAfterFees)
		if available.LessThan(grant.InvestedSum) {
			return ErrInsufficientFunds
		}

		_, err = s.ledger.ApplyWithin(tx, ledger.Delta{
			UserID:         donor.ID,
			Amount:         grant.AmountAfterFees,
			Reason:         string(models.ChannelGrant),
			PendingGrantID: &grant.ID,
			Reference:      grant.Reference,
		})
		if err != nil {
			return err
		}

		if grant.CampaignID != nil {
			allocation := decimal.Min(available, grant.InvestedSum)
			_, err = s.recs.AllocateWithin(tx, recommendation.AllocateInput{
				UserID:           donor.ID,
				CampaignID:       *grant.CampaignID,
				Amount:           allocation,
				UseGroupBalances: true,
				GrantID:          &grant.ID,
				ReasonTag:        donor.Username,
			})
			if err != nil {
				return err
			}
		}

		// Re-read: the ledger and allocation above rewrote the row.
		donor, err = tx.GetUserForUpdate(donor.ID)
		if err != nil {
			return err
		}
		donor.IsActive = true
		donor.IsFreeUser = false
		if err := tx.SaveUser(donor); err != nil {
			return err
		}

		now := time.Now()
		grant.Status = models.GrantInTransit
		grant.ApprovedByID = &adminID
		grant.TransitDate = &now
		return tx.SaveGrant(grant)
	})
	if err != nil {
		return nil, err
	}
	return grant, nil
}

func (s *service) Reject(grantID, adminID uint, memo string) (*models.PendingGrant, error) {
	var grant *models.PendingGrant
	err := s.store.InTransaction(func(tx repositories.DataStore) error {
		var err error
		grant, err = tx.GetGrantForUpdate(grantID)
		if err != nil {
			if errors.Is(err, repositories.ErrGrantNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !grant.Status.CanTransition(models.GrantRejected) {
			return ErrStateConflict
		}

		if grant.Status == models.GrantInTransit {
			if err := s.reverseInTransit(tx, grant, adminID); err != nil {
				return err
			}
		}

		now := time.Now()
		grant.Status = models.GrantRejected
		grant.RejectionMemo = memo
		grant.RejectedByID = &adminID
		grant.RejectionDate = &now
		if err := tx.SaveGrant(grant); err != nil {
			return err
		}

		donor, err := tx.GetUserByID(grant.UserID)
		if err == nil && donor.Email != "" && !donor.OptOutEmailNotifications {
			_ = tx.EnqueueEmail(notification.GrantRejected(donor.Email, grant.Amount, memo))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grant, nil
}

// reverseInTransit undoes the wallet credit and, for designated grants, the
// spawned allocation. The debit reversal runs before the credit reversal: the
// allocation could not have existed without the credit.
func (s *service) reverseInTransit(tx repositories.DataStore, grant *models.PendingGrant, adminID uint) error {
	credit, err := tx.GrantCreditEntry(grant.UserID, grant.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrLedgerEntryNotFound) {
			return fmt.Errorf("no credit entry recorded for grant %d", grant.ID)
		}
		return err
	}
	creditDelta := credit.Delta()

	var allocationRefund decimal.Decimal
	var spawned *models.Recommendation
	if grant.CampaignID != nil {
		rec, err := tx.RecommendationByGrant(grant.ID)
		if err != nil && !errors.Is(err, repositories.ErrRecommendationNotFound) {
			return err
		}
		if err == nil && rec.Status.CanReject() {
			spawned = rec
			allocationRefund = rec.Amount
		}
	}

	// If the donor spent the credited funds elsewhere the reversal must
	// fail outright, not drive the wallet negative.
	donor, err := tx.GetUserForUpdate(grant.UserID)
	if err != nil {
		return err
	}
	if donor.AccountBalance.Add(allocationRefund).LessThan(creditDelta) {
		return ErrInsufficientFunds
	}

	if spawned != nil {
		memo := fmt.Sprintf("Reverted Pending Grant, Pending Grant Id= %d", grant.ID)
		if err := s.recs.RejectWithin(tx, spawned.ID, adminID, memo); err != nil {
			return err
		}
	}

	_, err = s.ledger.ApplyWithin(tx, ledger.Delta{
		UserID:         grant.UserID,
		Amount:         creditDelta.Neg(),
		Reason:         fmt.Sprintf("Reverted Pending Grant, Pending Grant Id= %d", grant.ID),
		PendingGrantID: &grant.ID,
	})
	return err
}

func (s *service) MarkReceived(grantID uint) (*models.PendingGrant, error) {
	var grant *models.PendingGrant
	err := s.store.InTransaction(func(tx repositories.DataStore) error {
		var err error
		grant, err = tx.GetGrantForUpdate(grantID)
		if err != nil {
			if errors.Is(err, repositories.ErrGrantNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !grant.Status.CanTransition(models.GrantReceived) {
			return ErrStateConflict
		}
		grant.Status = models.GrantReceived
		return tx.SaveGrant(grant)
	})
	if err != nil {
		return nil, err
	}
	return grant, nil
}

func (s *service) Get(id uint) (*models.PendingGrant, error) {
	grant, err := s.store.GetGrantByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrGrantNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return grant, nil
}

func (s *service) List(statuses []models.GrantStatus, limit, offset int) ([]models.PendingGrant, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListGrants(statuses, limit, offset)
}

func (s *service) ListProviders() ([]models.DAFProviderEntry, error) {
	return s.store.ListDAFProviders()
}

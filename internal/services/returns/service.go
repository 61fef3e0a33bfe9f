// Package returns distributes a campaign's investment return pro-rata across
// the approved recommendations of currently active users. A distribution is
// write-once: corrections are new distributions, never edits.
package returns

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

type DistributeInput struct {
	CampaignID  uint
	GrossReturn decimal.Decimal
	MemoNote    string
	CreatedByID uint

	// Optional period covered by amortized / private-debt returns.
	PrivateDebtStartDate *time.Time
	PrivateDebtEndDate   *time.Time
	PostDate             time.Time
}

type Service interface {
	Distribute(in DistributeInput) (*models.ReturnMaster, error)
	History(campaignID *uint, limit, offset int) ([]models.ReturnMaster, int64, error)
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

func (s *service) Distribute(in DistributeInput) (*models.ReturnMaster, error) {
	if !in.GrossReturn.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var master *models.ReturnMaster
	err := s.store.InTransaction(func(tx repositories.DataStore) error {
		campaign, err := tx.GetCampaignByID(in.CampaignID)
		if err != nil {
			if errors.Is(err, repositories.ErrCampaignNotFound) {
				return ErrCampaignNotFound
			}
			return err
		}

		recs, err := tx.ApprovedRecommendationsForActiveUsers(in.CampaignID)
		if err != nil {
			return err
		}

		totalInvested := decimal.Zero
		for _, rec := range recs {
			totalInvested = totalInvested.Add(rec.Amount)
		}
		if !totalInvested.IsPositive() {
			return ErrNoInvestors
		}

		postDate := in.PostDate
		if postDate.IsZero() {
			postDate = time.Now()
		}

		master = &models.ReturnMaster{
			CampaignID:            in.CampaignID,
			ReturnAmount:          in.GrossReturn,
			TotalInvestors:        len(recs),
			TotalInvestmentAmount: totalInvested,
			MemoNote:              in.MemoNote,
			CreatedByID:           in.CreatedByID,
			Status:                "Accepted",
			PrivateDebtStartDate:  in.PrivateDebtStartDate,
			PrivateDebtEndDate:    in.PrivateDebtEndDate,
			PostDate:              postDate,
		}
		if err := tx.CreateReturnMaster(master); err != nil {
			return err
		}

		reason := fmt.Sprintf("Returned Amount, Return Masters Id= %d", master.ID)
		for _, rec := range recs {
			share := rec.Amount.Div(totalInvested)
			percentage := share.Mul(decimal.NewFromInt(100)).Round(2)
			payout := share.Mul(in.GrossReturn).Round(2)

			detail := &models.ReturnDetail{
				ReturnMasterID:              master.ID,
				UserID:                      rec.UserID,
				InvestmentAmount:            rec.Amount,
				PercentageOfTotalInvestment: percentage,
				ReturnAmount:                payout,
			}
			if err := tx.CreateReturnDetail(detail); err != nil {
				return err
			}

			if payout.IsPositive() {
				_, err := s.ledger.ApplyWithin(tx, ledger.Delta{
					UserID:         rec.UserID,
					Amount:         payout,
					Reason:         reason,
					InvestmentName: campaign.Name,
				})
				if err != nil {
					return err
				}
			}

			if rec.UserEmail != "" {
				recipient, err := tx.GetUserByID(rec.UserID)
				if err == nil && !recipient.OptOutEmailNotifications {
					_ = tx.EnqueueEmail(notification.ReturnPayout(rec.UserEmail, campaign.Name, payout))
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return master, nil
}

func (s *service) History(campaignID *uint, limit, offset int) ([]models.ReturnMaster, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListReturnHistory(campaignID, limit, offset)
}

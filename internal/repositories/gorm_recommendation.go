package repositories

import (
	"fmt"

	"catalyst/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *gormStore) CreateRecommendation(rec *models.Recommendation) error {
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create recommendation: %w", err)
	}
	return nil
}

func (s *gormStore) GetRecommendationByID(id uint) (*models.Recommendation, error) {
	var rec models.Recommendation
	if err := s.db.First(&rec, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecommendationNotFound
		}
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}
	return &rec, nil
}

func (s *gormStore) GetRecommendationForUpdate(id uint) (*models.Recommendation, error) {
	var rec models.Recommendation
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecommendationNotFound
		}
		return nil, fmt.Errorf("failed to lock recommendation: %w", err)
	}
	return &rec, nil
}

func (s *gormStore) SaveRecommendation(rec *models.Recommendation) error {
	if err := s.db.Save(rec).Error; err != nil {
		return fmt.Errorf("failed to save recommendation: %w", err)
	}
	return nil
}

func (s *gormStore) ListRecommendations(campaignID *uint, statuses []models.RecommendationStatus, limit, offset int) ([]models.Recommendation, int64, error) {
	q := s.db.Model(&models.Recommendation{})
	if campaignID != nil {
		q = q.Where("campaign_id = ?", *campaignID)
	}
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recommendations: %w", err)
	}

	var recs []models.Recommendation
	err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&recs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recommendations: %w", err)
	}
	return recs, total, nil
}

func (s *gormStore) AllRecommendations() ([]models.Recommendation, error) {
	var recs []models.Recommendation
	if err := s.db.Order("id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	return recs, nil
}

func (s *gormStore) RecommendationByGrant(grantID uint) (*models.Recommendation, error) {
	var rec models.Recommendation
	err := s.db.Where("pending_grant_id = ?", grantID).Order("id DESC").First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecommendationNotFound
		}
		return nil, fmt.Errorf("failed to get recommendation by grant: %w", err)
	}
	return &rec, nil
}

func (s *gormStore) ApprovedRecommendationsForActiveUsers(campaignID uint) ([]models.Recommendation, error) {
	var recs []models.Recommendation
	err := s.db.
		Joins("JOIN users ON users.id = recommendations.user_id").
		Where("recommendations.campaign_id = ?", campaignID).
		Where("recommendations.status = ?", models.RecommendationApproved).
		Where("users.is_active = ?", true).
		Order("recommendations.id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list approved recommendations: %w", err)
	}
	return recs, nil
}

func (s *gormStore) CampaignTotals(campaignID uint) (decimal.Decimal, int64, error) {
	base := func() *gorm.DB {
		return s.db.Model(&models.Recommendation{}).
			Where("campaign_id = ?", campaignID).
			Where("status IN ?", []models.RecommendationStatus{
				models.RecommendationPending,
				models.RecommendationApproved,
			}).
			Where("amount > 0 AND user_email <> ''")
	}

	var raised decimal.Decimal
	if err := base().Select("COALESCE(SUM(amount), 0)").Scan(&raised).Error; err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to sum campaign raised total: %w", err)
	}

	var investors int64
	if err := base().Distinct("user_email").Count(&investors).Error; err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to count campaign investors: %w", err)
	}
	return raised, investors, nil
}

func (s *gormStore) EmailsRecommendedCampaign(campaignID uint, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	var matched []string
	err := s.db.Model(&models.Recommendation{}).
		Where("campaign_id = ? AND user_email IN ?", campaignID, emails).
		Distinct().
		Pluck("user_email", &matched).Error
	if err != nil {
		return nil, fmt.Errorf("failed to match recommended emails: %w", err)
	}
	return matched, nil
}

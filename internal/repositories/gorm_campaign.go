package repositories

import (
	"fmt"

	"catalyst/internal/models"

	"gorm.io/gorm"
)

func (s *gormStore) CreateCampaign(c *models.Campaign) error {
	if err := s.db.Create(c).Error; err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

func (s *gormStore) GetCampaignByID(id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.db.First(&campaign, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &campaign, nil
}

func (s *gormStore) ListCampaigns() ([]models.Campaign, error) {
	var campaigns []models.Campaign
	if err := s.db.Order("id ASC").Find(&campaigns).Error; err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

func (s *gormStore) CreateReturnMaster(master *models.ReturnMaster) error {
	if err := s.db.Create(master).Error; err != nil {
		return fmt.Errorf("failed to create return master: %w", err)
	}
	return nil
}

func (s *gormStore) CreateReturnDetail(detail *models.ReturnDetail) error {
	if err := s.db.Create(detail).Error; err != nil {
		return fmt.Errorf("failed to create return detail: %w", err)
	}
	return nil
}

func (s *gormStore) ListReturnHistory(campaignID *uint, limit, offset int) ([]models.ReturnMaster, int64, error) {
	q := s.db.Model(&models.ReturnMaster{})
	if campaignID != nil {
		q = q.Where("campaign_id = ?", *campaignID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count return history: %w", err)
	}

	var masters []models.ReturnMaster
	err := q.Preload("Details").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&masters).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list return history: %w", err)
	}
	return masters, total, nil
}

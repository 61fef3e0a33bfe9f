package repositories

import (
	"fmt"

	"catalyst/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *gormStore) CreateGrant(grant *models.PendingGrant) error {
	if err := s.db.Create(grant).Error; err != nil {
		return fmt.Errorf("failed to create grant: %w", err)
	}
	return nil
}

func (s *gormStore) GetGrantByID(id uint) (*models.PendingGrant, error) {
	var grant models.PendingGrant
	if err := s.db.First(&grant, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrGrantNotFound
		}
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}
	return &grant, nil
}

func (s *gormStore) GetGrantForUpdate(id uint) (*models.PendingGrant, error) {
	var grant models.PendingGrant
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&grant, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrGrantNotFound
		}
		return nil, fmt.Errorf("failed to lock grant: %w", err)
	}
	return &grant, nil
}

func (s *gormStore) GetGrantByReference(reference string) (*models.PendingGrant, error) {
	var grant models.PendingGrant
	err := s.db.Where("reference = ?", reference).First(&grant).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrGrantNotFound
		}
		return nil, fmt.Errorf("failed to get grant by reference: %w", err)
	}
	return &grant, nil
}

func (s *gormStore) SaveGrant(grant *models.PendingGrant) error {
	if err := s.db.Save(grant).Error; err != nil {
		return fmt.Errorf("failed to save grant: %w", err)
	}
	return nil
}

func (s *gormStore) ListGrants(statuses []models.GrantStatus, limit, offset int) ([]models.PendingGrant, int64, error) {
	q := s.db.Model(&models.PendingGrant{})
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count grants: %w", err)
	}

	var grants []models.PendingGrant
	err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&grants).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list grants: %w", err)
	}
	return grants, total, nil
}

func (s *gormStore) AllGrants() ([]models.PendingGrant, error) {
	var grants []models.PendingGrant
	if err := s.db.Order("id ASC").Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	return grants, nil
}

func (s *gormStore) ListDAFProviders() ([]models.DAFProviderEntry, error) {
	var providers []models.DAFProviderEntry
	err := s.db.Where("is_active = ?", true).Order("provider_name ASC").Find(&providers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list DAF providers: %w", err)
	}
	return providers, nil
}

func (s *gormStore) GetDAFProviderURL(name string) (string, error) {
	var provider models.DAFProviderEntry
	err := s.db.Where("provider_name = ?", name).First(&provider).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to get DAF provider: %w", err)
	}
	return provider.ProviderURL, nil
}

func (s *gormStore) CreateDAFProvider(p *models.DAFProviderEntry) error {
	if err := s.db.Create(p).Error; err != nil {
		return fmt.Errorf("failed to create DAF provider: %w", err)
	}
	return nil
}

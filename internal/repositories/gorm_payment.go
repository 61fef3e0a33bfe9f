package repositories

import (
	"fmt"

	"catalyst/internal/models"

	"gorm.io/gorm"
)

func (s *gormStore) CreateFailedPayment(fp *models.FailedPayment) error {
	if err := s.db.Create(fp).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReference
		}
		return fmt.Errorf("failed to record failed payment: %w", err)
	}
	return nil
}

func (s *gormStore) GetFailedPaymentByExternalID(externalID string) (*models.FailedPayment, error) {
	var fp models.FailedPayment
	err := s.db.Where("external_txn_id = ?", externalID).First(&fp).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get failed payment: %w", err)
	}
	return &fp, nil
}

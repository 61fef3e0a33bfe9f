package repositories

import (
	"fmt"

	"catalyst/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func (s *gormStore) AppendLedger(entry *models.BalanceChangeLog) error {
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func (s *gormStore) LedgerHistoryForUser(userID uint, limit, offset int) ([]models.BalanceChangeLog, int64, error) {
	var total int64
	q := s.db.Model(&models.BalanceChangeLog{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	var entries []models.BalanceChangeLog
	err := s.db.Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, total, nil
}

func (s *gormStore) GrantCreditEntry(userID, grantID uint) (*models.BalanceChangeLog, error) {
	var entry models.BalanceChangeLog
	err := s.db.Where("user_id = ? AND pending_grant_id = ? AND group_id IS NULL AND new_value > old_value", userID, grantID).
		Order("id ASC").
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrLedgerEntryNotFound
		}
		return nil, fmt.Errorf("failed to get grant ledger entry: %w", err)
	}
	return &entry, nil
}

func (s *gormStore) LedgerDeltaSumForUser(userID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.Model(&models.BalanceChangeLog{}).
		Where("user_id = ? AND group_id IS NULL", userID).
		Select("COALESCE(SUM(new_value - old_value), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum ledger deltas: %w", err)
	}
	return total, nil
}

func (s *gormStore) AllLedgerEntries() ([]models.BalanceChangeLog, error) {
	var entries []models.BalanceChangeLog
	if err := s.db.Order("id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}

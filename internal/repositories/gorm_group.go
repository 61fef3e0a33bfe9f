package repositories

import (
	"fmt"

	"catalyst/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *gormStore) GetGroupByID(id uint) (*models.Group, error) {
	var group models.Group
	if err := s.db.First(&group, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group, nil
}

func (s *gormStore) GroupBalancesForUpdate(userID uint) ([]models.GroupAccountBalance, error) {
	var balances []models.GroupAccountBalance
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&balances).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock group balances: %w", err)
	}
	return balances, nil
}

func (s *gormStore) GetGroupBalanceForUpdate(userID, groupID uint) (*models.GroupAccountBalance, error) {
	var gb models.GroupAccountBalance
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		First(&gb).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrGroupBalanceNotFound
		}
		return nil, fmt.Errorf("failed to lock group balance: %w", err)
	}
	return &gb, nil
}

func (s *gormStore) CreateGroupBalance(gb *models.GroupAccountBalance) error {
	if err := s.db.Create(gb).Error; err != nil {
		return fmt.Errorf("failed to create group balance: %w", err)
	}
	return nil
}

func (s *gormStore) SaveGroupBalance(gb *models.GroupAccountBalance) error {
	if err := s.db.Save(gb).Error; err != nil {
		return fmt.Errorf("failed to save group balance: %w", err)
	}
	return nil
}

func (s *gormStore) GroupAllocatedTotal(groupID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.Model(&models.GroupAccountBalance{}).
		Where("group_id = ?", groupID).
		Select("COALESCE(SUM(balance), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum group allocations: %w", err)
	}
	return total, nil
}

// GroupInvestedTotal derives spent pool funds from ledger entries that moved
// money out of a sub-balance toward a campaign (group id set, investment name
// recorded, balance decreased).
func (s *gormStore) GroupInvestedTotal(groupID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.Model(&models.BalanceChangeLog{}).
		Where("group_id = ? AND investment_name <> ''", groupID).
		Select("COALESCE(SUM(old_value - new_value), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum group investments: %w", err)
	}
	return total, nil
}

func (s *gormStore) GroupBalanceTotalForUser(userID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.Model(&models.GroupAccountBalance{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(balance), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum user group balances: %w", err)
	}
	return total, nil
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Group is a shared funding pool. OriginalBalance bounds how much can ever
// be allocated across member sub-balances; it is never mutated by allocation.
type Group struct {
	gorm.Model
	Name            string          `gorm:"not null"`
	OriginalBalance decimal.Decimal `gorm:"type:numeric(18,2);default:0"`
	LeaderUserID    *uint
}

// GroupAccountBalance is one member's spendable sub-balance inside a group.
// Debit logic keeps Balance >= 0; there is no DB constraint.
type GroupAccountBalance struct {
	ID          uint `gorm:"primarykey"`
	UserID      uint `gorm:"index:idx_group_balance_user_group,unique;not null"`
	GroupID     uint `gorm:"index:idx_group_balance_user_group,unique;not null"`
	User        *User
	Group       *Group
	Balance     decimal.Decimal `gorm:"type:numeric(18,2);default:0"`
	LastUpdated time.Time
	CreatedAt   time.Time
}

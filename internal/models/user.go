package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email     string `gorm:"uniqueIndex;not null"`
	Username  string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null"`
	FirstName string
	LastName  string
	Role      string `gorm:"default:'user'"`

	// AccountBalance is the personal wallet. It is denormalized for fast
	// reads; the balance change log remains the source of truth and the
	// stored value must always equal the sum of logged deltas.
	AccountBalance decimal.Decimal `gorm:"type:numeric(18,2);default:0"`

	IsActive bool `gorm:"default:false"`
	// IsFreeUser marks accounts provisioned during anonymous grant intake
	// that have not yet moved money. Marketing state, not ledger state.
	IsFreeUser bool `gorm:"default:false"`

	OptOutEmailNotifications bool `gorm:"default:false"`
	IsAnonymousInvestor      bool `gorm:"default:false"`

	LastLoginAt time.Time
}

func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

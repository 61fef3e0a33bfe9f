package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnMaster is one distribution event for a campaign. Created once,
// immutable afterwards; a correction is a new distribution.
type ReturnMaster struct {
	ID         uint `gorm:"primarykey"`
	CampaignID uint `gorm:"index;not null"`
	Campaign   *Campaign

	ReturnAmount          decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	TotalInvestors        int
	TotalInvestmentAmount decimal.Decimal `gorm:"type:numeric(18,2)"`

	MemoNote    string
	CreatedByID uint
	Status      string `gorm:"default:'Accepted'"`

	// Optional period covered by amortized / private-debt returns.
	PrivateDebtStartDate *time.Time
	PrivateDebtEndDate   *time.Time

	PostDate  time.Time
	CreatedAt time.Time

	Details []ReturnDetail `gorm:"foreignKey:ReturnMasterID"`
}

// ReturnDetail is one contributor's slice of a distribution.
type ReturnDetail struct {
	ID             uint `gorm:"primarykey"`
	ReturnMasterID uint `gorm:"index;not null"`
	UserID         uint `gorm:"index;not null"`
	User           *User

	InvestmentAmount            decimal.Decimal `gorm:"type:numeric(18,2)"`
	PercentageOfTotalInvestment decimal.Decimal `gorm:"type:numeric(7,2)"`
	ReturnAmount                decimal.Decimal `gorm:"type:numeric(18,2)"`

	CreatedAt time.Time
}

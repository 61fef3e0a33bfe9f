package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RecommendationStatus string

const (
	RecommendationPending  RecommendationStatus = "pending"
	RecommendationApproved RecommendationStatus = "approved"
	RecommendationRejected RecommendationStatus = "rejected"
)

// CanReject reports whether a recommendation in this status may still be
// rejected by an admin.
func (s RecommendationStatus) CanReject() bool {
	return s == RecommendationPending || s == RecommendationApproved
}

// Recommendation is one allocation of a user's available balance toward a
// campaign. UserEmail and UserFullName are denormalized on purpose: they are
// a historical snapshot and keep matching stable if the user later changes
// their email.
type Recommendation struct {
	gorm.Model
	UserID       uint   `gorm:"index;not null"`
	UserEmail    string `gorm:"index;not null"`
	UserFullName string

	CampaignID uint `gorm:"index;not null"`
	Campaign   *Campaign

	Amount decimal.Decimal      `gorm:"type:numeric(18,2);not null"`
	Status RecommendationStatus `gorm:"type:varchar(16);default:'pending';index"`

	// Set when the allocation was spawned by a grant going in transit.
	PendingGrantID *uint `gorm:"index"`

	RejectionMemo string
	RejectedByID  *uint
	RejectedBy    *User `gorm:"foreignKey:RejectedByID"`
	RejectionDate *time.Time
}

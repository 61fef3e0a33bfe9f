package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GrantStatus is the lifecycle state of a pending grant. Received and
// Rejected are terminal.
type GrantStatus string

const (
	GrantPending   GrantStatus = "Pending"
	GrantInTransit GrantStatus = "In Transit"
	GrantReceived  GrantStatus = "Received"
	GrantRejected  GrantStatus = "Rejected"
)

var grantTransitions = map[GrantStatus][]GrantStatus{
	GrantPending:   {GrantInTransit, GrantRejected},
	GrantInTransit: {GrantReceived, GrantRejected},
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// step.
func (s GrantStatus) CanTransition(next GrantStatus) bool {
	for _, allowed := range grantTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s GrantStatus) Terminal() bool {
	return s == GrantReceived || s == GrantRejected
}

// PendingGrant is a pledged third-party (DAF or foundation) donation.
// Amount is the gross pledge; AmountAfterFees is the wallet credit the
// pledge will produce once in transit. InvestedSum is the target campaign
// allocation and may exceed Amount when topped up from existing balances.
type PendingGrant struct {
	gorm.Model
	UserID uint `gorm:"index;not null"`
	User   *User

	Amount          decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	AmountAfterFees decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	InvestedSum     decimal.Decimal `gorm:"type:numeric(18,2);not null"`

	DAFProvider string
	DAFName     string

	CampaignID *uint `gorm:"index"`
	Campaign   *Campaign

	Status GrantStatus `gorm:"type:varchar(16);default:'Pending';index"`

	// Reference is an optional client-supplied dedup key / external id.
	Reference string `gorm:"index"`

	// ApprovedByID records the admin who moved the grant in transit.
	ApprovedByID *uint
	ApprovedBy   *User `gorm:"foreignKey:ApprovedByID"`
	TransitDate  *time.Time

	RejectionMemo string
	RejectedByID  *uint
	RejectedBy    *User `gorm:"foreignKey:RejectedByID"`
	RejectionDate *time.Time
}

// DAFProviderEntry is a directory row for a donor-advised-fund provider,
// shown during grant intake and linked from instruction emails.
type DAFProviderEntry struct {
	ID           uint   `gorm:"primarykey"`
	ProviderName string `gorm:"uniqueIndex;not null"`
	ProviderURL  string
	IsActive     bool `gorm:"default:true"`
}

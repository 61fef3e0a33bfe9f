package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceChangeLog is the ledger: one immutable row per balance mutation,
// personal or group. Rows are insert-only and never updated or deleted.
// NewValue must equal OldValue plus the delta applied by the operation.
type BalanceChangeLog struct {
	ID       uint `gorm:"primarykey"`
	UserID   uint `gorm:"index;not null"`
	Username string

	OldValue decimal.Decimal `gorm:"type:numeric(18,2)"`
	NewValue decimal.Decimal `gorm:"type:numeric(18,2)"`

	// PaymentType is the free-text reason tag, e.g. "Stripe Card",
	// "Manually, admin", "Reverted Recommendation Amount, Recommendation Id= 7".
	PaymentType string `gorm:"not null"`

	// Set when the mutation touched a group sub-balance instead of the
	// personal wallet.
	GroupID *uint `gorm:"index"`
	// Set when the mutation was driven by a pending grant.
	PendingGrantID *uint `gorm:"index"`
	// Campaign name at allocation time, kept as a snapshot.
	InvestmentName string
	// External transaction id, when the mutation originated at the gateway.
	Reference string

	ChangeDate time.Time `gorm:"autoCreateTime"`
}

// Delta is the signed amount this entry applied.
func (l *BalanceChangeLog) Delta() decimal.Decimal {
	return l.NewValue.Sub(l.OldValue)
}

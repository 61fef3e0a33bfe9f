package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentChannel identifies how money arrived, which determines the fee
// schedule applied before crediting a wallet.
type PaymentChannel string

const (
	ChannelCard  PaymentChannel = "Stripe Card"
	ChannelBank  PaymentChannel = "Stripe Bank"
	ChannelGrant PaymentChannel = "Grant"
)

func (c PaymentChannel) Valid() bool {
	switch c {
	case ChannelCard, ChannelBank, ChannelGrant:
		return true
	}
	return false
}

// FailedPayment is the audit row written when the gateway reports a failed
// charge. No balance is ever mutated for a failed payment.
type FailedPayment struct {
	ID            uint   `gorm:"primarykey"`
	UserID        uint   `gorm:"index"`
	ExternalTxnID string `gorm:"uniqueIndex;not null"`
	Channel       PaymentChannel
	Amount        decimal.Decimal `gorm:"type:numeric(18,2)"`
	FailureReason string
	CreatedAt     time.Time
}

// Package fees computes the net wallet credit for a gross payment on a given
// channel. Pure arithmetic on decimals; no I/O.
package fees

import (
	"errors"

	"catalyst/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount  = errors.New("gross amount must be positive")
	ErrUnknownChannel = errors.New("unknown payment channel")
)

var (
	cardRate     = decimal.NewFromFloat(0.022)
	cardFlat     = decimal.NewFromFloat(0.30)
	bankRate     = decimal.NewFromFloat(0.008)
	bankCap      = decimal.NewFromFloat(5.00)
	platformRate = decimal.NewFromFloat(0.05)
)

type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Net maps a gross amount and channel to the amount credited to the wallet.
//
//	card:  gross − (gross×0.022 + 0.30) − gross×0.05
//	bank:  gross − min(gross×0.008, 5.00) − gross×0.05
//	grant: gross − gross×0.05
func (c *Calculator) Net(gross decimal.Decimal, channel models.PaymentChannel) (decimal.Decimal, error) {
	if !gross.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	platformFee := gross.Mul(platformRate)

	switch channel {
	case models.ChannelCard:
		processorFee := gross.Mul(cardRate).Add(cardFlat)
		return gross.Sub(processorFee).Sub(platformFee), nil
	case models.ChannelBank:
		processorFee := decimal.Min(gross.Mul(bankRate), bankCap)
		return gross.Sub(processorFee).Sub(platformFee), nil
	case models.ChannelGrant:
		return gross.Sub(platformFee), nil
	default:
		return decimal.Zero, ErrUnknownChannel
	}
}

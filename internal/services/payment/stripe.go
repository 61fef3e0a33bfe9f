package payment

import (
	"context"
	"errors"
	"fmt"

	"catalyst/internal/models"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// StripeGateway charges cards and bank accounts through Stripe
// PaymentIntents. Amounts are converted to cents; Stripe has no notion of
// our fee schedule, which is applied after the gross charge settles.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(apiKey string) *StripeGateway {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) Charge(ctx context.Context, in ChargeInput) (*GatewayResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(in.Amount.Shift(2).IntPart()),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethod: stripe.String(in.PaymentMethodID),
		Confirm:       stripe.Bool(true),
	}
	params.Context = ctx
	if in.Channel == models.ChannelBank {
		params.PaymentMethodTypes = stripe.StringSlice([]string{"us_bank_account"})
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			txnID := stripeErr.RequestID
			if stripeErr.PaymentIntent != nil {
				txnID = stripeErr.PaymentIntent.ID
			}
			return &GatewayResult{
				Gross:         in.Amount,
				Channel:       in.Channel,
				ExternalTxnID: txnID,
				Succeeded:     false,
				FailureReason: stripeErr.Msg,
			}, nil
		}
		return nil, fmt.Errorf("stripe charge failed: %w", err)
	}

	return &GatewayResult{
		Gross:         in.Amount,
		Channel:       in.Channel,
		ExternalTxnID: pi.ID,
		Succeeded:     pi.Status == stripe.PaymentIntentStatusSucceeded,
		FailureReason: failureReason(pi),
	}, nil
}

func failureReason(pi *stripe.PaymentIntent) string {
	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		return ""
	}
	if pi.LastPaymentError != nil {
		return pi.LastPaymentError.Msg
	}
	return string(pi.Status)
}

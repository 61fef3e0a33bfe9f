// Package payment turns gateway charge results into wallet credits. The
// gateway reports gross amounts; the configured fee schedule is deducted
// before anything reaches a wallet. Failed charges produce an audit row and
// never touch a balance.
package payment

import (
	"context"
	"errors"

	"catalyst/internal/models"
	"catalyst/internal/repositories"
	"catalyst/internal/services/fees"
	"catalyst/internal/services/ledger"
	"catalyst/internal/services/notification"

	"github.com/shopspring/decimal"
)

// ChargeInput describes a charge to run against the gateway.
type ChargeInput struct {
	UserID          uint
	Amount          decimal.Decimal
	Channel         models.PaymentChannel
	PaymentMethodID string
}

// GatewayResult is the outcome of a charge as reported by the gateway,
// either synchronously or via webhook.
type GatewayResult struct {
	UserID        uint
	Gross         decimal.Decimal
	Channel       models.PaymentChannel
	ExternalTxnID string
	Succeeded     bool
	FailureReason string
}

// Gateway runs card and bank charges. Implemented by StripeGateway.
type Gateway interface {
	Charge(ctx context.Context, in ChargeInput) (*GatewayResult, error)
}

type Service interface {
	// Charge runs the charge through the gateway and records the outcome.
	Charge(ctx context.Context, in ChargeInput) (*models.BalanceChangeLog, error)
	// RecordGatewayResult applies a gateway outcome: a net wallet credit on
	// success, a FailedPayment audit row otherwise. The returned entry is
	// nil for failed charges.
	RecordGatewayResult(in GatewayResult) (*models.BalanceChangeLog, error)
}

type service struct {
	store   repositories.DataStore
	ledger  ledger.Service
	fees    *fees.Calculator
	gateway Gateway
}

// NewService wires the payment service. gateway may be nil when only
// webhook-driven recording is needed.
func NewService(store repositories.DataStore, ledgerSvc ledger.Service, calc *fees.Calculator, gateway Gateway) Service {
	if store == nil {
		panic("store is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if calc == nil {
		panic("fee calculator is required")
	}
	return &service{store: store, ledger: ledgerSvc, fees: calc, gateway: gateway}
}

func (s *service) Charge(ctx context.Context, in ChargeInput) (*models.BalanceChangeLog, error) {
	if s.gateway == nil {
		return nil, errors.New("no payment gateway configured")
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !in.Channel.Valid() {
		return nil, ErrUnknownChannel
	}

	result, err := s.gateway.Charge(ctx, in)
	if err != nil {
		return nil, err
	}
	result.UserID = in.UserID

	entry, err := s.RecordGatewayResult(*result)
	if err != nil {
		return nil, err
	}
	if !result.Succeeded {
		return nil, ErrPaymentDeclined
	}
	return entry, nil
}

func (s *service) RecordGatewayResult(in GatewayResult) (*models.BalanceChangeLog, error) {
	if !in.Gross.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !in.Channel.Valid() {
		return nil, ErrUnknownChannel
	}
	if in.ExternalTxnID == "" {
		return nil, ErrMissingTransactionID
	}

	if !in.Succeeded {
		return nil, s.recordFailure(in)
	}

	net, err := s.fees.Net(in.Gross, in.Channel)
	if err != nil {
		return nil, err
	}

	var entry *models.BalanceChangeLog
	err = s.store.InTransaction(func(tx repositories.DataStore) error {
		entry, err = s.ledger.ApplyWithin(tx, ledger.Delta{
			UserID:    in.UserID,
			Amount:    net,
			Reason:    string(in.Channel),
			Reference: in.ExternalTxnID,
		})
		if err != nil {
			if errors.Is(err, ledger.ErrUserNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		// A funded wallet makes the account a live investor account.
		user, err := tx.GetUserByID(in.UserID)
		if err != nil {
			return err
		}
		if !user.IsActive || user.IsFreeUser {
			user.IsActive = true
			user.IsFreeUser = false
			if err := tx.SaveUser(user); err != nil {
				return err
			}
		}

		if !user.OptOutEmailNotifications {
			return tx.EnqueueEmail(notification.WalletCredit(user.Email, net))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) recordFailure(in GatewayResult) error {
	fp := &models.FailedPayment{
		UserID:        in.UserID,
		ExternalTxnID: in.ExternalTxnID,
		Channel:       in.Channel,
		Amount:        in.Gross,
		FailureReason: in.FailureReason,
	}
	if err := s.store.CreateFailedPayment(fp); err != nil {
		if errors.Is(err, repositories.ErrDuplicateReference) {
			return ErrDuplicateTransaction
		}
		return err
	}
	return nil
}

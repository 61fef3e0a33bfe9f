package payment

import "errors"

var (
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrUnknownChannel       = errors.New("unknown payment channel")
	ErrMissingTransactionID = errors.New("external transaction id is required")
	ErrDuplicateTransaction = errors.New("transaction already recorded")
	ErrUserNotFound         = errors.New("user not found")
	ErrPaymentDeclined      = errors.New("payment was declined by the gateway")
)

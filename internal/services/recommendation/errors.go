package recommendation

import "errors"

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrUserNotFound      = errors.New("user not found")
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrNotFound          = errors.New("recommendation not found")
	ErrInsufficientFunds = errors.New("no funds available to allocate")
	ErrStateConflict     = errors.New("recommendation status does not permit this transition")
)

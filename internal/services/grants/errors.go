package grants

import "errors"

var (
	ErrInvalidAmount     = errors.New("gross amount must be positive")
	ErrMissingEmail      = errors.New("donor email is required")
	ErrNotFound          = errors.New("pending grant not found")
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrStateConflict     = errors.New("grant status does not permit this transition")
	ErrInsufficientFunds = errors.New("insufficient combined capacity for the pledged allocation")
)

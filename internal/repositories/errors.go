package repositories

import "errors"

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrGroupNotFound          = errors.New("group not found")
	ErrGroupBalanceNotFound   = errors.New("group account balance not found")
	ErrCampaignNotFound       = errors.New("campaign not found")
	ErrGrantNotFound          = errors.New("pending grant not found")
	ErrRecommendationNotFound = errors.New("recommendation not found")
	ErrFollowRequestNotFound  = errors.New("follow request not found")
	ErrLedgerEntryNotFound    = errors.New("ledger entry not found")
	ErrPaymentNotFound        = errors.New("payment record not found")
	ErrDuplicateEmail         = errors.New("email already taken")
	ErrDuplicateUsername      = errors.New("username already taken")
	ErrDuplicateReference     = errors.New("reference already recorded")
)

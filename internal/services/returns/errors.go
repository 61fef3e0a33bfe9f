package returns

import "errors"

var (
	ErrInvalidAmount    = errors.New("gross return must be positive")
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrNoInvestors      = errors.New("campaign has no approved investments from active users")
)

package ledger

import "errors"

var (
	ErrInvalidDelta          = errors.New("delta must be non-zero")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrGroupCapacityExceeded = errors.New("group pool capacity exceeded")
	ErrConcurrencyConflict   = errors.New("concurrent balance mutation, retry failed")
	ErrUserNotFound          = errors.New("user not found")
	ErrGroupNotFound         = errors.New("group not found")
)

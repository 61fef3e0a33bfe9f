package user

import "errors"

var (
	ErrNotFound          = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrInvalidInput      = errors.New("missing or invalid input")
	ErrInvalidResetCode  = errors.New("invalid or expired reset code")
	ErrInvalidAmount     = errors.New("amount must be non-zero")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

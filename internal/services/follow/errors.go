package follow

import "errors"

var (
	ErrNotFound      = errors.New("follow request not found")
	ErrSelfFollow    = errors.New("cannot follow yourself")
	ErrUserNotFound  = errors.New("user not found")
	ErrStateConflict = errors.New("follow request already resolved")
	ErrNotRecipient  = errors.New("follow request addressed to another user")
)

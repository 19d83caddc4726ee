package domain

import "errors"

var (
	ErrNoActiveSubscription = errors.New("no_active_subscription")
	ErrQuotaExceeded        = errors.New("quota_exceeded")
	ErrInvalidUser          = errors.New("invalid_user")
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrInvalidLimit         = errors.New("invalid_limit")
)

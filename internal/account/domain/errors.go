package domain

import "errors"

var (
	ErrUserNotFound    = errors.New("user_not_found")
	ErrEmailTaken      = errors.New("email_taken")
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidPassword = errors.New("invalid_password")
	ErrInvalidFullName = errors.New("invalid_full_name")
)

package domain

import "errors"

var (
	ErrCodeNotFound            = errors.New("referral_code_not_found")
	ErrCodeGenerationExhausted = errors.New("referral_code_generation_exhausted")
	ErrSelfReferral            = errors.New("self_referral")
	ErrInvalidOwner            = errors.New("invalid_owner")
	ErrInvalidCode             = errors.New("invalid_code")
)

package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// CreateUserRequest carries validated signup input.
type CreateUserRequest struct {
	Email    string
	FullName string
	Password string

	// ReferrerID is set when a valid referral code was supplied at signup.
	ReferrerID *snowflake.ID
}

type Service interface {
	// Create inserts a new account. When tx is non-nil the insert joins the
	// caller's transaction.
	Create(ctx context.Context, tx *gorm.DB, req CreateUserRequest) (*User, error)
	GetByID(ctx context.Context, id snowflake.ID) (*User, error)
	GetByReferralCode(ctx context.Context, code string) (*User, error)
}

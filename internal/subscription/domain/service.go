package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ConsumeResult is returned after a successful attempt consumption.
type ConsumeResult struct {
	Subscription Subscription `json:"subscription"`
	Remaining    int          `json:"remaining"`
}

// ReplaceRequest inserts a brand-new ledger entry for a user. Prior rows
// are kept as history.
type ReplaceRequest struct {
	PlanID        string
	Status        SubscriptionStatus
	AttemptsLimit int
}

type Service interface {
	// CreateInitialGrant inserts the first active entry for a user with
	// attempts_limit = base + bonus. Joins tx when non-nil.
	CreateInitialGrant(ctx context.Context, tx *gorm.DB, userID snowflake.ID, baseAttempts, bonus int) (*Subscription, error)

	// ConsumeAttempt atomically spends one attempt on the user's current
	// entry. Fails ErrNoActiveSubscription when the user has no active
	// entry and ErrQuotaExceeded when the budget is spent.
	ConsumeAttempt(ctx context.Context, userID snowflake.ID) (*ConsumeResult, error)

	// IncreaseLimit adds delta to the current entry's attempts_limit,
	// creating a fresh entry with attempts_limit = delta when the user has
	// none. Joins tx when non-nil.
	IncreaseLimit(ctx context.Context, tx *gorm.DB, userID snowflake.ID, delta int) (*Subscription, error)

	// PurchaseAttempts adds quantity to the current entry's limit and
	// fails ErrNoActiveSubscription when the user has no entry.
	PurchaseAttempts(ctx context.Context, userID snowflake.ID, quantity int) (*Subscription, error)

	// Replace appends a new entry which becomes current by ordering.
	Replace(ctx context.Context, userID snowflake.ID, req ReplaceRequest) (*Subscription, error)

	Current(ctx context.Context, userID snowflake.ID) (*Subscription, error)
}

package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)

	// FindCurrent resolves the "current" ledger entry for a user: the
	// active row with the greatest updated_at, ties broken by greatest id.
	FindCurrent(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Subscription, error)

	// ConsumeAttempt performs the single conditional update guarding the
	// used <= limit invariant and reports whether a row was affected.
	ConsumeAttempt(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)

	IncreaseLimit(ctx context.Context, db *gorm.DB, id snowflake.ID, delta int, now time.Time) error
	InsertAttempt(ctx context.Context, db *gorm.DB, attempt *QuizAttempt) error
}

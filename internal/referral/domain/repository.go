package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertCode(ctx context.Context, db *gorm.DB, code *ReferralCode) error
	FindCodeByOwner(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) (*ReferralCode, error)
	FindCodeByCode(ctx context.Context, db *gorm.DB, code string) (*ReferralCode, error)

	// IncrementUse bumps uses_count and last_used_at by one use.
	IncrementUse(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error
	// StampThreshold sets last_10_reached_at once the lifetime use count has
	// crossed the threshold. The stamp is written at most once.
	StampThreshold(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error

	InsertEvent(ctx context.Context, db *gorm.DB, event *ReferralEvent) error
	// CountEventsSince counts rewarded signups for a referrer from the given
	// instant forward.
	CountEventsSince(ctx context.Context, db *gorm.DB, referrerID snowflake.ID, since time.Time) (int64, error)
}

package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Repository fetches raw rows for Go-side bucketing. Date math stays out of
// SQL so the same queries run on postgres, mysql, and sqlite.
type Repository interface {
	FetchAttempts(ctx context.Context, db *gorm.DB, since time.Time) ([]AttemptRow, error)
	FetchNewUsers(ctx context.Context, db *gorm.DB, since time.Time) ([]time.Time, error)
	FetchConversions(ctx context.Context, db *gorm.DB, since time.Time) ([]time.Time, error)
	FetchSessions(ctx context.Context, db *gorm.DB, since time.Time) ([]SessionRow, error)
	CountPageViewsSince(ctx context.Context, db *gorm.DB, since time.Time) (int64, error)
}

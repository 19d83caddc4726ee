package repository

import (
	"context"
	"time"

	analyticsdomain "github.com/dermalens/dermalens/internal/analytics/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() analyticsdomain.Repository {
	return &repo{}
}

func (r *repo) FetchAttempts(ctx context.Context, db *gorm.DB, since time.Time) ([]analyticsdomain.AttemptRow, error) {
	var rows []analyticsdomain.AttemptRow
	err := db.WithContext(ctx).
		Table("quiz_attempts").
		Select("user_id", "created_at").
		Where("created_at >= ?", since).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) FetchNewUsers(ctx context.Context, db *gorm.DB, since time.Time) ([]time.Time, error) {
	var stamps []time.Time
	err := db.WithContext(ctx).
		Table("users").
		Where("created_at >= ?", since).
		Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, err
	}
	return stamps, nil
}

func (r *repo) FetchConversions(ctx context.Context, db *gorm.DB, since time.Time) ([]time.Time, error) {
	var stamps []time.Time
	err := db.WithContext(ctx).
		Table("subscriptions").
		Where("status = ? AND period_start >= ?", "ACTIVE", since).
		Pluck("period_start", &stamps).Error
	if err != nil {
		return nil, err
	}
	return stamps, nil
}

func (r *repo) FetchSessions(ctx context.Context, db *gorm.DB, since time.Time) ([]analyticsdomain.SessionRow, error) {
	var rows []analyticsdomain.SessionRow
	err := db.WithContext(ctx).
		Table("session_heartbeats").
		Select("started_at", "duration_seconds").
		Where("started_at >= ?", since).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) CountPageViewsSince(ctx context.Context, db *gorm.DB, since time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Table("page_view_events").
		Where("created_at >= ?", since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

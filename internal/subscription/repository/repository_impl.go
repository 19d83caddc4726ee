package repository

import (
	"context"
	"errors"
	"time"

	subscriptiondomain "github.com/dermalens/dermalens/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Create(subscription).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).Where("id = ?", id).First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *repo) FindCurrent(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, subscriptiondomain.SubscriptionStatusActive).
		Order("updated_at DESC").
		Order("id DESC").
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

// ConsumeAttempt is the single conditional update required by the
// concurrency contract: under N concurrent calls for the same entry,
// exactly min(N, limit-used) updates report an affected row.
func (r *repo) ConsumeAttempt(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET attempts_used = attempts_used + 1, last_attempt_at = ?, updated_at = ?
		 WHERE id = ? AND attempts_used < attempts_limit`,
		now, now, id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) IncreaseLimit(ctx context.Context, db *gorm.DB, id snowflake.ID, delta int, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET attempts_limit = attempts_limit + ?, updated_at = ?
		 WHERE id = ?`,
		delta, now, id,
	).Error
}

func (r *repo) InsertAttempt(ctx context.Context, db *gorm.DB, attempt *subscriptiondomain.QuizAttempt) error {
	return db.WithContext(ctx).Create(attempt).Error
}

package repository

import (
	"context"
	"errors"
	"time"

	referraldomain "github.com/dermalens/dermalens/internal/referral/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() referraldomain.Repository {
	return &repo{}
}

func (r *repo) InsertCode(ctx context.Context, db *gorm.DB, code *referraldomain.ReferralCode) error {
	return db.WithContext(ctx).Create(code).Error
}

func (r *repo) FindCodeByOwner(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) (*referraldomain.ReferralCode, error) {
	var code referraldomain.ReferralCode
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

func (r *repo) FindCodeByCode(ctx context.Context, db *gorm.DB, code string) (*referraldomain.ReferralCode, error) {
	var row referraldomain.ReferralCode
	err := db.WithContext(ctx).
		Where("code = ?", code).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repo) IncrementUse(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE referral_codes
		 SET uses_count = uses_count + 1, last_used_at = ?, updated_at = ?
		 WHERE id = ?`,
		now, now, id,
	).Error
}

func (r *repo) StampThreshold(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE referral_codes
		 SET last_10_reached_at = ?, updated_at = ?
		 WHERE id = ? AND uses_count >= ? AND last_10_reached_at IS NULL`,
		now, now, id, referraldomain.UsesThreshold,
	).Error
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *referraldomain.ReferralEvent) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) CountEventsSince(ctx context.Context, db *gorm.DB, referrerID snowflake.ID, since time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&referraldomain.ReferralEvent{}).
		Where("referrer_id = ? AND created_at >= ?", referrerID, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

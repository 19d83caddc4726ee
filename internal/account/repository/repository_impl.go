package repository

import (
	"context"
	"errors"

	accountdomain "github.com/dermalens/dermalens/internal/account/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() accountdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, user *accountdomain.User) error {
	return db.WithContext(ctx).Create(user).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*accountdomain.User, error) {
	var user accountdomain.User
	err := db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*accountdomain.User, error) {
	var user accountdomain.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *repo) FindByReferralCode(ctx context.Context, db *gorm.DB, code string) (*accountdomain.User, error) {
	var user accountdomain.User
	err := db.WithContext(ctx).Where("referral_code = ?", code).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *repo) SetReferralCode(ctx context.Context, db *gorm.DB, id snowflake.ID, code string) error {
	return db.WithContext(ctx).
		Model(&accountdomain.User{}).
		Where("id = ?", id).
		Update("referral_code", code).Error
}

package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, user *User) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
	FindByReferralCode(ctx context.Context, db *gorm.DB, code string) (*User, error)
	SetReferralCode(ctx context.Context, db *gorm.DB, id snowflake.ID, code string) error
}

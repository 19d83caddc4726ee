// Package domain contains persistence models for user accounts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is an account created at signup. Identity fields are immutable
// after creation; referral_code is a denormalized mirror of the canonical
// registry row.
type User struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	Email        string        `gorm:"type:text;not null;uniqueIndex" json:"email"`
	FullName     string        `gorm:"type:text;not null" json:"full_name"`
	PasswordHash string        `gorm:"type:text;not null" json:"-"`
	ReferralCode *string       `gorm:"type:text" json:"referral_code,omitempty"`
	ReferrerID   *snowflake.ID `gorm:"index" json:"referrer_id,omitempty"`
	CreatedAt    time.Time     `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Package domain contains persistence models for the per-user quiz
// attempt ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SubscriptionStatus represents lifecycle states for a ledger entry.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusCanceled SubscriptionStatus = "CANCELED"
	SubscriptionStatusExpired  SubscriptionStatus = "EXPIRED"
)

const (
	PlanFree = "free"

	// BaseAttempts is the free-plan budget granted at signup.
	BaseAttempts = 5
)

// Subscription is one attempt-budget entry. Rows are append-style history:
// replacing a plan inserts a new row instead of mutating the old one, and
// the current entry is the active row with the greatest updated_at
// (ties broken by greatest id).
//
// Invariant: 0 <= attempts_used <= attempts_limit.
type Subscription struct {
	ID            snowflake.ID       `gorm:"primaryKey" json:"id"`
	UserID        snowflake.ID       `gorm:"not null;index" json:"user_id"`
	Status        SubscriptionStatus `gorm:"type:text;not null" json:"status"`
	PlanID        string             `gorm:"type:text;not null" json:"plan_id"`
	PeriodStart   time.Time          `gorm:"not null" json:"period_start"`
	PeriodEnd     *time.Time         `gorm:"" json:"period_end,omitempty"`
	AttemptsUsed  int                `gorm:"not null;default:0" json:"attempts_used"`
	AttemptsLimit int                `gorm:"not null" json:"attempts_limit"`
	LastAttemptAt *time.Time         `gorm:"" json:"last_attempt_at,omitempty"`
	Metadata      datatypes.JSONMap  `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"not null;index" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// Remaining reports the attempts left on this entry.
func (s Subscription) Remaining() int {
	remaining := s.AttemptsLimit - s.AttemptsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// QuizAttempt is an append-only consumption record, one row per successful
// ConsumeAttempt. The analytics aggregator builds its daily activity series
// from these rows.
type QuizAttempt struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID         snowflake.ID `gorm:"not null;index" json:"user_id"`
	SubscriptionID snowflake.ID `gorm:"not null;index" json:"subscription_id"`
	CreatedAt      time.Time    `gorm:"not null;index" json:"created_at"`
}

// TableName sets the database table name.
func (QuizAttempt) TableName() string { return "quiz_attempts" }

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	// ReferrerBonus is credited to the code owner for each rewarded signup.
	ReferrerBonus = 2
	// ReferredBonus is credited to the new account that signed up with a code.
	ReferredBonus = 1

	// RollingWindowDays bounds how far back rewarded-signup counting looks.
	RollingWindowDays = 15
	// RollingWindowMax caps bonus grants inside the rolling window.
	RollingWindowMax = 10

	// UsesThreshold is the lifetime use count that arms the cooldown stamp.
	UsesThreshold = 10
	// CooldownDays is how long a stamped code stays out of bonus accrual.
	CooldownDays = 15

	CodeLength                = 8
	MaxCodeGenerationAttempts = 20
)

// ReferralCode is the registry row for a user's shareable code. A user owns
// at most one code; uses_count is lifetime and never resets.
type ReferralCode struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	Code            string       `gorm:"uniqueIndex" json:"code"`
	OwnerID         snowflake.ID `gorm:"uniqueIndex" json:"owner_id"`
	UsesCount       int          `json:"uses_count"`
	LastUsedAt      *time.Time   `json:"last_used_at,omitempty"`
	Last10ReachedAt *time.Time   `gorm:"column:last_10_reached_at" json:"last_10_reached_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (ReferralCode) TableName() string {
	return "referral_codes"
}

// InCooldown reports whether the threshold stamp is set and still inside the
// cooldown period at the given instant.
func (c *ReferralCode) InCooldown(now time.Time) bool {
	if c.Last10ReachedAt == nil {
		return false
	}
	return now.Sub(*c.Last10ReachedAt) < CooldownDays*24*time.Hour
}

// ReferralEvent is the append-only record of one signup arriving through a
// code. BonusGranted records the accrual decision taken at signup time.
type ReferralEvent struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	CodeID       snowflake.ID `gorm:"index" json:"code_id"`
	ReferrerID   snowflake.ID `gorm:"index" json:"referrer_id"`
	ReferredID   snowflake.ID `gorm:"index" json:"referred_id"`
	BonusGranted bool         `json:"bonus_granted"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
}

func (ReferralEvent) TableName() string {
	return "referral_events"
}

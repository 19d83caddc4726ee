package domain

import (
	"context"

	accountdomain "github.com/dermalens/dermalens/internal/account/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Validation is the public view of a code lookup.
type Validation struct {
	Code     *ReferralCode       `json:"code"`
	Referrer *accountdomain.User `json:"referrer"`
}

// AccrualResult records the decision taken for one referred signup.
type AccrualResult struct {
	Code         *ReferralCode `json:"code"`
	ReferrerID   snowflake.ID  `json:"referrer_id"`
	BonusGranted bool          `json:"bonus_granted"`
	RollingCount int64         `json:"rolling_count"`
	InCooldown   bool          `json:"in_cooldown"`
}

type Service interface {
	// GetOrCreateCode returns the user's code, generating one on first call.
	GetOrCreateCode(ctx context.Context, userID snowflake.ID) (*ReferralCode, error)
	// Validate resolves a code to its registry row and owner.
	Validate(ctx context.Context, code string) (*Validation, error)
	// ApplySignupReferral runs the accrual engine for one referred signup
	// inside the caller's transaction: it always records the event and the
	// use, and credits the referrer only when the rolling window and
	// cooldown rules allow it.
	ApplySignupReferral(ctx context.Context, tx *gorm.DB, code string, referredID snowflake.ID) (*AccrualResult, error)
}

package signup

import (
	"context"
	"errors"
	"strings"

	accountdomain "github.com/dermalens/dermalens/internal/account/domain"
	referraldomain "github.com/dermalens/dermalens/internal/referral/domain"
	"github.com/dermalens/dermalens/internal/signup/domain"
	subscriptiondomain "github.com/dermalens/dermalens/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Accounts      accountdomain.Service
	Subscriptions subscriptiondomain.Service
	Referrals     referraldomain.Service
}

type service struct {
	db            *gorm.DB
	log           *zap.Logger
	accounts      accountdomain.Service
	subscriptions subscriptiondomain.Service
	referrals     referraldomain.Service
}

func NewService(p ServiceParam) domain.Service {
	return &service{
		db:            p.DB,
		log:           p.Log.Named("signup.service"),
		accounts:      p.Accounts,
		subscriptions: p.Subscriptions,
		referrals:     p.Referrals,
	}
}

// Signup creates the account, its initial attempt budget, and any referral
// side effects in a single transaction. A referral code that fails to
// resolve never blocks the signup; the account simply starts on the plain
// base budget.
func (s *service) Signup(ctx context.Context, req domain.Request) (*domain.Result, error) {
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidRequest
	}

	code := strings.ToLower(strings.TrimSpace(req.ReferralCode))

	// Resolve the referrer before opening the transaction; the lookup runs
	// on the root handle and would starve a single-connection pool if it
	// ran while the transaction held the connection.
	var referrerID *snowflake.ID
	if code != "" {
		referrer, err := s.accounts.GetByReferralCode(ctx, code)
		if err != nil && !errors.Is(err, accountdomain.ErrUserNotFound) {
			return nil, err
		}
		if referrer != nil {
			id := referrer.ID
			referrerID = &id
		}
	}

	var result domain.Result
	err := s.db.Transaction(func(tx *gorm.DB) error {
		user, err := s.accounts.Create(ctx, tx, accountdomain.CreateUserRequest{
			Email:      req.Email,
			FullName:   req.FullName,
			Password:   req.Password,
			ReferrerID: referrerID,
		})
		if err != nil {
			return err
		}
		result.User = user

		bonus := 0
		if code != "" {
			accrual, err := s.referrals.ApplySignupReferral(ctx, tx, code, user.ID)
			switch {
			case err == nil:
				result.Referral = accrual
				bonus = referraldomain.ReferredBonus
			case errors.Is(err, referraldomain.ErrCodeNotFound),
				errors.Is(err, referraldomain.ErrSelfReferral):
				s.log.Warn("referral code ignored at signup",
					zap.String("code", code),
					zap.Error(err),
				)
			default:
				return err
			}
		}

		subscription, err := s.subscriptions.CreateInitialGrant(ctx, tx, user.ID, subscriptiondomain.BaseAttempts, bonus)
		if err != nil {
			return err
		}
		result.Subscription = subscription
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

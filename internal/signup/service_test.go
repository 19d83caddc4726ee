package signup

import (
	"context"
	"testing"
	"time"

	accountdomain "github.com/dermalens/dermalens/internal/account/domain"
	accountrepository "github.com/dermalens/dermalens/internal/account/repository"
	accountservice "github.com/dermalens/dermalens/internal/account/service"
	"github.com/dermalens/dermalens/internal/clock"
	referraldomain "github.com/dermalens/dermalens/internal/referral/domain"
	referralrepository "github.com/dermalens/dermalens/internal/referral/repository"
	referralservice "github.com/dermalens/dermalens/internal/referral/service"
	signupdomain "github.com/dermalens/dermalens/internal/signup/domain"
	subscriptiondomain "github.com/dermalens/dermalens/internal/subscription/domain"
	subscriptionrepository "github.com/dermalens/dermalens/internal/subscription/repository"
	subscriptionservice "github.com/dermalens/dermalens/internal/subscription/service"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type signupEnv struct {
	svc           signupdomain.Service
	accounts      accountdomain.Service
	subscriptions subscriptiondomain.Service
	referrals     referraldomain.Service
	db            *gorm.DB
}

func newSignupEnv(t *testing.T) *signupEnv {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&accountdomain.User{},
		&subscriptiondomain.Subscription{},
		&subscriptiondomain.QuizAttempt{},
		&referraldomain.ReferralCode{},
		&referraldomain.ReferralEvent{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	accountRepo := accountrepository.Provide()
	accounts := accountservice.NewService(accountservice.ServiceParam{
		DB:    conn,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  accountRepo,
	})
	subscriptions := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB:    conn,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  subscriptionrepository.Provide(),
	})
	referrals := referralservice.NewService(referralservice.ServiceParam{
		DB:            conn,
		Log:           log,
		GenID:         node,
		Clock:         fake,
		Repo:          referralrepository.Provide(),
		Accounts:      accountRepo,
		Subscriptions: subscriptions,
	})

	svc := NewService(ServiceParam{
		DB:            conn,
		Log:           log,
		Accounts:      accounts,
		Subscriptions: subscriptions,
		Referrals:     referrals,
	})

	return &signupEnv{
		svc:           svc,
		accounts:      accounts,
		subscriptions: subscriptions,
		referrals:     referrals,
		db:            conn,
	}
}

func TestSignupWithoutReferral(t *testing.T) {
	env := newSignupEnv(t)

	result, err := env.svc.Signup(context.Background(), signupdomain.Request{
		Email:    "new@example.com",
		FullName: "New User",
		Password: "supersecret",
	})
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", result.User.Email)
	assert.Equal(t, subscriptiondomain.BaseAttempts, result.Subscription.AttemptsLimit)
	assert.Equal(t, 0, result.Subscription.AttemptsUsed)
	assert.Nil(t, result.Referral)
}

func TestSignupWithReferral(t *testing.T) {
	env := newSignupEnv(t)
	ctx := context.Background()

	referrer, err := env.svc.Signup(ctx, signupdomain.Request{
		Email:    "owner@example.com",
		FullName: "Owner",
		Password: "supersecret",
	})
	require.NoError(t, err)

	code, err := env.referrals.GetOrCreateCode(ctx, referrer.User.ID)
	require.NoError(t, err)

	referred, err := env.svc.Signup(ctx, signupdomain.Request{
		Email:        "friend@example.com",
		FullName:     "Friend",
		Password:     "supersecret",
		ReferralCode: code.Code,
	})
	require.NoError(t, err)

	// Referred account starts with base + referred bonus.
	assert.Equal(t, subscriptiondomain.BaseAttempts+referraldomain.ReferredBonus, referred.Subscription.AttemptsLimit)
	require.NotNil(t, referred.Referral)
	assert.True(t, referred.Referral.BonusGranted)
	require.NotNil(t, referred.User.ReferrerID)
	assert.Equal(t, referrer.User.ID, *referred.User.ReferrerID)

	// Referrer is credited in the same transaction.
	ownerSub, err := env.subscriptions.Current(ctx, referrer.User.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.BaseAttempts+referraldomain.ReferrerBonus, ownerSub.AttemptsLimit)
}

func TestSignupWithUnknownReferralCode(t *testing.T) {
	env := newSignupEnv(t)

	// An unknown code never blocks the signup; the account just starts on
	// the plain base budget.
	result, err := env.svc.Signup(context.Background(), signupdomain.Request{
		Email:        "solo@example.com",
		FullName:     "Solo",
		Password:     "supersecret",
		ReferralCode: "missing1",
	})
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.BaseAttempts, result.Subscription.AttemptsLimit)
	assert.Nil(t, result.Referral)
	assert.Nil(t, result.User.ReferrerID)
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newSignupEnv(t)
	ctx := context.Background()

	_, err := env.svc.Signup(ctx, signupdomain.Request{
		Email:    "dup@example.com",
		FullName: "First",
		Password: "supersecret",
	})
	require.NoError(t, err)

	_, err = env.svc.Signup(ctx, signupdomain.Request{
		Email:    "dup@example.com",
		FullName: "Second",
		Password: "supersecret",
	})
	assert.ErrorIs(t, err, accountdomain.ErrEmailTaken)
}

func TestSignupInvalidRequest(t *testing.T) {
	env := newSignupEnv(t)

	_, err := env.svc.Signup(context.Background(), signupdomain.Request{
		Email:    "",
		Password: "supersecret",
	})
	assert.ErrorIs(t, err, signupdomain.ErrInvalidRequest)
}

package domain

import (
	"context"
	"errors"

	accountdomain "github.com/dermalens/dermalens/internal/account/domain"
	referraldomain "github.com/dermalens/dermalens/internal/referral/domain"
	subscriptiondomain "github.com/dermalens/dermalens/internal/subscription/domain"
)

type Service interface {
	Signup(ctx context.Context, req Request) (*Result, error)
}

type Request struct {
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code,omitempty"`
}

type Result struct {
	User         *accountdomain.User              `json:"user"`
	Subscription *subscriptiondomain.Subscription `json:"subscription"`
	Referral     *referraldomain.AccrualResult    `json:"referral,omitempty"`
}

var ErrInvalidRequest = errors.New("invalid signup request")

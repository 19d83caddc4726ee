package service

import (
	"context"

	"github.com/dermalens/dermalens/internal/clock"
	"github.com/dermalens/dermalens/internal/opsmetrics"
	subscriptiondomain "github.com/dermalens/dermalens/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  subscriptiondomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  subscriptiondomain.Repository
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("subscription.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) CreateInitialGrant(ctx context.Context, tx *gorm.DB, userID snowflake.ID, baseAttempts, bonus int) (*subscriptiondomain.Subscription, error) {
	if userID == 0 {
		return nil, subscriptiondomain.ErrInvalidUser
	}
	if baseAttempts < 0 || bonus < 0 {
		return nil, subscriptiondomain.ErrInvalidLimit
	}

	conn := tx
	if conn == nil {
		conn = s.db
	}

	now := s.clock.Now()
	subscription := &subscriptiondomain.Subscription{
		ID:            s.genID.Generate(),
		UserID:        userID,
		Status:        subscriptiondomain.SubscriptionStatusActive,
		PlanID:        subscriptiondomain.PlanFree,
		PeriodStart:   now,
		AttemptsUsed:  0,
		AttemptsLimit: baseAttempts + bonus,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, conn, subscription); err != nil {
		return nil, err
	}
	return subscription, nil
}

func (s *Service) ConsumeAttempt(ctx context.Context, userID snowflake.ID) (*subscriptiondomain.ConsumeResult, error) {
	if userID == 0 {
		return nil, subscriptiondomain.ErrInvalidUser
	}

	var result *subscriptiondomain.ConsumeResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindCurrent(ctx, tx, userID)
		if err != nil {
			return err
		}
		if current == nil {
			return subscriptiondomain.ErrNoActiveSubscription
		}

		now := s.clock.Now()
		consumed, err := s.repo.ConsumeAttempt(ctx, tx, current.ID, now)
		if err != nil {
			return err
		}
		if !consumed {
			return subscriptiondomain.ErrQuotaExceeded
		}

		if err := s.repo.InsertAttempt(ctx, tx, &subscriptiondomain.QuizAttempt{
			ID:             s.genID.Generate(),
			UserID:         userID,
			SubscriptionID: current.ID,
			CreatedAt:      now,
		}); err != nil {
			return err
		}

		fresh, err := s.repo.FindByID(ctx, tx, current.ID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return subscriptiondomain.ErrNoActiveSubscription
		}
		result = &subscriptiondomain.ConsumeResult{
			Subscription: *fresh,
			Remaining:    fresh.Remaining(),
		}
		return nil
	})
	if err != nil {
		if err == subscriptiondomain.ErrQuotaExceeded {
			opsmetrics.RecordQuotaRejected()
		}
		return nil, err
	}

	opsmetrics.RecordQuizAttempt()
	return result, nil
}

func (s *Service) IncreaseLimit(ctx context.Context, tx *gorm.DB, userID snowflake.ID, delta int) (*subscriptiondomain.Subscription, error) {
	if userID == 0 {
		return nil, subscriptiondomain.ErrInvalidUser
	}
	if delta <= 0 {
		return nil, subscriptiondomain.ErrInvalidQuantity
	}

	conn := tx
	if conn == nil {
		conn = s.db
	}

	current, err := s.repo.FindCurrent(ctx, conn, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return s.CreateInitialGrant(ctx, conn, userID, delta, 0)
	}

	now := s.clock.Now()
	if err := s.repo.IncreaseLimit(ctx, conn, current.ID, delta, now); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, conn, current.ID)
}

func (s *Service) PurchaseAttempts(ctx context.Context, userID snowflake.ID, quantity int) (*subscriptiondomain.Subscription, error) {
	if userID == 0 {
		return nil, subscriptiondomain.ErrInvalidUser
	}
	if quantity <= 0 {
		return nil, subscriptiondomain.ErrInvalidQuantity
	}

	current, err := s.repo.FindCurrent(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, subscriptiondomain.ErrNoActiveSubscription
	}

	now := s.clock.Now()
	if err := s.repo.IncreaseLimit(ctx, s.db, current.ID, quantity, now); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, s.db, current.ID)
}

func (s *Service) Replace(ctx context.Context, userID snowflake.ID, req subscriptiondomain.ReplaceRequest) (*subscriptiondomain.Subscription, error) {
	if userID == 0 {
		return nil, subscriptiondomain.ErrInvalidUser
	}
	if req.AttemptsLimit < 0 {
		return nil, subscriptiondomain.ErrInvalidLimit
	}
	status := req.Status
	if status == "" {
		status = subscriptiondomain.SubscriptionStatusActive
	}

	now := s.clock.Now()
	subscription := &subscriptiondomain.Subscription{
		ID:            s.genID.Generate(),
		UserID:        userID,
		Status:        status,
		PlanID:        req.PlanID,
		PeriodStart:   now,
		AttemptsUsed:  0,
		AttemptsLimit: req.AttemptsLimit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, s.db, subscription); err != nil {
		return nil, err
	}
	return subscription, nil
}

func (s *Service) Current(ctx context.Context, userID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	if userID == 0 {
		return nil, subscriptiondomain.ErrInvalidUser
	}
	current, err := s.repo.FindCurrent(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, subscriptiondomain.ErrNoActiveSubscription
	}
	return current, nil
}

package service

import (
	"context"
	"strings"
	"time"

	accountdomain "github.com/dermalens/dermalens/internal/account/domain"
	"github.com/dermalens/dermalens/internal/clock"
	"github.com/dermalens/dermalens/internal/opsmetrics"
	referraldomain "github.com/dermalens/dermalens/internal/referral/domain"
	subscriptiondomain "github.com/dermalens/dermalens/internal/subscription/domain"
	"github.com/dermalens/dermalens/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          referraldomain.Repository
	Accounts      accountdomain.Repository
	Subscriptions subscriptiondomain.Service
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          referraldomain.Repository
	accounts      accountdomain.Repository
	subscriptions subscriptiondomain.Service
}

func NewService(p ServiceParam) referraldomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("referral.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		accounts:      p.Accounts,
		subscriptions: p.Subscriptions,
	}
}

func (s *Service) GetOrCreateCode(ctx context.Context, userID snowflake.ID) (*referraldomain.ReferralCode, error) {
	if userID == 0 {
		return nil, referraldomain.ErrInvalidOwner
	}

	existing, err := s.repo.FindCodeByOwner(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	owner, err := s.accounts.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, accountdomain.ErrUserNotFound
	}

	for attempt := 0; attempt < referraldomain.MaxCodeGenerationAttempts; attempt++ {
		now := s.clock.Now()
		code := &referraldomain.ReferralCode{
			ID:        s.genID.Generate(),
			Code:      generateCode(),
			OwnerID:   userID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.repo.InsertCode(ctx, tx, code); err != nil {
				return err
			}
			return s.accounts.SetReferralCode(ctx, tx, userID, code.Code)
		})
		if err == nil {
			return code, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}

		// Either the token collided or a concurrent call won the owner
		// uniqueness race. Re-check the owner before retrying.
		existing, findErr := s.repo.FindCodeByOwner(ctx, s.db, userID)
		if findErr != nil {
			return nil, findErr
		}
		if existing != nil {
			return existing, nil
		}
	}

	s.log.Error("referral code generation exhausted", zap.String("user_id", userID.String()))
	return nil, referraldomain.ErrCodeGenerationExhausted
}

func (s *Service) Validate(ctx context.Context, code string) (*referraldomain.Validation, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, referraldomain.ErrInvalidCode
	}

	row, err := s.repo.FindCodeByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, referraldomain.ErrCodeNotFound
	}

	owner, err := s.accounts.FindByID(ctx, s.db, row.OwnerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, referraldomain.ErrCodeNotFound
	}

	return &referraldomain.Validation{Code: row, Referrer: owner}, nil
}

func (s *Service) ApplySignupReferral(ctx context.Context, tx *gorm.DB, code string, referredID snowflake.ID) (*referraldomain.AccrualResult, error) {
	if referredID == 0 {
		return nil, referraldomain.ErrInvalidOwner
	}
	code = normalizeCode(code)
	if code == "" {
		return nil, referraldomain.ErrInvalidCode
	}

	conn := tx
	if conn == nil {
		conn = s.db
	}

	row, err := s.repo.FindCodeByCode(ctx, conn, code)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, referraldomain.ErrCodeNotFound
	}
	if row.OwnerID == referredID {
		return nil, referraldomain.ErrSelfReferral
	}

	now := s.clock.Now()
	windowStart := now.Add(-referraldomain.RollingWindowDays * 24 * time.Hour)
	rollingCount, err := s.repo.CountEventsSince(ctx, conn, row.OwnerID, windowStart)
	if err != nil {
		return nil, err
	}

	inCooldown := row.InCooldown(now)
	grantBonus := rollingCount < referraldomain.RollingWindowMax && !inCooldown

	// The event and the use are recorded regardless of the bonus decision.
	if err := s.repo.InsertEvent(ctx, conn, &referraldomain.ReferralEvent{
		ID:           s.genID.Generate(),
		CodeID:       row.ID,
		ReferrerID:   row.OwnerID,
		ReferredID:   referredID,
		BonusGranted: grantBonus,
		CreatedAt:    now,
	}); err != nil {
		return nil, err
	}
	if err := s.repo.IncrementUse(ctx, conn, row.ID, now); err != nil {
		return nil, err
	}
	if err := s.repo.StampThreshold(ctx, conn, row.ID, now); err != nil {
		return nil, err
	}

	if grantBonus {
		if _, err := s.subscriptions.IncreaseLimit(ctx, conn, row.OwnerID, referraldomain.ReferrerBonus); err != nil {
			return nil, err
		}
	} else {
		s.log.Info("referral bonus withheld",
			zap.String("code", row.Code),
			zap.Int64("rolling_count", rollingCount),
			zap.Bool("in_cooldown", inCooldown),
		)
	}

	opsmetrics.RecordReferralSignup()

	return &referraldomain.AccrualResult{
		Code:         row,
		ReferrerID:   row.OwnerID,
		BonusGranted: grantBonus,
		RollingCount: rollingCount,
		InCooldown:   inCooldown,
	}, nil
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func generateCode() string {
	token := ulid.Make().String()
	return strings.ToLower(token[len(token)-referraldomain.CodeLength:])
}

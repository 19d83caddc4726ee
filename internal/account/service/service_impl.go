package service

import (
	"context"
	"strings"

	accountdomain "github.com/dermalens/dermalens/internal/account/domain"
	"github.com/dermalens/dermalens/internal/clock"
	"github.com/dermalens/dermalens/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  accountdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  accountdomain.Repository
}

func NewService(p ServiceParam) accountdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("account.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, tx *gorm.DB, req accountdomain.CreateUserRequest) (*accountdomain.User, error) {
	conn := tx
	if conn == nil {
		conn = s.db
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, accountdomain.ErrInvalidEmail
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, accountdomain.ErrInvalidFullName
	}
	if len(req.Password) < 8 {
		return nil, accountdomain.ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &accountdomain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		ReferrerID:   req.ReferrerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, conn, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, accountdomain.ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*accountdomain.User, error) {
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, accountdomain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) GetByReferralCode(ctx context.Context, code string) (*accountdomain.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, accountdomain.ErrUserNotFound
	}
	user, err := s.repo.FindByReferralCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, accountdomain.ErrUserNotFound
	}
	return user, nil
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/dermalens/dermalens/internal/clock"
	sessiondomain "github.com/dermalens/dermalens/internal/session/domain"
	"github.com/dermalens/dermalens/internal/session/liveevents"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
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
	Repo  sessiondomain.Repository
	Hub   *liveevents.Hub
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  sessiondomain.Repository
	hub   *liveevents.Hub
}

func NewService(p ServiceParam) sessiondomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("session.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		hub:   p.Hub,
	}
}

func (s *Service) Start(ctx context.Context, req sessiondomain.StartRequest) (*sessiondomain.Heartbeat, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	now := s.clock.Now()
	path := strings.TrimSpace(req.Path)
	hb := &sessiondomain.Heartbeat{
		SessionID:  sessionID,
		UserID:     req.UserID,
		Path:       path,
		StartedAt:  now,
		LastSeenAt: now,
	}
	if err := s.repo.UpsertHeartbeat(ctx, s.db, hb); err != nil {
		return nil, err
	}

	s.publish(liveevents.KindStart, sessionID, req.UserID, path, now)
	return s.repo.FindHeartbeat(ctx, s.db, sessionID)
}

func (s *Service) Ping(ctx context.Context, sessionID, path string) (*sessiondomain.Heartbeat, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, sessiondomain.ErrInvalidSession
	}

	now := s.clock.Now()
	path = strings.TrimSpace(path)
	touched, err := s.repo.TouchHeartbeat(ctx, s.db, sessionID, path, now)
	if err != nil {
		return nil, err
	}
	if !touched {
		// Unknown sessions self-heal instead of erroring, so a client that
		// outlived a cleanup keeps its heartbeat alive.
		if err := s.repo.UpsertHeartbeat(ctx, s.db, &sessiondomain.Heartbeat{
			SessionID:  sessionID,
			Path:       path,
			StartedAt:  now,
			LastSeenAt: now,
		}); err != nil {
			return nil, err
		}
	}

	s.publish(liveevents.KindPing, sessionID, nil, path, now)
	return s.repo.FindHeartbeat(ctx, s.db, sessionID)
}

func (s *Service) RecordView(ctx context.Context, req sessiondomain.ViewRequest) error {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	now := s.clock.Now()
	path := strings.TrimSpace(req.Path)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		touched, err := s.repo.TouchHeartbeat(ctx, tx, sessionID, path, now)
		if err != nil {
			return err
		}
		if !touched {
			if err := s.repo.UpsertHeartbeat(ctx, tx, &sessiondomain.Heartbeat{
				SessionID:  sessionID,
				UserID:     req.UserID,
				Path:       path,
				StartedAt:  now,
				LastSeenAt: now,
			}); err != nil {
				return err
			}
		}
		return s.repo.InsertPageView(ctx, tx, &sessiondomain.PageView{
			ID:        s.genID.Generate(),
			SessionID: sessionID,
			UserID:    req.UserID,
			Path:      path,
			CreatedAt: now,
		})
	})
	if err != nil {
		return err
	}

	s.publish(liveevents.KindView, sessionID, nil, path, now)
	return nil
}

func (s *Service) End(ctx context.Context, sessionID string, durationSeconds *int) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}

	now := s.clock.Now()
	ended, err := s.repo.EndHeartbeat(ctx, s.db, sessionID, durationSeconds, now)
	if err != nil {
		return err
	}
	if !ended {
		// Ending an unknown session is a no-op.
		return nil
	}

	s.publish(liveevents.KindEnd, sessionID, nil, "", now)
	return nil
}

func (s *Service) LiveCount(ctx context.Context) (int64, error) {
	return s.repo.CountLive(ctx, s.db, s.clock.Now())
}

func (s *Service) publish(kind, sessionID string, userID *snowflake.ID, path string, now time.Time) {
	if s.hub == nil {
		return
	}
	event := liveevents.LiveEvent{
		Kind:       kind,
		SessionID:  sessionID,
		Path:       path,
		OccurredAt: now.UTC().Format(time.RFC3339),
	}
	if userID != nil {
		event.UserID = userID.String()
	}
	s.hub.Publish(event)
}

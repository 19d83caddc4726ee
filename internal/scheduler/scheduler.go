package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/dermalens/dermalens/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Config Config `optional:"true"`
}

// Scheduler sweeps expired session telemetry on an interval so the
// heartbeat and page-view tables stay bounded. Rows inside the analytics
// reporting horizon are never touched.
type Scheduler struct {
	db    *gorm.DB
	log   *zap.Logger
	cfg   Config
	clock clock.Clock
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:    p.DB,
		log:   p.Log.Named("scheduler"),
		cfg:   p.Config.withDefaults(),
		clock: p.Clock,
	}, nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.log.Warn("retention sweep failed", zap.Error(err))
			}
		}
	}
}

// RunOnce runs a single retention sweep.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	now := s.clock.Now()

	heartbeats, err := s.sweepHeartbeats(ctx, now.Add(-s.cfg.HeartbeatRetention))
	if err != nil {
		return err
	}
	views, err := s.sweepPageViews(ctx, now.Add(-s.cfg.PageViewRetention))
	if err != nil {
		return err
	}

	if heartbeats > 0 || views > 0 {
		s.log.Info("retention sweep complete",
			zap.Int64("heartbeats_deleted", heartbeats),
			zap.Int64("page_views_deleted", views),
		)
	}
	return nil
}

func (s *Scheduler) sweepHeartbeats(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	for {
		result := s.db.WithContext(ctx).Exec(
			`DELETE FROM session_heartbeats WHERE session_id IN (
				SELECT session_id FROM session_heartbeats WHERE last_seen_at < ? LIMIT ?
			)`,
			cutoff, s.cfg.BatchSize,
		)
		if result.Error != nil {
			return total, result.Error
		}
		total += result.RowsAffected
		if result.RowsAffected < int64(s.cfg.BatchSize) {
			return total, nil
		}
	}
}

func (s *Scheduler) sweepPageViews(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	for {
		result := s.db.WithContext(ctx).Exec(
			`DELETE FROM page_view_events WHERE id IN (
				SELECT id FROM page_view_events WHERE created_at < ? LIMIT ?
			)`,
			cutoff, s.cfg.BatchSize,
		)
		if result.Error != nil {
			return total, result.Error
		}
		total += result.RowsAffected
		if result.RowsAffected < int64(s.cfg.BatchSize) {
			return total, nil
		}
	}
}

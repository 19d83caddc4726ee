package opsmetrics

import (
	"context"
	"sync"
	"time"

	"github.com/dermalens/dermalens/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultPushInterval = 60 * time.Second

var registerOnce sync.Once

var Module = fx.Module("ops.metrics",
	fx.Provide(func() *prometheus.Registry {
		return prometheus.NewRegistry()
	}),
	fx.Provide(NewPusher),
	fx.Invoke(Register),
)

// Register wires the recorder and starts the periodic push loop.
// Failures are logged and never block signup or quiz flows.
func Register(lc fx.Lifecycle, cfg config.Config, registry *prometheus.Registry, pusher Pusher, db *gorm.DB, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Ops.MetricsEnabled || pusher == nil {
		return
	}

	registerOnce.Do(func() {
		setRecorder(&recorder{metrics: newMetrics(registry)})

		interval := defaultPushInterval
		if cfg.Ops.PushInterval > 0 {
			interval = time.Duration(cfg.Ops.PushInterval) * time.Second
		}

		ctx, cancel := context.WithCancel(context.Background())
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				logger.Info("starting ops metrics push loop", zap.Duration("interval", interval))
				go func() {
					ticker := time.NewTicker(interval)
					defer ticker.Stop()

					refreshActiveSessions(ctx, db)
					if err := pusher.Push(ctx, registry); err != nil {
						logger.Warn("initial ops metrics push failed", zap.Error(err))
					}

					for {
						select {
						case <-ticker.C:
							refreshActiveSessions(ctx, db)
							if err := pusher.Push(ctx, registry); err != nil {
								logger.Warn("periodic ops metrics push failed", zap.Error(err))
							}
						case <-ctx.Done():
							logger.Info("stopping ops metrics push loop")
							return
						}
					}
				}()
				return nil
			},
			OnStop: func(context.Context) error {
				cancel()
				return nil
			},
		})
	})
}

func refreshActiveSessions(ctx context.Context, db *gorm.DB) {
	if db == nil {
		return
	}
	cutoff := time.Now().UTC().Add(-60 * time.Second)
	var count int64
	if err := db.WithContext(ctx).
		Table("session_heartbeats").
		Where("last_seen_at >= ?", cutoff).
		Count(&count).Error; err != nil {
		return
	}
	UpdateActiveSessions(int(count))
}

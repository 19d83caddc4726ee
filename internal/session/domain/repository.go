package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// UpsertHeartbeat inserts the heartbeat or refreshes last_seen_at (and
	// clears ended_at) when the session already exists.
	UpsertHeartbeat(ctx context.Context, db *gorm.DB, hb *Heartbeat) error
	FindHeartbeat(ctx context.Context, db *gorm.DB, sessionID string) (*Heartbeat, error)
	// TouchHeartbeat refreshes last_seen_at (and the current path when
	// non-empty) and reports whether a row was updated.
	TouchHeartbeat(ctx context.Context, db *gorm.DB, sessionID, path string, now time.Time) (bool, error)
	// EndHeartbeat stamps ended_at and the client-reported duration, and
	// reports whether a row was updated.
	EndHeartbeat(ctx context.Context, db *gorm.DB, sessionID string, durationSeconds *int, now time.Time) (bool, error)

	InsertPageView(ctx context.Context, db *gorm.DB, view *PageView) error
	// CountLive counts sessions whose last_seen_at falls inside the live
	// window ending at now. Explicitly ended sessions are excluded even
	// when their last ping is still inside the window.
	CountLive(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}

package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// StartRequest opens or refreshes a session. SessionID is optional; a
// fresh id is generated when the client did not supply one.
type StartRequest struct {
	SessionID string        `json:"session_id,omitempty"`
	UserID    *snowflake.ID `json:"user_id,omitempty"`
	Path      string        `json:"path,omitempty"`
}

// ViewRequest records one page visit.
type ViewRequest struct {
	SessionID string        `json:"session_id"`
	UserID    *snowflake.ID `json:"user_id,omitempty"`
	Path      string        `json:"path"`
}

type Service interface {
	// Start upserts the heartbeat and returns it. Duplicate starts refresh
	// the existing row instead of failing.
	Start(ctx context.Context, req StartRequest) (*Heartbeat, error)
	// Ping refreshes last_seen_at and, when supplied, the current path. An
	// unknown session id self-heals into a fresh heartbeat rather than
	// erroring.
	Ping(ctx context.Context, sessionID, path string) (*Heartbeat, error)
	// RecordView appends a page view. Views are never rejected: a missing
	// session gets a heartbeat created alongside the view.
	RecordView(ctx context.Context, req ViewRequest) error
	// End stamps ended_at and records the client-reported duration; ending
	// an unknown session is a no-op.
	End(ctx context.Context, sessionID string, durationSeconds *int) error

	// LiveCount returns how many sessions pinged inside the live window
	// and have not explicitly ended.
	LiveCount(ctx context.Context) (int64, error)
}

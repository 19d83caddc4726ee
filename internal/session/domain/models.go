package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// LiveWindow is how recently a session must have pinged to count as live.
const LiveWindow = 60 * time.Second

// Heartbeat tracks one browsing session. Rows are upserted by session id so
// a duplicate Start or a Ping for an unknown session always lands somewhere.
type Heartbeat struct {
	SessionID       string        `gorm:"primaryKey;type:text" json:"session_id"`
	UserID          *snowflake.ID `gorm:"index" json:"user_id,omitempty"`
	Path            string        `gorm:"type:text" json:"path,omitempty"`
	StartedAt       time.Time     `gorm:"not null" json:"started_at"`
	LastSeenAt      time.Time     `gorm:"not null;index" json:"last_seen_at"`
	EndedAt         *time.Time    `json:"ended_at,omitempty"`
	DurationSeconds *int          `json:"duration_seconds,omitempty"`
}

func (Heartbeat) TableName() string { return "session_heartbeats" }

// PageView is an append-only visit record used by the analytics visit
// counters.
type PageView struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	SessionID string        `gorm:"index;type:text" json:"session_id"`
	UserID    *snowflake.ID `gorm:"index" json:"user_id,omitempty"`
	Path      string        `gorm:"type:text" json:"path"`
	CreatedAt time.Time     `gorm:"not null;index" json:"created_at"`
}

func (PageView) TableName() string { return "page_view_events" }

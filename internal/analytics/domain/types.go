package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	MinRangeDays = 1
	MaxRangeDays = 365
)

// VisitWindows are the trailing windows, in days, reported by the visit
// counters.
var VisitWindows = []int{1, 7, 15, 30, 90}

var ErrInvalidRange = errors.New("invalid_range")

// DayBucket is one day of the dense UTC series. Days without activity are
// present with zero values.
type DayBucket struct {
	Date                      string  `json:"date"`
	ActiveUsers               int64   `json:"active_users"`
	Attempts                  int64   `json:"attempts"`
	Conversions               int64   `json:"conversions"`
	NewUsers                  int64   `json:"new_users"`
	AvgSessionDurationSeconds float64 `json:"avg_session_duration_seconds"`
}

// WindowTotals aggregates one whole window.
type WindowTotals struct {
	ActiveUsers int64 `json:"active_users"`
	Attempts    int64 `json:"attempts"`
	Conversions int64 `json:"conversions"`
	NewUsers    int64 `json:"new_users"`
}

// Growth is the percentage change of the current window over the previous
// window of the same length.
type Growth struct {
	ActiveUsersPct int `json:"active_users_pct"`
	AttemptsPct    int `json:"attempts_pct"`
	ConversionsPct int `json:"conversions_pct"`
	NewUsersPct    int `json:"new_users_pct"`
}

// Report is the full analytics payload for one range request. Visits is
// keyed by trailing-window length in days.
type Report struct {
	RangeDays int           `json:"range_days"`
	Series    []DayBucket   `json:"series"`
	Totals    WindowTotals  `json:"totals"`
	Previous  WindowTotals  `json:"previous"`
	Growth    Growth        `json:"growth"`
	LiveUsers int64         `json:"live_users"`
	Visits    map[int]int64 `json:"visits"`
}

// AttemptRow is the raw shape fetched for attempt bucketing.
type AttemptRow struct {
	UserID    snowflake.ID
	CreatedAt time.Time
}

// SessionRow is the raw shape fetched for session-duration bucketing.
// DurationSeconds is nil for sessions that never reported a duration;
// those are excluded from the averages rather than counted as zero.
type SessionRow struct {
	StartedAt       time.Time
	DurationSeconds *int
}

type Service interface {
	// Report builds the dashboard payload for a trailing window of days.
	// Rejects ranges outside [1,365].
	Report(ctx context.Context, days int) (*Report, error)
}

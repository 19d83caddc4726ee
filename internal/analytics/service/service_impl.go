package service

import (
	"context"
	"math"
	"time"

	analyticsdomain "github.com/dermalens/dermalens/internal/analytics/domain"
	"github.com/dermalens/dermalens/internal/clock"
	sessiondomain "github.com/dermalens/dermalens/internal/session/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Repo     analyticsdomain.Repository
	Sessions sessiondomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	repo     analyticsdomain.Repository
	sessions sessiondomain.Service
}

func NewService(p ServiceParam) analyticsdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("analytics.service"),
		clock:    p.Clock,
		repo:     p.Repo,
		sessions: p.Sessions,
	}
}

// Report aggregates the trailing window in Go rather than SQL so buckets
// stay dense and dialect-independent. Sub-query failures degrade to zeroed
// sections instead of failing the whole payload.
func (s *Service) Report(ctx context.Context, days int) (*analyticsdomain.Report, error) {
	if days < analyticsdomain.MinRangeDays || days > analyticsdomain.MaxRangeDays {
		return nil, analyticsdomain.ErrInvalidRange
	}

	now := s.clock.Now().UTC()
	today := now.Truncate(24 * time.Hour)
	windowStart := today.AddDate(0, 0, -(days - 1))
	previousStart := windowStart.AddDate(0, 0, -days)

	report := &analyticsdomain.Report{
		RangeDays: days,
		Series:    emptySeries(windowStart, days),
		Visits:    make(map[int]int64, len(analyticsdomain.VisitWindows)),
	}

	attempts, err := s.repo.FetchAttempts(ctx, s.db, previousStart)
	if err != nil {
		s.log.Warn("attempt series degraded", zap.Error(err))
		attempts = nil
	}
	newUsers, err := s.repo.FetchNewUsers(ctx, s.db, previousStart)
	if err != nil {
		s.log.Warn("new-user series degraded", zap.Error(err))
		newUsers = nil
	}
	conversions, err := s.repo.FetchConversions(ctx, s.db, previousStart)
	if err != nil {
		s.log.Warn("conversion series degraded", zap.Error(err))
		conversions = nil
	}
	sessions, err := s.repo.FetchSessions(ctx, s.db, windowStart)
	if err != nil {
		s.log.Warn("session series degraded", zap.Error(err))
		sessions = nil
	}

	s.bucketAttempts(report, attempts, windowStart, previousStart, days)
	bucketStamps(report.Series, newUsers, windowStart, days, func(b *analyticsdomain.DayBucket) { b.NewUsers++ })
	bucketStamps(report.Series, conversions, windowStart, days, func(b *analyticsdomain.DayBucket) { b.Conversions++ })
	report.Totals.NewUsers = countWindow(newUsers, windowStart)
	report.Previous.NewUsers = countWindow(newUsers, previousStart) - report.Totals.NewUsers
	report.Totals.Conversions = countWindow(conversions, windowStart)
	report.Previous.Conversions = countWindow(conversions, previousStart) - report.Totals.Conversions
	bucketSessionDurations(report.Series, sessions, windowStart, days)

	report.Growth = analyticsdomain.Growth{
		ActiveUsersPct: pctGrowth(report.Totals.ActiveUsers, report.Previous.ActiveUsers),
		AttemptsPct:    pctGrowth(report.Totals.Attempts, report.Previous.Attempts),
		ConversionsPct: pctGrowth(report.Totals.Conversions, report.Previous.Conversions),
		NewUsersPct:    pctGrowth(report.Totals.NewUsers, report.Previous.NewUsers),
	}

	live, err := s.sessions.LiveCount(ctx)
	if err != nil {
		s.log.Warn("live count degraded", zap.Error(err))
		live = 0
	}
	report.LiveUsers = live

	for _, window := range analyticsdomain.VisitWindows {
		count, err := s.repo.CountPageViewsSince(ctx, s.db, now.AddDate(0, 0, -window))
		if err != nil {
			s.log.Warn("visit counter degraded", zap.Int("window_days", window), zap.Error(err))
			count = 0
		}
		report.Visits[window] = count
	}

	return report, nil
}

func emptySeries(windowStart time.Time, days int) []analyticsdomain.DayBucket {
	series := make([]analyticsdomain.DayBucket, days)
	for i := range series {
		series[i].Date = windowStart.AddDate(0, 0, i).Format("2006-01-02")
	}
	return series
}

func bucketIndex(stamp, windowStart time.Time, days int) int {
	idx := int(stamp.UTC().Sub(windowStart).Hours() / 24)
	if idx < 0 || idx >= days {
		return -1
	}
	return idx
}

func (s *Service) bucketAttempts(report *analyticsdomain.Report, attempts []analyticsdomain.AttemptRow, windowStart, previousStart time.Time, days int) {
	perDayUsers := make([]map[snowflake.ID]struct{}, days)
	windowUsers := make(map[snowflake.ID]struct{})
	previousUsers := make(map[snowflake.ID]struct{})

	for _, row := range attempts {
		stamp := row.CreatedAt.UTC()
		if stamp.Before(windowStart) {
			if !stamp.Before(previousStart) {
				report.Previous.Attempts++
				previousUsers[row.UserID] = struct{}{}
			}
			continue
		}
		idx := bucketIndex(stamp, windowStart, days)
		if idx < 0 {
			continue
		}
		report.Series[idx].Attempts++
		report.Totals.Attempts++
		windowUsers[row.UserID] = struct{}{}
		if perDayUsers[idx] == nil {
			perDayUsers[idx] = make(map[snowflake.ID]struct{})
		}
		perDayUsers[idx][row.UserID] = struct{}{}
	}

	for i, users := range perDayUsers {
		report.Series[i].ActiveUsers = int64(len(users))
	}
	report.Totals.ActiveUsers = int64(len(windowUsers))
	report.Previous.ActiveUsers = int64(len(previousUsers))
}

func bucketStamps(series []analyticsdomain.DayBucket, stamps []time.Time, windowStart time.Time, days int, bump func(*analyticsdomain.DayBucket)) {
	for _, stamp := range stamps {
		idx := bucketIndex(stamp, windowStart, days)
		if idx < 0 {
			continue
		}
		bump(&series[idx])
	}
}

func countWindow(stamps []time.Time, since time.Time) int64 {
	var count int64
	for _, stamp := range stamps {
		if !stamp.UTC().Before(since) {
			count++
		}
	}
	return count
}

func bucketSessionDurations(series []analyticsdomain.DayBucket, sessions []analyticsdomain.SessionRow, windowStart time.Time, days int) {
	sums := make([]float64, days)
	counts := make([]int64, days)
	for _, row := range sessions {
		if row.DurationSeconds == nil {
			continue
		}
		idx := bucketIndex(row.StartedAt, windowStart, days)
		if idx < 0 {
			continue
		}
		duration := float64(*row.DurationSeconds)
		if duration < 0 {
			duration = 0
		}
		sums[idx] += duration
		counts[idx]++
	}
	for i := range series {
		if counts[i] > 0 {
			series[i].AvgSessionDurationSeconds = math.Round(sums[i]/float64(counts[i])*100) / 100
		}
	}
}

// pctGrowth follows the dashboard convention: no data either side is flat,
// growth from zero is reported as a flat 100%.
func pctGrowth(current, previous int64) int {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return int(math.Round(float64(current-previous) / float64(previous) * 100))
}

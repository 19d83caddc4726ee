package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	accountdomain "github.com/dermalens/dermalens/internal/account/domain"
	analyticsdomain "github.com/dermalens/dermalens/internal/analytics/domain"
	"github.com/dermalens/dermalens/internal/analytics/repository"
	"github.com/dermalens/dermalens/internal/clock"
	sessiondomain "github.com/dermalens/dermalens/internal/session/domain"
	sessionrepository "github.com/dermalens/dermalens/internal/session/repository"
	sessionservice "github.com/dermalens/dermalens/internal/session/service"
	subscriptiondomain "github.com/dermalens/dermalens/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	svc   analyticsdomain.Service
	db    *gorm.DB
	fake  *clock.FakeClock
	genID *snowflake.Node
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&accountdomain.User{},
		&subscriptiondomain.Subscription{},
		&subscriptiondomain.QuizAttempt{},
		&sessiondomain.Heartbeat{},
		&sessiondomain.PageView{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	sessions := sessionservice.NewService(sessionservice.ServiceParam{
		DB:    conn,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  sessionrepository.Provide(),
	})

	svc := NewService(ServiceParam{
		DB:       conn,
		Log:      log,
		Clock:    fake,
		Repo:     repository.Provide(),
		Sessions: sessions,
	})

	return &testEnv{svc: svc, db: conn, fake: fake, genID: node}
}

func (e *testEnv) seedUser(t *testing.T, createdAt time.Time) snowflake.ID {
	t.Helper()
	id := e.genID.Generate()
	require.NoError(t, e.db.Create(&accountdomain.User{
		ID:           id,
		Email:        fmt.Sprintf("user-%s@example.com", id),
		FullName:     "Seed User",
		PasswordHash: "x",
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}).Error)
	return id
}

func (e *testEnv) seedAttempt(t *testing.T, userID snowflake.ID, createdAt time.Time) {
	t.Helper()
	require.NoError(t, e.db.Create(&subscriptiondomain.QuizAttempt{
		ID:             e.genID.Generate(),
		UserID:         userID,
		SubscriptionID: e.genID.Generate(),
		CreatedAt:      createdAt,
	}).Error)
}

func TestReportRejectsInvalidRange(t *testing.T) {
	env := newTestEnv(t)

	for _, days := range []int{0, -1, 366} {
		_, err := env.svc.Report(context.Background(), days)
		assert.ErrorIs(t, err, analyticsdomain.ErrInvalidRange, "days=%d", days)
	}
}

func TestReportSeriesIsDense(t *testing.T) {
	env := newTestEnv(t)

	report, err := env.svc.Report(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, report.Series, 7)
	assert.Equal(t, "2025-06-09", report.Series[0].Date)
	assert.Equal(t, "2025-06-15", report.Series[6].Date)
	for _, bucket := range report.Series {
		assert.Zero(t, bucket.Attempts)
		assert.Zero(t, bucket.ActiveUsers)
	}
	assert.EqualValues(t, 0, report.LiveUsers)
	for _, window := range analyticsdomain.VisitWindows {
		assert.Contains(t, report.Visits, window)
	}
}

func TestReportBucketsAttempts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.seedUser(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	bob := env.seedUser(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	carol := env.seedUser(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))

	// Current window: 2025-06-09 .. 2025-06-15.
	env.seedAttempt(t, alice, time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))
	env.seedAttempt(t, alice, time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC))
	env.seedAttempt(t, bob, time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC))
	env.seedAttempt(t, alice, time.Date(2025, 6, 14, 8, 0, 0, 0, time.UTC))

	// Previous window: 2025-06-02 .. 2025-06-08.
	env.seedAttempt(t, carol, time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC))
	env.seedAttempt(t, carol, time.Date(2025, 6, 5, 13, 0, 0, 0, time.UTC))

	report, err := env.svc.Report(ctx, 7)
	require.NoError(t, err)

	june10 := report.Series[1]
	assert.EqualValues(t, 3, june10.Attempts)
	assert.EqualValues(t, 2, june10.ActiveUsers)

	june14 := report.Series[5]
	assert.EqualValues(t, 1, june14.Attempts)
	assert.EqualValues(t, 1, june14.ActiveUsers)

	assert.EqualValues(t, 4, report.Totals.Attempts)
	assert.EqualValues(t, 2, report.Totals.ActiveUsers)
	assert.EqualValues(t, 2, report.Previous.Attempts)
	assert.EqualValues(t, 1, report.Previous.ActiveUsers)

	assert.Equal(t, 100, report.Growth.AttemptsPct)
	assert.Equal(t, 100, report.Growth.ActiveUsersPct)
}

func TestReportNewUsersAndConversions(t *testing.T) {
	env := newTestEnv(t)

	env.seedUser(t, time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC))
	env.seedUser(t, time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC))
	env.seedUser(t, time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC))

	// A new active ledger entry counts as a conversion on its period start.
	require.NoError(t, env.db.Create(&subscriptiondomain.Subscription{
		ID:            env.genID.Generate(),
		UserID:        env.genID.Generate(),
		Status:        subscriptiondomain.SubscriptionStatusActive,
		PlanID:        subscriptiondomain.PlanFree,
		PeriodStart:   time.Date(2025, 6, 12, 11, 0, 0, 0, time.UTC),
		AttemptsLimit: 5,
		CreatedAt:     time.Date(2025, 6, 12, 11, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2025, 6, 12, 11, 0, 0, 0, time.UTC),
	}).Error)

	report, err := env.svc.Report(context.Background(), 7)
	require.NoError(t, err)

	assert.EqualValues(t, 2, report.Totals.NewUsers)
	assert.EqualValues(t, 1, report.Previous.NewUsers)
	assert.EqualValues(t, 1, report.Series[2].NewUsers)
	assert.EqualValues(t, 1, report.Series[3].NewUsers)

	assert.EqualValues(t, 1, report.Totals.Conversions)
	assert.EqualValues(t, 0, report.Previous.Conversions)
	assert.EqualValues(t, 1, report.Series[3].Conversions)
	assert.Equal(t, 100, report.Growth.ConversionsPct)
	assert.Equal(t, 100, report.Growth.NewUsersPct)
}

func TestReportSessionDurationsAndLive(t *testing.T) {
	env := newTestEnv(t)

	started := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)
	ended := started.Add(5 * time.Minute)
	duration := 300
	require.NoError(t, env.db.Create(&sessiondomain.Heartbeat{
		SessionID:       "past-session",
		StartedAt:       started,
		LastSeenAt:      ended,
		EndedAt:         &ended,
		DurationSeconds: &duration,
	}).Error)

	// Sessions that never reported a duration must not drag the average.
	require.NoError(t, env.db.Create(&sessiondomain.Heartbeat{
		SessionID:  "abandoned-session",
		StartedAt:  started,
		LastSeenAt: started.Add(time.Hour),
	}).Error)

	now := env.fake.Now()
	require.NoError(t, env.db.Create(&sessiondomain.Heartbeat{
		SessionID:  "live-session",
		StartedAt:  now.Add(-10 * time.Second),
		LastSeenAt: now,
	}).Error)

	report, err := env.svc.Report(context.Background(), 7)
	require.NoError(t, err)

	assert.InDelta(t, 300, report.Series[1].AvgSessionDurationSeconds, 0.01)
	assert.EqualValues(t, 1, report.LiveUsers)
}

func TestReportVisitWindows(t *testing.T) {
	env := newTestEnv(t)
	now := env.fake.Now()

	seedView := func(createdAt time.Time) {
		require.NoError(t, env.db.Create(&sessiondomain.PageView{
			ID:        env.genID.Generate(),
			SessionID: "sess",
			Path:      "/quiz",
			CreatedAt: createdAt,
		}).Error)
	}
	seedView(now.Add(-2 * time.Hour))
	seedView(now.AddDate(0, 0, -3))
	seedView(now.AddDate(0, 0, -20))

	report, err := env.svc.Report(context.Background(), 30)
	require.NoError(t, err)

	assert.EqualValues(t, 1, report.Visits[1])
	assert.EqualValues(t, 2, report.Visits[7])
	assert.EqualValues(t, 2, report.Visits[15])
	assert.EqualValues(t, 3, report.Visits[30])
	assert.EqualValues(t, 3, report.Visits[90])
}

func TestPctGrowth(t *testing.T) {
	tests := []struct {
		current  int64
		previous int64
		want     int
	}{
		{0, 0, 0},
		{5, 0, 100},
		{10, 5, 100},
		{5, 10, -50},
		{7, 3, 133},
		{3, 7, -57},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pctGrowth(tt.current, tt.previous), "pctGrowth(%d, %d)", tt.current, tt.previous)
	}
}

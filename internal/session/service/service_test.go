package service

import (
	"context"
	"testing"
	"time"

	"github.com/dermalens/dermalens/internal/clock"
	sessiondomain "github.com/dermalens/dermalens/internal/session/domain"
	"github.com/dermalens/dermalens/internal/session/liveevents"
	"github.com/dermalens/dermalens/internal/session/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (sessiondomain.Service, *clock.FakeClock, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&sessiondomain.Heartbeat{},
		&sessiondomain.PageView{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	svc := NewService(ServiceParam{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
		Hub:   liveevents.NewHub(),
	})
	return svc, fake, conn
}

func TestStartGeneratesSessionID(t *testing.T) {
	svc, fake, _ := newTestService(t)

	hb, err := svc.Start(context.Background(), sessiondomain.StartRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, hb.SessionID)
	assert.True(t, hb.StartedAt.Equal(fake.Now()))
	assert.True(t, hb.LastSeenAt.Equal(fake.Now()))
	assert.Nil(t, hb.EndedAt)
}

func TestStartIsIdempotentPerSession(t *testing.T) {
	svc, fake, db := newTestService(t)
	ctx := context.Background()

	first, err := svc.Start(ctx, sessiondomain.StartRequest{SessionID: "sess-1"})
	require.NoError(t, err)

	fake.Advance(30 * time.Second)
	second, err := svc.Start(ctx, sessiondomain.StartRequest{SessionID: "sess-1"})
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.True(t, second.LastSeenAt.After(first.LastSeenAt))

	var count int64
	require.NoError(t, db.Model(&sessiondomain.Heartbeat{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPingRefreshesLastSeen(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ctx := context.Background()

	hb, err := svc.Start(ctx, sessiondomain.StartRequest{SessionID: "sess-1"})
	require.NoError(t, err)

	fake.Advance(45 * time.Second)
	pinged, err := svc.Ping(ctx, "sess-1", "/quiz/results")
	require.NoError(t, err)
	assert.True(t, pinged.LastSeenAt.After(hb.LastSeenAt))
	assert.True(t, pinged.StartedAt.Equal(hb.StartedAt))
	assert.Equal(t, "/quiz/results", pinged.Path)
}

func TestPingWithoutPathKeepsLastKnown(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, sessiondomain.StartRequest{SessionID: "sess-1", Path: "/quiz"})
	require.NoError(t, err)

	fake.Advance(15 * time.Second)
	pinged, err := svc.Ping(ctx, "sess-1", "")
	require.NoError(t, err)
	assert.Equal(t, "/quiz", pinged.Path)
}

func TestPingSelfHealsUnknownSession(t *testing.T) {
	svc, fake, _ := newTestService(t)

	hb, err := svc.Ping(context.Background(), "ghost-session", "")
	require.NoError(t, err)
	assert.Equal(t, "ghost-session", hb.SessionID)
	assert.True(t, hb.StartedAt.Equal(fake.Now()))
}

func TestPingRejectsEmptySession(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Ping(context.Background(), "  ", "")
	assert.ErrorIs(t, err, sessiondomain.ErrInvalidSession)
}

func TestPingRevivesEndedSession(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, sessiondomain.StartRequest{SessionID: "sess-1"})
	require.NoError(t, err)
	require.NoError(t, svc.End(ctx, "sess-1", nil))

	fake.Advance(5 * time.Second)
	hb, err := svc.Ping(ctx, "sess-1", "")
	require.NoError(t, err)
	assert.Nil(t, hb.EndedAt)
}

func TestRecordViewNeverRejected(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	// A view for a session nobody started still lands, creating the
	// heartbeat on the way.
	require.NoError(t, svc.RecordView(ctx, sessiondomain.ViewRequest{
		SessionID: "fresh-session",
		Path:      "/quiz/skin-type",
	}))
	require.NoError(t, svc.RecordView(ctx, sessiondomain.ViewRequest{
		Path: "/landing",
	}))

	var views int64
	require.NoError(t, db.Model(&sessiondomain.PageView{}).Count(&views).Error)
	assert.EqualValues(t, 2, views)

	var beats int64
	require.NoError(t, db.Model(&sessiondomain.Heartbeat{}).Count(&beats).Error)
	assert.EqualValues(t, 2, beats)
}

func TestRecordViewCarriesUser(t *testing.T) {
	svc, _, db := newTestService(t)

	userID := snowflake.ID(42)
	require.NoError(t, svc.RecordView(context.Background(), sessiondomain.ViewRequest{
		SessionID: "sess-1",
		UserID:    &userID,
		Path:      "/quiz/results",
	}))

	var view sessiondomain.PageView
	require.NoError(t, db.Where("session_id = ?", "sess-1").First(&view).Error)
	require.NotNil(t, view.UserID)
	assert.Equal(t, userID, *view.UserID)
}

func TestEndRecordsClientDuration(t *testing.T) {
	svc, fake, db := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, sessiondomain.StartRequest{SessionID: "sess-1"})
	require.NoError(t, err)

	fake.Advance(90 * time.Second)
	duration := 87
	require.NoError(t, svc.End(ctx, "sess-1", &duration))

	var hb sessiondomain.Heartbeat
	require.NoError(t, db.Where("session_id = ?", "sess-1").First(&hb).Error)
	require.NotNil(t, hb.DurationSeconds)
	assert.Equal(t, 87, *hb.DurationSeconds)
	require.NotNil(t, hb.EndedAt)
}

func TestEndWithoutDurationLeavesNull(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, sessiondomain.StartRequest{SessionID: "sess-1"})
	require.NoError(t, err)
	require.NoError(t, svc.End(ctx, "sess-1", nil))

	var hb sessiondomain.Heartbeat
	require.NoError(t, db.Where("session_id = ?", "sess-1").First(&hb).Error)
	assert.Nil(t, hb.DurationSeconds)
	assert.NotNil(t, hb.EndedAt)
}

func TestEndUnknownSessionIsNoop(t *testing.T) {
	svc, _, _ := newTestService(t)

	assert.NoError(t, svc.End(context.Background(), "never-started", nil))
	assert.NoError(t, svc.End(context.Background(), "", nil))
}

func TestLiveCount(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, sessiondomain.StartRequest{SessionID: "old"})
	require.NoError(t, err)

	fake.Advance(2 * time.Minute)
	_, err = svc.Start(ctx, sessiondomain.StartRequest{SessionID: "fresh"})
	require.NoError(t, err)
	_, err = svc.Start(ctx, sessiondomain.StartRequest{SessionID: "ended"})
	require.NoError(t, err)
	require.NoError(t, svc.End(ctx, "ended", nil))

	// "old" fell outside the live window and "ended" is excluded the
	// moment it ends.
	count, err := svc.LiveCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

package repository

import (
	"context"
	"errors"
	"time"

	sessiondomain "github.com/dermalens/dermalens/internal/session/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() sessiondomain.Repository {
	return &repo{}
}

func (r *repo) UpsertHeartbeat(ctx context.Context, db *gorm.DB, hb *sessiondomain.Heartbeat) error {
	assignments := map[string]interface{}{
		"last_seen_at": hb.LastSeenAt,
		"ended_at":     nil,
	}
	if hb.Path != "" {
		assignments["path"] = hb.Path
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(hb).Error
}

func (r *repo) FindHeartbeat(ctx context.Context, db *gorm.DB, sessionID string) (*sessiondomain.Heartbeat, error) {
	var hb sessiondomain.Heartbeat
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&hb).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &hb, nil
}

func (r *repo) TouchHeartbeat(ctx context.Context, db *gorm.DB, sessionID, path string, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE session_heartbeats
		 SET last_seen_at = ?, ended_at = NULL,
		     path = CASE WHEN ? = '' THEN path ELSE ? END
		 WHERE session_id = ?`,
		now, path, path, sessionID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) EndHeartbeat(ctx context.Context, db *gorm.DB, sessionID string, durationSeconds *int, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE session_heartbeats SET ended_at = ?, last_seen_at = ?, duration_seconds = ? WHERE session_id = ?`,
		now, now, durationSeconds, sessionID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) InsertPageView(ctx context.Context, db *gorm.DB, view *sessiondomain.PageView) error {
	return db.WithContext(ctx).Create(view).Error
}

func (r *repo) CountLive(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&sessiondomain.Heartbeat{}).
		Where("last_seen_at >= ? AND ended_at IS NULL", now.Add(-sessiondomain.LiveWindow)).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

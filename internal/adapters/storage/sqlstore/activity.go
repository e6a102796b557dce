package sqlstore

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/PabloGalante/trina/internal/domain"
)

func (s *Store) LogActivity(ctx context.Context, a *domain.Activity) error {
	if a.ID == "" {
		a.ID = domain.ActivityID(uuid.NewString())
	}

	var duration sql.NullInt64
	if a.DurationSeconds != nil {
		duration = sql.NullInt64{Int64: int64(*a.DurationSeconds), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (id, user_id, activity_type, duration_seconds, completed, notes, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, string(a.ID), string(a.UserID), a.ActivityType, duration, a.Completed, a.Notes, toNanos(a.CreatedAt))
	if err != nil {
		return domain.StorageError("log activity", err)
	}
	return nil
}

// ListActivitiesByUser returns the user's activities, newest first.
func (s *Store) ListActivitiesByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, activity_type, duration_seconds, completed, notes, created_ts
		FROM activities
		WHERE user_id = ?
		ORDER BY created_ts DESC, id DESC
		LIMIT ?
	`, string(userID), limit)
	if err != nil {
		return nil, domain.StorageError("list activities", err)
	}
	defer rows.Close()

	out := []*domain.Activity{}
	for rows.Next() {
		var (
			id       string
			duration sql.NullInt64
			created  int64
			a        = &domain.Activity{UserID: userID}
		)
		if err := rows.Scan(&id, &a.ActivityType, &duration, &a.Completed, &a.Notes, &created); err != nil {
			return nil, domain.StorageError("scan activity", err)
		}
		a.ID = domain.ActivityID(id)
		if duration.Valid {
			d := int(duration.Int64)
			a.DurationSeconds = &d
		}
		a.CreatedAt = fromNanos(created)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list activities", err)
	}
	return out, nil
}

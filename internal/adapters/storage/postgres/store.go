// Package postgres persists conversations, turns and activities in
// PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PabloGalante/trina/internal/domain"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		id               TEXT PRIMARY KEY,
		owner_id         TEXT NOT NULL DEFAULT '',
		anonymous        BOOLEAN NOT NULL,
		turn_count       BIGINT NOT NULL DEFAULT 0,
		created_at       TIMESTAMPTZ NOT NULL,
		last_activity_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_owner ON conversations(owner_id, last_activity_at DESC)`,
	`CREATE TABLE IF NOT EXISTS turns (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id),
		seq             BIGINT NOT NULL,
		role            TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
		content         TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL,
		UNIQUE (conversation_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL DEFAULT '',
		activity_type    VARCHAR(100) NOT NULL,
		duration_seconds INTEGER,
		completed        BOOLEAN NOT NULL,
		notes            TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_user ON activities(user_id, created_at DESC)`,
}

// Store handles PostgreSQL operations.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new PostgreSQL store with a connection pool.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, domain.StorageError("ping postgres", err)
	}

	return &Store{pool: pool}, nil
}

// EnsureSchema creates tables and indexes if they don't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return domain.StorageError("ensure schema", err)
		}
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return domain.StorageError("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversations (id, owner_id, anonymous, turn_count, created_at, last_activity_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, string(conv.ID), string(conv.OwnerID), conv.Anonymous, conv.TurnCount, conv.CreatedAt, conv.LastActivityAt)
	if err != nil {
		return domain.StorageError("create conversation", err)
	}
	return nil
}

func (s *Store) GetConversation(ctx context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, anonymous, turn_count, created_at, last_activity_at
		FROM conversations WHERE id = $1
	`, string(id))

	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
		}
		return nil, domain.StorageError("get conversation", err)
	}
	return conv, nil
}

func (s *Store) ListConversationsByOwner(ctx context.Context, owner domain.UserID, limit int) ([]*domain.Conversation, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, anonymous, turn_count, created_at, last_activity_at
		FROM conversations
		WHERE owner_id = $1 AND NOT anonymous
		ORDER BY last_activity_at DESC, id DESC
		LIMIT $2
	`, string(owner), limit)
	if err != nil {
		return nil, domain.StorageError("list conversations", err)
	}
	defer rows.Close()

	out := []*domain.Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, domain.StorageError("scan conversation", err)
		}
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list conversations", err)
	}
	return out, nil
}

func scanConversation(row pgx.Row) (*domain.Conversation, error) {
	var (
		conv      domain.Conversation
		id, owner string
	)
	if err := row.Scan(&id, &owner, &conv.Anonymous, &conv.TurnCount, &conv.CreatedAt, &conv.LastActivityAt); err != nil {
		return nil, err
	}
	conv.ID = domain.ConversationID(id)
	conv.OwnerID = domain.UserID(owner)
	conv.CreatedAt = conv.CreatedAt.UTC()
	conv.LastActivityAt = conv.LastActivityAt.UTC()
	return &conv, nil
}

// AppendTurn bumps the conversation and inserts the turn in one transaction.
func (s *Store) AppendTurn(ctx context.Context, turn *domain.Turn) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var (
			seq     int64
			created time.Time
		)
		err := tx.QueryRow(ctx, `
			UPDATE conversations
			SET turn_count = turn_count + 1, last_activity_at = GREATEST(last_activity_at, $1)
			WHERE id = $2
			RETURNING turn_count, last_activity_at
		`, turn.CreatedAt, string(turn.ConversationID)).Scan(&seq, &created)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO turns (id, conversation_id, seq, role, content, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, string(turn.ID), string(turn.ConversationID), seq, string(turn.Role), turn.Content, created); err != nil {
			return err
		}

		turn.Seq = seq
		turn.CreatedAt = created.UTC()
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("conversation %s: %w", turn.ConversationID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.StorageError("append turn", err)
	}
	return nil
}

func (s *Store) ListTurns(ctx context.Context, id domain.ConversationID) ([]*domain.Turn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, seq, role, content, created_at
		FROM turns
		WHERE conversation_id = $1
		ORDER BY seq ASC
	`, string(id))
	if err != nil {
		return nil, domain.StorageError("list turns", err)
	}
	defer rows.Close()

	out := []*domain.Turn{}
	for rows.Next() {
		var (
			turnID, role string
			t            = &domain.Turn{ConversationID: id}
		)
		if err := rows.Scan(&turnID, &t.Seq, &role, &t.Content, &t.CreatedAt); err != nil {
			return nil, domain.StorageError("scan turn", err)
		}
		t.ID = domain.TurnID(turnID)
		t.Role = domain.Role(role)
		t.CreatedAt = t.CreatedAt.UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list turns", err)
	}
	return out, nil
}

func (s *Store) LogActivity(ctx context.Context, a *domain.Activity) error {
	if a.ID == "" {
		a.ID = domain.ActivityID(uuid.NewString())
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO activities (id, user_id, activity_type, duration_seconds, completed, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, string(a.ID), string(a.UserID), a.ActivityType, a.DurationSeconds, a.Completed, a.Notes, a.CreatedAt)
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

	rows, err := s.pool.Query(ctx, `
		SELECT id, activity_type, duration_seconds, completed, notes, created_at
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, string(userID), limit)
	if err != nil {
		return nil, domain.StorageError("list activities", err)
	}
	defer rows.Close()

	out := []*domain.Activity{}
	for rows.Next() {
		var (
			id        string
			duration  *int32
			createdAt time.Time
			a         = &domain.Activity{UserID: userID}
		)
		if err := rows.Scan(&id, &a.ActivityType, &duration, &a.Completed, &a.Notes, &createdAt); err != nil {
			return nil, domain.StorageError("scan activity", err)
		}
		a.ID = domain.ActivityID(id)
		if duration != nil {
			d := int(*duration)
			a.DurationSeconds = &d
		}
		a.CreatedAt = createdAt.UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list activities", err)
	}
	return out, nil
}

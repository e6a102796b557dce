package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/PabloGalante/trina/internal/domain"
)

const conversationColumns = `id, owner_id, anonymous, turn_count, created_ts, last_activity_ts`

func (s *Store) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (`+conversationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(conv.ID), string(conv.OwnerID), conv.Anonymous, conv.TurnCount,
		toNanos(conv.CreatedAt), toNanos(conv.LastActivityAt))
	if err != nil {
		return domain.StorageError("create conversation", err)
	}
	return nil
}

func (s *Store) GetConversation(ctx context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations WHERE id = ?
	`, string(id))

	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE owner_id = ? AND anonymous = ?
		ORDER BY last_activity_ts DESC, id DESC
		LIMIT ?
	`, string(owner), false, limit)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanConversation(row scanner) (*domain.Conversation, error) {
	var (
		id, owner          string
		conv               domain.Conversation
		created, lastActed int64
	)
	if err := row.Scan(&id, &owner, &conv.Anonymous, &conv.TurnCount, &created, &lastActed); err != nil {
		return nil, err
	}
	conv.ID = domain.ConversationID(id)
	conv.OwnerID = domain.UserID(owner)
	conv.CreatedAt = fromNanos(created)
	conv.LastActivityAt = fromNanos(lastActed)
	return &conv, nil
}

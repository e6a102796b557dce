package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/PabloGalante/trina/internal/domain"
)

var errConversationMissing = errors.New("conversation missing")

// AppendTurn bumps the conversation row and inserts the turn in one
// transaction. The row lock taken by the UPDATE orders concurrent appends,
// and last_activity_ts never moves backwards, so created_ts follows seq.
func (s *Store) AppendTurn(ctx context.Context, turn *domain.Turn) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE conversations
			SET turn_count = turn_count + 1,
				last_activity_ts = CASE WHEN last_activity_ts > ? THEN last_activity_ts ELSE ? END
			WHERE id = ?
		`, toNanos(turn.CreatedAt), toNanos(turn.CreatedAt), string(turn.ConversationID))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errConversationMissing
		}

		var seq, created int64
		if err := tx.QueryRowContext(ctx,
			`SELECT turn_count, last_activity_ts FROM conversations WHERE id = ?`,
			string(turn.ConversationID),
		).Scan(&seq, &created); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO turns (id, conversation_id, seq, role, content, created_ts)
			VALUES (?, ?, ?, ?, ?, ?)
		`, string(turn.ID), string(turn.ConversationID), seq, string(turn.Role), turn.Content, created); err != nil {
			return err
		}

		turn.Seq = seq
		turn.CreatedAt = fromNanos(created)
		return nil
	})
	if errors.Is(err, errConversationMissing) {
		return fmt.Errorf("conversation %s: %w", turn.ConversationID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.StorageError("append turn", err)
	}
	return nil
}

func (s *Store) ListTurns(ctx context.Context, id domain.ConversationID) ([]*domain.Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, role, content, created_ts
		FROM turns
		WHERE conversation_id = ?
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
			created      int64
			t            = &domain.Turn{ConversationID: id}
		)
		if err := rows.Scan(&turnID, &t.Seq, &role, &t.Content, &created); err != nil {
			return nil, domain.StorageError("scan turn", err)
		}
		t.ID = domain.TurnID(turnID)
		t.Role = domain.Role(role)
		t.CreatedAt = fromNanos(created)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list turns", err)
	}
	return out, nil
}

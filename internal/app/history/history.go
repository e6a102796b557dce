// Package history is the append-only turn log of a conversation.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/PabloGalante/trina/internal/domain"
	"github.com/PabloGalante/trina/internal/metrics"
)

// Log appends and reads turns. Append is the only mutation.
type Log struct {
	store domain.TurnStore
	now   func() time.Time
}

func New(store domain.TurnStore) *Log {
	return &Log{
		store: store,
		now:   time.Now,
	}
}

// Append persists a new turn. The store rejects unknown conversations with
// domain.ErrNotFound.
func (l *Log) Append(ctx context.Context, id domain.ConversationID, role domain.Role, content string) (*domain.Turn, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("role %q: %w", role, domain.ErrInvalidInput)
	}

	now := l.now().UTC()
	turn := &domain.Turn{
		ID:             domain.TurnID(ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()),
		ConversationID: id,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}

	if err := l.store.AppendTurn(ctx, turn); err != nil {
		return nil, fmt.Errorf("append %s turn to %s: %w", role, id, err)
	}

	metrics.TurnsAppended.WithLabelValues(string(role)).Inc()
	return turn, nil
}

// Turns returns the conversation's turns in append order; never nil.
func (l *Log) Turns(ctx context.Context, id domain.ConversationID) ([]*domain.Turn, error) {
	turns, err := l.store.ListTurns(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list turns of %s: %w", id, err)
	}
	if turns == nil {
		turns = []*domain.Turn{}
	}
	return turns, nil
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/PabloGalante/trina/internal/domain"
)

// Store is an in-memory implementation of the conversation, turn and activity
// stores. It is NOT persistent and is only suitable for development / local mode.
type Store struct {
	mu            sync.RWMutex
	conversations map[domain.ConversationID]*domain.Conversation
	turns         map[domain.ConversationID][]*domain.Turn
	activities    []*domain.Activity
}

func NewStore() *Store {
	return &Store{
		conversations: make(map[domain.ConversationID]*domain.Conversation),
		turns:         make(map[domain.ConversationID][]*domain.Turn),
	}
}

func (s *Store) CreateConversation(_ context.Context, conv *domain.Conversation) error {
	if conv == nil || conv.ID == "" {
		return fmt.Errorf("create conversation: missing id: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conv.ID]; ok {
		return fmt.Errorf("conversation %s already exists: %w", conv.ID, domain.ErrInvalidInput)
	}
	cp := *conv
	s.conversations[conv.ID] = &cp
	return nil
}

func (s *Store) GetConversation(_ context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	cp := *conv
	return &cp, nil
}

func (s *Store) ListConversationsByOwner(_ context.Context, owner domain.UserID, limit int) ([]*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Conversation, 0)
	for _, conv := range s.conversations {
		if conv.OwnerID != owner || conv.Anonymous {
			continue
		}
		cp := *conv
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActivityAt.Equal(out[j].LastActivityAt) {
			return out[i].LastActivityAt.After(out[j].LastActivityAt)
		}
		return out[i].ID > out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AppendTurn assigns the next Seq and bumps the conversation under one lock.
// CreatedAt is raised to the conversation's LastActivityAt when it is older.
func (s *Store) AppendTurn(_ context.Context, turn *domain.Turn) error {
	if turn == nil {
		return fmt.Errorf("append turn: nil turn: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[turn.ConversationID]
	if !ok {
		return fmt.Errorf("conversation %s: %w", turn.ConversationID, domain.ErrNotFound)
	}

	if turn.CreatedAt.Before(conv.LastActivityAt) {
		turn.CreatedAt = conv.LastActivityAt
	}
	conv.TurnCount++
	conv.LastActivityAt = turn.CreatedAt
	turn.Seq = conv.TurnCount

	cp := *turn
	s.turns[turn.ConversationID] = append(s.turns[turn.ConversationID], &cp)
	return nil
}

func (s *Store) ListTurns(_ context.Context, id domain.ConversationID) ([]*domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.turns[id]
	out := make([]*domain.Turn, 0, len(turns))
	for _, t := range turns {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) LogActivity(_ context.Context, a *domain.Activity) error {
	if a == nil {
		return fmt.Errorf("log activity: nil activity: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = domain.ActivityID(uuid.NewString())
	}
	cp := *a
	s.activities = append(s.activities, &cp)
	return nil
}

// ListActivitiesByUser returns the user's activities, newest first.
// If limit <= 0, returns all.
func (s *Store) ListActivitiesByUser(_ context.Context, userID domain.UserID, limit int) ([]*domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Activity, 0)
	for i := len(s.activities) - 1; i >= 0; i-- {
		a := s.activities[i]
		if a.UserID != userID {
			continue
		}
		cp := *a
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

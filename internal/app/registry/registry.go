package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/trina/internal/domain"
	"github.com/PabloGalante/trina/internal/metrics"
	"github.com/PabloGalante/trina/internal/observability"
)

// DefaultListLimit bounds ListForOwner.
const DefaultListLimit = 100

// Registry creates and looks up conversations.
type Registry struct {
	store domain.ConversationStore
	now   func() time.Time
	newID func() domain.ConversationID
}

func New(store domain.ConversationStore) *Registry {
	return &Registry{
		store: store,
		now:   time.Now,
		newID: func() domain.ConversationID {
			return domain.ConversationID(uuid.Must(uuid.NewV7()).String())
		},
	}
}

// Create registers a new conversation. An anonymous conversation never records
// an owner; an identified one requires it.
func (r *Registry) Create(ctx context.Context, owner domain.UserID, anonymous bool) (*domain.Conversation, error) {
	if anonymous {
		owner = ""
	} else if owner == "" {
		return nil, fmt.Errorf("identified conversation without owner: %w", domain.ErrUnauthorized)
	}

	now := r.now().UTC()
	conv := &domain.Conversation{
		ID:             r.newID(),
		OwnerID:        owner,
		Anonymous:      owner == "",
		CreatedAt:      now,
		LastActivityAt: now,
	}

	if err := r.store.CreateConversation(ctx, conv); err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Msg("failed to create conversation")
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	kind := "identified"
	if conv.Anonymous {
		kind = "anonymous"
	}
	metrics.ConversationsCreated.WithLabelValues(kind).Inc()

	return conv, nil
}

// Get returns domain.ErrNotFound when the conversation does not exist.
func (r *Registry) Get(ctx context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	if id == "" {
		return nil, fmt.Errorf("empty conversation id: %w", domain.ErrNotFound)
	}
	conv, err := r.store.GetConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", id, err)
	}
	return conv, nil
}

// ListForOwner returns the owner's conversations, most recently active first.
func (r *Registry) ListForOwner(ctx context.Context, owner domain.UserID) ([]*domain.Conversation, error) {
	if owner == "" {
		return nil, fmt.Errorf("list conversations: %w", domain.ErrUnauthorized)
	}
	convs, err := r.store.ListConversationsByOwner(ctx, owner, DefaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if convs == nil {
		convs = []*domain.Conversation{}
	}
	return convs, nil
}

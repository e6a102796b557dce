package domain

import "context"

// CompletionClient defines how the core talks to a language-model service.
type CompletionClient interface {
	Complete(ctx context.Context, prompt Prompt) (*Completion, error)
}

// ConversationStore defines conversation persistence.
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv *Conversation) error
	// GetConversation returns ErrNotFound when id is unknown.
	GetConversation(ctx context.Context, id ConversationID) (*Conversation, error)
	// ListConversationsByOwner returns conversations ordered by LastActivityAt desc.
	ListConversationsByOwner(ctx context.Context, owner UserID, limit int) ([]*Conversation, error)
}

// TurnStore defines turn persistence.
type TurnStore interface {
	// AppendTurn assigns turn.Seq, bumps the parent conversation's TurnCount and
	// LastActivityAt atomically with the insert, and returns ErrNotFound when
	// the conversation does not exist. turn.CreatedAt is raised to the
	// conversation's LastActivityAt when older, so CreatedAt follows Seq.
	AppendTurn(ctx context.Context, turn *Turn) error
	// ListTurns returns the turns of a conversation ordered by Seq ascending.
	ListTurns(ctx context.Context, id ConversationID) ([]*Turn, error)
}

// ActivityStore defines activity log persistence.
type ActivityStore interface {
	LogActivity(ctx context.Context, a *Activity) error
	ListActivitiesByUser(ctx context.Context, userID UserID, limit int) ([]*Activity, error)
}

// Locker serializes work on a single conversation.
type Locker interface {
	// Lock blocks until the conversation is held or ctx is done.
	// The returned release func must be called exactly once.
	Lock(ctx context.Context, id ConversationID) (release func(), err error)
}

package domain

// Conversation is a thread of turns between a caller and Trina.
// Anonymous is fixed at creation: true iff no OwnerID was recorded.
type Conversation struct {
	ID        ConversationID
	OwnerID   UserID
	Anonymous bool

	CreatedAt      Timestamp
	LastActivityAt Timestamp

	// TurnCount is the Seq of the last appended turn.
	TurnCount int64
}

// Turn is one immutable message within a conversation.
type Turn struct {
	ID             TurnID
	ConversationID ConversationID
	Seq            int64 // 1-based, assigned by the store at append time
	Role           Role
	Content        string
	CreatedAt      Timestamp
}

package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/trina/internal/domain"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store for the given project (TRINA_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Ping reads a missing document; only transport failures count.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection("_health").Doc("ping").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return domain.StorageError("firestore ping", err)
	}
	return nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) conversationsCol() *firestore.CollectionRef {
	return s.client.Collection("conversations")
}

func (s *Store) conversationDoc(id domain.ConversationID) *firestore.DocumentRef {
	return s.conversationsCol().Doc(string(id))
}

func (s *Store) turnsCol(id domain.ConversationID) *firestore.CollectionRef {
	return s.conversationDoc(id).Collection("turns")
}

func (s *Store) activitiesCol() *firestore.CollectionRef {
	return s.client.Collection("activities")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type conversationDoc struct {
	OwnerID        string    `firestore:"owner_id"`
	Anonymous      bool      `firestore:"anonymous"`
	TurnCount      int64     `firestore:"turn_count"`
	CreatedAt      time.Time `firestore:"created_at"`
	LastActivityAt time.Time `firestore:"last_activity_at"`
}

type turnDoc struct {
	Seq       int64     `firestore:"seq"`
	Role      string    `firestore:"role"`
	Content   string    `firestore:"content"`
	CreatedAt time.Time `firestore:"created_at"`
}

type activityDoc struct {
	UserID          string    `firestore:"user_id"`
	ActivityType    string    `firestore:"activity_type"`
	DurationSeconds *int64    `firestore:"duration_seconds"`
	Completed       bool      `firestore:"completed"`
	Notes           string    `firestore:"notes"`
	CreatedAt       time.Time `firestore:"created_at"`
}

func (d conversationDoc) toDomain(id string) *domain.Conversation {
	return &domain.Conversation{
		ID:             domain.ConversationID(id),
		OwnerID:        domain.UserID(d.OwnerID),
		Anonymous:      d.Anonymous,
		TurnCount:      d.TurnCount,
		CreatedAt:      d.CreatedAt.UTC(),
		LastActivityAt: d.LastActivityAt.UTC(),
	}
}

// ─────────────────────────────────────────
// ConversationStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	doc := conversationDoc{
		OwnerID:        string(conv.OwnerID),
		Anonymous:      conv.Anonymous,
		TurnCount:      conv.TurnCount,
		CreatedAt:      conv.CreatedAt,
		LastActivityAt: conv.LastActivityAt,
	}

	if _, err := s.conversationDoc(conv.ID).Create(ctx, doc); err != nil {
		return domain.StorageError("firestore CreateConversation", err)
	}
	return nil
}

func (s *Store) GetConversation(ctx context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	snap, err := s.conversationDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
		}
		return nil, domain.StorageError("firestore GetConversation", err)
	}

	var doc conversationDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, domain.StorageError("firestore GetConversation decode", err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

// ListConversationsByOwner needs a composite index on (owner_id, anonymous, last_activity_at desc).
func (s *Store) ListConversationsByOwner(ctx context.Context, owner domain.UserID, limit int) ([]*domain.Conversation, error) {
	q := s.conversationsCol().
		Where("owner_id", "==", string(owner)).
		Where("anonymous", "==", false).
		OrderBy("last_activity_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []*domain.Conversation{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, domain.StorageError("firestore ListConversationsByOwner", err)
		}

		var doc conversationDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, domain.StorageError("decode conversationDoc", err)
		}
		out = append(out, doc.toDomain(snap.Ref.ID))
	}
	return out, nil
}

// ─────────────────────────────────────────
// TurnStore implementation
// ─────────────────────────────────────────

var errConversationMissing = errors.New("conversation missing")

// AppendTurn reads the parent conversation, bumps its counter and creates the
// turn document in a single transaction. A turn is never stamped earlier than
// the conversation's last activity.
func (s *Store) AppendTurn(ctx context.Context, turn *domain.Turn) error {
	convRef := s.conversationDoc(turn.ConversationID)
	turnRef := s.turnsCol(turn.ConversationID).Doc(string(turn.ID))

	var (
		seq     int64
		created time.Time
	)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(convRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errConversationMissing
			}
			return err
		}

		var conv conversationDoc
		if err := snap.DataTo(&conv); err != nil {
			return err
		}
		seq = conv.TurnCount + 1
		created = turn.CreatedAt
		if created.Before(conv.LastActivityAt) {
			created = conv.LastActivityAt
		}

		if err := tx.Update(convRef, []firestore.Update{
			{Path: "turn_count", Value: seq},
			{Path: "last_activity_at", Value: created},
		}); err != nil {
			return err
		}

		return tx.Create(turnRef, turnDoc{
			Seq:       seq,
			Role:      string(turn.Role),
			Content:   turn.Content,
			CreatedAt: created,
		})
	})
	if errors.Is(err, errConversationMissing) {
		return fmt.Errorf("conversation %s: %w", turn.ConversationID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.StorageError("firestore AppendTurn", err)
	}

	turn.Seq = seq
	turn.CreatedAt = created.UTC()
	return nil
}

func (s *Store) ListTurns(ctx context.Context, id domain.ConversationID) ([]*domain.Turn, error) {
	iter := s.turnsCol(id).OrderBy("seq", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	out := []*domain.Turn{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, domain.StorageError("firestore ListTurns", err)
		}

		var doc turnDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, domain.StorageError("decode turnDoc", err)
		}

		out = append(out, &domain.Turn{
			ID:             domain.TurnID(snap.Ref.ID),
			ConversationID: id,
			Seq:            doc.Seq,
			Role:           domain.Role(doc.Role),
			Content:        doc.Content,
			CreatedAt:      doc.CreatedAt.UTC(),
		})
	}
	return out, nil
}

// ─────────────────────────────────────────
// ActivityStore implementation
// ─────────────────────────────────────────

func (s *Store) LogActivity(ctx context.Context, a *domain.Activity) error {
	if a.ID == "" {
		a.ID = domain.ActivityID(uuid.NewString())
	}

	var duration *int64
	if a.DurationSeconds != nil {
		d := int64(*a.DurationSeconds)
		duration = &d
	}

	doc := activityDoc{
		UserID:          string(a.UserID),
		ActivityType:    a.ActivityType,
		DurationSeconds: duration,
		Completed:       a.Completed,
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt,
	}

	if _, err := s.activitiesCol().Doc(string(a.ID)).Create(ctx, doc); err != nil {
		return domain.StorageError("firestore LogActivity", err)
	}
	return nil
}

func (s *Store) ListActivitiesByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Activity, error) {
	q := s.activitiesCol().
		Where("user_id", "==", string(userID)).
		OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []*domain.Activity{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, domain.StorageError("firestore ListActivitiesByUser", err)
		}

		var doc activityDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, domain.StorageError("decode activityDoc", err)
		}

		a := &domain.Activity{
			ID:           domain.ActivityID(snap.Ref.ID),
			UserID:       domain.UserID(doc.UserID),
			ActivityType: doc.ActivityType,
			Completed:    doc.Completed,
			Notes:        doc.Notes,
			CreatedAt:    doc.CreatedAt.UTC(),
		}
		if doc.DurationSeconds != nil {
			d := int(*doc.DurationSeconds)
			a.DurationSeconds = &d
		}
		out = append(out, a)
	}
	return out, nil
}

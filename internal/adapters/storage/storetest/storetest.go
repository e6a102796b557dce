// Package storetest holds behaviour checks shared by every store adapter.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/trina/internal/domain"
)

// Store is what an adapter must provide.
type Store interface {
	domain.ConversationStore
	domain.TurnStore
	domain.ActivityStore
}

// Run exercises s. Each subtest uses fresh ids, so one store may be shared.
func Run(t *testing.T, s Store) {
	t.Run("ConversationRoundTrip", func(t *testing.T) { conversationRoundTrip(t, s) })
	t.Run("GetUnknown", func(t *testing.T) { getUnknown(t, s) })
	t.Run("AppendAssignsSeq", func(t *testing.T) { appendAssignsSeq(t, s) })
	t.Run("AppendUnknownConversation", func(t *testing.T) { appendUnknown(t, s) })
	t.Run("ConcurrentAppends", func(t *testing.T) { concurrentAppends(t, s) })
	t.Run("StaleClockAppend", func(t *testing.T) { staleClockAppend(t, s) })
	t.Run("ListByOwner", func(t *testing.T) { listByOwner(t, s) })
	t.Run("Activities", func(t *testing.T) { activities(t, s) })
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newConversation(t *testing.T, s Store, owner domain.UserID, at time.Time) *domain.Conversation {
	t.Helper()
	conv := &domain.Conversation{
		ID:             domain.ConversationID(uuid.Must(uuid.NewV7()).String()),
		OwnerID:        owner,
		Anonymous:      owner == "",
		CreatedAt:      at,
		LastActivityAt: at,
	}
	require.NoError(t, s.CreateConversation(context.Background(), conv))
	return conv
}

func newTurn(id domain.ConversationID, role domain.Role, content string, at time.Time) *domain.Turn {
	return &domain.Turn{
		ID:             domain.TurnID(ulid.Make().String()),
		ConversationID: id,
		Role:           role,
		Content:        content,
		CreatedAt:      at,
	}
}

func conversationRoundTrip(t *testing.T, s Store) {
	conv := newConversation(t, s, "owner-rt", base)

	got, err := s.GetConversation(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
	assert.Equal(t, conv.OwnerID, got.OwnerID)
	assert.False(t, got.Anonymous)
	assert.True(t, conv.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, conv.LastActivityAt.Equal(got.LastActivityAt))
	assert.Zero(t, got.TurnCount)
}

func getUnknown(t *testing.T, s Store) {
	_, err := s.GetConversation(context.Background(), domain.ConversationID(uuid.NewString()))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func appendAssignsSeq(t *testing.T, s Store) {
	ctx := context.Background()
	conv := newConversation(t, s, "", base)

	for i := 0; i < 4; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		turn := newTurn(conv.ID, role, fmt.Sprintf("turn %d", i), base.Add(time.Duration(i+1)*time.Second))
		require.NoError(t, s.AppendTurn(ctx, turn))
		assert.Equal(t, int64(i+1), turn.Seq)
	}

	turns, err := s.ListTurns(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, turns, 4)
	for i, turn := range turns {
		assert.Equal(t, int64(i+1), turn.Seq)
		assert.Equal(t, fmt.Sprintf("turn %d", i), turn.Content)
		assert.Equal(t, conv.ID, turn.ConversationID)
	}
	assert.Equal(t, domain.RoleAssistant, turns[3].Role)

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.TurnCount)
	assert.True(t, got.LastActivityAt.Equal(base.Add(4*time.Second)))
	assert.True(t, got.CreatedAt.Equal(base))
}

func appendUnknown(t *testing.T, s Store) {
	id := domain.ConversationID(uuid.NewString())
	err := s.AppendTurn(context.Background(), newTurn(id, domain.RoleUser, "hi", base))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	turns, err := s.ListTurns(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func concurrentAppends(t *testing.T, s Store) {
	ctx := context.Background()
	conv := newConversation(t, s, "", base)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Clocks disagree: later goroutines may carry earlier timestamps.
			at := base.Add(time.Duration(n-i) * time.Second)
			assert.NoError(t, s.AppendTurn(ctx, newTurn(conv.ID, domain.RoleUser, fmt.Sprint(i), at)))
		}(i)
	}
	wg.Wait()

	turns, err := s.ListTurns(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, turns, n)
	for i, turn := range turns {
		assert.Equal(t, int64(i+1), turn.Seq)
		if i > 0 {
			assert.False(t, turn.CreatedAt.Before(turns[i-1].CreatedAt),
				"seq %d created_at %s precedes seq %d created_at %s", turn.Seq, turn.CreatedAt, turns[i-1].Seq, turns[i-1].CreatedAt)
		}
	}

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, got.LastActivityAt.Equal(turns[n-1].CreatedAt))
}

func staleClockAppend(t *testing.T, s Store) {
	ctx := context.Background()
	conv := newConversation(t, s, "", base)

	first := newTurn(conv.ID, domain.RoleUser, "first", base.Add(10*time.Second))
	require.NoError(t, s.AppendTurn(ctx, first))

	second := newTurn(conv.ID, domain.RoleAssistant, "second", base.Add(5*time.Second))
	require.NoError(t, s.AppendTurn(ctx, second))
	assert.Equal(t, int64(2), second.Seq)
	assert.True(t, second.CreatedAt.Equal(base.Add(10*time.Second)), "got %s", second.CreatedAt)

	turns, err := s.ListTurns(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.True(t, turns[1].CreatedAt.Equal(base.Add(10*time.Second)))

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, got.LastActivityAt.Equal(base.Add(10*time.Second)))
}

func listByOwner(t *testing.T, s Store) {
	ctx := context.Background()
	owner := domain.UserID("owner-" + uuid.NewString())

	older := newConversation(t, s, owner, base)
	newer := newConversation(t, s, owner, base.Add(time.Hour))
	newConversation(t, s, "someone-else", base.Add(2*time.Hour))
	newConversation(t, s, "", base.Add(3*time.Hour))

	list, err := s.ListConversationsByOwner(ctx, owner, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	// A new turn moves the older conversation to the top.
	require.NoError(t, s.AppendTurn(ctx, newTurn(older.ID, domain.RoleUser, "back", base.Add(2*time.Hour))))
	list, err = s.ListConversationsByOwner(ctx, owner, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, older.ID, list[0].ID)

	list, err = s.ListConversationsByOwner(ctx, owner, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func activities(t *testing.T, s Store) {
	ctx := context.Background()
	user := domain.UserID("user-" + uuid.NewString())
	seconds := 120

	require.NoError(t, s.LogActivity(ctx, &domain.Activity{
		ID: domain.ActivityID(uuid.NewString()), UserID: user, ActivityType: "breathing",
		DurationSeconds: &seconds, Completed: true, Notes: "calmer", CreatedAt: base,
	}))
	require.NoError(t, s.LogActivity(ctx, &domain.Activity{
		ID: domain.ActivityID(uuid.NewString()), UserID: user, ActivityType: "meditation", CreatedAt: base.Add(time.Minute),
	}))
	require.NoError(t, s.LogActivity(ctx, &domain.Activity{
		ID: domain.ActivityID(uuid.NewString()), ActivityType: "cbt", CreatedAt: base,
	}))

	list, err := s.ListActivitiesByUser(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "meditation", list[0].ActivityType)
	assert.Nil(t, list[0].DurationSeconds)
	assert.Equal(t, "breathing", list[1].ActivityType)
	require.NotNil(t, list[1].DurationSeconds)
	assert.Equal(t, 120, *list[1].DurationSeconds)
	assert.True(t, list[1].Completed)
	assert.Equal(t, "calmer", list[1].Notes)
}

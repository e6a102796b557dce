package history_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/trina/internal/adapters/storage/memory"
	"github.com/PabloGalante/trina/internal/app/history"
	"github.com/PabloGalante/trina/internal/app/registry"
	"github.com/PabloGalante/trina/internal/domain"
)

func setup(t *testing.T) (*history.Log, *domain.Conversation) {
	t.Helper()
	store := memory.NewStore()
	conv, err := registry.New(store).Create(context.Background(), "", true)
	require.NoError(t, err)
	return history.New(store), conv
}

func TestAppendAndReadInOrder(t *testing.T) {
	ctx := context.Background()
	log, conv := setup(t)

	for i := 0; i < 6; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		_, err := log.Append(ctx, conv.ID, role, fmt.Sprintf("turn %d", i))
		require.NoError(t, err)
	}

	turns, err := log.Turns(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, turns, 6)

	for i, turn := range turns {
		assert.Equal(t, fmt.Sprintf("turn %d", i), turn.Content)
		assert.Equal(t, int64(i+1), turn.Seq)
		if i > 0 {
			assert.False(t, turn.CreatedAt.Before(turns[i-1].CreatedAt))
		}
	}
}

func TestTurnsEmptyIsNotAnError(t *testing.T) {
	log, conv := setup(t)

	turns, err := log.Turns(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.NotNil(t, turns)
	assert.Empty(t, turns)
}

func TestAppendRejectsUnknownRole(t *testing.T) {
	log, conv := setup(t)

	_, err := log.Append(context.Background(), conv.ID, domain.Role("system"), "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAppendToUnknownConversation(t *testing.T) {
	log, _ := setup(t)

	_, err := log.Append(context.Background(), "nope", domain.RoleUser, "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentAppendsGetDistinctSeq(t *testing.T) {
	ctx := context.Background()
	log, conv := setup(t)

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := log.Append(ctx, conv.ID, domain.RoleUser, fmt.Sprint(i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	turns, err := log.Turns(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, turns, n)
	for i, turn := range turns {
		assert.Equal(t, int64(i+1), turn.Seq)
		if i > 0 {
			assert.False(t, turn.CreatedAt.Before(turns[i-1].CreatedAt),
				"seq %d created_at %s precedes seq %d created_at %s", turn.Seq, turn.CreatedAt, turns[i-1].Seq, turns[i-1].CreatedAt)
		}
	}
}

package conversation_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/trina/internal/adapters/llm"
	"github.com/PabloGalante/trina/internal/adapters/lock"
	"github.com/PabloGalante/trina/internal/adapters/storage/memory"
	"github.com/PabloGalante/trina/internal/app/conversation"
	"github.com/PabloGalante/trina/internal/app/generation"
	"github.com/PabloGalante/trina/internal/app/history"
	"github.com/PabloGalante/trina/internal/app/prompt"
	"github.com/PabloGalante/trina/internal/app/registry"
	"github.com/PabloGalante/trina/internal/domain"
)

// stubLLM replies with a fixed text, or fails the first `failures` calls.
type stubLLM struct {
	mu       sync.Mutex
	reply    string
	failures int
	calls    int
	prompts  []domain.Prompt
	block    chan struct{}
}

func (s *stubLLM) Complete(ctx context.Context, p domain.Prompt) (*domain.Completion, error) {
	s.mu.Lock()
	s.calls++
	s.prompts = append(s.prompts, p)
	fail := s.calls <= s.failures
	block := s.block
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errors.New("upstream unavailable")
	}
	return &domain.Completion{Segments: []domain.Segment{domain.TextSegment(s.reply)}}, nil
}

func newService(t *testing.T, client domain.CompletionClient, opts conversation.Options) (*conversation.Service, *history.Log) {
	t.Helper()
	store := memory.NewStore()
	hist := history.New(store)
	svc := conversation.NewService(
		registry.New(store),
		hist,
		prompt.NewAssembler(hist, prompt.DefaultWindow),
		generation.New(client),
		lock.NewLocal(),
		opts,
	)
	return svc, hist
}

func anonymous(t *testing.T, svc *conversation.Service) *domain.Conversation {
	t.Helper()
	conv, err := svc.CreateConversation(context.Background(), conversation.CreateInput{})
	require.NoError(t, err)
	return conv
}

// Scenario A
func TestCreateAnonymousHasNoTurns(t *testing.T) {
	svc, _ := newService(t, llm.NewMockLLM(), conversation.Options{})
	conv := anonymous(t, svc)

	assert.NotEmpty(t, conv.ID)
	assert.True(t, conv.Anonymous)

	got, turns, err := svc.GetConversation(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
	assert.Empty(t, turns)
}

func TestCreateDefaultsToIdentityWhenPresent(t *testing.T) {
	svc, _ := newService(t, llm.NewMockLLM(), conversation.Options{})
	ctx := domain.WithIdentity(context.Background(), "user-1")

	conv, err := svc.CreateConversation(ctx, conversation.CreateInput{})
	require.NoError(t, err)
	assert.False(t, conv.Anonymous)
	assert.Equal(t, domain.UserID("user-1"), conv.OwnerID)

	anon := true
	conv, err = svc.CreateConversation(ctx, conversation.CreateInput{Anonymous: &anon})
	require.NoError(t, err)
	assert.True(t, conv.Anonymous)
	assert.Empty(t, conv.OwnerID)

	list, err := svc.ListConversations(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestIdentifiedCreateWithoutIdentity(t *testing.T) {
	svc, _ := newService(t, llm.NewMockLLM(), conversation.Options{})
	anon := false

	_, err := svc.CreateConversation(context.Background(), conversation.CreateInput{Anonymous: &anon})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestListRequiresIdentity(t *testing.T) {
	svc, _ := newService(t, llm.NewMockLLM(), conversation.Options{})
	_, err := svc.ListConversations(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// Scenario B
func TestSendMessagePersistsBothTurns(t *testing.T) {
	ctx := context.Background()
	client := &stubLLM{reply: "Take a deep breath."}
	svc, hist := newService(t, client, conversation.Options{})
	conv := anonymous(t, svc)

	out, err := svc.SendMessage(ctx, conversation.SendMessageInput{ConversationID: conv.ID, Text: "I feel anxious"})
	require.NoError(t, err)
	assert.Equal(t, "Take a deep breath.", out.Reply)

	turns, err := hist.Turns(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Equal(t, "I feel anxious", turns[0].Content)
	assert.Equal(t, domain.RoleAssistant, turns[1].Role)
	assert.Equal(t, "Take a deep breath.", turns[1].Content)
	assert.Equal(t, out.UserTurn.Seq+1, out.AssistantTurn.Seq)

	// The prompt carried the persona and the new user turn.
	require.Len(t, client.prompts, 1)
	msgs := client.prompts[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.PromptRoleSystem, msgs[0].Role)
	assert.Equal(t, "I feel anxious", msgs[1].Content)

	got, _, err := svc.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.TurnCount)
	assert.Equal(t, turns[1].CreatedAt, got.LastActivityAt)
}

// Scenario C
func TestSendMessageGenerationFailureKeepsUserTurn(t *testing.T) {
	ctx := context.Background()
	svc, hist := newService(t, &stubLLM{failures: 100}, conversation.Options{})
	conv := anonymous(t, svc)

	out, err := svc.SendMessage(ctx, conversation.SendMessageInput{ConversationID: conv.ID, Text: "I feel anxious"})
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.Nil(t, out)

	turns, err := hist.Turns(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
}

func TestSendMessageRetriesGenerationOnly(t *testing.T) {
	ctx := context.Background()
	client := &stubLLM{reply: "ok", failures: 2}
	svc, hist := newService(t, client, conversation.Options{GenerationRetries: 2, RetryInterval: time.Millisecond})
	conv := anonymous(t, svc)

	out, err := svc.SendMessage(ctx, conversation.SendMessageInput{ConversationID: conv.ID, Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Reply)
	assert.Equal(t, 3, client.calls)

	turns, err := hist.Turns(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, turns, 2)
}

func TestSendMessageGenerationTimeout(t *testing.T) {
	ctx := context.Background()
	client := &stubLLM{reply: "late", block: make(chan struct{})}
	svc, hist := newService(t, client, conversation.Options{GenerationTimeout: 20 * time.Millisecond})
	conv := anonymous(t, svc)

	_, err := svc.SendMessage(ctx, conversation.SendMessageInput{ConversationID: conv.ID, Text: "hello"})
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)

	turns, err := hist.Turns(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}

func TestSendMessageValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, llm.NewMockLLM(), conversation.Options{})
	conv := anonymous(t, svc)

	_, err := svc.SendMessage(ctx, conversation.SendMessageInput{ConversationID: conv.ID, Text: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.SendMessage(ctx, conversation.SendMessageInput{ConversationID: "missing", Text: "hi"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = svc.GetConversation(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentSendsDoNotInterleave(t *testing.T) {
	ctx := context.Background()
	svc, hist := newService(t, llm.NewMockLLM(), conversation.Options{})
	conv := anonymous(t, svc)
	other := anonymous(t, svc)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		for _, id := range []domain.ConversationID{conv.ID, other.ID} {
			wg.Add(1)
			go func(id domain.ConversationID, i int) {
				defer wg.Done()
				_, err := svc.SendMessage(ctx, conversation.SendMessageInput{ConversationID: id, Text: fmt.Sprintf("msg %d", i)})
				assert.NoError(t, err)
			}(id, i)
		}
	}
	wg.Wait()

	for _, id := range []domain.ConversationID{conv.ID, other.ID} {
		turns, err := hist.Turns(ctx, id)
		require.NoError(t, err)
		require.Len(t, turns, 2*n)

		for i := 0; i < len(turns); i += 2 {
			user, assistant := turns[i], turns[i+1]
			assert.Equal(t, domain.RoleUser, user.Role)
			assert.Equal(t, domain.RoleAssistant, assistant.Role)
			assert.Contains(t, assistant.Content, user.Content)
			assert.Equal(t, id, user.ConversationID)
			assert.Equal(t, id, assistant.ConversationID)
		}
	}
}

func TestPromptWindowIsBounded(t *testing.T) {
	ctx := context.Background()
	client := &stubLLM{reply: "ok"}
	svc, _ := newService(t, client, conversation.Options{})
	conv := anonymous(t, svc)

	for i := 0; i < 8; i++ {
		_, err := svc.SendMessage(ctx, conversation.SendMessageInput{ConversationID: conv.ID, Text: fmt.Sprintf("msg %d", i)})
		require.NoError(t, err)
	}

	last := client.prompts[len(client.prompts)-1]
	require.Len(t, last.Messages, 1+prompt.DefaultWindow)
	assert.Equal(t, "msg 7", last.Messages[len(last.Messages)-1].Content)
}

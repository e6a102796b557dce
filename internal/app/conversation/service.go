package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/PabloGalante/trina/internal/app/generation"
	"github.com/PabloGalante/trina/internal/app/history"
	"github.com/PabloGalante/trina/internal/app/prompt"
	"github.com/PabloGalante/trina/internal/app/registry"
	"github.com/PabloGalante/trina/internal/domain"
	"github.com/PabloGalante/trina/internal/observability"
)

const (
	DefaultGenerationTimeout = 60 * time.Second
	defaultRetryInterval     = 500 * time.Millisecond
)

type Options struct {
	// GenerationTimeout bounds the whole generation step, retries included.
	GenerationTimeout time.Duration
	// GenerationRetries is the number of extra attempts after a failed
	// completion call. Zero leaves retrying to the caller.
	GenerationRetries int
	RetryInterval     time.Duration
}

type Service struct {
	registry  *registry.Registry
	history   *history.Log
	assembler *prompt.Assembler
	generator *generation.Generator
	locker    domain.Locker
	opts      Options
}

func NewService(
	reg *registry.Registry,
	hist *history.Log,
	assembler *prompt.Assembler,
	generator *generation.Generator,
	locker domain.Locker,
	opts Options,
) *Service {
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = DefaultGenerationTimeout
	}
	if opts.GenerationRetries < 0 {
		opts.GenerationRetries = 0
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}

	return &Service{
		registry:  reg,
		history:   hist,
		assembler: assembler,
		generator: generator,
		locker:    locker,
		opts:      opts,
	}
}

type CreateInput struct {
	// Anonymous defaults to true unless the caller is identified.
	Anonymous *bool
}

func (s *Service) CreateConversation(ctx context.Context, in CreateInput) (*domain.Conversation, error) {
	owner, identified := domain.IdentityFromContext(ctx)

	anonymous := !identified
	if in.Anonymous != nil {
		anonymous = *in.Anonymous
	}

	conv, err := s.registry.Create(ctx, owner, anonymous)
	if err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("conversation_id", string(conv.ID)).
		Bool("anonymous", conv.Anonymous).
		Msg("conversation created")

	return conv, nil
}

// GetConversation returns the conversation and all of its turns in order.
func (s *Service) GetConversation(ctx context.Context, id domain.ConversationID) (*domain.Conversation, []*domain.Turn, error) {
	conv, err := s.registry.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	turns, err := s.history.Turns(ctx, id)
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).
			Str("conversation_id", string(id)).
			Msg("failed to get turns")
		return nil, nil, err
	}

	return conv, turns, nil
}

// ListConversations lists the caller's conversations, most recent first.
func (s *Service) ListConversations(ctx context.Context) ([]*domain.Conversation, error) {
	owner, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("list conversations: %w", domain.ErrUnauthorized)
	}
	return s.registry.ListForOwner(ctx, owner)
}

type SendMessageInput struct {
	ConversationID domain.ConversationID
	Text           string
}

type SendMessageOutput struct {
	Reply         string
	UserTurn      *domain.Turn
	AssistantTurn *domain.Turn
}

// SendMessage records the user's text, asks the model for a reply and records
// it. The user turn is kept even when generation fails.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("empty message: %w", domain.ErrInvalidInput)
	}

	conv, err := s.registry.Get(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With().
		Str("conversation_id", string(conv.ID)).
		Logger()

	release, err := s.locker.Lock(ctx, conv.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to acquire conversation lock")
		return nil, fmt.Errorf("lock conversation %s: %w", conv.ID, err)
	}
	defer release()

	log.Info().Int("text_len", len(in.Text)).Msg("sending message")

	userTurn, err := s.history.Append(ctx, conv.ID, domain.RoleUser, in.Text)
	if err != nil {
		log.Error().Err(err).Msg("failed to append user turn")
		return nil, err
	}

	p, err := s.assembler.Build(ctx, conv.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to build prompt")
		return nil, err
	}

	reply, err := s.generate(ctx, p)
	if err != nil {
		log.Warn().Err(err).Int64("user_seq", userTurn.Seq).Msg("generation failed, user turn kept")
		return nil, err
	}

	assistantTurn, err := s.history.Append(ctx, conv.ID, domain.RoleAssistant, reply)
	if err != nil {
		log.Error().Err(err).Msg("failed to append assistant turn")
		return nil, err
	}

	log.Info().
		Int64("user_seq", userTurn.Seq).
		Int64("assistant_seq", assistantTurn.Seq).
		Msg("send message completed")

	return &SendMessageOutput{
		Reply:         reply,
		UserTurn:      userTurn,
		AssistantTurn: assistantTurn,
	}, nil
}

// generate runs the generator under the timeout, retrying with exponential
// backoff when configured. Only generation is retried.
func (s *Service) generate(ctx context.Context, p domain.Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.GenerationTimeout)
	defer cancel()

	if s.opts.GenerationRetries == 0 {
		return s.generator.Generate(ctx, p)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.opts.RetryInterval
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.opts.GenerationRetries)), ctx)

	var reply string
	err := backoff.Retry(func() error {
		var err error
		reply, err = s.generator.Generate(ctx, p)
		return err
	}, b)
	if err != nil {
		if !errors.Is(err, domain.ErrGenerationUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
		}
		return "", err
	}
	return reply, nil
}

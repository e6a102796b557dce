package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/PabloGalante/trina/internal/domain"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string // empty uses api.openai.com
	Model   string
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key must be set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
	}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, p domain.Prompt) (*domain.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toOpenAIMessages(p),
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return &domain.Completion{}, nil
	}

	return fromOpenAIMessage(resp.Choices[0].Message), nil
}

func toOpenAIMessages(p domain.Prompt) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(p.Messages))
	for _, m := range p.Messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case domain.PromptRoleSystem:
			role = openai.ChatMessageRoleSystem
		case domain.PromptRoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return msgs
}

// fromOpenAIMessage maps a plain string reply to one text segment and a
// multi-part reply to one segment per part.
func fromOpenAIMessage(msg openai.ChatCompletionMessage) *domain.Completion {
	out := &domain.Completion{}
	if len(msg.MultiContent) == 0 {
		if msg.Content != "" {
			out.Segments = append(out.Segments, domain.TextSegment(msg.Content))
		}
		return out
	}

	for _, part := range msg.MultiContent {
		if part.Type == openai.ChatMessagePartTypeText {
			out.Segments = append(out.Segments, domain.TextSegment(part.Text))
			continue
		}
		out.Segments = append(out.Segments, domain.OtherSegment())
	}
	return out
}

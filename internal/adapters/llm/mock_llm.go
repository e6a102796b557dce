package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/trina/internal/domain"
)

// MockLLM answers with a fixed supportive echo of the last user message.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Complete(_ context.Context, p domain.Prompt) (*domain.Completion, error) {
	_, history := splitSystem(p)

	last := ""
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.PromptRoleUser {
			last = history[i].Content
			break
		}
	}

	if last == "" {
		return &domain.Completion{}, nil
	}
	return &domain.Completion{Segments: []domain.Segment{
		domain.TextSegment(fmt.Sprintf("I hear you. You said %q. Can you tell me a bit more about how that makes you feel?", last)),
	}}, nil
}

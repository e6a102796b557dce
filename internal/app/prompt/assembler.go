// Package prompt assembles the bounded context sent to the language model.
package prompt

import (
	"context"
	"fmt"

	"github.com/PabloGalante/trina/internal/domain"
)

// DefaultWindow is the number of trailing turns kept in a prompt.
const DefaultWindow = 10

// TurnReader is the read side of the turn log.
type TurnReader interface {
	Turns(ctx context.Context, id domain.ConversationID) ([]*domain.Turn, error)
}

// Assembler builds prompts: the persona followed by the last Window turns.
// It only reads turns.
type Assembler struct {
	turns  TurnReader
	window int
}

// NewAssembler falls back to DefaultWindow when window <= 0.
func NewAssembler(turns TurnReader, window int) *Assembler {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Assembler{turns: turns, window: window}
}

func (a *Assembler) Window() int {
	return a.window
}

// Build returns the prompt for the conversation's next reply. Older turns
// beyond the window are dropped, not summarized.
func (a *Assembler) Build(ctx context.Context, id domain.ConversationID) (domain.Prompt, error) {
	turns, err := a.turns.Turns(ctx, id)
	if err != nil {
		return domain.Prompt{}, fmt.Errorf("build prompt: %w", err)
	}
	return Compose(turns, a.window), nil
}

// Compose is the pure part of Build.
func Compose(turns []*domain.Turn, window int) domain.Prompt {
	if window > 0 && len(turns) > window {
		turns = turns[len(turns)-window:]
	}

	msgs := make([]domain.PromptMessage, 0, 1+len(turns))
	msgs = append(msgs, domain.PromptMessage{Role: domain.PromptRoleSystem, Content: SystemInstruction})
	for _, t := range turns {
		msgs = append(msgs, domain.PromptMessage{Role: promptRole(t.Role), Content: t.Content})
	}
	return domain.Prompt{Messages: msgs}
}

func promptRole(r domain.Role) domain.PromptRole {
	if r == domain.RoleAssistant {
		return domain.PromptRoleAssistant
	}
	return domain.PromptRoleUser
}

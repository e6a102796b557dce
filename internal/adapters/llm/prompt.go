package llm

import (
	"strings"

	"github.com/PabloGalante/trina/internal/domain"
)

// splitSystem separates the system messages of p (joined) from the
// conversation messages, keeping their order.
func splitSystem(p domain.Prompt) (string, []domain.PromptMessage) {
	var system []string
	history := make([]domain.PromptMessage, 0, len(p.Messages))
	for _, m := range p.Messages {
		if m.Role == domain.PromptRoleSystem {
			system = append(system, m.Content)
			continue
		}
		history = append(history, m)
	}
	return strings.Join(system, "\n\n"), history
}

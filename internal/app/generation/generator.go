// Package generation turns a prompt into a single reply string.
package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/trina/internal/app/prompt"
	"github.com/PabloGalante/trina/internal/domain"
	"github.com/PabloGalante/trina/internal/metrics"
	"github.com/PabloGalante/trina/internal/observability"
)

// FallbackReply is returned when the model answers without any text.
const FallbackReply = "I'm here to listen. How can I support you today?"

// Generator calls the completion client once per Generate. It does not retry.
type Generator struct {
	client domain.CompletionClient
}

func New(client domain.CompletionClient) *Generator {
	return &Generator{client: client}
}

// Generate returns the model's reply for p. The persona system message is
// always placed first; system messages supplied in p are dropped.
// The returned string is never empty.
func (g *Generator) Generate(ctx context.Context, p domain.Prompt) (string, error) {
	start := time.Now()
	completion, err := g.client.Complete(ctx, withPersona(p))
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerationFailures.Inc()
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}

	reply := Fold(completion)
	if strings.TrimSpace(reply) == "" {
		metrics.GenerationFallbacks.Inc()
		observability.LoggerFromContext(ctx).Warn().
			Int("segments", segmentCount(completion)).
			Msg("completion had no text, using fallback reply")
		return FallbackReply, nil
	}
	return reply, nil
}

// Fold concatenates the text segments of c in order.
func Fold(c *domain.Completion) string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	for _, s := range c.Segments {
		if s.Kind == domain.SegmentText {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

func withPersona(p domain.Prompt) domain.Prompt {
	msgs := make([]domain.PromptMessage, 0, len(p.Messages)+1)
	msgs = append(msgs, domain.PromptMessage{Role: domain.PromptRoleSystem, Content: prompt.SystemInstruction})
	for _, m := range p.Messages {
		if m.Role == domain.PromptRoleSystem {
			continue
		}
		msgs = append(msgs, m)
	}
	return domain.Prompt{Messages: msgs}
}

func segmentCount(c *domain.Completion) int {
	if c == nil {
		return 0
	}
	return len(c.Segments)
}

// Package ai provides the completion clients that turn a persona, a user
// message, and the serialized conversation context into a tutor reply.
// It supports OpenAI-compatible and Gemini backends behind a common
// interface.
package ai

import (
	"context"

	"github.com/biioon/reforco-escolar/internal/persona"
)

// Client defines the interface for completion backends. Reply makes exactly
// one attempt against the remote service; callers are responsible for
// converting errors into the user-visible fallback reply.
type Client interface {
	Reply(ctx context.Context, p persona.Persona, message, conversation string) (string, error)
}

// buildSystemPrompt combines the persona framing with the serialized prior
// conversation. An empty conversation is announced as the first message so
// the model does not invent history.
func buildSystemPrompt(p persona.Persona, conversation string) string {
	if conversation == "" {
		conversation = "Primeira mensagem"
	}
	return p.SystemPrompt() + " Contexto da conversa anterior: " + conversation
}

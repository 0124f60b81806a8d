package ai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/biioon/reforco-escolar/internal/config"
	"github.com/biioon/reforco-escolar/internal/persona"
	"github.com/biioon/reforco-escolar/internal/sanitize"
)

type openAIClient struct {
	client      *openai.Client
	log         *slog.Logger
	model       string
	temperature float32
	maxTokens   int
}

// newOpenAIClient creates a completion client backed by an OpenAI-compatible
// chat completions endpoint.
func newOpenAIClient(cfg config.AIConfig, log *slog.Logger) (*openAIClient, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("openai API token is required")
	}

	clientCfg := openai.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &openAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		log:         log.With("component", "openai_client"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (c *openAIClient) Reply(ctx context.Context, p persona.Persona, message, conversation string) (string, error) {
	c.log.DebugContext(ctx, "requesting completion", "persona", p.String(), "context_len", len(conversation))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(p, conversation)},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	reply := sanitize.Text(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("chat completion returned empty content")
	}
	return reply, nil
}

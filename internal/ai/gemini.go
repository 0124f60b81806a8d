package ai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"

	"github.com/biioon/reforco-escolar/internal/config"
	"github.com/biioon/reforco-escolar/internal/persona"
	"github.com/biioon/reforco-escolar/internal/sanitize"
)

type geminiClient struct {
	genaiClient *genai.Client
	log         *slog.Logger
	model       string
	temperature float32
}

// newGeminiClient creates a completion client backed by Google's Gemini API.
func newGeminiClient(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (*geminiClient, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.Token,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiClient{
		genaiClient: gi,
		log:         log.With("component", "gemini_client"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

func (c *geminiClient) Reply(ctx context.Context, p persona.Persona, message, conversation string) (string, error) {
	c.log.DebugContext(ctx, "requesting completion", "persona", p.String(), "context_len", len(conversation))

	temp := c.temperature
	genCfg := &genai.GenerateContentConfig{
		Temperature: &temp,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: buildSystemPrompt(p, conversation)}},
		},
	}

	contents := []*genai.Content{genai.NewContentFromText(message, genai.RoleUser)}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		return "", fmt.Errorf("gemini request blocked by safety filter: %v", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned empty content")
	}

	reply := sanitize.Text(resp.Text())
	if reply == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return reply, nil
}

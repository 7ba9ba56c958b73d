package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"BlogPublisher/internal/config"
	"BlogPublisher/internal/ports"
)

// GeminiClient implements ports.TextInvoker using Google's Gemini API.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

var _ ports.TextInvoker = (*GeminiClient)(nil)

// NewGeminiClient opens a Gemini client; Close must be called on shutdown.
func NewGeminiClient(ctx context.Context, cfg config.GeneratorConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{
		client:      client,
		model:       cfg.ResolvedModel(),
		temperature: float32(cfg.Temperature),
	}, nil
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Invoke generates content for prompt and concatenates the text parts of the first candidate.
func (c *GeminiClient) Invoke(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(c.temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

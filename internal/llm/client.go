package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// ErrGeneration reports that the completion capability was unavailable or
// returned unusable content.
var ErrGeneration = errors.New("generation error")

// Client wraps an OpenAI-compatible chat model configured for
// deterministic (temperature zero) output.
type Client struct {
	llm *openai.LLM
	log zerolog.Logger
}

// NewClient builds the completion client once from configuration.
func NewClient(apiKey, baseURL, model string, log zerolog.Logger) (*Client, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(apiKey, "Bearer ")),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	return &Client{llm: llm, log: log}, nil
}

// Generate sends the system instructions and the user message and returns
// the generated text. Temperature is pinned to zero.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		llms.TextParts(schema.ChatMessageTypeHuman, user),
	}

	res, err := c.llm.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(res.Choices) == 0 || strings.TrimSpace(res.Choices[0].Content) == "" {
		return "", fmt.Errorf("%w: model returned no content", ErrGeneration)
	}
	return res.Choices[0].Content, nil
}

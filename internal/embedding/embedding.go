package embedding

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewEmbedder creates an OpenAI-compatible embedder. The same instance is
// used for indexing and querying so vectors are comparable.
func NewEmbedder(apiKey, baseURL, embeddingModel string) (*embeddings.EmbedderImpl, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(apiKey, "Bearer ")),
		openai.WithEmbeddingModel(embeddingModel),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		log.Error().Err(err).Msg("Error initializing embedding LLM")
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		log.Error().Err(err).Msg("Error creating embedder")
		return nil, err
	}
	return embedder, nil
}

package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is a fatal configuration error, surfaced before any
// request is made.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY environment variable is required")

// LLMConfig selects one hosted model endpoint.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// RAGConfig controls chunking and the on-disk vector index.
type RAGConfig struct {
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	TopK         int    `yaml:"top_k"`
	DBPath       string `yaml:"db_path"`
	Collection   string `yaml:"collection"`
}

type Config struct {
	LLM         LLMConfig `yaml:"llm"`
	EmbedLLM    LLMConfig `yaml:"embed_llm"`
	RAG         RAGConfig `yaml:"rag"`
	HistoryPath string    `yaml:"history_path"`
	Debug       bool      `yaml:"debug"`

	// APIKey comes from the environment, never from the YAML file.
	APIKey string `yaml:"-"`
}

// Default returns the configuration used when no YAML file is present.
func Default() *Config {
	return &Config{
		LLM:      LLMConfig{Model: "gpt-3.5-turbo"},
		EmbedLLM: LLMConfig{Model: "text-embedding-3-small"},
		RAG: RAGConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			TopK:         3,
			DBPath:       "./chroma_db",
			Collection:   "data_profile",
		},
		HistoryPath: "./history.db",
	}
}

// fileConfig mirrors Config with optional numeric fields, so an explicit
// zero in the file is distinguishable from an absent key.
type fileConfig struct {
	LLM      LLMConfig `yaml:"llm"`
	EmbedLLM LLMConfig `yaml:"embed_llm"`
	RAG      struct {
		ChunkSize    *int   `yaml:"chunk_size"`
		ChunkOverlap *int   `yaml:"chunk_overlap"`
		TopK         *int   `yaml:"top_k"`
		DBPath       string `yaml:"db_path"`
		Collection   string `yaml:"collection"`
	} `yaml:"rag"`
	HistoryPath string `yaml:"history_path"`
	Debug       bool   `yaml:"debug"`
}

// LoadConfig reads the YAML config at path, falling back to defaults for
// a missing file or missing fields.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.merge(file)
	return cfg, nil
}

func (c *Config) merge(f fileConfig) {
	if f.LLM.BaseURL != "" {
		c.LLM.BaseURL = f.LLM.BaseURL
	}
	if f.LLM.Model != "" {
		c.LLM.Model = f.LLM.Model
	}
	if f.EmbedLLM.BaseURL != "" {
		c.EmbedLLM.BaseURL = f.EmbedLLM.BaseURL
	}
	if f.EmbedLLM.Model != "" {
		c.EmbedLLM.Model = f.EmbedLLM.Model
	}
	if f.RAG.ChunkSize != nil {
		c.RAG.ChunkSize = *f.RAG.ChunkSize
	}
	if f.RAG.ChunkOverlap != nil {
		c.RAG.ChunkOverlap = *f.RAG.ChunkOverlap
	}
	if f.RAG.TopK != nil {
		c.RAG.TopK = *f.RAG.TopK
	}
	if f.RAG.DBPath != "" {
		c.RAG.DBPath = f.RAG.DBPath
	}
	if f.RAG.Collection != "" {
		c.RAG.Collection = f.RAG.Collection
	}
	if f.HistoryPath != "" {
		c.HistoryPath = f.HistoryPath
	}
	c.Debug = f.Debug
}

// LoadCredential reads the API key from a .env file or the process
// environment. Absence is an error the caller must treat as fatal.
func (c *Config) LoadCredential() error {
	_ = godotenv.Load() // a missing .env file is fine

	c.APIKey = os.Getenv("OPENAI_API_KEY")
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

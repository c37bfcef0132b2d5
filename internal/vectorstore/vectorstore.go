package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/textsplitter"

	"data-analyst/internal/helper"
	"data-analyst/internal/models"
)

var (
	// ErrStoreNotReady reports retrieval before any profile was indexed.
	ErrStoreNotReady = errors.New("vector store not ready: no profile indexed yet")
	// ErrPersistence reports that the on-disk index could not be removed.
	ErrPersistence = errors.New("persistence error")
)

const (
	compress         = false
	clearMaxRetries  = 5
	clearBackoffStep = time.Second
)

// Embedder turns text into a fixed-dimension vector. The same embedder is
// used for indexing and querying so vectors stay comparable.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store persists chunked profile text with embeddings in a chromem-go
// directory store and serves similarity lookups over it.
type Store struct {
	dir          string
	collection   string
	chunkSize    int
	chunkOverlap int
	embedder     Embedder
	db           *chromem.DB
	col          *chromem.Collection
	log          zerolog.Logger
}

// New creates a store rooted at dir. Nothing is opened or written until
// Index or Retrieve is called.
func New(dir, collection string, chunkSize, chunkOverlap int, embedder Embedder, log zerolog.Logger) *Store {
	return &Store{
		dir:          dir,
		collection:   collection,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		embedder:     embedder,
		log:          log,
	}
}

// Index splits the profile into overlapping chunks, embeds each one and
// persists the result, replacing whatever collection handle was held
// before. Callers clear the store first when switching datasets.
func (s *Store) Index(ctx context.Context, profileText string, meta models.FileMetadata) error {
	chunks, err := s.chunk(profileText, meta)
	if err != nil {
		return err
	}
	s.log.Info().Int("chunks", len(chunks)).Msg("Created text chunks for vectorization")

	if err := s.open(); err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, chunk := range chunks {
		embedding, err := s.embedder.EmbedQuery(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("failed to embed chunk: %w", err)
		}
		docs = append(docs, chromem.Document{
			ID:        chunk.ID,
			Content:   chunk.Content,
			Metadata:  chunk.Metadata,
			Embedding: embedding,
		})
	}

	if err := s.col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	s.log.Info().Int("documents", len(docs)).Str("dir", s.dir).Msg("Vector store created and persisted")
	return nil
}

// chunk splits the profile with the recursive character splitter
// (paragraph and line boundaries first, hard cuts last) and tags every
// chunk with scalar metadata and a fresh id.
func (s *Store) chunk(profileText string, meta models.FileMetadata) ([]models.Chunk, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.chunkSize),
		textsplitter.WithChunkOverlap(s.chunkOverlap),
	)
	parts, err := splitter.SplitText(profileText)
	if err != nil {
		return nil, fmt.Errorf("failed to split profile text: %w", err)
	}

	scalarMeta := FilterScalarMetadata(meta.AsMap())

	chunks := make([]models.Chunk, 0, len(parts))
	for _, part := range parts {
		id, err := helper.GenerateUUID()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, models.Chunk{
			ID:       id,
			Content:  part,
			Metadata: scalarMeta,
		})
	}
	return chunks, nil
}

// Retrieve embeds the query and returns the k most similar chunk texts.
// A previously persisted index is reopened lazily if no collection is
// held in memory.
func (s *Store) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	if s.col == nil {
		if _, err := os.Stat(s.dir); os.IsNotExist(err) {
			return nil, ErrStoreNotReady
		}
		if err := s.open(); err != nil {
			return nil, err
		}
	}
	count := s.col.Count()
	if count == 0 {
		return nil, ErrStoreNotReady
	}
	if k > count {
		k = count
	}

	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := s.col.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: embedding,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Content)
	}
	return texts, nil
}

// Clear deletes the persisted index directory. Missing directories are a
// no-op. Transient removal failures (OS level file locks on the directory)
// are retried with increasing backoff before giving up.
func (s *Store) Clear() error {
	s.db = nil
	s.col = nil

	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		s.log.Info().Str("dir", s.dir).Msg("No existing vector store found to clear")
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= clearMaxRetries; attempt++ {
		lastErr = os.RemoveAll(s.dir)
		if lastErr == nil {
			s.log.Info().Str("dir", s.dir).Msg("Vector store cleared")
			return nil
		}
		if attempt < clearMaxRetries {
			wait := time.Duration(attempt) * clearBackoffStep
			s.log.Warn().Err(lastErr).
				Int("attempt", attempt).
				Dur("wait", wait).
				Msg("Vector store directory locked, retrying")
			time.Sleep(wait)
		}
	}
	return fmt.Errorf("%w: failed to clear vector store after %d attempts: %v", ErrPersistence, clearMaxRetries, lastErr)
}

func (s *Store) open() error {
	if s.col != nil {
		return nil
	}
	db, err := chromem.NewPersistentDB(s.dir, compress)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	col, err := db.GetOrCreateCollection(s.collection, nil, chromem.EmbeddingFunc(s.embedder.EmbedQuery))
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}
	s.db = db
	s.col = col
	return nil
}

// FilterScalarMetadata drops every non-scalar metadata value. Lists and
// maps (for example column name lists) must not reach the persisted
// index.
func FilterScalarMetadata(meta map[string]any) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		if s, ok := models.ScalarString(v); ok {
			out[k] = s
		}
	}
	return out
}

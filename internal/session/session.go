package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"data-analyst/internal/agent"
	"data-analyst/internal/history"
	"data-analyst/internal/loader"
	"data-analyst/internal/models"
	"data-analyst/internal/profiler"
	"data-analyst/internal/table"
	"data-analyst/internal/vectorstore"
)

// Session owns the active table/profile/index triple and the components
// that operate on it. At most one triple is active at a time; loading a
// new file invalidates the previous one before indexing. Strictly
// sequential, no concurrent use.
type Session struct {
	store *vectorstore.Store
	gen   agent.Generator
	hist  *history.Store
	topK  int
	log   zerolog.Logger

	tbl     *table.Table
	agent   *agent.Agent
	profile string
	meta    models.FileMetadata
}

// New wires a session. hist may be nil to disable the conversation log.
func New(store *vectorstore.Store, gen agent.Generator, hist *history.Store, topK int, log zerolog.Logger) *Session {
	return &Session{
		store: store,
		gen:   gen,
		hist:  hist,
		topK:  topK,
		log:   log,
	}
}

// LoadFile loads and profiles a tabular file, clears the previous index
// and indexes the new profile. On error the previous state is left
// untouched.
func (s *Session) LoadFile(ctx context.Context, path string) error {
	tbl, err := loader.Load(path)
	if err != nil {
		return err
	}

	fileName := filepath.Base(path)
	profile, meta, err := profiler.Profile(tbl, fileName)
	if err != nil {
		return err
	}

	// Old embeddings must not leak into retrievals for the new file.
	// Clearing is best effort: a fresh index overwrites by directory.
	if err := s.store.Clear(); err != nil {
		s.log.Warn().Err(err).Msg("Could not clear previous vector store, stale chunks may remain")
	}

	if err := s.store.Index(ctx, profile, meta); err != nil {
		return fmt.Errorf("failed to index profile: %w", err)
	}

	s.tbl = tbl
	s.profile = profile
	s.meta = meta
	s.agent = agent.New(s.gen, tbl, s.log)

	if s.hist != nil {
		if err := s.hist.Reset(ctx); err != nil {
			s.log.Warn().Err(err).Msg("Could not reset conversation history")
		}
	}

	s.log.Info().
		Str("file", fileName).
		Int("rows", meta.NumRows).
		Int("columns", meta.NumColumns).
		Msg("Data processed and agent is ready")
	return nil
}

// Ask answers one question: retrieve context, generate and execute a
// query, format the answer, log the turn.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	if s.agent == nil {
		return "", vectorstore.ErrStoreNotReady
	}

	snippets, err := s.store.Retrieve(ctx, question, s.topK)
	if err != nil {
		return "", err
	}
	contextText := strings.Join(snippets, "\n")

	answer, err := s.agent.Answer(ctx, question, contextText)
	if err != nil {
		return "", err
	}

	if s.hist != nil {
		if err := s.hist.Append(ctx, "user", question); err != nil {
			s.log.Warn().Err(err).Msg("Could not record user message")
		}
		if err := s.hist.Append(ctx, "assistant", answer); err != nil {
			s.log.Warn().Err(err).Msg("Could not record assistant message")
		}
	}
	return answer, nil
}

// History returns the last n conversation turns in chronological order.
// Returns nil when the conversation log is disabled.
func (s *Session) History(ctx context.Context, n int) ([]history.Message, error) {
	if s.hist == nil {
		return nil, nil
	}
	return s.hist.Recent(ctx, n)
}

// Ready reports whether a file has been processed.
func (s *Session) Ready() bool { return s.agent != nil }

// ProfileText returns the active profile text.
func (s *Session) ProfileText() string { return s.profile }

// Metadata returns the active file metadata.
func (s *Session) Metadata() models.FileMetadata { return s.meta }

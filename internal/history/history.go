package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// Message is one conversation turn.
type Message struct {
	bun.BaseModel `bun:"table:messages,alias:m"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Role      string    `bun:"role,notnull"`
	Content   string    `bun:"content,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Store persists the conversation log in a local SQLite database.
type Store struct {
	db *bun.DB
}

// Open opens (or creates) the message log at path.
func Open(path string, debug bool) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if _, err := db.NewCreateTable().
		Model((*Message)(nil)).
		IfNotExists().
		Exec(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create messages table: %w", err)
	}

	return &Store{db: db}, nil
}

// Append records one message.
func (s *Store) Append(ctx context.Context, role, content string) error {
	msg := &Message{Role: role, Content: content, CreatedAt: time.Now()}
	if _, err := s.db.NewInsert().Model(msg).Exec(ctx); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

// Recent returns the last n messages in chronological order.
func (s *Store) Recent(ctx context.Context, n int) ([]Message, error) {
	var msgs []Message
	if err := s.db.NewSelect().
		Model(&msgs).
		Order("id DESC").
		Limit(n).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Reset drops all messages, used when a new file is processed.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.NewDelete().
		Model((*Message)(nil)).
		Where("1 = 1").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to reset history: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

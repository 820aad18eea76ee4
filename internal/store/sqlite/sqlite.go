package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/wirechat-client/internal/chat"
)

const schema = `
CREATE TABLE IF NOT EXISTS channels (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	is_private BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
	channel_id TEXT NOT NULL,
	position   INTEGER NOT NULL,
	id         TEXT NOT NULL,
	author     TEXT NOT NULL,
	author_id  TEXT NOT NULL,
	content    TEXT NOT NULL,
	sent_at    INTEGER NOT NULL,
	PRIMARY KEY (channel_id, position)
);
`

// SQLiteStore implements store.Store on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the cache database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ReplaceChannels overwrites the cached channel directory.
func (s *SQLiteStore) ReplaceChannels(ctx context.Context, channels []chat.Channel) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM channels`); err != nil {
		return fmt.Errorf("clear channels: %w", err)
	}
	for _, ch := range channels {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO channels (id, name, is_private) VALUES (?, ?, ?)`,
			ch.ID, ch.Name, ch.Private,
		)
		if err != nil {
			return fmt.Errorf("insert channel %s: %w", ch.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Channels returns the cached channel directory, name-ordered.
func (s *SQLiteStore) Channels(ctx context.Context) ([]chat.Channel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, is_private FROM channels ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	var channels []chat.Channel
	for rows.Next() {
		var ch chat.Channel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Private); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}
	return channels, nil
}

// ReplaceHistory overwrites the cached history for one channel. Optimistic
// entries are skipped; only confirmed messages reach disk.
func (s *SQLiteStore) ReplaceHistory(ctx context.Context, channelID string, messages []chat.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE channel_id = ?`, channelID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	position := 0
	for _, m := range messages {
		if m.Optimistic {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages (channel_id, position, id, author, author_id, content, sent_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			channelID, position, m.ID, m.Author, m.AuthorID, m.Content, m.SentAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert message %s: %w", m.ID, err)
		}
		position++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// History returns the cached messages for a channel in insertion order.
func (s *SQLiteStore) History(ctx context.Context, channelID string) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, author, author_id, content, sent_at
		 FROM messages WHERE channel_id = ? ORDER BY position`,
		channelID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var m chat.Message
		var sentAt int64
		if err := rows.Scan(&m.ID, &m.Author, &m.AuthorID, &m.Content, &sentAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.SentAt = time.UnixMilli(sentAt)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return messages, nil
}

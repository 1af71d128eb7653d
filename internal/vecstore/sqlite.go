package vecstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists chunks in a local SQLite file. Embeddings are
// stored JSON-encoded; similarity is still computed in-process over a
// topic scan, so the table needs no vector extension.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		topic_id TEXT NOT NULL,
		content TEXT NOT NULL,
		url TEXT,
		domain TEXT,
		chunk_index INTEGER NOT NULL,
		embedding BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_topic_id ON chunks(topic_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Append(ctx context.Context, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, topic_id, content, url, domain, chunk_index, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		emb, err := json.Marshal(c.Embedding)
		if err != nil {
			return fmt.Errorf("encoding embedding: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.TopicID, c.Text, c.Meta.URL, c.Meta.Domain, c.Meta.Index, emb); err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Scan(ctx context.Context, topicID string) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic_id, content, url, domain, chunk_index, embedding
		FROM chunks WHERE (? = '' OR topic_id = ?) ORDER BY rowid
	`, topicID, topicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		var c Chunk
		var emb []byte
		if err := rows.Scan(&c.ID, &c.TopicID, &c.Text, &c.Meta.URL, &c.Meta.Domain, &c.Meta.Index, &emb); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(emb, &c.Embedding); err != nil {
			return nil, fmt.Errorf("decoding embedding: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context, topicID string) (int, error) {
	var n int
	var err error
	if topicID == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE topic_id = ?`, topicID).Scan(&n)
	}
	return n, err
}

func (s *SQLiteStore) Reset(ctx context.Context, topicID string) error {
	if topicID == "" {
		_, err := s.db.ExecContext(ctx, `DELETE FROM chunks`)
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE topic_id = ?`, topicID)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package brief

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// SaveRun upserts the topic and replaces its brief and quiz in one
// transaction. A repeated run of the same topic leaves exactly one row
// per table.
func (r *PostgresRepo) SaveRun(ctx context.Context, rec *Record) error {
	citations, err := json.Marshal(rec.Citations)
	if err != nil {
		return fmt.Errorf("encode citations: %w", err)
	}
	report, err := json.Marshal(rec.Report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	items, err := json.Marshal(rec.Quiz)
	if err != nil {
		return fmt.Errorf("encode quiz: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO topics (id, title) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title`
	if _, err := tx.ExecContext(ctx, query, rec.TopicID, rec.Topic); err != nil {
		return err
	}

	query = `INSERT INTO briefs (topic_id, content, citations, report, retried) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (topic_id) DO UPDATE SET
			content = EXCLUDED.content, citations = EXCLUDED.citations,
			report = EXCLUDED.report, retried = EXCLUDED.retried, created_at = NOW()`
	if _, err := tx.ExecContext(ctx, query, rec.TopicID, rec.Text, citations, report, rec.Retried); err != nil {
		return err
	}

	query = `INSERT INTO quizzes (topic_id, items) VALUES ($1, $2)
		ON CONFLICT (topic_id) DO UPDATE SET items = EXCLUDED.items, created_at = NOW()`
	if _, err := tx.ExecContext(ctx, query, rec.TopicID, items); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepo) GetBrief(ctx context.Context, topicID string) (*Record, error) {
	rec := &Record{TopicID: topicID}
	var citations, report, items []byte

	query := `SELECT t.title, b.content, b.citations, b.report, b.retried, b.created_at, COALESCE(q.items, '[]')
		FROM topics t
		JOIN briefs b ON b.topic_id = t.id
		LEFT JOIN quizzes q ON q.topic_id = t.id
		WHERE t.id = $1`
	err := r.db.QueryRowContext(ctx, query, topicID).
		Scan(&rec.Topic, &rec.Text, &citations, &report, &rec.Retried, &rec.CreatedAt, &items)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(citations, &rec.Citations); err != nil {
		return nil, fmt.Errorf("decode citations: %w", err)
	}
	if err := json.Unmarshal(report, &rec.Report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if err := json.Unmarshal(items, &rec.Quiz); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepo) CountTopics(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM topics`).Scan(&n)
	return n, err
}

func (r *PostgresRepo) ListTopics(ctx context.Context) ([]Topic, error) {
	query := `SELECT id, title, created_at FROM topics ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.ID, &t.Title, &t.CreatedAt); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

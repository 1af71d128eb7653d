// Package brief persists and serves finished research runs: the topic, the
// synthesized brief with its citations and validation report, and the quiz.
package brief

import (
	"context"
	"time"

	"briefly/internal/quiz"
	"briefly/internal/synthesis"
	"briefly/internal/validation"
)

// Topic is one researched subject, keyed by its deterministic ID so
// re-running the same topic overwrites rather than duplicates.
type Topic struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is the full persisted outcome of a pipeline run.
type Record struct {
	TopicID   string               `json:"topic_id"`
	Topic     string               `json:"topic"`
	Text      string               `json:"text"`
	Citations []synthesis.Citation `json:"citations"`
	Report    validation.Report    `json:"report"`
	Retried   bool                 `json:"retried"`
	Quiz      []quiz.Item          `json:"quiz"`
	CreatedAt time.Time            `json:"created_at"`
}

type Repository interface {
	SaveRun(ctx context.Context, rec *Record) error
	GetBrief(ctx context.Context, topicID string) (*Record, error)
	ListTopics(ctx context.Context) ([]Topic, error)
}

// Package events publishes pipeline notifications over NSQ. Publishing is
// fire-and-forget: a missing broker or a failed publish never fails the
// run that produced the event.
package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"
)

// TopicResearchCompleted carries one ResearchCompleted message per
// finished pipeline run.
const TopicResearchCompleted = "research.completed"

// ResearchCompleted summarizes a finished run for downstream consumers.
type ResearchCompleted struct {
	TopicID     string    `json:"topic_id"`
	Topic       string    `json:"topic"`
	Passed      bool      `json:"passed"`
	Retried     bool      `json:"retried"`
	QuizItems   int       `json:"quiz_items"`
	CompletedAt time.Time `json:"completed_at"`
}

type producer interface {
	Publish(topic string, body []byte) error
}

// Publisher wraps an NSQ producer. The zero value and NewPublisher(nil)
// are both valid no-op publishers for deployments without a broker.
type Publisher struct {
	producer producer
}

func NewPublisher(p *nsq.Producer) *Publisher {
	if p == nil {
		return &Publisher{}
	}
	return &Publisher{producer: p}
}

// ResearchCompleted emits the event, logging and swallowing any failure.
func (p *Publisher) ResearchCompleted(ev ResearchCompleted) {
	if p == nil || p.producer == nil {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("failed to encode research.completed event", "error", err)
		return
	}
	if err := p.producer.Publish(TopicResearchCompleted, body); err != nil {
		slog.Warn("failed to publish research.completed event",
			"topic_id", ev.TopicID, "error", err)
	}
}

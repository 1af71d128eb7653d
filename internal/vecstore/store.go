// Package vecstore holds embedded chunks partitioned by topic and the
// cosine scoring used to rank them. Backends are interchangeable; all of
// them support append, a topic-filtered full scan, and reset. Scan, Count
// and Reset treat an empty topicID as "all topics".
package vecstore

import (
	"context"
	"math"
)

// Metadata is the provenance carried with each chunk.
type Metadata struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
	Index  int    `json:"index"`
}

// Chunk is a bounded slice of source text together with its embedding.
// Chunks are append-only; they are removed only by resetting their topic.
type Chunk struct {
	ID        string    `json:"id"`
	TopicID   string    `json:"topic_id"`
	Text      string    `json:"text"`
	Meta      Metadata  `json:"meta"`
	Embedding []float32 `json:"embedding"`
}

// Store is the contract every vector backend implements.
type Store interface {
	Append(ctx context.Context, chunks []Chunk) error
	Scan(ctx context.Context, topicID string) ([]Chunk, error)
	Count(ctx context.Context, topicID string) (int, error)
	Reset(ctx context.Context, topicID string) error
}

// Cosine returns the cosine similarity of two vectors. A zero-norm vector
// scores 0 rather than dividing by zero; mismatched lengths compare over
// the shorter prefix.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

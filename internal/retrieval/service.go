// Package retrieval ranks a topic's stored chunks against a query by
// cosine similarity.
package retrieval

import (
	"context"
	"sort"
	"time"

	"briefly/internal/vecstore"
)

// Scored pairs a chunk with its similarity to the query, highest first.
type Scored struct {
	Chunk vecstore.Chunk
	Score float64
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Service struct {
	embedder Embedder
	store    vecstore.Store
	logger   *QueryLogger
}

func NewService(e Embedder, s vecstore.Store, l *QueryLogger) *Service {
	return &Service{embedder: e, store: s, logger: l}
}

// Query embeds the query text once, scores every chunk owned by topicID
// and returns the k best. The sort is stable, so equal scores keep their
// insertion order and repeated calls against an unmodified store return
// identical results. An empty topic yields an empty slice, nil error:
// "no grounding available" is a state, not a failure.
func (s *Service) Query(ctx context.Context, topicID, query string, k int) ([]Scored, error) {
	start := time.Now()

	if s.embedder == nil {
		return nil, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	chunks, err := s.store.Scan(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	scored := make([]Scored, len(chunks))
	for i, c := range chunks {
		scored[i] = Scored{Chunk: c, Score: vecstore.Cosine(vec, c.Embedding)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k >= 0 && len(scored) > k {
		scored = scored[:k]
	}

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			TopicID:    topicID,
			Query:      query,
			NumResults: len(scored),
			Duration:   time.Since(start),
		})
	}
	return scored, nil
}

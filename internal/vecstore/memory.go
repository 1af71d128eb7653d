package vecstore

import (
	"context"
	"sync"
)

// MemoryStore keeps chunks in an in-process slice. Insertion order is
// preserved, which retrieval relies on for stable tie-breaking.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks []Chunk
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *MemoryStore) Scan(ctx context.Context, topicID string) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Chunk
	for _, c := range s.chunks {
		if topicID == "" || c.TopicID == topicID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, topicID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if topicID == "" {
		return len(s.chunks), nil
	}
	n := 0
	for _, c := range s.chunks {
		if c.TopicID == topicID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Reset(ctx context.Context, topicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if topicID == "" {
		s.chunks = nil
		return nil
	}
	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if c.TopicID != topicID {
			kept = append(kept, c)
		}
	}
	s.chunks = kept
	return nil
}

package vecstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(id, topicID string) Chunk {
	return Chunk{
		ID:        id,
		TopicID:   topicID,
		Text:      "text for " + id,
		Embedding: []float32{0.1, 0.2},
	}
}

func TestMemoryStore_AppendAndScan(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Append(ctx, []Chunk{chunk("a", "t1"), chunk("b", "t2"), chunk("c", "t1")}))

	got, err := s.Scan(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// insertion order preserved
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestMemoryStore_ScanEmptyTopicReturnsAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Append(ctx, []Chunk{chunk("a", "t1"), chunk("b", "t2")}))

	got, err := s.Scan(ctx, "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMemoryStore_Count(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Append(ctx, []Chunk{chunk("a", "t1"), chunk("b", "t2"), chunk("c", "t1")}))

	n, err := s.Count(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := s.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, all)
}

func TestMemoryStore_ResetTopicScoped(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Append(ctx, []Chunk{chunk("a", "t1"), chunk("b", "t2")}))
	require.NoError(t, s.Reset(ctx, "t1"))

	n, err := s.Count(ctx, "t1")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.Count(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryStore_ResetAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Append(ctx, []Chunk{chunk("a", "t1"), chunk("b", "t2")}))
	require.NoError(t, s.Reset(ctx, ""))

	n, err := s.Count(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

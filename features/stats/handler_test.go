package stats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"briefly/internal/vecstore"
)

type MockTopicRepo struct {
	mock.Mock
}

func (m *MockTopicRepo) CountTopics(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestGetStats(t *testing.T) {
	repo := new(MockTopicRepo)
	repo.On("CountTopics", mock.Anything).Return(4, nil)

	store := vecstore.NewMemoryStore()
	require.NoError(t, store.Append(context.Background(), []vecstore.Chunk{
		{ID: "a", TopicID: "t1"}, {ID: "b", TopicID: "t2"},
	}))

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	NewHandler(repo, store).GetStats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"topics":4`)
	assert.Contains(t, rec.Body.String(), `"chunks":2`)
}

func TestGetStats_NilRepoReportsZeroTopics(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	NewHandler(nil, vecstore.NewMemoryStore()).GetStats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"topics":0`)
}

func TestGetStats_RepoError(t *testing.T) {
	repo := new(MockTopicRepo)
	repo.On("CountTopics", mock.Anything).Return(0, assert.AnError)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	NewHandler(repo, vecstore.NewMemoryStore()).GetStats(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

package brief

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briefly/internal/testutils"
)

func TestPostgresRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	ctx := context.Background()
	repo := NewPostgresRepo(suite.DB)

	rec := sampleRecord()
	require.NoError(t, repo.SaveRun(ctx, rec))

	got, err := repo.GetBrief(ctx, rec.TopicID)
	require.NoError(t, err)
	assert.Equal(t, rec.Topic, got.Topic)
	assert.Equal(t, rec.Text, got.Text)
	assert.Equal(t, rec.Citations, got.Citations)
	assert.Equal(t, rec.Quiz, got.Quiz)

	// rerunning the same topic overwrites, not duplicates
	rec.Text = "a wider brief"
	rec.Retried = true
	require.NoError(t, repo.SaveRun(ctx, rec))

	got, err = repo.GetBrief(ctx, rec.TopicID)
	require.NoError(t, err)
	assert.Equal(t, "a wider brief", got.Text)
	assert.True(t, got.Retried)

	topics, err := repo.ListTopics(ctx)
	require.NoError(t, err)
	assert.Len(t, topics, 1)

	n, err := repo.CountTopics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.GetBrief(ctx, "no-such-topic")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

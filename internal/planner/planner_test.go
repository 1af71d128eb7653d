package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlan_ExpandsTopicIntoQueries(t *testing.T) {
	queries := Plan("vector databases")

	assert.Len(t, queries, 4)
	assert.Equal(t, "vector databases definition and overview", queries[0])
	for _, q := range queries {
		assert.Contains(t, q, "vector databases")
	}
}

func TestPlan_Deterministic(t *testing.T) {
	assert.Equal(t, Plan("raft consensus"), Plan("raft consensus"))
}

func TestPlan_TrimsWhitespace(t *testing.T) {
	assert.Equal(t, Plan("kubernetes"), Plan("  kubernetes  "))
}

func TestPlan_CaseInsensitiveDedupe(t *testing.T) {
	queries := Plan("Go")

	seen := make(map[string]bool)
	for _, q := range queries {
		k := strings.ToLower(q)
		assert.False(t, seen[k], "duplicate query %q", q)
		seen[k] = true
	}
}

func TestPlan_EmptyTopicStillYieldsTemplates(t *testing.T) {
	queries := Plan("")

	assert.NotEmpty(t, queries)
	assert.Equal(t, " definition and overview", queries[0])
}

func TestPlan_CapsQueryCount(t *testing.T) {
	assert.LessOrEqual(t, len(Plan("distributed systems")), 5)
}

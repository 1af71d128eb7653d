package retrieval

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryLogger_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewQueryLogger(&buf)

	l.Log(QueryLogEntry{TopicID: "t1", Query: "first", NumResults: 3, Duration: 5 * time.Millisecond})
	l.Log(QueryLogEntry{TopicID: "t1", Query: "second", NumResults: 0})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var entry QueryLogEntry
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "t1", entry.TopicID)
	assert.Equal(t, "first", entry.Query)
	assert.Equal(t, 3, entry.NumResults)
	assert.Equal(t, int64(5), entry.LatencyMs)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestNewFileQueryLogger_CreatesParentDirs(t *testing.T) {
	path := t.TempDir() + "/logs/query.log"

	l, err := NewFileQueryLogger(path)
	require.NoError(t, err)
	l.Log(QueryLogEntry{TopicID: "t1", Query: "q"})
}

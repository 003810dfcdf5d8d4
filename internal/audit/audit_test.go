package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndEvents(t *testing.T) {
	l, err := NewLogger(10, "")
	require.NoError(t, err)

	l.Info(EventWorkspaceAllocated, "ws-1", map[string]any{"path": "/tmp/ws-1"})
	l.Record(EventAuthFailed, SeverityError, "", nil)

	events := l.Events(0)
	require.Len(t, events, 2)
	assert.Equal(t, EventWorkspaceAllocated, events[0].Type)
	assert.Equal(t, "ws-1", events[0].WorkspaceID)
	assert.Equal(t, SeverityError, events[1].Severity)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestRingBufferDropsOldest(t *testing.T) {
	l, err := NewLogger(3, "")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		l.Info(EventCredentialAccessed, "", map[string]any{"n": i})
	}

	events := l.Events(0)
	require.Len(t, events, 3)
	assert.Equal(t, 2, events[0].Details["n"])
}

func TestEventsLimit(t *testing.T) {
	l, err := NewLogger(10, "")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		l.Info(EventSystemStart, "", nil)
	}
	assert.Len(t, l.Events(2), 2)
}

func TestJSONLSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "audit.jsonl")
	l, err := NewLogger(10, path)
	require.NoError(t, err)

	l.Info(EventWorkspaceReleased, "ws-9", nil)
	l.Record(EventRateLimitExceeded, SeverityWarning, "", map[string]any{"client": "c1"})
	require.NoError(t, l.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		lines = append(lines, e)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, EventWorkspaceReleased, lines[0].Type)
	assert.Equal(t, SeverityWarning, lines[1].Severity)
}

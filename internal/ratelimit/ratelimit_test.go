package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitmcp/gitmcp/internal/audit"
	"github.com/gitmcp/gitmcp/internal/giterr"
)

func TestAllowWithinBurst(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1, Burst: 3}, nil, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Allow("c1"))
	}
	err := l.Allow("c1")
	var gitErr *giterr.Error
	require.ErrorAs(t, err, &gitErr)
	assert.Equal(t, giterr.CodeResourceExhausted, gitErr.Code)
}

func TestClientsAreIndependent(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1, Burst: 1}, nil, nil)

	require.NoError(t, l.Allow("c1"))
	require.Error(t, l.Allow("c1"))
	require.NoError(t, l.Allow("c2"))
	assert.Equal(t, 2, l.Clients())
}

func TestEmptyClientUsesDefaultBucket(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1, Burst: 1}, nil, nil)
	require.NoError(t, l.Allow(""))
	require.Error(t, l.Allow(""))
	assert.Equal(t, 1, l.Clients())
}

func TestResetRestoresBudget(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1, Burst: 1}, nil, nil)
	require.NoError(t, l.Allow("c1"))
	require.Error(t, l.Allow("c1"))

	l.Reset("c1")
	require.NoError(t, l.Allow("c1"))
}

func TestRejectionIsAudited(t *testing.T) {
	log, err := audit.NewLogger(10, "")
	require.NoError(t, err)
	l := New(Config{RequestsPerSecond: 1, Burst: 1}, nil, log)

	require.NoError(t, l.Allow("c1"))
	require.Error(t, l.Allow("c1"))

	events := log.Events(0)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventRateLimitExceeded, events[0].Type)
	assert.Equal(t, "c1", events[0].Details["client_id"])
}

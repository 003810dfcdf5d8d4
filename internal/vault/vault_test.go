package vault

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitmcp/gitmcp/internal/audit"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvGitToken, EnvMCPGitToken, EnvGitHubToken,
		EnvUsername, EnvPassword,
		EnvSSHKeyPath, EnvSSHPassphrase, EnvSSHAuthSock,
	} {
		t.Setenv(key, "")
	}
}

func TestSecretNeverLeaksInFormatting(t *testing.T) {
	s := NewSecret("supersecret")
	defer s.Destroy()

	assert.Equal(t, "***", s.String())
	assert.Equal(t, "***", fmt.Sprintf("%v", s))
	assert.Equal(t, "***", fmt.Sprintf("%#v", s))

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `"***"`, string(b))

	assert.Equal(t, "supersecret", s.Reveal())
}

func TestSecretDestroy(t *testing.T) {
	s := NewSecret("gone")
	s.Destroy()
	assert.Equal(t, "", s.Reveal())

	var nilSecret *Secret
	nilSecret.Destroy() // must not panic
	assert.Equal(t, "", nilSecret.Reveal())
}

func TestNewSecretEmpty(t *testing.T) {
	assert.Nil(t, NewSecret(""))
}

func TestResolutionOrder(t *testing.T) {
	t.Run("GIT_TOKEN wins over everything", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv(EnvGitToken, "tok-a")
		t.Setenv(EnvMCPGitToken, "tok-b")
		t.Setenv(EnvGitHubToken, "tok-c")

		c := NewManager(nil).Get(false)
		require.NotNil(t, c)
		assert.Equal(t, AuthToken, c.AuthType)
		assert.Equal(t, "tok-a", c.Token.Reveal())
	})

	t.Run("MCP_GIT_GIT_TOKEN before GITHUB_TOKEN", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv(EnvMCPGitToken, "tok-b")
		t.Setenv(EnvGitHubToken, "tok-c")

		c := NewManager(nil).Get(false)
		require.NotNil(t, c)
		assert.Equal(t, "tok-b", c.Token.Reveal())
	})

	t.Run("GITHUB_TOKEN fallback", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv(EnvGitHubToken, "tok-c")

		c := NewManager(nil).Get(false)
		require.NotNil(t, c)
		assert.Equal(t, "tok-c", c.Token.Reveal())
	})

	t.Run("ssh key path requires existing file", func(t *testing.T) {
		clearCredentialEnv(t)
		keyPath := filepath.Join(t.TempDir(), "id_ed25519")
		require.NoError(t, os.WriteFile(keyPath, []byte("key"), 0o600))
		t.Setenv(EnvSSHKeyPath, keyPath)
		t.Setenv(EnvSSHPassphrase, "phrase")

		c := NewManager(nil).Get(false)
		require.NotNil(t, c)
		assert.Equal(t, AuthSSHKey, c.AuthType)
		assert.Equal(t, keyPath, c.SSHKeyPath)
		assert.Equal(t, "phrase", c.SSHPassphrase.Reveal())
	})

	t.Run("missing ssh key file falls through to agent", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv(EnvSSHKeyPath, "/nonexistent/key")
		t.Setenv(EnvSSHAuthSock, "/tmp/agent.sock")

		c := NewManager(nil).Get(false)
		require.NotNil(t, c)
		assert.Equal(t, AuthSSHAgent, c.AuthType)
	})

	t.Run("username password last", func(t *testing.T) {
		clearCredentialEnv(t)
		t.Setenv(EnvUsername, "alice")
		t.Setenv(EnvPassword, "pw")

		c := NewManager(nil).Get(false)
		require.NotNil(t, c)
		assert.Equal(t, AuthUsernamePassword, c.AuthType)
		assert.Equal(t, "alice", c.BasicUsername())
		assert.Equal(t, "pw", c.BasicPassword().Reveal())
	})

	t.Run("nothing set yields nil", func(t *testing.T) {
		clearCredentialEnv(t)
		assert.Nil(t, NewManager(nil).Get(false))
		assert.False(t, NewManager(nil).IsAuthenticated())
	})
}

func TestTokenCredentialBasicAuthDefaults(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(EnvGitToken, "tok")

	c := NewManager(nil).Get(false)
	require.NotNil(t, c)
	assert.Equal(t, "git", c.BasicUsername())
	assert.Equal(t, "tok", c.BasicPassword().Reveal())
}

func TestGetCachesUntilRefresh(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(EnvGitToken, "first")

	m := NewManager(nil)
	c1 := m.Get(false)
	require.NotNil(t, c1)

	t.Setenv(EnvGitToken, "second")
	c2 := m.Get(false)
	assert.Same(t, c1, c2)

	c3 := m.Get(true)
	require.NotNil(t, c3)
	assert.Equal(t, "second", c3.Token.Reveal())
}

func TestRotateAndClear(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(EnvGitToken, "tok-1")

	log, err := audit.NewLogger(50, "")
	require.NoError(t, err)
	m := NewManager(log)

	require.NotNil(t, m.Get(false))
	t.Setenv(EnvGitToken, "tok-2")

	rotated := m.Rotate()
	require.NotNil(t, rotated)
	assert.Equal(t, "tok-2", rotated.Token.Reveal())

	m.Clear()
	at, ok := m.AuthType()
	assert.False(t, ok)
	assert.Empty(t, at)

	// Audit trail saw load, access, rotate, clear; never the token.
	events := log.Events(0)
	require.NotEmpty(t, events)
	types := make(map[audit.EventType]bool)
	for _, e := range events {
		types[e.Type] = true
		b, err := json.Marshal(e)
		require.NoError(t, err)
		assert.NotContains(t, string(b), "tok-1")
		assert.NotContains(t, string(b), "tok-2")
	}
	assert.True(t, types[audit.EventCredentialLoaded])
	assert.True(t, types[audit.EventCredentialAccessed])
	assert.True(t, types[audit.EventCredentialRotated])
	assert.True(t, types[audit.EventCredentialCleared])
}

func TestStats(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(EnvGitToken, "tok")

	m := NewManager(nil)
	m.Get(false)
	m.Get(false)

	s := m.Stats()
	assert.Equal(t, AuthToken, s.AuthType)
	assert.Equal(t, int64(2), s.AccessCount)
	assert.NotEmpty(t, s.CredentialID)
	assert.False(t, s.LoadedAt.IsZero())
	assert.GreaterOrEqual(t, m.Age().Nanoseconds(), int64(0))
}

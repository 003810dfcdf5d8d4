package vault

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gitmcp/gitmcp/internal/audit"
)

// AuthType identifies how git operations authenticate.
type AuthType string

const (
	AuthToken            AuthType = "token"
	AuthSSHKey           AuthType = "ssh_key"
	AuthSSHAgent         AuthType = "ssh_agent"
	AuthUsernamePassword AuthType = "username_password"
)

// Environment variable names consulted during resolution.
const (
	EnvGitToken      = "GIT_TOKEN"
	EnvMCPGitToken   = "MCP_GIT_GIT_TOKEN"
	EnvGitHubToken   = "GITHUB_TOKEN"
	EnvUsername      = "GIT_USERNAME"
	EnvPassword      = "GIT_PASSWORD"
	EnvSSHKeyPath    = "SSH_KEY_PATH"
	EnvSSHPassphrase = "SSH_PASSPHRASE"
	EnvSSHAuthSock   = "SSH_AUTH_SOCK"
)

// Credential is one resolved authentication method.
type Credential struct {
	AuthType      AuthType
	Token         *Secret
	Username      string
	Password      *Secret
	SSHKeyPath    string
	SSHPassphrase *Secret
}

// BasicUsername returns the username for HTTP basic auth. Token
// credentials without an explicit username use "git".
func (c *Credential) BasicUsername() string {
	if c.Username != "" {
		return c.Username
	}
	if c.AuthType == AuthToken && c.Token != nil {
		return "git"
	}
	return ""
}

// BasicPassword returns the password or token used for HTTP basic auth.
func (c *Credential) BasicPassword() *Secret {
	if c.Password != nil {
		return c.Password
	}
	if c.AuthType == AuthToken {
		return c.Token
	}
	return nil
}

// Destroy wipes all secret material held by the credential.
func (c *Credential) Destroy() {
	if c == nil {
		return
	}
	c.Token.Destroy()
	c.Password.Destroy()
	c.SSHPassphrase.Destroy()
}

// Stats summarizes the vault state without exposing secrets.
type Stats struct {
	CredentialID string
	AuthType     AuthType
	LoadedAt     time.Time
	AccessCount  int64
}

// Manager caches one resolved credential and audits every access.
type Manager struct {
	mu          sync.RWMutex
	cached      *Credential
	id          string
	loadedAt    time.Time
	accessCount int64
	audit       *audit.Logger
}

// NewManager creates a Manager. auditLog may be nil.
func NewManager(auditLog *audit.Logger) *Manager {
	return &Manager{audit: auditLog}
}

// resolve loads a credential from the environment. Resolution order:
// token (GIT_TOKEN wins over MCP_GIT_GIT_TOKEN, GITHUB_TOKEN is the
// fallback), SSH key path (the file must exist), SSH agent socket,
// username+password. Returns nil when nothing usable is set.
func resolve() *Credential {
	token := os.Getenv(EnvGitToken)
	if token == "" {
		token = os.Getenv(EnvMCPGitToken)
	}
	if token == "" {
		token = os.Getenv(EnvGitHubToken)
	}
	if token != "" {
		return &Credential{
			AuthType: AuthToken,
			Token:    NewSecret(token),
			Username: os.Getenv(EnvUsername),
		}
	}

	if keyPath := os.Getenv(EnvSSHKeyPath); keyPath != "" {
		if _, err := os.Stat(keyPath); err == nil {
			return &Credential{
				AuthType:      AuthSSHKey,
				SSHKeyPath:    keyPath,
				SSHPassphrase: NewSecret(os.Getenv(EnvSSHPassphrase)),
			}
		}
	}

	if os.Getenv(EnvSSHAuthSock) != "" {
		return &Credential{AuthType: AuthSSHAgent}
	}

	username := os.Getenv(EnvUsername)
	password := os.Getenv(EnvPassword)
	if username != "" && password != "" {
		return &Credential{
			AuthType: AuthUsernamePassword,
			Username: username,
			Password: NewSecret(password),
		}
	}

	return nil
}

// Get returns the cached credential, resolving from the environment on
// first use or when forceRefresh is set. Every call is audited.
func (m *Manager) Get(forceRefresh bool) *Credential {
	m.mu.Lock()
	defer m.mu.Unlock()

	if forceRefresh || m.cached == nil {
		if m.cached != nil {
			m.cached.Destroy()
		}
		m.cached = resolve()
		m.id = uuid.NewString()
		m.loadedAt = time.Now().UTC()
		if m.cached != nil {
			m.record(audit.EventCredentialLoaded, m.cached.AuthType)
		}
	}

	m.accessCount++
	if m.cached != nil {
		m.record(audit.EventCredentialAccessed, m.cached.AuthType)
	}
	return m.cached
}

// Set installs a credential directly, wiping any previous one.
func (m *Manager) Set(c *Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil {
		m.cached.Destroy()
	}
	m.cached = c
	m.id = uuid.NewString()
	m.loadedAt = time.Now().UTC()
	if c != nil {
		m.record(audit.EventCredentialLoaded, c.AuthType)
	}
}

// Clear wipes and drops the cached credential.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil {
		m.record(audit.EventCredentialCleared, m.cached.AuthType)
		m.cached.Destroy()
	}
	m.cached = nil
	m.id = ""
}

// Rotate wipes the cached credential and resolves a fresh one.
func (m *Manager) Rotate() *Credential {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil {
		m.cached.Destroy()
	}
	m.cached = resolve()
	m.id = uuid.NewString()
	m.loadedAt = time.Now().UTC()
	if m.cached != nil {
		m.record(audit.EventCredentialRotated, m.cached.AuthType)
	}
	return m.cached
}

// IsAuthenticated reports whether the environment currently yields a
// credential.
func (m *Manager) IsAuthenticated() bool {
	c := resolve()
	if c == nil {
		return false
	}
	c.Destroy()
	return true
}

// AuthType returns the cached credential's auth type.
func (m *Manager) AuthType() (AuthType, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cached == nil {
		return "", false
	}
	return m.cached.AuthType, true
}

// Age returns time since the cached credential was loaded.
func (m *Manager) Age() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cached == nil {
		return 0
	}
	return time.Since(m.loadedAt)
}

// Stats returns the vault's observable state.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{
		CredentialID: m.id,
		LoadedAt:     m.loadedAt,
		AccessCount:  m.accessCount,
	}
	if m.cached != nil {
		s.AuthType = m.cached.AuthType
	}
	return s
}

// record appends an audit event; never the secret itself.
func (m *Manager) record(t audit.EventType, authType AuthType) {
	if m.audit == nil {
		return
	}
	m.audit.Info(t, "", map[string]any{
		"credential_id": m.id,
		"auth_type":     string(authType),
		"access_count":  m.accessCount,
		"age_seconds":   time.Since(m.loadedAt).Seconds(),
	})
}

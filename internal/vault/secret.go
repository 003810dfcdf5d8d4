// Package vault resolves git credentials from the environment and holds
// them in locked memory. Secrets never appear in logs, string formatting,
// or JSON output; access goes through an explicit Reveal call.
package vault

import "github.com/awnumar/memguard"

// Secret wraps a memguard LockedBuffer. The zero-value formatting paths
// all render "***"; only Reveal exposes the plaintext.
type Secret struct {
	buf *memguard.LockedBuffer
}

// NewSecret copies value into locked memory. Empty values yield nil.
func NewSecret(value string) *Secret {
	if value == "" {
		return nil
	}
	return &Secret{buf: memguard.NewBufferFromBytes([]byte(value))}
}

// Reveal returns the plaintext. Returns "" after Destroy.
func (s *Secret) Reveal() string {
	if s == nil || s.buf == nil || !s.buf.IsAlive() {
		return ""
	}
	return s.buf.String()
}

// Destroy wipes the locked buffer.
func (s *Secret) Destroy() {
	if s == nil || s.buf == nil {
		return
	}
	s.buf.Destroy()
}

func (s *Secret) String() string   { return "***" }
func (s *Secret) GoString() string { return "***" }

// MarshalJSON always emits a masked value.
func (s *Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"***"`), nil
}

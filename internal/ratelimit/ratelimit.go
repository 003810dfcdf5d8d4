// Package ratelimit bounds per-client request rates for the tool
// surface. Each client gets its own token bucket; exceeding it yields a
// resource-exhausted error and an audit event.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/gitmcp/gitmcp/internal/audit"
	"github.com/gitmcp/gitmcp/internal/giterr"
	"github.com/gitmcp/gitmcp/internal/metrics"
)

// Config controls the per-client bucket.
type Config struct {
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig allows 10 req/s with a burst of 20 per client.
func DefaultConfig() Config {
	return Config{RequestsPerSecond: 10, Burst: 20}
}

// Limiter tracks one token bucket per client ID.
type Limiter struct {
	cfg   Config
	rec   metrics.Recorder
	audit *audit.Logger

	mu      sync.Mutex
	clients map[string]*rate.Limiter
}

// New creates a Limiter. rec and auditLog may be nil.
func New(cfg Config, rec metrics.Recorder, auditLog *audit.Logger) *Limiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond)
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Limiter{
		cfg:     cfg,
		rec:     rec,
		audit:   auditLog,
		clients: make(map[string]*rate.Limiter),
	}
}

// Allow consumes one token for the client. Returns a typed
// resource-exhausted error when the bucket is empty.
func (l *Limiter) Allow(clientID string) error {
	if clientID == "" {
		clientID = "default"
	}

	l.mu.Lock()
	limiter, ok := l.clients[clientID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)
		l.clients[clientID] = limiter
	}
	l.mu.Unlock()

	if limiter.Allow() {
		return nil
	}

	l.rec.IncRateLimited()
	if l.audit != nil {
		l.audit.Record(audit.EventRateLimitExceeded, audit.SeverityWarning, "", map[string]any{
			"client_id": clientID,
		})
	}
	return giterr.ResourceExhausted("Rate limit exceeded").
		WithSuggestion("Slow down and retry shortly").
		WithParam("client_id", clientID)
}

// Reset drops a client's bucket.
func (l *Limiter) Reset(clientID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.clients, clientID)
}

// Clients returns the number of tracked clients.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

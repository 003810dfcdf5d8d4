// Package audit keeps a security audit trail: a bounded in-memory ring
// of typed events plus an optional JSONL file sink. Events never contain
// secret material, only identifiers and counters.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType names a security-relevant occurrence.
type EventType string

const (
	EventCredentialLoaded   EventType = "credential_loaded"
	EventCredentialAccessed EventType = "credential_accessed"
	EventCredentialCleared  EventType = "credential_cleared"
	EventCredentialRotated  EventType = "credential_rotated"

	EventAuthFailed    EventType = "auth_failed"
	EventAuthSucceeded EventType = "auth_succeeded"

	EventRateLimitExceeded EventType = "rate_limit_exceeded"

	EventWorkspaceAllocated EventType = "workspace_allocated"
	EventWorkspaceReleased  EventType = "workspace_released"

	EventSystemStart EventType = "system_start"
	EventSystemStop  EventType = "system_stop"
)

// Severity grades an event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Event is one audit record.
type Event struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"event_type"`
	Severity    Severity       `json:"severity"`
	WorkspaceID string         `json:"workspace_id,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Logger records events into a bounded ring and, when configured, appends
// them as JSON lines to a file.
type Logger struct {
	mu     sync.Mutex
	events []Event
	max    int
	file   *os.File
}

// NewLogger creates a Logger retaining up to maxEvents in memory.
// logPath may be empty to disable the file sink.
func NewLogger(maxEvents int, logPath string) (*Logger, error) {
	if maxEvents <= 0 {
		maxEvents = 1000
	}
	l := &Logger{max: maxEvents}

	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			return nil, fmt.Errorf("create audit log directory: %w", err)
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open audit log file: %w", err)
		}
		l.file = f
	}
	return l, nil
}

// Record creates and stores an event.
func (l *Logger) Record(t EventType, sev Severity, workspaceID string, details map[string]any) {
	e := Event{
		ID:          uuid.NewString(),
		Type:        t,
		Severity:    sev,
		WorkspaceID: workspaceID,
		Details:     details,
		Timestamp:   time.Now().UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, e)
	if len(l.events) > l.max {
		l.events = l.events[len(l.events)-l.max:]
	}

	if l.file != nil {
		// Sink failures must not break the operation being audited.
		if line, err := json.Marshal(e); err == nil {
			_, _ = l.file.Write(append(line, '\n'))
		}
	}
}

// Info records an informational event.
func (l *Logger) Info(t EventType, workspaceID string, details map[string]any) {
	l.Record(t, SeverityInfo, workspaceID, details)
}

// Events returns up to limit most recent events, oldest first.
// limit <= 0 returns everything retained.
func (l *Logger) Events(limit int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, n)
	copy(out, l.events[len(l.events)-n:])
	return out
}

// Close releases the file sink, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

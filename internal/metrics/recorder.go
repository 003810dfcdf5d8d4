// Package metrics provides observability hooks for the service.
//
// Components receive a Recorder through dependency injection and default
// to NoopRecorder, so metrics are optional and carry zero overhead when
// not configured. A Prometheus implementation is provided for deployments
// that scrape.
package metrics

import "time"

// Recorder defines the metrics hooks recorded across the service.
// Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveOperationDuration(operation string, d time.Duration, success bool)
	IncOperationResult(operation string, success bool)
	IncRetry(operation string)
	IncRetryExhausted(operation string)
	IncTaskOutcome(status string) // completed|failed|cancelled
	SetActiveTasks(n int)
	IncWorkspaceAllocated()
	IncWorkspaceReleased()
	IncWorkspaceEvicted(reason string) // expired|size
	IncRateLimited()
}

// NoopRecorder is the default Recorder; every method does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveOperationDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncOperationResult(string, bool)                      {}
func (NoopRecorder) IncRetry(string)                                      {}
func (NoopRecorder) IncRetryExhausted(string)                             {}
func (NoopRecorder) IncTaskOutcome(string)                                {}
func (NoopRecorder) SetActiveTasks(int)                                   {}
func (NoopRecorder) IncWorkspaceAllocated()                               {}
func (NoopRecorder) IncWorkspaceReleased()                                {}
func (NoopRecorder) IncWorkspaceEvicted(string)                           {}
func (NoopRecorder) IncRateLimited()                                      {}

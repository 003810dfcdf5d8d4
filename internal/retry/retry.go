// Package retry implements exponential backoff with jitter for transient
// git failures. Only errors the taxonomy classifies as retryable are
// re-attempted; everything else propagates immediately.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/gitmcp/gitmcp/internal/giterr"
	"github.com/gitmcp/gitmcp/internal/logfields"
	"github.com/gitmcp/gitmcp/internal/metrics"
)

// Config describes one retry schedule. It is a value type; predefined
// policies are copied, never mutated.
type Config struct {
	MaxRetries      int           // retries after the first attempt
	InitialDelay    time.Duration // base delay before the first retry
	MaxDelay        time.Duration // cap for backoff growth
	ExponentialBase float64       // growth factor per attempt
	Jitter          bool          // apply random variation
	JitterFactor    float64       // +/- fraction of the computed delay
}

// DefaultConfig matches the Standard policy.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		InitialDelay:    time.Second,
		MaxDelay:        60 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          true,
		JitterFactor:    0.1,
	}
}

// Predefined policies.
var (
	Conservative = Config{MaxRetries: 2, InitialDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second, ExponentialBase: 2.0, Jitter: true, JitterFactor: 0.05}
	Standard     = Config{MaxRetries: 3, InitialDelay: time.Second, MaxDelay: 60 * time.Second, ExponentialBase: 2.0, Jitter: true, JitterFactor: 0.1}
	Aggressive   = Config{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: 120 * time.Second, ExponentialBase: 2.0, Jitter: true, JitterFactor: 0.15}
	Network      = Config{MaxRetries: 3, InitialDelay: time.Second, MaxDelay: 30 * time.Second, ExponentialBase: 2.0, Jitter: true, JitterFactor: 0.1}
	Clone        = Config{MaxRetries: 3, InitialDelay: 2 * time.Second, MaxDelay: 120 * time.Second, ExponentialBase: 2.0, Jitter: true, JitterFactor: 0.2}
)

// PolicyFor maps an operation name to its retry policy. Unknown
// operations get the Standard policy.
func PolicyFor(operation string) Config {
	switch operation {
	case "clone":
		return Clone
	case "push", "pull", "fetch":
		return Network
	default:
		return Standard
	}
}

// Delay computes the backoff before retry number attempt (0-indexed):
// min(MaxDelay, InitialDelay * ExponentialBase^attempt), with optional
// uniform jitter of +/- JitterFactor, clamped to be non-negative.
func (c Config) Delay(attempt int) time.Duration {
	delay := float64(c.InitialDelay) * math.Pow(c.ExponentialBase, float64(attempt))
	delay = math.Min(delay, float64(c.MaxDelay))

	if c.Jitter {
		variation := delay * c.JitterFactor
		delay += (rand.Float64()*2 - 1) * variation
	}

	if delay < 0 {
		return 0
	}
	return time.Duration(delay)
}

// Do runs fn with retries per cfg. Non-retryable errors and context
// cancellation propagate immediately; unexpected non-taxonomy errors are
// wrapped as NETWORK_ERROR and treated as transient. The operation name
// is only used for logging and metrics.
func Do[T any](ctx context.Context, operation string, cfg Config, rec metrics.Recorder, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		var gerr *giterr.Error
		if errors.As(err, &gerr) {
			// Known taxonomy error: only the retryable kinds get another attempt.
			if !giterr.IsRetryable(err) {
				return zero, err
			}
		} else {
			// Foreign error: classify as a transient network failure.
			err = giterr.Wrap(err, giterr.CodeNetworkError, "Unexpected error: "+err.Error())
		}
		lastErr = err

		if attempt >= cfg.MaxRetries {
			rec.IncRetryExhausted(operation)
			return zero, lastErr
		}

		delay := cfg.Delay(attempt)
		rec.IncRetry(operation)
		slog.Debug("retrying after transient failure",
			logfields.Operation(operation),
			logfields.Attempt(attempt+1),
			logfields.DurationMS(float64(delay)/float64(time.Millisecond)),
			logfields.Error(err))

		select {
		case <-ctx.Done():
			return zero, giterr.Wrap(ctx.Err(), giterr.CodeTaskCancelled, "retry aborted by cancellation").WithOperation(operation)
		case <-time.After(delay):
		}
	}
	return zero, lastErr
}

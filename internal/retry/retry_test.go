package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitmcp/gitmcp/internal/giterr"
)

func TestPolicyTable(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		retries int
		initial time.Duration
		max     time.Duration
	}{
		{"conservative", Conservative, 2, 500 * time.Millisecond, 10 * time.Second},
		{"standard", Standard, 3, time.Second, 60 * time.Second},
		{"aggressive", Aggressive, 5, 2 * time.Second, 120 * time.Second},
		{"network", Network, 3, time.Second, 30 * time.Second},
		{"clone", Clone, 3, 2 * time.Second, 120 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retries, tt.cfg.MaxRetries)
			assert.Equal(t, tt.initial, tt.cfg.InitialDelay)
			assert.Equal(t, tt.max, tt.cfg.MaxDelay)
			assert.Equal(t, 2.0, tt.cfg.ExponentialBase)
		})
	}
}

func TestPolicyFor(t *testing.T) {
	assert.Equal(t, Clone, PolicyFor("clone"))
	assert.Equal(t, Network, PolicyFor("push"))
	assert.Equal(t, Network, PolicyFor("pull"))
	assert.Equal(t, Network, PolicyFor("fetch"))
	assert.Equal(t, Standard, PolicyFor("commit"))
	assert.Equal(t, Standard, PolicyFor(""))
}

func TestDelayExponentialGrowthWithoutJitter(t *testing.T) {
	cfg := Config{InitialDelay: 10 * time.Millisecond, MaxDelay: time.Minute, ExponentialBase: 2.0}

	assert.Equal(t, 10*time.Millisecond, cfg.Delay(0))
	assert.Equal(t, 20*time.Millisecond, cfg.Delay(1))
	assert.Equal(t, 40*time.Millisecond, cfg.Delay(2))
}

func TestDelayCappedAtMax(t *testing.T) {
	cfg := Config{InitialDelay: time.Second, MaxDelay: 3 * time.Second, ExponentialBase: 2.0}
	assert.Equal(t, 3*time.Second, cfg.Delay(10))
}

func TestDelayJitterWithinBounds(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Minute, ExponentialBase: 2.0, Jitter: true, JitterFactor: 0.1}
	for i := 0; i < 100; i++ {
		d := cfg.Delay(0)
		assert.GreaterOrEqual(t, d, 90*time.Millisecond)
		assert.LessOrEqual(t, d, 110*time.Millisecond)
	}
}

func TestDoSucceedsOnThirdAttempt(t *testing.T) {
	cfg := Config{MaxRetries: 3, InitialDelay: 10 * time.Millisecond, MaxDelay: time.Minute, ExponentialBase: 2.0}

	calls := 0
	var delays []time.Duration
	last := time.Now()
	result, err := Do(context.Background(), "fetch", cfg, nil, func(ctx context.Context) (string, error) {
		now := time.Now()
		if calls > 0 {
			delays = append(delays, now.Sub(last))
		}
		last = now
		calls++
		if calls < 3 {
			return "", giterr.New(giterr.CodeNetworkError, "transient")
		}
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 3, calls)

	// Sleeps follow exponential base 2: ~10ms then ~20ms.
	require.Len(t, delays, 2)
	assert.GreaterOrEqual(t, delays[0], 10*time.Millisecond)
	assert.Less(t, delays[0], 18*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 20*time.Millisecond)
	assert.Less(t, delays[1], 35*time.Millisecond)
}

func TestDoNonRetryableShortCircuits(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), "merge", Standard, nil, func(ctx context.Context) (string, error) {
		calls++
		return "", giterr.MergeConflict([]string{"a.txt"})
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, giterr.CodeGitMergeConflict, giterr.CodeOf(err))
}

func TestDoExhaustsRetries(t *testing.T) {
	cfg := Config{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, ExponentialBase: 2.0}

	calls := 0
	_, err := Do(context.Background(), "push", cfg, nil, func(ctx context.Context) (string, error) {
		calls++
		return "", giterr.New(giterr.CodeGitPushRejected, "rejected")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls) // initial attempt + 2 retries
	assert.Equal(t, giterr.CodeGitPushRejected, giterr.CodeOf(err))
}

func TestDoWrapsForeignErrorsAsNetwork(t *testing.T) {
	cfg := Config{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, ExponentialBase: 2.0}

	calls := 0
	_, err := Do(context.Background(), "fetch", cfg, nil, func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("dial tcp: connection refused")
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, giterr.CodeNetworkError, giterr.CodeOf(err))
}

func TestDoRespectsContextCancellation(t *testing.T) {
	cfg := Config{MaxRetries: 5, InitialDelay: time.Second, MaxDelay: time.Minute, ExponentialBase: 2.0}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := Do(ctx, "clone", cfg, nil, func(ctx context.Context) (string, error) {
		return "", giterr.New(giterr.CodeTimeout, "slow")
	})

	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, giterr.CodeTaskCancelled, giterr.CodeOf(err))
}

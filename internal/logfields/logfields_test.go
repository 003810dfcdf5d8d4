package logfields

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelperKeyNames(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
	}{
		{"task id", TaskID("t-1"), KeyTaskID},
		{"operation", Operation("clone"), KeyOperation},
		{"task status", TaskStatus("running"), KeyTaskStatus},
		{"priority", Priority(5), KeyPriority},
		{"workspace id", WorkspaceID("ws-1"), KeyWorkspaceID},
		{"path", Path("/tmp/x"), KeyPath},
		{"branch", Branch("main"), KeyBranch},
		{"remote", Remote("origin"), KeyRemote},
		{"url", URL("https://example.com/r.git"), KeyURL},
		{"bytes", Bytes(42), KeyBytes},
		{"count", Count(3), KeyCount},
		{"attempt", Attempt(2), KeyAttempt},
		{"duration", DurationMS(12.5), KeyDurationMS},
		{"error", Error(errors.New("boom")), KeyError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
		})
	}
}

func TestErrorNil(t *testing.T) {
	attr := Error(nil)
	assert.Equal(t, KeyError, attr.Key)
	assert.Equal(t, "", attr.Value.String())
}

func TestErrorMessage(t *testing.T) {
	attr := Error(errors.New("connection reset"))
	assert.Equal(t, "connection reset", attr.Value.String())
}

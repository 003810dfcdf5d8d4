package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTaskID      = "task_id"
	KeyOperation   = "operation"
	KeyTaskStatus  = "task_status"
	KeyPriority    = "priority"
	KeyWorkspaceID = "workspace_id"
	KeyPath        = "path"
	KeyBranch      = "branch"
	KeyRemote      = "remote"
	KeyURL         = "url"
	KeyBytes       = "bytes"
	KeyCount       = "count"
	KeyAttempt     = "attempt"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func TaskID(id string) slog.Attr      { return slog.String(KeyTaskID, id) }
func Operation(op string) slog.Attr   { return slog.String(KeyOperation, op) }
func TaskStatus(s string) slog.Attr   { return slog.String(KeyTaskStatus, s) }
func Priority(p int) slog.Attr        { return slog.Int(KeyPriority, p) }
func WorkspaceID(id string) slog.Attr { return slog.String(KeyWorkspaceID, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Remote(r string) slog.Attr       { return slog.String(KeyRemote, r) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Bytes(n int64) slog.Attr         { return slog.Int64(KeyBytes, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

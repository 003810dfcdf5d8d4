// Package giterr provides the structured error type shared by every layer
// of the service: numeric codes grouped by category, retry classification,
// and a stable wire representation.
package giterr

import (
	"errors"
	"fmt"
	"time"
)

// Category classifies an error by the code range it falls in.
type Category string

const (
	CategoryParameterValidation Category = "PARAMETER_VALIDATION"
	CategoryGitOperation        Category = "GIT_OPERATION"
	CategoryRepositoryAccess    Category = "REPOSITORY_ACCESS"
	CategoryNetwork             Category = "NETWORK"
	CategorySystem              Category = "SYSTEM"
	CategoryTaskExecution       Category = "TASK_EXECUTION"
)

// Code identifies a specific failure kind. Codes are partitioned:
// 40001-40099 parameter validation, 40100-40199 git operation,
// 40200-40299 repository access, 40300-40399 network, 40400-40499 system,
// 40500-40599 task execution.
type Code int

const (
	CodeInvalidRepoPath      Code = 40001
	CodeInvalidRemoteURL     Code = 40002
	CodeInvalidBranchName    Code = 40003
	CodeInvalidCommitMessage Code = 40004
	CodeInvalidTimeout       Code = 40005
	CodeInvalidTargetPath    Code = 40006
	CodeMissingRequiredParam Code = 40007
	CodeParameterConflict    Code = 40008

	CodeGitCommandFailed  Code = 40100
	CodeGitNotARepo       Code = 40101
	CodeGitNoChanges      Code = 40102
	CodeGitDetachedHead   Code = 40103
	CodeGitMergeConflict  Code = 40104
	CodeGitRebaseConflict Code = 40105
	CodeGitUpToDate       Code = 40106
	CodeGitPushRejected   Code = 40107

	CodeRepoAccessDenied Code = 40200
	CodeRepoNotFound     Code = 40201
	CodeRepoLocked       Code = 40202

	CodeNetworkError Code = 40300
	CodeTimeout      Code = 40301
	CodeAuthFailed   Code = 40302

	CodeSystemError       Code = 40400
	CodePermissionDenied  Code = 40401
	CodeResourceExhausted Code = 40402

	CodeTaskNotFound      Code = 40501
	CodeTaskCancelled     Code = 40502
	CodeTaskTimeout       Code = 40503
	CodeTaskExecutorError Code = 40504
)

var codeNames = map[Code]string{
	CodeInvalidRepoPath:      "INVALID_REPO_PATH",
	CodeInvalidRemoteURL:     "INVALID_REMOTE_URL",
	CodeInvalidBranchName:    "INVALID_BRANCH_NAME",
	CodeInvalidCommitMessage: "INVALID_COMMIT_MESSAGE",
	CodeInvalidTimeout:       "INVALID_TIMEOUT",
	CodeInvalidTargetPath:    "INVALID_TARGET_PATH",
	CodeMissingRequiredParam: "MISSING_REQUIRED_PARAM",
	CodeParameterConflict:    "PARAMETER_CONFLICT",
	CodeGitCommandFailed:     "GIT_COMMAND_FAILED",
	CodeGitNotARepo:          "GIT_NOT_A_REPO",
	CodeGitNoChanges:         "GIT_NO_CHANGES",
	CodeGitDetachedHead:      "GIT_DETACHED_HEAD",
	CodeGitMergeConflict:     "GIT_MERGE_CONFLICT",
	CodeGitRebaseConflict:    "GIT_REBASE_CONFLICT",
	CodeGitUpToDate:          "GIT_UP_TO_DATE",
	CodeGitPushRejected:      "GIT_PUSH_REJECTED",
	CodeRepoAccessDenied:     "REPO_ACCESS_DENIED",
	CodeRepoNotFound:         "REPO_NOT_FOUND",
	CodeRepoLocked:           "REPO_LOCKED",
	CodeNetworkError:         "NETWORK_ERROR",
	CodeTimeout:              "TIMEOUT",
	CodeAuthFailed:           "AUTH_FAILED",
	CodeSystemError:          "SYSTEM_ERROR",
	CodePermissionDenied:     "PERMISSION_DENIED",
	CodeResourceExhausted:    "RESOURCE_EXHAUSTED",
	CodeTaskNotFound:         "TASK_NOT_FOUND",
	CodeTaskCancelled:        "TASK_CANCELLED",
	CodeTaskTimeout:          "TASK_TIMEOUT",
	CodeTaskExecutorError:    "TASK_EXECUTOR_ERROR",
}

// Name returns the stable symbolic name used on the wire.
func (c Code) Name() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("UNKNOWN_%d", int(c))
}

// Category derives the error category from the code range.
func (c Code) Category() Category {
	switch {
	case c >= 40001 && c <= 40099:
		return CategoryParameterValidation
	case c >= 40100 && c <= 40199:
		return CategoryGitOperation
	case c >= 40200 && c <= 40299:
		return CategoryRepositoryAccess
	case c >= 40300 && c <= 40399:
		return CategoryNetwork
	case c >= 40400 && c <= 40499:
		return CategorySystem
	default:
		return CategoryTaskExecution
	}
}

// Context carries structured context attached to an error.
type Context struct {
	Operation  string         `json:"operation"`
	RepoPath   string         `json:"repo_path,omitempty"`
	Branch     string         `json:"branch,omitempty"`
	Commit     string         `json:"commit,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Error is the structured error type for the service.
type Error struct {
	Code       Code
	Message    string
	Details    string
	Suggestion string
	Ctx        Context
	Cause      error
	Timestamp  time.Time
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Ctx:       Context{Operation: "unknown"},
		Timestamp: time.Now().UTC(),
	}
}

// Wrap creates an Error wrapping an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	e := New(code, message)
	e.Cause = err
	if err != nil && e.Details == "" {
		e.Details = err.Error()
	}
	return e
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Code.Name(), int(e.Code), e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code.Name(), int(e.Code), e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is makes errors.Is match on code so sentinels like New(CodeTimeout, ...)
// compare by kind rather than identity.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// WithDetails sets operator-facing detail text.
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// WithSuggestion sets the remediation hint surfaced to callers.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithOperation records the operation the error arose from.
func (e *Error) WithOperation(op string) *Error {
	e.Ctx.Operation = op
	return e
}

// WithRepoPath records the repository path involved.
func (e *Error) WithRepoPath(p string) *Error {
	e.Ctx.RepoPath = p
	return e
}

// WithBranch records the branch involved.
func (e *Error) WithBranch(b string) *Error {
	e.Ctx.Branch = b
	return e
}

// WithCommit records the commit involved.
func (e *Error) WithCommit(c string) *Error {
	e.Ctx.Commit = c
	return e
}

// WithParam attaches one named parameter to the context.
func (e *Error) WithParam(key string, value any) *Error {
	if e.Ctx.Parameters == nil {
		e.Ctx.Parameters = make(map[string]any)
	}
	e.Ctx.Parameters[key] = value
	return e
}

// ToMap produces the wire form: {code, name, category, message, details?,
// suggestion?, context, timestamp}.
func (e *Error) ToMap() map[string]any {
	m := map[string]any{
		"code":     int(e.Code),
		"name":     e.Code.Name(),
		"category": string(e.Code.Category()),
		"message":  e.Message,
		"context": map[string]any{
			"operation":  e.Ctx.Operation,
			"repo_path":  e.Ctx.RepoPath,
			"branch":     e.Ctx.Branch,
			"commit":     e.Ctx.Commit,
			"parameters": e.Ctx.Parameters,
		},
		"timestamp": e.Timestamp.Format(time.RFC3339),
	}
	if e.Details != "" {
		m["details"] = e.Details
	}
	if e.Suggestion != "" {
		m["suggestion"] = e.Suggestion
	}
	return m
}

var retryableCodes = map[Code]bool{
	CodeNetworkError:    true,
	CodeTimeout:         true,
	CodeAuthFailed:      true,
	CodeGitPushRejected: true,
}

// IsRetryable reports whether the error is a transient failure the retry
// engine may re-attempt. Non-Error values are never retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return retryableCodes[e.Code]
	}
	return false
}

// CodeOf extracts the error code, or CodeSystemError for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeSystemError
}

var userMessages = map[Code]string{
	CodeRepoNotFound:     "The repository was not found. Please check the URL or path.",
	CodeAuthFailed:       "Authentication failed. Please check your credentials.",
	CodeGitMergeConflict: "There are merge conflicts that need to be resolved.",
	CodeTimeout:          "The operation timed out. Please try again.",
	CodeNetworkError:     "A network error occurred. Please check your connection.",
}

// UserMessage maps well-known codes to concise user-facing sentences.
// The suggestion, when present, is appended; internal details never are.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "An error occurred. Please try again."
	}
	msg, ok := userMessages[e.Code]
	if !ok {
		msg = "An error occurred. Please try again."
	}
	if e.Suggestion != "" {
		return msg + "\n\nSuggestion: " + e.Suggestion
	}
	return msg
}

package giterr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryFromCodeRange(t *testing.T) {
	tests := []struct {
		code Code
		want Category
	}{
		{CodeInvalidRepoPath, CategoryParameterValidation},
		{CodeParameterConflict, CategoryParameterValidation},
		{CodeGitCommandFailed, CategoryGitOperation},
		{CodeGitPushRejected, CategoryGitOperation},
		{CodeRepoNotFound, CategoryRepositoryAccess},
		{CodeNetworkError, CategoryNetwork},
		{CodeAuthFailed, CategoryNetwork},
		{CodeSystemError, CategorySystem},
		{CodeResourceExhausted, CategorySystem},
		{CodeTaskNotFound, CategoryTaskExecution},
		{CodeTaskTimeout, CategoryTaskExecution},
	}

	for _, tt := range tests {
		t.Run(tt.code.Name(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.Category())
		})
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []Code{CodeNetworkError, CodeTimeout, CodeAuthFailed, CodeGitPushRejected}
	for _, c := range retryable {
		assert.True(t, IsRetryable(New(c, "x")), c.Name())
	}

	notRetryable := []Code{
		CodeInvalidRepoPath, CodeGitCommandFailed, CodeGitMergeConflict,
		CodeRepoNotFound, CodeSystemError, CodeTaskTimeout,
	}
	for _, c := range notRetryable {
		assert.False(t, IsRetryable(New(c, "x")), c.Name())
	}

	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestIsRetryableWrapped(t *testing.T) {
	inner := New(CodeNetworkError, "connection reset")
	wrapped := fmt.Errorf("clone: %w", inner)
	assert.True(t, IsRetryable(wrapped))
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("op: %w", New(CodeTimeout, "deadline"))
	assert.True(t, errors.Is(err, New(CodeTimeout, "anything")))
	assert.False(t, errors.Is(err, New(CodeNetworkError, "anything")))
}

func TestToMapWireForm(t *testing.T) {
	err := New(CodeRepoNotFound, "Repository not found: /tmp/x").
		WithOperation("status").
		WithRepoPath("/tmp/x").
		WithSuggestion("Check the repository path and ensure it exists").
		WithParam("remote", "origin")

	m := err.ToMap()
	assert.Equal(t, 40201, m["code"])
	assert.Equal(t, "REPO_NOT_FOUND", m["name"])
	assert.Equal(t, "REPOSITORY_ACCESS", m["category"])
	assert.Equal(t, "Repository not found: /tmp/x", m["message"])
	assert.Equal(t, "Check the repository path and ensure it exists", m["suggestion"])
	assert.NotEmpty(t, m["timestamp"])

	ctx, ok := m["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "status", ctx["operation"])
	assert.Equal(t, "/tmp/x", ctx["repo_path"])

	params, ok := ctx["parameters"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "origin", params["remote"])
}

func TestToMapOmitsEmptyOptionalFields(t *testing.T) {
	m := New(CodeSystemError, "boom").ToMap()
	_, hasDetails := m["details"]
	_, hasSuggestion := m["suggestion"]
	assert.False(t, hasDetails)
	assert.False(t, hasSuggestion)
}

func TestWrapCapturesCause(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := Wrap(cause, CodeNetworkError, "fetch failed")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "dial tcp: i/o timeout", err.Details)
	assert.Contains(t, err.Error(), "NETWORK_ERROR (40300)")
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{New(CodeRepoNotFound, "x"), "The repository was not found. Please check the URL or path."},
		{New(CodeAuthFailed, "x"), "Authentication failed. Please check your credentials."},
		{New(CodeTimeout, "x"), "The operation timed out. Please try again."},
		{New(CodeNetworkError, "x"), "A network error occurred. Please check your connection."},
		{New(CodeGitMergeConflict, "x"), "There are merge conflicts that need to be resolved."},
		{New(CodeGitNoChanges, "x"), "An error occurred. Please try again."},
		{errors.New("plain"), "An error occurred. Please try again."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UserMessage(tt.err))
	}
}

func TestUserMessageAppendsSuggestion(t *testing.T) {
	err := New(CodeTimeout, "x").WithSuggestion("Try again later")
	assert.Equal(t, "The operation timed out. Please try again.\n\nSuggestion: Try again later", UserMessage(err))
}

func TestConstructors(t *testing.T) {
	t.Run("repository not found", func(t *testing.T) {
		err := RepositoryNotFound("/tmp/repo")
		assert.Equal(t, CodeRepoNotFound, err.Code)
		assert.Equal(t, "/tmp/repo", err.Ctx.RepoPath)
		assert.NotEmpty(t, err.Suggestion)
	})

	t.Run("merge conflict carries file list", func(t *testing.T) {
		err := MergeConflict([]string{"a.txt", "b.txt"})
		assert.Equal(t, CodeGitMergeConflict, err.Code)
		assert.Contains(t, err.Message, "a.txt, b.txt")
		assert.Equal(t, []string{"a.txt", "b.txt"}, err.Ctx.Parameters["conflicted_files"])
	})

	t.Run("task timeout message", func(t *testing.T) {
		err := TaskTimeout("t-1", 300)
		assert.Equal(t, "Task timed out after 300 seconds", err.Message)
		assert.Equal(t, 300, err.Ctx.Parameters["timeout_seconds"])
	})

	t.Run("auth failed default message", func(t *testing.T) {
		err := AuthFailed("")
		assert.Equal(t, "Authentication failed", err.Message)
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeTimeout, CodeOf(New(CodeTimeout, "x")))
	assert.Equal(t, CodeSystemError, CodeOf(errors.New("plain")))
}

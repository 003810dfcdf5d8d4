package giterr

import (
	"fmt"
	"strings"
)

// Validation builds a parameter-validation error. Never retried.
func Validation(code Code, message string) *Error {
	return New(code, message)
}

// RepositoryNotFound builds the standard missing-repository error.
func RepositoryNotFound(path string) *Error {
	e := New(CodeRepoNotFound, fmt.Sprintf("Repository not found: %s", path))
	e.Ctx.Operation = "repository_access"
	e.Ctx.RepoPath = path
	return e.
		WithDetails(fmt.Sprintf("Cannot find repository at %s", path)).
		WithSuggestion("Check the repository path and ensure it exists")
}

// AuthFailed builds an authentication error.
func AuthFailed(message string) *Error {
	if message == "" {
		message = "Authentication failed"
	}
	return New(CodeAuthFailed, message).
		WithSuggestion("Check your credentials and ensure they have the required permissions")
}

// MergeConflict builds a conflict error carrying the conflicted file list.
func MergeConflict(conflicted []string) *Error {
	e := New(CodeGitMergeConflict, fmt.Sprintf("Merge conflict in files: %s", strings.Join(conflicted, ", ")))
	e.Ctx.Operation = "merge"
	return e.
		WithDetails(fmt.Sprintf("Conflicted files: %v", conflicted)).
		WithSuggestion("Resolve the conflicts manually, then stage and commit the resolution").
		WithParam("conflicted_files", conflicted)
}

// TaskNotFound builds the standard unknown-task error.
func TaskNotFound(taskID string) *Error {
	e := New(CodeTaskNotFound, fmt.Sprintf("Task not found: %s", taskID))
	e.Ctx.Operation = "task_query"
	return e.
		WithDetails(fmt.Sprintf("Cannot find task with ID %s", taskID)).
		WithSuggestion("Verify the task_id is correct and the task hasn't expired").
		WithParam("task_id", taskID)
}

// TaskCancelled builds the error recorded when a task is cancelled.
func TaskCancelled(taskID string) *Error {
	e := New(CodeTaskCancelled, fmt.Sprintf("Task was cancelled: %s", taskID))
	e.Ctx.Operation = "task_cancel"
	return e.
		WithDetails(fmt.Sprintf("Task %s was cancelled before completion", taskID)).
		WithSuggestion("Create a new task to continue the operation").
		WithParam("task_id", taskID)
}

// TaskTimeout builds the error recorded when a task exceeds its deadline.
func TaskTimeout(taskID string, timeoutSeconds int) *Error {
	e := New(CodeTaskTimeout, fmt.Sprintf("Task timed out after %d seconds", timeoutSeconds))
	e.Ctx.Operation = "task_execution"
	return e.
		WithDetails(fmt.Sprintf("Task %s exceeded the configured timeout", taskID)).
		WithSuggestion("Increase the timeout value or simplify the operation").
		WithParam("task_id", taskID).
		WithParam("timeout_seconds", timeoutSeconds)
}

// ResourceExhausted builds a system resource-limit error.
func ResourceExhausted(message string) *Error {
	return New(CodeResourceExhausted, message)
}

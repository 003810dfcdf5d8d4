package gitops

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/gitmcp/gitmcp/internal/giterr"
	"github.com/gitmcp/gitmcp/internal/logfields"
	"github.com/gitmcp/gitmcp/internal/sanitize"
	"github.com/gitmcp/gitmcp/internal/vault"
)

// DefaultCommandTimeout bounds a single git invocation.
const DefaultCommandTimeout = 300 * time.Second

// CLI shells out to the git binary. It covers the operations go-git
// cannot express (stash, rebase, LFS, sparse checkout, submodules) and
// doubles as a full standalone backend.
type CLI struct {
	GitPath string
	Timeout time.Duration
	log     *slog.Logger
}

// NewCLI returns a CLI backend with default binary path and timeout.
func NewCLI() *CLI {
	return &CLI{
		GitPath: "git",
		Timeout: DefaultCommandTimeout,
		log:     slog.Default().With(slog.String("component", "gitops.cli")),
	}
}

var conflictFileRe = regexp.MustCompile(`\((.*?)\)`)

// run executes one git command in dir. Arguments are rejected when they
// carry shell metacharacters that survived upstream sanitization.
func (c *CLI) run(ctx context.Context, dir string, extraEnv []string, args ...string) (string, error) {
	for _, a := range args {
		if containsInjection(a) {
			return "", giterr.Validation(giterr.CodeInvalidTargetPath,
				"Argument contains unsafe characters").
				WithParam("argument", sanitize.TruncateText(a, 80, "...")).
				WithOperation("git " + args[0])
		}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.GitPath, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_TERMINAL_PROMPT=0",
		"LC_ALL=C",
	)
	cmd.Env = append(cmd.Env, extraEnv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	c.log.Debug("git command finished",
		logfields.Operation("git "+args[0]),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())),
	)

	if err == nil {
		return stdout.String(), nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return "", giterr.New(giterr.CodeTimeout,
			fmt.Sprintf("Git command timed out after %d seconds", int(timeout.Seconds()))).
			WithSuggestion("Try increasing the timeout or reducing the operation scope").
			WithOperation("git " + args[0])
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return stdout.String(), classifyGitError(args[0], exitCode, stderr.String())
}

// containsInjection reports whether an argument still holds shell
// metacharacters. Option flags, revisions, and pathspecs pass; anything
// with command substitution or separators does not.
func containsInjection(arg string) bool {
	return strings.ContainsAny(arg, ";&|`$<>") ||
		strings.Contains(arg, "\n") ||
		strings.Contains(arg, "\x00")
}

// classifyGitError maps git stderr text onto the error taxonomy.
func classifyGitError(op string, exitCode int, stderr string) *giterr.Error {
	lower := strings.ToLower(stderr)
	details := sanitize.Redact(strings.TrimSpace(stderr))

	switch {
	case strings.Contains(lower, "authentication failed"),
		strings.Contains(lower, "could not read username"):
		return giterr.AuthFailed("Authentication failed").
			WithDetails(details).
			WithOperation("git " + op)

	case strings.Contains(lower, "not a git repository"):
		return giterr.New(giterr.CodeGitNotARepo, "Not a git repository").
			WithDetails(details).
			WithOperation("git " + op)

	case strings.Contains(lower, "repository not found"),
		strings.Contains(lower, "does not exist"):
		return giterr.New(giterr.CodeRepoNotFound, "Repository not found").
			WithDetails(details).
			WithOperation("git " + op)

	case strings.Contains(lower, "[rejected]"),
		strings.Contains(lower, "non-fast-forward"),
		strings.Contains(lower, "failed to push some refs"):
		return giterr.New(giterr.CodeGitPushRejected, "Push rejected by remote").
			WithDetails(details).
			WithSuggestion("Pull the latest changes and try again").
			WithOperation("git " + op)

	case strings.Contains(lower, "merge conflict"),
		strings.Contains(lower, "conflict"):
		files := conflictedFilesFromStderr(stderr)
		e := giterr.MergeConflict(files).
			WithDetails(details).
			WithOperation("git " + op)
		if op == "rebase" {
			e.Code = giterr.CodeGitRebaseConflict
		}
		return e

	case strings.Contains(lower, "could not resolve commit"),
		strings.Contains(lower, "unknown revision"):
		return giterr.New(giterr.CodeGitCommandFailed, "Invalid revision").
			WithDetails(details).
			WithOperation("git " + op)

	case strings.Contains(lower, "nothing to commit"):
		return giterr.New(giterr.CodeGitNoChanges, "No changes to commit").
			WithOperation("git " + op)

	case strings.Contains(lower, "could not resolve host"),
		strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "connection timed out"):
		return giterr.New(giterr.CodeNetworkError, "Network error during git operation").
			WithDetails(details).
			WithOperation("git " + op)
	}

	return giterr.New(giterr.CodeGitCommandFailed,
		fmt.Sprintf("Git command failed with return code %d", exitCode)).
		WithDetails(details).
		WithOperation("git " + op)
}

// conflictedFilesFromStderr extracts paths from "CONFLICT (...)" lines.
func conflictedFilesFromStderr(stderr string) []string {
	var files []string
	for _, line := range strings.Split(stderr, "\n") {
		if !strings.Contains(line, "CONFLICT") {
			continue
		}
		if m := conflictFileRe.FindStringSubmatch(line); m != nil {
			files = append(files, m[1])
		}
	}
	if len(files) == 0 {
		files = []string{"unknown"}
	}
	return files
}

// credentialEnv translates a credential into environment variables the
// git binary honors. Secrets travel through the environment, never argv.
func credentialEnv(cred *vault.Credential) []string {
	if cred == nil {
		return nil
	}
	switch cred.AuthType {
	case vault.AuthToken, vault.AuthUsernamePassword:
		pw := cred.BasicPassword()
		if pw == nil {
			return nil
		}
		basic := base64.StdEncoding.EncodeToString(
			[]byte(cred.BasicUsername() + ":" + pw.Reveal()))
		return []string{
			"GIT_CONFIG_COUNT=1",
			"GIT_CONFIG_KEY_0=http.extraHeader",
			"GIT_CONFIG_VALUE_0=Authorization: Basic " + basic,
		}
	case vault.AuthSSHKey:
		return []string{
			"GIT_SSH_COMMAND=ssh -i " + cred.SSHKeyPath +
				" -o IdentitiesOnly=yes -o StrictHostKeyChecking=accept-new",
		}
	case vault.AuthSSHAgent:
		// SSH_AUTH_SOCK is inherited from the process environment.
		return nil
	}
	return nil
}

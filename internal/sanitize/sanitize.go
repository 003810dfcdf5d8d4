// Package sanitize implements the input validation rules guarding every
// caller-supplied string before it reaches a Git backend or the filesystem.
package sanitize

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gitmcp/gitmcp/internal/giterr"
)

// MaxInputLength caps free-form input after normalization.
const MaxInputLength = 1000

// MaxCommitMessageLength caps commit messages.
const MaxCommitMessageLength = 10000

var (
	shellMeta  = regexp.MustCompile(`[;&|` + "`" + `$(){}[\]<>\\"']`)
	lineBreaks = regexp.MustCompile("[\n\r\x00]")
	multiSpace = regexp.MustCompile(`\s+`)

	// Command fragments stripped from free-form input. Matching is
	// case-insensitive; each pattern removes the command and its
	// immediate arguments.
	dangerousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\brm\b[^\s;]*\s*(?:-[a-z]+|--[a-z-]+)?\s*[^\s;]*`),
		regexp.MustCompile(`(?i)\bcat\b\s+/etc/[^\s;]*`),
		regexp.MustCompile(`(?i)\bcat\b\s+/root/[^\s;]*`),
		regexp.MustCompile(`(?i)\bpasswd\b\s+/etc/[^\s;]*`),
		regexp.MustCompile(`(?i)\bsudo\b\s+-[a-z]+\s+[^\s;]*`),
		regexp.MustCompile(`(?i)\bchmod\b\s+[0-7]{3,4}\s+[^\s;]*`),
		regexp.MustCompile(`(?i)\bchown\b\s+[^\s;]+:[^\s;]*\s+[^\s;]*`),
		regexp.MustCompile(`(?i)\bwget\b\s+https?://[^\s;]*`),
		regexp.MustCompile(`(?i)\bcurl\b\s+https?://[^\s;]*`),
		regexp.MustCompile(`(?i)\bnc\b\s+-[lc]\s+[^\s;]*`),
		regexp.MustCompile(`(?i)\bbash\b\s+-c\s+[^\s;]*`),
		regexp.MustCompile(`(?i)\bsh\b\s+-c\s+[^\s;]*`),
		regexp.MustCompile(`(?i)\bpython\b\s+-[cE]\s+[^\s;]*`),
		regexp.MustCompile(`(?i)\bperl\s+-e\s+[^\s;]*`),
		regexp.MustCompile(`(?i)/etc/passwd`),
		regexp.MustCompile(`(?i)/etc/shadow`),
		regexp.MustCompile(`(?i)/etc/sudoers`),
		regexp.MustCompile(`(?i)/root/`),
		regexp.MustCompile(`(?i)/home/`),
		regexp.MustCompile(`\$`),
		regexp.MustCompile("`"),
	}

	// Bare hyphens are likely leftover command flags once the command
	// itself has been excised.
	bareHyphen = regexp.MustCompile(`(^|[^\w])-($|[^\w])`)
)

// branchInvalidChars may never appear in a branch name per git ref
// naming rules. These are rejected, not stripped: silently rewriting a
// ref name would point the operation at a different branch.
const branchInvalidChars = " ~^:?*[\\@{"

// reserved ref names that may never be used as branch names.
var reservedBranchNames = map[string]bool{
	"HEAD":        true,
	"FETCH_HEAD":  true,
	"ORIG_HEAD":   true,
	"ORIGIN_HEAD": true,
}

// Input sanitizes free-form user input: truncates to MaxInputLength,
// strips shell metacharacters, line breaks, NUL bytes, and known command
// injection fragments, then collapses whitespace.
func Input(s string) string {
	if s == "" {
		return s
	}

	if len(s) > MaxInputLength {
		s = s[:MaxInputLength]
	}

	s = shellMeta.ReplaceAllString(s, "")
	s = lineBreaks.ReplaceAllString(s, "")

	for _, p := range dangerousPatterns {
		s = p.ReplaceAllString(s, "")
	}

	s = bareHyphen.ReplaceAllString(s, "$1$2")
	s = multiSpace.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}

// Path resolves p and verifies it stays inside base. Returns the cleaned
// absolute path or a typed validation error on traversal.
func Path(p, base string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", giterr.Wrap(err, giterr.CodeInvalidTargetPath, fmt.Sprintf("cannot resolve base path: %s", base))
	}
	absTarget, err := filepath.Abs(p)
	if err != nil {
		return "", giterr.Wrap(err, giterr.CodeInvalidTargetPath, fmt.Sprintf("cannot resolve path: %s", p))
	}

	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", giterr.New(giterr.CodeInvalidTargetPath,
			fmt.Sprintf("Path traversal attempt detected: %s is outside %s", p, base)).
			WithSuggestion("Use a path inside the workspace root")
	}

	return absTarget, nil
}

// BranchName validates a branch name: rejects empty names, names
// containing any of branchInvalidChars, reserved ref names, and names
// starting with '/'. Remaining shell metacharacters are stripped.
func BranchName(name string) (string, error) {
	if name == "" {
		return "", giterr.New(giterr.CodeInvalidBranchName, "Branch name cannot be empty")
	}
	if strings.ContainsAny(name, branchInvalidChars) {
		return "", giterr.New(giterr.CodeInvalidBranchName, fmt.Sprintf("Invalid branch name: %s", name)).
			WithSuggestion("Branch names must not start with '/' or contain special characters")
	}

	cleaned := strings.TrimSpace(shellMeta.ReplaceAllString(name, ""))
	if cleaned == "" {
		return "", giterr.New(giterr.CodeInvalidBranchName, "Branch name contains only invalid characters")
	}
	if reservedBranchNames[cleaned] {
		return "", giterr.New(giterr.CodeInvalidBranchName, fmt.Sprintf("Reserved branch name: %s", cleaned))
	}
	if strings.HasPrefix(cleaned, "/") {
		return "", giterr.New(giterr.CodeInvalidBranchName, fmt.Sprintf("Branch name cannot start with '/': %s", cleaned))
	}

	return cleaned, nil
}

var remoteURLPrefixes = []string{"https://", "http://", "git://", "ssh://", "git@", "/"}

// RemoteURL validates a remote URL: no shell metacharacters or line
// breaks, non-empty after trimming, and a recognized scheme or path form.
func RemoteURL(url string) (string, error) {
	if shellMeta.MatchString(url) || strings.ContainsAny(url, "\n\r") {
		return "", giterr.New(giterr.CodeInvalidRemoteURL, fmt.Sprintf("Invalid characters in URL: %s", url))
	}

	url = strings.TrimSpace(url)
	if url == "" {
		return "", giterr.New(giterr.CodeInvalidRemoteURL, "URL cannot be empty")
	}

	lower := strings.ToLower(url)
	for _, prefix := range remoteURLPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return url, nil
		}
	}
	return "", giterr.New(giterr.CodeInvalidRemoteURL, fmt.Sprintf("Invalid URL format: %s", url)).
		WithSuggestion("Use an https://, ssh://, git://, git@ or absolute-path URL")
}

// CommitMessage strips NUL bytes, caps length, and trims whitespace.
func CommitMessage(message string) string {
	message = strings.ReplaceAll(message, "\x00", "")
	if len(message) > MaxCommitMessageLength {
		message = message[:MaxCommitMessageLength]
	}
	return strings.TrimSpace(message)
}

// TruncateText shortens text to maxLength, appending suffix when cut.
func TruncateText(text string, maxLength int, suffix string) string {
	if len(text) <= maxLength {
		return text
	}
	return text[:maxLength-len(suffix)] + suffix
}

// FormatBytes renders a byte count in human-readable units.
func FormatBytes(size float64) string {
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if size < 1024 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f PB", size)
}

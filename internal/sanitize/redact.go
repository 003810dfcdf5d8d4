package sanitize

import "regexp"

// redaction rules applied to log output and wire error text before it
// leaves the process. Order matters: URL userinfo before generic tokens.
var redactRules = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	// Userinfo embedded in URLs.
	{regexp.MustCompile(`(?i)(https?://)[^:/\s]+:[^@\s]+@`), "${1}***:***@"},
	{regexp.MustCompile(`(?i)(mongodb://|postgres://)[^:/\s]+:[^@\s]+@`), "${1}***:***@"},

	// Key/value secrets.
	{regexp.MustCompile(`(?i)(password[=:]\s*)\S+`), "${1}***"},
	{regexp.MustCompile(`(?i)(token[=:]\s*)\S+`), "${1}***"},
	{regexp.MustCompile(`(?i)(secret[=:]\s*)\S+`), "${1}***"},
	{regexp.MustCompile(`(?i)(api[_-]?key[=:]\s*)\S+`), "${1}***"},
	{regexp.MustCompile(`(?i)(access[_-]?token[=:]\s*)\S+`), "${1}***"},

	// HTTP Authorization headers.
	{regexp.MustCompile(`(?i)(authorization:\s*)\S+(\s+\S+)?`), "${1}***"},

	// PEM private key blocks, across lines.
	{regexp.MustCompile(`(?is)(-----BEGIN[ A-Z]*PRIVATE KEY-----).*?(-----END[ A-Z]*PRIVATE KEY-----)`), "${1}***${2}"},

	// Home directories leak usernames.
	{regexp.MustCompile(`/home/[^/\s]+/`), "/home/****/"},
	{regexp.MustCompile(`/Users/[^/\s]+/`), "/Users/****/"},
}

// Redact masks credentials, tokens, authorization headers, URL userinfo,
// and PEM private-key blocks in s. Used by the logging handler and by the
// error path before anything reaches stderr or the wire.
func Redact(s string) string {
	if s == "" {
		return s
	}
	for _, r := range redactRules {
		s = r.pattern.ReplaceAllString(s, r.replacement)
	}
	return s
}

package logging

import (
	"errors"
	"regexp"
	"strings"
)

// secretPatterns find credentials in free text. The last submatch of each
// pattern is the secret itself.
var secretPatterns = []*regexp.Regexp{
	// Telegram puts the bot token in the request path
	regexp.MustCompile(`/bot(\d+:[A-Za-z0-9_-]+)`),
	regexp.MustCompile(`(?i)\b(api[_-]?key|key[_-]?id|secret[_-]?key|bot[_-]?token|token|password)(["']?\s*[=:]\s*["']?)([^\s"'&,;]+)`),
}

// MaskCredential keeps at most the first and last four characters of value.
func MaskCredential(value string) string {
	switch {
	case len(value) == 0:
		return ""
	case len(value) <= 4:
		return strings.Repeat("*", len(value))
	case len(value) <= 8:
		return value[:2] + strings.Repeat("*", len(value)-2)
	default:
		return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
	}
}

// Redact masks every credential found in s.
func Redact(s string) string {
	for _, pattern := range secretPatterns {
		s = pattern.ReplaceAllStringFunc(s, func(match string) string {
			groups := pattern.FindStringSubmatchIndex(match)
			start, end := groups[len(groups)-2], groups[len(groups)-1]
			return match[:start] + MaskCredential(match[start:end]) + match[end:]
		})
	}
	return s
}

// RedactError returns err with credentials masked from its message. The
// result no longer wraps err; callers that need errors.Is must check first.
func RedactError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	redacted := Redact(msg)
	if redacted == msg {
		return err
	}
	return errors.New(redacted)
}

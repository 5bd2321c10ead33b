// Package redact scrubs sensitive fragments from strings before they are
// logged. Database errors in particular can carry connection strings or
// whole SQL statements, neither of which belongs in a log line.
package redact

import "regexp"

// Placeholder substituted for a scrubbed fragment.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	SQLPlaceholder        = "[REDACTED_SQL]"
	HostPlaceholder       = "[REDACTED_HOST]"
	PathPlaceholder       = "[REDACTED_PATH]"
)

var (
	// Connection strings with embedded credentials, e.g. postgres://u:p@host.
	connStringRe = regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@`)

	// SQL statements leaked through driver errors.
	sqlRe = regexp.MustCompile(
		`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)[\s\w,*()]+(?:FROM|INTO|SET|TABLE|INDEX)(?:[\s\w,*()='"$]+)?`,
	)

	// host:port pairs, typically from dial errors.
	hostPortRe = regexp.MustCompile(
		`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`,
	)

	// Filesystem paths, typically from config or migration errors.
	unixPathRe = regexp.MustCompile(`(/[\w.-]+){2,}`)

	replacements = []struct {
		re          *regexp.Regexp
		placeholder string
	}{
		{connStringRe, CredentialPlaceholder},
		{sqlRe, SQLPlaceholder},
		{hostPortRe, HostPlaceholder},
		{unixPathRe, PathPlaceholder},
	}
)

// String redacts sensitive fragments from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range replacements {
		result = r.re.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive fragments from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

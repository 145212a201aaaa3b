package logger

import "strings"

// sensitive query parameter names, matched as substrings
var sensitiveParams = []string{
	"password",
	"token",
	"secret",
	"auth",
	"email",
}

// SanitizeQueryString reports whether a raw query string carries a sensitive
// parameter and must be redacted wholesale from request logs.
func SanitizeQueryString(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}

// SanitizedEmail masks an email address for logging (e.g. "a***@e***.com").
// Audit records keep usernames in the clear but never full email addresses.
func SanitizedEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "[invalid-email]"
	}

	username := parts[0]
	if len(username) > 1 {
		username = string(username[0]) + strings.Repeat("*", len(username)-1)
	}

	domainParts := strings.Split(parts[1], ".")
	for i := 0; i < len(domainParts)-1; i++ {
		domainParts[i] = strings.Repeat("*", len(domainParts[i]))
	}

	return username + "@" + strings.Join(domainParts, ".")
}

package logger

import (
	"net/url"
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g., "u***@*******.com")
func SanitizedEmail(email string) string {
	user, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "[invalid-email]"
	}

	if len(user) > 1 {
		user = user[:1] + strings.Repeat("*", len(user)-1)
	}

	// Keep only the top-level domain readable
	if i := strings.LastIndex(domain, "."); i > 0 {
		domain = strings.Repeat("*", i) + domain[i:]
	}

	return user + "@" + domain
}

// sensitiveParams are query keys whose values may carry credentials or
// personal data from employee records.
var sensitiveParams = []string{
	"token", "secret", "auth",
	"email", "phone", "nric", "passport", "salary", "bank",
}

// SensitiveQuery reports whether a raw query string should be redacted from logs.
// Keys are matched by substring so that e.g. personal_email is caught.
func SensitiveQuery(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		// Unparseable queries are not logged verbatim
		return true
	}
	for key := range values {
		key = strings.ToLower(key)
		for _, p := range sensitiveParams {
			if strings.Contains(key, p) {
				return true
			}
		}
	}
	return false
}

package repository

import "strings"

// isUniqueViolation reports whether the error is a unique constraint
// violation. The only unique constraint in the schema is samples.sha256,
// so a hit means the image content was already ingested.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate key")
}

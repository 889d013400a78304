package validation

import (
	"strings"
)

var commonPasswordPatterns = []string{
	"password", "123456", "qwerty", "admin", "letmein",
	"welcome", "monkey", "dragon", "master", "sunshine",
}

// ValidatePassword enforces NIST guidance: at least 12 characters and no common patterns
func ValidatePassword(password string) error {
	if len(password) < 12 {
		return fieldError("password", "password must be at least 12 characters")
	}

	// bcrypt silently truncates input past 72 bytes
	if len(password) > 72 {
		return fieldError("password", "password must not exceed 72 characters")
	}

	lower := strings.ToLower(password)
	for _, pattern := range commonPasswordPatterns {
		if strings.Contains(lower, pattern) {
			return fieldError("password", "password is too common, please choose a stronger one")
		}
	}

	return nil
}

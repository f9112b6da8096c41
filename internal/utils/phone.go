package utils

import (
	"regexp"
	"strings"
)

var phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

func IsValidPhone(phone string) bool {
	// Remove all non-digit characters except +
	cleaned := regexp.MustCompile(`[^\d+]`).ReplaceAllString(phone, "")

	// Basic E.164 format validation
	return phoneRegex.MatchString(cleaned)
}

func NormalizePhone(phone string) string {
	// Remove all spaces, dashes, parentheses, etc.
	normalized := regexp.MustCompile(`[^\d+]`).ReplaceAllString(phone, "")

	if !strings.HasPrefix(normalized, "+") {
		normalized = "+" + normalized
	}

	return normalized
}

// ShadowUserID derives the implicit citizen identity used when an SOS comes
// in with a phone number but no authenticated session.
func ShadowUserID(phone string) string {
	return "phone:" + NormalizePhone(phone)
}

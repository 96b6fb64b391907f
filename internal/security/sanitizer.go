package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.StrictPolicy()

// SanitizeString removes potentially dangerous characters from user text
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	if len(input) > 1000 {
		input = input[:1000]
	}

	return input
}

// SanitizeHTML removes all HTML tags
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// SanitizeProfileText applies both passes to user-authored profile fields
func SanitizeProfileText(input string) string {
	return SanitizeString(SanitizeHTML(input))
}

// ValidateNickname checks nickname length bounds after sanitization
func ValidateNickname(nickname string) bool {
	length := len([]rune(nickname))
	return length >= 2 && length <= 50
}

package util

import "strings"

const EmptyString = ""

func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == EmptyString
}

// Mask hides all but the first two characters of a secret before it is
// logged.
func Mask(secret string) string {
	if len(secret) <= 2 {
		return strings.Repeat("*", len(secret))
	}

	return secret[:2] + strings.Repeat("*", len(secret)-2)
}

package utils

import (
	"strings"
	"unicode"
)

// DefaultUsernameBase is used when a display name has no usable characters.
const DefaultUsernameBase = "user"

// SlugifyUsername lower-cases name and strips every character that is not an
// ASCII letter or digit.
func SlugifyUsername(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return DefaultUsernameBase
	}
	return b.String()
}

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// IsValidUsername accepts 3 to 30 ASCII letters, digits, '_', '.' or '-'.
func IsValidUsername(username string) bool {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return false
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '.' || r == '-':
		default:
			return false
		}
	}
	return true
}

package utils

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PasswordSymbols is the set of symbols the password policy accepts as "special".
const PasswordSymbols = "@$!%*?&"

// MinPasswordLength is the shortest password the policy accepts.
const MinPasswordLength = 8

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPasswordHash compares a plaintext password with a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsStrongPassword reports whether password has at least MinPasswordLength
// characters and contains a lowercase letter, an uppercase letter, a digit and
// one of PasswordSymbols.
func IsStrongPassword(password string) bool {
	if len([]rune(password)) < MinPasswordLength {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

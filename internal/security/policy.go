package security

import (
	"errors"
	"unicode"
)

// ErrPasswordTooWeak is returned when a password fails the complexity policy.
var ErrPasswordTooWeak = errors.New("password does not meet complexity requirements")

const minPasswordLength = 8

// ValidatePasswordComplexity enforces the account password policy: minimum
// length 8 with at least one uppercase letter, one lowercase letter, one
// digit, and one special character. Whitespace is not a special character, so
// "Test 123A" fails even though a space is non-alphanumeric.
func ValidatePasswordComplexity(password string) error {
	runes := []rune(password)
	if len(runes) < minPasswordLength {
		return ErrPasswordTooWeak
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			// uncased letters and non-decimal numbers satisfy no class
		case !unicode.IsSpace(r):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return ErrPasswordTooWeak
	}
	return nil
}

package auth

import (
	"unicode"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 64
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

// PolicyViolation is a password policy failure. Its text is shown to users verbatim.
type PolicyViolation string

func (v PolicyViolation) Error() string { return string(v) }

const (
	ErrPasswordTooShort PolicyViolation = "The password has to be at least 8 characters long."
	ErrPasswordTooLong  PolicyViolation = "The password cannot contain more than 64 characters."
	ErrPasswordTooLarge PolicyViolation = "The password cannot be longer than 72 bytes. Use fewer accented or non-Latin characters."
	ErrPasswordTooWeak  PolicyViolation = "The password needs to contain at least one uppercase letter, one lowercase letter, one number, and one special character."
)

// CheckPasswordPolicy enforces 8 to 64 characters with at least one lowercase
// letter, one uppercase letter, one digit and one special character. A special
// character is anything outside [A-Za-z0-9_] that is not whitespace. The UTF-8
// encoding must also fit in MaxPasswordBytes.
func CheckPasswordPolicy(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if n > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLarge
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case r == '_' || unicode.IsSpace(r):
		default:
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return ErrPasswordTooWeak
	}
	return nil
}

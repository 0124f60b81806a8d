// Package validate checks credential shape for sign-up and sign-in input.
package validate

import (
	"regexp"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Password rule messages, surfaced directly to the user.
const (
	MsgPasswordTooShort = "A senha deve ter pelo menos 8 caracteres"
	MsgPasswordNoLower  = "A senha deve conter pelo menos uma letra minúscula"
	MsgPasswordNoUpper  = "A senha deve conter pelo menos uma letra maiúscula"
	MsgPasswordNoDigit  = "A senha deve conter pelo menos um número"
)

// Email reports whether s has the shape local@domain.tld with no whitespace.
// Deliberately permissive; it only rejects obviously malformed addresses.
func Email(s string) bool {
	return emailRegex.MatchString(s)
}

// PasswordResult carries the outcome of a password strength check.
// When OK is false, Message holds the user-facing reason.
type PasswordResult struct {
	OK      bool
	Message string
}

// Password checks strength rules in fixed order; the first failing rule
// determines the message. The ordering is a contract: a password failing
// several rules always reports the earliest one.
func Password(s string) PasswordResult {
	// Length is counted in runes so accented characters count once.
	if utf8.RuneCountInString(s) < 8 {
		return PasswordResult{Message: MsgPasswordTooShort}
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}

	switch {
	case !hasLower:
		return PasswordResult{Message: MsgPasswordNoLower}
	case !hasUpper:
		return PasswordResult{Message: MsgPasswordNoUpper}
	case !hasDigit:
		return PasswordResult{Message: MsgPasswordNoDigit}
	}
	return PasswordResult{OK: true}
}

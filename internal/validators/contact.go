package validators

import (
	"net/mail"
	"strings"
	"unicode"
)

// IsEmailFormatValid checks the address syntax without touching DNS.
func IsEmailFormatValid(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return strings.Contains(email[at+1:], ".")
}

// IsPhoneValid accepts E.164-like numbers: an optional leading +, then 10
// to 15 digits. Spaces, dashes and parentheses are ignored.
func IsPhoneValid(phone string) bool {
	digits := 0
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 10 && digits <= 15
}

// HasVerifiableContact reports whether a portal invite can reach the
// client by email or phone.
func HasVerifiableContact(email, phone string) bool {
	return IsEmailFormatValid(email) || IsPhoneValid(phone)
}

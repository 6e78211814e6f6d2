package contact

import "regexp"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks the rough shape local@domain.tld. It is a typo
// guard, not an RFC 5322 parser.
func ValidateEmail(addr string) error {
	if !emailPattern.MatchString(addr) {
		return &ValidationError{Field: Email, Message: InvalidEmailMessage}
	}
	return nil
}

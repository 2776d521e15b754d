package submission

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const minPhoneDigits = 10

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError carries the message shown to the submitter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type requiredField struct {
	name  string
	value func(*Payload) string
}

// checked in this order; the first blank one is reported
var requiredFields = []requiredField{
	{"fullName", func(p *Payload) string { return p.FullName }},
	{"email", func(p *Payload) string { return p.Email }},
	{"phone", func(p *Payload) string { return p.Phone }},
	{"address1", func(p *Payload) string { return p.Address1 }},
	{"city", func(p *Payload) string { return p.City }},
	{"state", func(p *Payload) string { return p.State }},
	{"zip", func(p *Payload) string { return p.Zip }},
}

// Validate checks required fields, then the email shape, then the phone digit
// count, and returns a *ValidationError for the first failure.
func Validate(p *Payload) error {
	for _, f := range requiredFields {
		if strings.TrimSpace(f.value(p)) == "" {
			return &ValidationError{
				Field:   f.name,
				Message: fmt.Sprintf("Missing required field: %s", f.name),
			}
		}
	}

	email := strings.TrimSpace(p.Email)
	if !emailPattern.MatchString(email) || strings.IndexFunc(email, isSpace) >= 0 {
		return &ValidationError{Field: "email", Message: "Invalid email address."}
	}

	if countDigits(p.Phone) < minPhoneDigits {
		return &ValidationError{Field: "phone", Message: "Invalid phone number."}
	}

	return nil
}

// isSpace matches the whitespace a browser's \s does. RE2's \s is narrower:
// it misses \v, no-break spaces, the line separators and the BOM.
func isSpace(r rune) bool {
	if r == '\uFEFF' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

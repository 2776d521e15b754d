// Package submission holds the address submission payload, its validation
// and the spreadsheet row projection.
package submission

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision, matching
// what browsers produce for submittedAt.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrMalformed reports a request body that is not a JSON payload object.
var ErrMalformed = errors.New("malformed submission body")

// Payload is one address submission as posted by the form. Unknown fields are
// tolerated; the original bytes are kept so the webhook sink can receive them
// unchanged.
type Payload struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	State       string `json:"state"`
	Zip         string `json:"zip"`
	SubmittedAt string `json:"submittedAt"`
	UserAgent   string `json:"userAgent"`

	// FortuneCookieHope is only collected by one form variant.
	FortuneCookieHope string `json:"fortuneCookieHope,omitempty"`

	raw json.RawMessage
}

// Decode reads a payload from r. Anything that is not a single JSON object
// with string-typed fields yields an error wrapping ErrMalformed.
func Decode(r io.Reader) (*Payload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}

	var p Payload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	p.raw = json.RawMessage(trimmed)
	return &p, nil
}

// JSON returns the payload as it was received, or its encoding when the
// payload was built in code.
func (p *Payload) JSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	return json.Marshal(p)
}

// Row projects the payload onto the ten spreadsheet columns A..J. now is used
// when the client did not send submittedAt.
func (p *Payload) Row(now time.Time) []string {
	submittedAt := p.SubmittedAt
	if submittedAt == "" {
		submittedAt = now.UTC().Format(TimestampLayout)
	}
	return []string{
		submittedAt,
		p.FullName,
		p.Email,
		p.Phone,
		p.Address1,
		p.Address2,
		p.City,
		p.State,
		p.Zip,
		p.UserAgent,
	}
}

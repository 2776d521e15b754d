package requester

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// BuildRequest turns a RequestSpec into an *http.Request bound to ctx
func BuildRequest(ctx context.Context, spec RequestSpec) (*http.Request, error) {
	u, err := url.Parse(spec.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL: %w", redactURLError(err))
	}
	if len(spec.Query) > 0 {
		q := u.Query()
		for key, values := range spec.Query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if spec.Body != nil {
		body = bytes.NewReader(spec.Body)
	}

	method := spec.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", redactURLError(err))
	}

	for key, value := range spec.Headers {
		httpReq.Header.Set(key, value)
	}
	if spec.ContentType != "" {
		httpReq.Header.Set("Content-Type", spec.ContentType)
	}

	auth := spec.Auth
	if auth == nil {
		auth = NoAuth{}
	}
	if err := auth.ApplyAuth(httpReq); err != nil {
		return nil, fmt.Errorf("failed to apply authentication: %w", err)
	}

	return httpReq, nil
}

// RedactURL renders u without its query string and user info, which may
// carry credentials.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	c.User = nil
	c.RawQuery = ""
	c.ForceQuery = false
	return c.String()
}

// redactURLError drops the URL from *url.Error so a token in the query
// string cannot reach logs through the error text.
func redactURLError(err error) error {
	if ue, ok := err.(*url.Error); ok {
		if parsed, perr := url.Parse(ue.URL); perr == nil {
			return &url.Error{Op: ue.Op, URL: RedactURL(parsed), Err: ue.Err}
		}
		return &url.Error{Op: ue.Op, URL: "[redacted]", Err: ue.Err}
	}
	return err
}

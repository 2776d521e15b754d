package requester

import (
	"net/http"
	"net/url"
)

// RequestSpec describes one outbound call
type RequestSpec struct {
	Method      string
	URL         string
	Query       url.Values // merged into the URL's existing query
	Body        []byte
	ContentType string
	Headers     map[string]string
	Auth        AuthManager // nil means no authentication
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

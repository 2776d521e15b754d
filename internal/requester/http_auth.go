package requester

import (
	"errors"
	"net/http"

	"golang.org/x/oauth2"
)

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// NoAuth leaves the request untouched
type NoAuth struct{}

func (NoAuth) ApplyAuth(*http.Request) error { return nil }

// QueryTokenAuth carries a shared secret as a URL query parameter
type QueryTokenAuth struct {
	Param string
	Token string
}

func (a QueryTokenAuth) ApplyAuth(req *http.Request) error {
	if a.Token == "" {
		return nil
	}
	if a.Param == "" {
		return errors.New("query token auth: parameter name is empty")
	}
	q := req.URL.Query()
	q.Set(a.Param, a.Token)
	req.URL.RawQuery = q.Encode()
	return nil
}

// BearerAuth sets the Authorization header from an OAuth2 access token
type BearerAuth struct {
	Token *oauth2.Token
}

func (a BearerAuth) ApplyAuth(req *http.Request) error {
	if a.Token == nil || a.Token.AccessToken == "" {
		return errors.New("bearer auth: access token is empty")
	}
	a.Token.SetAuthHeader(req)
	return nil
}

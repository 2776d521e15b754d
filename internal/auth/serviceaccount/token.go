package serviceaccount

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brizzai/address-relay/internal/auth/constants"
	"github.com/brizzai/address-relay/internal/logger"
	"github.com/brizzai/address-relay/internal/requester"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ErrMissingAccessToken means the token endpoint answered 2xx without an
// access_token. It is a protocol error, not an HTTP failure.
var ErrMissingAccessToken = errors.New("token response has no access_token")

// UpstreamAuthError is a non-2xx answer from the token endpoint.
type UpstreamAuthError struct {
	StatusCode int
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("token exchange failed with status %d", e.StatusCode)
}

// AccessToken is a bearer token owned by the single request that fetched it.
type AccessToken struct {
	Value      string
	TokenType  string
	ObtainedAt time.Time
	TTL        time.Duration
}

// OAuth2 converts the token for use with golang.org/x/oauth2 helpers.
func (t *AccessToken) OAuth2() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken: t.Value,
		TokenType:   t.TokenType,
	}
	if t.TTL > 0 {
		tok.Expiry = t.ObtainedAt.Add(t.TTL)
	}
	return tok
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// TokenClient exchanges signed assertions at a token endpoint.
type TokenClient struct {
	requester *requester.HTTPRequester
	tokenURL  string
	now       func() time.Time
}

func NewTokenClient(r *requester.HTTPRequester, tokenURL string) *TokenClient {
	if tokenURL == "" {
		tokenURL = constants.DefaultTokenURL
	}
	return &TokenClient{requester: r, tokenURL: tokenURL, now: time.Now}
}

// Exchange performs one form-encoded POST with the jwt-bearer grant.
func (c *TokenClient) Exchange(ctx context.Context, assertion string) (*AccessToken, error) {
	form := url.Values{}
	form.Set("grant_type", constants.JWTBearerGrantType)
	form.Set("assertion", assertion)

	resp, err := c.requester.Execute(ctx, requester.RequestSpec{
		Method:      http.MethodPost,
		URL:         c.tokenURL,
		Body:        []byte(form.Encode()),
		ContentType: "application/x-www-form-urlencoded",
		Headers:     map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	if !resp.OK() {
		logger.FromContext(ctx).Error("token endpoint rejected assertion",
			zap.Int("status", resp.StatusCode),
			zap.String("detail", strings.TrimSpace(string(resp.Body))),
		)
		return nil, &UpstreamAuthError{StatusCode: resp.StatusCode}
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil {
		return nil, fmt.Errorf("token exchange: decode response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}

	tokenType := tr.TokenType
	if tokenType == "" {
		tokenType = constants.TokenType
	}
	return &AccessToken{
		Value:      tr.AccessToken,
		TokenType:  tokenType,
		ObtainedAt: c.now(),
		TTL:        time.Duration(tr.ExpiresIn) * time.Second,
	}, nil
}

package serviceaccount

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brizzai/address-relay/internal/auth/constants"
	"github.com/brizzai/address-relay/internal/config"
	"github.com/brizzai/address-relay/internal/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequester() *requester.HTTPRequester {
	return requester.NewHTTPRequester(requester.HTTPRequesterParams{Config: &config.Config{}})
}

func TestTokenClient_Exchange(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, tok *AccessToken, err error)
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body:   `{"access_token":"ya29.fake","token_type":"Bearer","expires_in":3599}`,
			check: func(t *testing.T, tok *AccessToken, err error) {
				require.NoError(t, err)
				assert.Equal(t, "ya29.fake", tok.Value)
				assert.Equal(t, "Bearer", tok.TokenType)
				assert.Equal(t, 3599*time.Second, tok.TTL)
			},
		},
		{
			name:   "token type defaults to bearer",
			status: http.StatusOK,
			body:   `{"access_token":"abc"}`,
			check: func(t *testing.T, tok *AccessToken, err error) {
				require.NoError(t, err)
				assert.Equal(t, constants.TokenType, tok.TokenType)
				assert.Zero(t, tok.TTL)
			},
		},
		{
			name:   "rejected assertion",
			status: http.StatusBadRequest,
			body:   `{"error":"invalid_grant","error_description":"Invalid JWT Signature."}`,
			check: func(t *testing.T, tok *AccessToken, err error) {
				assert.Nil(t, tok)
				var upstream *UpstreamAuthError
				require.ErrorAs(t, err, &upstream)
				assert.Equal(t, http.StatusBadRequest, upstream.StatusCode)
				assert.NotContains(t, err.Error(), "Invalid JWT Signature")
			},
		},
		{
			name:   "missing access token",
			status: http.StatusOK,
			body:   `{"token_type":"Bearer"}`,
			check: func(t *testing.T, tok *AccessToken, err error) {
				assert.Nil(t, tok)
				assert.True(t, errors.Is(err, ErrMissingAccessToken))
			},
		},
		{
			name:   "undecodable body",
			status: http.StatusOK,
			body:   `<html>`,
			check: func(t *testing.T, tok *AccessToken, err error) {
				assert.Nil(t, tok)
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
				require.NoError(t, r.ParseForm())
				assert.Equal(t, constants.JWTBearerGrantType, r.PostForm.Get("grant_type"))
				assert.Equal(t, "signed.assertion.value", r.PostForm.Get("assertion"))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewTokenClient(newRequester(), server.URL)
			tok, err := client.Exchange(context.Background(), "signed.assertion.value")
			tt.check(t, tok, err)
			assert.Equal(t, 1, calls, "exchange is never retried")
		})
	}
}

func TestAccessToken_OAuth2(t *testing.T) {
	obtained := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	tok := &AccessToken{Value: "abc", TokenType: "Bearer", ObtainedAt: obtained, TTL: time.Hour}

	o := tok.OAuth2()
	assert.Equal(t, "abc", o.AccessToken)
	assert.Equal(t, obtained.Add(time.Hour), o.Expiry)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	o.SetAuthHeader(req)
	assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))
}

func TestTokenSource_FreshTokenPerCall(t *testing.T) {
	_, keyPEM := generateKey(t)
	signer, err := NewRSASigner(keyPEM)
	require.NoError(t, err)

	var assertions []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assertions = append(assertions, r.PostForm.Get("assertion"))
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	}))
	defer server.Close()

	b := NewBuilder(testIssuer, signer)
	b.Audience = server.URL
	source := NewTokenSource(b, NewTokenClient(newRequester(), server.URL))

	for i := 0; i < 2; i++ {
		tok, err := source.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok", tok.Value)
	}
	require.Len(t, assertions, 2)
	assert.Len(t, strings.Split(assertions[0], "."), 3)
}

package serviceaccount

import (
	"context"
	"fmt"
)

// TokenSource signs a fresh assertion and exchanges it on every call.
// Tokens are never cached, so concurrent submissions share no credentials.
type TokenSource struct {
	builder *Builder
	client  *TokenClient
}

func NewTokenSource(builder *Builder, client *TokenClient) *TokenSource {
	return &TokenSource{builder: builder, client: client}
}

// Token returns an access token for the caller's request only.
func (s *TokenSource) Token(ctx context.Context) (*AccessToken, error) {
	assertion, err := s.builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build assertion: %w", err)
	}
	return s.client.Exchange(ctx, assertion)
}

// Package serviceaccount implements the OAuth2 JWT bearer flow for a service
// account: an RS256-signed assertion is exchanged for a short-lived access token.
package serviceaccount

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/brizzai/address-relay/internal/auth/constants"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidKey is returned when the private key cannot be parsed. The
// wrapped detail never contains key material.
var ErrInvalidKey = errors.New("invalid service account private key")

// Signer signs a JWT signing input and returns the base64url signature.
type Signer interface {
	Sign(signingInput string) (string, error)
}

// RSASigner signs with RSASSA-PKCS1-v1_5 over SHA-256 (RS256).
type RSASigner struct {
	key *rsa.PrivateKey
}

// NewRSASigner parses a PEM encoded PKCS#1 or PKCS#8 RSA private key.
func NewRSASigner(pemKey []byte) (*RSASigner, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &RSASigner{key: key}, nil
}

func (s *RSASigner) Sign(signingInput string) (string, error) {
	sig, err := jwt.SigningMethodRS256.Sign(signingInput, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sig), nil
}

// Builder assembles assertions for one service-account identity.
type Builder struct {
	Issuer   string
	Scope    string
	Audience string
	Lifetime time.Duration
	Signer   Signer
	Now      func() time.Time
}

// NewBuilder returns a Builder with the spreadsheet scope, the default token
// endpoint as audience and a one hour lifetime.
func NewBuilder(issuer string, signer Signer) *Builder {
	return &Builder{
		Issuer:   issuer,
		Scope:    constants.SpreadsheetsScope,
		Audience: constants.DefaultTokenURL,
		Lifetime: constants.AssertionLifetime,
		Signer:   signer,
		Now:      time.Now,
	}
}

// SigningInput returns base64url(header) + "." + base64url(claims).
func (b *Builder) SigningInput() (string, error) {
	now := b.Now().Unix()
	claims := jwt.MapClaims{
		"iss":   b.Issuer,
		"scope": b.Scope,
		"aud":   b.Audience,
		"iat":   now,
		"exp":   now + int64(b.Lifetime/time.Second),
	}
	input, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SigningString()
	if err != nil {
		return "", fmt.Errorf("failed to encode assertion: %w", err)
	}
	return input, nil
}

// Build returns the compact signed assertion.
func (b *Builder) Build() (string, error) {
	if b.Signer == nil {
		return "", errors.New("assertion builder has no signer")
	}
	input, err := b.SigningInput()
	if err != nil {
		return "", err
	}
	sig, err := b.Signer.Sign(input)
	if err != nil {
		return "", err
	}
	return input + "." + sig, nil
}

package constants

import "time"

const (
	// TokenType for Bearer authentication
	TokenType = "Bearer"

	// TokenQueryParam is the query parameter carrying the webhook token
	TokenQueryParam = "token"

	// JWTBearerGrantType is the OAuth2 grant for exchanging a signed assertion (RFC 7523)
	JWTBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	// DefaultTokenURL is the token endpoint and the audience of service-account assertions
	DefaultTokenURL = "https://oauth2.googleapis.com/token"

	// SpreadsheetsScope grants read/write access to spreadsheets
	SpreadsheetsScope = "https://www.googleapis.com/auth/spreadsheets"

	// AssertionLifetime is the exp - iat window of a signed assertion
	AssertionLifetime = time.Hour
)

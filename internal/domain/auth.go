package domain

import (
	"context"
	"time"
)

// AuthProvider is the OAuth client used to run the authorization code flow
type AuthProvider interface {
	// AuthCodeURL returns the consent page URL for the given anti-forgery state and PKCE verifier
	AuthCodeURL(state, verifier string) string

	// Exchange trades an authorization code for a token
	Exchange(ctx context.Context, code, verifier string) (*AuthToken, error)
}

// TokenRefresher obtains a new access token from a refresh token without user interaction
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*AuthToken, error)
}

// AuthToken is a token response as returned by the provider, before it is stored
type AuthToken struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is relative to the moment the response was received.  Ignored when NoExpiry is set.
	ExpiresIn time.Duration
	// NoExpiry is set when the provider did not report a lifetime at all
	NoExpiry bool
}

// Package oauth adapts a golang.org/x/oauth2 client configuration to the authorization flow and
// the token store.
package oauth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/PizzaHomicide/gcal/internal/domain"
	"github.com/PizzaHomicide/gcal/internal/log"
	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"
)

const defaultHTTPTimeout = 30 * time.Second

// Config describes the OAuth client registered with the provider
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
	// HTTPClient is used for the token endpoint.  Defaults to a client with a 30s timeout.
	HTTPClient *http.Client
	// Clock converts absolute expiries into lifetimes.  Defaults to the real clock.
	Clock clockwork.Clock
}

// Client builds consent URLs and talks to the token endpoint.  It satisfies both
// domain.AuthProvider and domain.TokenRefresher.
type Client struct {
	config     *oauth2.Config
	httpClient *http.Client
	clock      clockwork.Clock
}

// NewClient creates a Client from cfg
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Client{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      cfg.Scopes,
		},
		httpClient: httpClient,
		clock:      clock,
	}
}

// AuthCodeURL returns the consent page URL.  Offline access is requested so the provider issues
// a refresh token, and the verifier's S256 challenge is attached.
func (c *Client) AuthCodeURL(state, verifier string) string {
	return c.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)
}

// Exchange trades an authorization code for a token
func (c *Client) Exchange(ctx context.Context, code, verifier string) (*domain.AuthToken, error) {
	log.Debug("Exchanging authorization code", "token_url", c.config.Endpoint.TokenURL)

	tok, err := c.config.Exchange(c.withHTTPClient(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, tokenError("exchange authorization code", err)
	}
	return c.toAuthToken(tok), nil
}

// Refresh obtains a new access token using refreshToken.  Providers that do not rotate refresh
// tokens omit it from the response, in which case the one passed in is kept.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.AuthToken, error) {
	log.Debug("Refreshing access token", "token_url", c.config.Endpoint.TokenURL)

	// Without an access token the source always goes to the network
	src := c.config.TokenSource(c.withHTTPClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, tokenError("refresh access token", err)
	}

	token := c.toAuthToken(tok)
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func (c *Client) toAuthToken(tok *oauth2.Token) *domain.AuthToken {
	token := &domain.AuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	switch {
	case tok.ExpiresIn > 0:
		token.ExpiresIn = time.Duration(tok.ExpiresIn) * time.Second
	case !tok.Expiry.IsZero():
		token.ExpiresIn = tok.Expiry.Sub(c.clock.Now())
	default:
		token.NoExpiry = true
	}
	return token
}

// tokenError maps token endpoint failures.  invalid_grant means the code or refresh token is no
// longer usable and the user has to authorize again; anything else may be transient.
func tokenError(msg string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		log.Warn("Token endpoint returned an error", "status", status, "error_code", retrieveErr.ErrorCode)
		if retrieveErr.ErrorCode == "invalid_grant" {
			return &domain.AuthError{Kind: domain.AuthDenied, Msg: msg, Err: err}
		}
	}
	return &domain.AuthError{Kind: domain.AuthExchange, Msg: msg, Err: err}
}

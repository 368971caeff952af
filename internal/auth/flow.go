package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/PizzaHomicide/gcal/internal/domain"
	"github.com/PizzaHomicide/gcal/internal/log"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

// TokenSaver persists the token obtained at the end of the flow
type TokenSaver interface {
	Save(userID string, token *domain.AuthToken) error
}

// Waiter shows the authorization URL to the user and blocks on wait until the redirect arrives.
// It must return whatever wait returns.
type Waiter func(ctx context.Context, authURL string, wait func(context.Context) (CallbackResult, error)) (CallbackResult, error)

// FlowConfig configures an interactive authorization
type FlowConfig struct {
	// Host and Port are where the callback listener binds
	Host string
	Port int
	// Timeout bounds the wait for the redirect.  Zero or negative waits until ctx ends.
	Timeout time.Duration
	// UserID is the key the resulting token is saved under
	UserID string
	// NoBrowser only prints the URL instead of also opening it
	NoBrowser bool
}

// Flow runs the authorization code flow: listen, send the user to the consent page, wait for
// the code, stop listening, exchange the code, save the token.
type Flow struct {
	config      FlowConfig
	provider    domain.AuthProvider
	tokens      TokenSaver
	openBrowser func(string) error
	waiter      Waiter
}

// NewFlow creates a flow that opens the system browser and prints the URL to out while waiting
func NewFlow(config FlowConfig, provider domain.AuthProvider, tokens TokenSaver, out io.Writer) *Flow {
	return &Flow{
		config:      config,
		provider:    provider,
		tokens:      tokens,
		openBrowser: OpenBrowser,
		waiter:      PlainWaiter(out),
	}
}

// WithWaiter replaces the way the flow waits for the redirect
func (f *Flow) WithWaiter(waiter Waiter) *Flow {
	f.waiter = waiter
	return f
}

// WithBrowserOpener replaces the function used to open the consent page
func (f *Flow) WithBrowserOpener(open func(string) error) *Flow {
	f.openBrowser = open
	return f
}

// Run performs one authorization attempt
func (f *Flow) Run(ctx context.Context) error {
	log.Info("Starting OAuth authentication flow", "user", f.config.UserID)

	state := uuid.NewString()
	results := NewOneShot[CallbackResult]()
	server, err := ListenCallback(f.config.Host, f.config.Port, state, results)
	if err != nil {
		return err
	}
	log.Info("Callback listener bound", "addr", server.Addr().String())

	serveCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()

	g, gctx := errgroup.WithContext(serveCtx)
	g.Go(func() error {
		return server.Serve(gctx)
	})

	verifier := oauth2.GenerateVerifier()
	authURL := f.provider.AuthCodeURL(state, verifier)

	if !f.config.NoBrowser {
		log.Debug("Opening browser")
		if err := f.openBrowser(authURL); err != nil {
			// The user can still open the printed URL by hand
			log.Warn("Failed to open browser automatically", "error", err)
		}
	}

	waitCtx := gctx
	if f.config.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(gctx, f.config.Timeout)
		defer cancel()
	}

	log.Debug("Waiting for authorization code", "timeout", f.config.Timeout)
	result, waitErr := f.waiter(waitCtx, authURL, results.Receive)

	// No callback can be handled past this point
	stopServer()
	serveErr := g.Wait()

	if waitErr != nil {
		if serveErr != nil {
			return serveErr
		}
		if errors.Is(waitErr, context.DeadlineExceeded) && ctx.Err() == nil {
			log.Warn("Gave up waiting for authorization", "timeout", f.config.Timeout)
			return &domain.AuthError{
				Kind: domain.AuthDenied,
				Msg:  fmt.Sprintf("authorization was not completed within %s", f.config.Timeout),
				Err:  waitErr,
			}
		}
		return waitErr
	}
	if serveErr != nil {
		log.Warn("Callback listener did not shut down cleanly", "error", serveErr)
	}
	log.Info("Received authorization code, callback listener stopped")

	token, err := f.provider.Exchange(ctx, result.Code, verifier)
	if err != nil {
		return err
	}

	if err := f.tokens.Save(f.config.UserID, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}

	log.Info("Authentication completed successfully", "user", f.config.UserID)
	return nil
}

// PlainWaiter prints the URL to out and waits without any animation
func PlainWaiter(out io.Writer) Waiter {
	return func(ctx context.Context, authURL string, wait func(context.Context) (CallbackResult, error)) (CallbackResult, error) {
		_, _ = fmt.Fprintf(out, "If your browser didn't open automatically, please visit the following URL:\n\n  %s\n\nWaiting for authorization...\n", authURL)
		return wait(ctx)
	}
}

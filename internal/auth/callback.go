package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/PizzaHomicide/gcal/internal/domain"
	"github.com/PizzaHomicide/gcal/internal/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// CallbackPath is the only route served by the callback listener
const CallbackPath = "/oauth/callback"

const shutdownTimeout = 5 * time.Second

const successPage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>gcal</title>
</head>
<body>
    <h1>Authentication successful!</h1>
    <p>You can close this window and return to the terminal.</p>
</body>
</html>
`

const incompletePage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>gcal</title>
</head>
<body>
    <h1>Authentication did not complete</h1>
    <p>No authorization code was received.  Close this window and run <code>gcal auth</code> again.</p>
</body>
</html>
`

// CallbackResult is what the provider's redirect carried
type CallbackResult struct {
	Code  string
	State string
}

// CallbackServer is the short lived listener that receives the OAuth redirect.  It forwards the
// first authorization code carrying the expected state into a OneShot owned by the caller.
type CallbackServer struct {
	listener net.Listener
	server   *http.Server
	state    string
	results  *OneShot[CallbackResult]
}

// ListenCallback binds host:port and returns a server ready to Serve.  Connections made after
// ListenCallback returns are queued by the kernel, so it is safe to send the user to the consent
// page before Serve is running.
//
// Redirects whose state is not state are answered but never forwarded, so a stale tab cannot
// use up the hand-off.  An empty state accepts any redirect.
func ListenCallback(host string, port int, state string, results *OneShot[CallbackResult]) (*CallbackServer, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error("Could not listen on callback address", "addr", addr, "error", err)
		return nil, &domain.AuthError{Kind: domain.AuthBind, Msg: "listen on " + addr, Err: err}
	}

	s := &CallbackServer{
		listener: listener,
		state:    state,
		results:  results,
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Addr returns the bound address
func (s *CallbackServer) Addr() net.Addr {
	return s.listener.Addr()
}

// Handler returns the router serving CallbackPath
func (s *CallbackServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(CallbackPath, s.handleCallback)
	return r
}

// Serve handles requests until ctx is done, then shuts the server down gracefully and returns
// once in-flight requests have finished.
func (s *CallbackServer) Serve(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.server.Serve(s.listener)
	}()
	log.Debug("Callback server started", "addr", s.Addr().String())

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("callback server: %w", err)
	case <-ctx.Done():
	}

	log.Debug("Stopping callback server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("callback server shutdown: %w", err)
	}
	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("callback server: %w", err)
	}
	log.Debug("Callback server shutdown successfully")
	return nil
}

// handleCallback always answers 200 with a static page; only a request with a code and the
// expected state feeds the hand-off
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")

	page := successPage
	switch {
	case code == "":
		log.Warn("Callback received without an authorization code",
			"error", query.Get("error"),
			"error_description", query.Get("error_description"),
		)
		page = incompletePage
	case s.state != "" && state != s.state:
		log.Warn("Callback state does not match this authorization request, ignoring it")
		page = incompletePage
	default:
		log.Info("Received authorization code", "length", len(code))
		if !s.results.Send(CallbackResult{Code: code, State: state}) {
			log.Warn("Authorization code already received, dropping this one")
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, page); err != nil {
		log.Error("Error writing callback response", "error", err)
	}
}

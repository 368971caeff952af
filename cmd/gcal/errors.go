package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PizzaHomicide/gcal/internal/domain"
	"github.com/PizzaHomicide/gcal/internal/ui/tui/styles"
)

// Exit codes for CLI commands
const (
	// ExitCodeSuccess indicates successful execution
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments)
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates there is no usable token and `gcal auth` has to be run
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the authorization flow or a token exchange failed
	ExitCodeAuthFailed = 3
)

// exitCode determines the exit code for err so scripts can tell "authorize again" from "try again"
func exitCode(err error) int {
	switch {
	case domain.NeedsReauthorization(err):
		return ExitCodeAuthRequired
	case domain.IsAuthError(err, domain.AuthBind), domain.IsAuthError(err, domain.AuthExchange):
		return ExitCodeAuthFailed
	default:
		return ExitCodeError
	}
}

func isTokenNotFound(err error) bool {
	return errors.Is(err, domain.ErrTokenNotFound)
}

// printError writes err and, where one applies, a hint on what to do next
func printError(w io.Writer, err error) {
	_, _ = fmt.Fprintln(w, styles.Error.Render("Error:")+" "+err.Error())

	var suggested *suggestionError
	if errors.As(err, &suggested) {
		_, _ = fmt.Fprintln(w, styles.Info.Render("Did you mean: "+strings.Join(suggested.suggestions, ", ")+"?"))
	}

	switch {
	case domain.NeedsReauthorization(err):
		_, _ = fmt.Fprintln(w, styles.Info.Render("Run `gcal auth` to authorize."))
	case domain.IsAuthError(err, domain.AuthBind):
		_, _ = fmt.Fprintln(w, styles.Info.Render("Is another program using the callback port?  Set OAUTH_CALLBACK_PORT or auth.callback_port to use a different one."))
	case domain.IsAuthError(err, domain.AuthExchange):
		_, _ = fmt.Fprintln(w, styles.Info.Render("This may be temporary, try again."))
	}
}

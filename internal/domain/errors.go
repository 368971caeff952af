package domain

import (
	"errors"
	"fmt"
)

// StoreErrorKind classifies token store failures
type StoreErrorKind int

const (
	// StoreSerialize means the token could not be encoded
	StoreSerialize StoreErrorKind = iota + 1
	// StoreIO means the underlying storage failed to read, write or flush
	StoreIO
	// StoreNotFound means no usable token exists and the user must authorize again
	StoreNotFound
)

func (k StoreErrorKind) String() string {
	switch k {
	case StoreSerialize:
		return "serialize"
	case StoreIO:
		return "io"
	case StoreNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// StoreError is returned by the token store
type StoreError struct {
	Kind   StoreErrorKind
	UserID string
	Err    error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("token store: %s", e.Kind)
	if e.UserID != "" {
		msg += fmt.Sprintf(" (user %q)", e.UserID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind alone, e.g. errors.Is(err, ErrTokenNotFound)
func (e *StoreError) Is(target error) bool {
	var t *StoreError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.UserID == "" || t.UserID == e.UserID)
}

// ErrTokenNotFound matches any StoreError of kind StoreNotFound
var ErrTokenNotFound = &StoreError{Kind: StoreNotFound}

// AuthErrorKind classifies authorization failures
type AuthErrorKind int

const (
	// AuthBind means the callback listener could not bind its address
	AuthBind AuthErrorKind = iota + 1
	// AuthExchange means a code or refresh token exchange failed in transit or with a provider error.  Usually transient.
	AuthExchange
	// AuthDenied means the user did not complete authorization, or the provider rejected the grant
	AuthDenied
)

func (k AuthErrorKind) String() string {
	switch k {
	case AuthBind:
		return "bind"
	case AuthExchange:
		return "exchange"
	case AuthDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// AuthError is returned by the authorization flow and the OAuth client
type AuthError struct {
	Kind AuthErrorKind
	Msg  string
	Err  error
}

func (e *AuthError) Error() string {
	msg := fmt.Sprintf("auth %s", e.Kind)
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is an AuthError of the given kind
func IsAuthError(err error, kind AuthErrorKind) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Kind == kind
}

// NeedsReauthorization reports whether the caller has to send the user through the interactive flow again,
// as opposed to an error that may go away on retry.
func NeedsReauthorization(err error) bool {
	return errors.Is(err, ErrTokenNotFound) || IsAuthError(err, AuthDenied)
}

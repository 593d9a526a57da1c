package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common error types for the RDP client
var (
	// Input validation errors, raised before any network call
	ErrMissingCredentials = errors.New("please input your credentials")
	ErrMissingSymbol      = errors.New("please input symbol")
	ErrUnknownTarget      = errors.New("unknown symbology target")

	// Session errors
	ErrNoAccessToken    = errors.New("no access token available")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// AuthError is returned when the token or revoke endpoint answers with a
// non-success status.
type AuthError struct {
	Op         string // login, refresh or revoke
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return httpErrorString(e.Op, e.StatusCode, e.Body)
}

// RequestError is returned when a data endpoint answers with a non-success status.
// The body is the raw upstream text and must not be read as data.
type RequestError struct {
	Op         string // esg, news or symbology
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return httpErrorString(e.Op, e.StatusCode, e.Body)
}

func httpErrorString(op string, status int, body string) string {
	msg := fmt.Sprintf("HTTP error %d", status)
	if body = strings.TrimSpace(body); body != "" {
		msg += ": " + body
	}
	if op == "" {
		return msg
	}
	return op + ": " + msg
}

// StatusCode extracts the upstream status from an AuthError or RequestError in
// err's chain. It returns 0 when there is none.
func StatusCode(err error) int {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.StatusCode
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

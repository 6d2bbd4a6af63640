package client

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when no session is available or the server
// rejected it.
var ErrNotAuthenticated = errors.New("not authenticated")

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NetworkError is any failure to complete a remote call other than an
// authentication failure: transport errors, non-401 error statuses and
// undecodable responses. StatusCode is zero when no response was received.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s settings: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s settings: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNotAuthenticated)
}

// IsNetworkError reports whether err is a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

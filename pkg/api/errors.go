package api

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse flags a page that carried neither resources nor
// pagination. That shape means the upstream contract changed and is a hard
// error, not a data-quality blip.
var ErrMalformedResponse = errors.New("malformed api response: missing resources and pagination")

// AuthError is fatal to the current fetch: credentials never arrived within
// the bounded wait, or the upstream rejected them. Never retried.
type AuthError struct {
	Status int
	Reason string
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("authentication failed: status %d", e.Status)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// APIError is a non-auth HTTP or network failure. Status 0 means the request
// never produced a response.
type APIError struct {
	Status int
	URL    string
	Err    error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api request %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("api request %s failed: status %d", e.URL, e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient: network errors, 429
// and 5xx qualify; other client errors propagate immediately.
func (e *APIError) Retryable() bool {
	return e.Status == 0 || e.Status == 429 || e.Status >= 500
}

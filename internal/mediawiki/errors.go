package mediawiki

import (
	"errors"
	"fmt"
)

// Sentinel errors for client operations.
var (
	// ErrNoCredentials is returned when neither OAuth tokens nor a bot
	// password are configured.
	ErrNoCredentials = errors.New("no credentials: set the PWB_* OAuth tokens or PWB_USERNAME and PWB_PASSWORD")

	// ErrNotLoggedIn is returned when the API reports an anonymous user
	// after authentication.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrLoginFailed is returned when a bot password login is rejected.
	ErrLoginFailed = errors.New("login failed")

	// ErrPageNotFound is returned when a page does not exist.
	ErrPageNotFound = errors.New("page not found")

	// ErrMaxLag is returned when the server stays lagged after all retries.
	ErrMaxLag = errors.New("server lagged for too long")
)

// APIError is an error object returned by the API.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// Error implements error.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s: %s", e.Code, e.Info)
}

// IsCode reports whether err is an *APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

package clerk

import "errors"

var (
	// ErrMissingSecretKey is returned when the client is built without a secret key
	ErrMissingSecretKey = errors.New("clerk secret key is required")

	// ErrUnauthorized is returned when Clerk rejects the secret key
	ErrUnauthorized = errors.New("unauthorized: invalid clerk secret key")

	// ErrUserNotFound is returned when the requested user does not exist
	ErrUserNotFound = errors.New("clerk user not found")

	// ErrRequestFailed is returned for any other non-2xx response
	ErrRequestFailed = errors.New("clerk request failed")

	// ErrNetworkError is returned when there's a network communication error
	ErrNetworkError = errors.New("network error")
)

package remote

import "errors"

var (
	// ErrUnexpectedResponse is returned when the remote service answers without the expected fields.
	ErrUnexpectedResponse = errors.New("unexpected response from job service")

	// ErrBaseURLRequired is returned when an HTTP client is created without a base URL.
	ErrBaseURLRequired = errors.New("base URL is required")

	// ErrRateLimitBurst is returned when the limiter can never grant a request.
	ErrRateLimitBurst = errors.New("rate limit burst must be at least 1")
)

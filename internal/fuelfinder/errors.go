package fuelfinder

import "errors"

// Error kinds surfaced by the API client. Callers match them with errors.Is.
var (
	// ErrAuthentication indicates rejected credentials or a rejected token.
	// It is terminal for the current token and is never retried.
	ErrAuthentication = errors.New("authentication failed")

	// ErrRateLimited indicates the provider returned 429. It is retried
	// internally and surfaces only after the retry budget is exhausted.
	ErrRateLimited = errors.New("rate limited")

	// ErrConnection indicates a transport failure, timeout, or retryable
	// server error. Retried internally like ErrRateLimited.
	ErrConnection = errors.New("connection error")

	// ErrAPI indicates a malformed or unexpected response. Not retried.
	ErrAPI = errors.New("api error")
)

package ports

import "errors"

// Common infrastructure errors that can occur during external service
// interactions.
var (
	// ErrBackendUnavailable indicates that an external backend failed to
	// return at all (network or model error). It propagates immediately
	// as terminal and is never masked as a soft constraint failure.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrRateLimited indicates that the service has rate limited the
	// request. Provider errors classified as rate limits match this
	// sentinel through errors.Is.
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates that an operation timed out. Requests cut off
	// by the client's timeout middleware match this sentinel.
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidResponse indicates that the service returned an invalid
	// response.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrAuthenticationFailed indicates that authentication with the
	// service failed.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrNotImplemented indicates a documented capability slot with no
	// shipped implementation, such as the reward model verifier.
	ErrNotImplemented = errors.New("not implemented")
)

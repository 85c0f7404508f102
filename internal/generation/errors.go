package generation

import "errors"

// Common errors returned by AI operations. Provider implementations wrap
// their transport-specific failures into one of these sentinels so that
// callers can classify faults without knowing which backend ran the
// operation.
var (
	// ErrConfiguration is returned when a backend cannot be constructed
	// from the application configuration (e.g. a remote provider selected
	// without its API key). It is always raised before any task starts.
	ErrConfiguration = errors.New("invalid AI backend configuration")

	// ErrNetwork is returned when a remote provider cannot be reached or
	// the connection fails mid-request.
	ErrNetwork = errors.New("network error calling AI provider")

	// ErrModelUnavailable is returned when the provider is reachable but
	// the requested model cannot serve (loading, overloaded, or unknown).
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrEmptyResult is returned when an operation completes but produces
	// no usable output (empty or whitespace-only text, no content fetched).
	ErrEmptyResult = errors.New("operation produced no usable result")

	// ErrUnsupportedOp is returned when an operation kind is requested
	// from a provider that does not implement it.
	ErrUnsupportedOp = errors.New("operation not supported by provider")
)

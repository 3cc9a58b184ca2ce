package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Price Feed / Exchange Errors
	ErrExchangeUnavailable  = errors.New("exchange API is unavailable")
	ErrConnectionFailed     = errors.New("failed to connect to the exchange")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("exchange authentication failed (check API keys)")
	ErrInvalidAPIKeys       = errors.New("invalid API keys or permissions")
	ErrNoQuote              = errors.New("no price quote available for symbol")
	ErrUnknownVenue         = errors.New("venue is not registered with the price source")

	// Execution Errors
	ErrInsufficientFunds    = errors.New("insufficient funds for operation")
	ErrInsufficientPosition = errors.New("insufficient position for operation")
	ErrOrderNotPending      = errors.New("order is not in a pending state")
	ErrOrderPlacementFailed = errors.New("failed to place order")

	// Trade Log Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)

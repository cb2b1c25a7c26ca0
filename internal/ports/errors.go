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
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Pipeline Errors
	ErrInvalidSettings  = errors.New("copy settings failed validation")
	ErrInvalidTrade     = errors.New("leader trade failed validation")
	ErrBadSignature     = errors.New("request signature does not match canonical fields")
	ErrDuplicateCopy    = errors.New("copy already in flight for this id")
	ErrAlreadyFollowing = errors.New("follower already subscribed to this leader")
	ErrInvalidLeader    = errors.New("leader is unknown or not accepting followers")

	// Collaborator Errors
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrConnectionFailed     = errors.New("failed to connect to collaborator")
	ErrAuthenticationFailed = errors.New("collaborator authentication failed (check API keys)")
	ErrInsufficientFunds    = errors.New("insufficient funds for copy trade")
	ErrAccountInactive      = errors.New("follower account is not active")
	ErrOrderPlacementFailed = errors.New("failed to place order")
	ErrRiskScoreUnavailable = errors.New("risk scoring service unavailable")
	ErrMessageUndelivered   = errors.New("failed to deliver message to recipient")

	// Database Specific Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
)

package domain

import "errors"

// Sentinel errors used throughout the application.
// HTTP handlers translate these to status codes via a single mapError function.
var (
	ErrNotFound         = errors.New("not found")
	ErrMissingUserID    = errors.New("userId is required")
	ErrInvalidRecipient = errors.New("recipient email is not a valid address")
	ErrInvalidChannel   = errors.New("invalid channel: must be email, in_app, or both")
	ErrInvalidPriority  = errors.New("invalid priority: must be low, normal, high, or urgent")
)

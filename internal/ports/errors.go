package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Lifecycle Errors
	ErrInvalidState = errors.New("invalid position state")

	// Storage Errors
	ErrStorageUnavailable = errors.New("position storage is unavailable")
	ErrDBConnection       = errors.New("database connection error")
	ErrQueryFailed        = errors.New("database query failed")
	ErrUpdateFailed       = errors.New("database update failed")
)

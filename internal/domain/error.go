package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrInsufficientFunds = errors.New("insufficient card funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrConflict          = errors.New("code conflict")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnauthorized      = errors.New("unauthorized")

	// Storage-layer errors
	ErrStorageFailure     = errors.New("storage failure")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)

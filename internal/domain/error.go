package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrOperationFailed    = errors.New("operation failed")

	// Purchase validation
	ErrUnknownPlan      = errors.New("unknown plan")
	ErrUnknownLocation  = errors.New("unknown location")
	ErrLocationInactive = errors.New("location is not active")

	// Credential pool
	ErrOutOfStock  = errors.New("no login slots available for this plan at this location")
	ErrAlreadyUsed = errors.New("credential already used")
	// ErrStateChanged is returned by conditional undo operations when the record moved on.
	ErrStateChanged = errors.New("credential changed since the operation being undone")

	// ErrPersistence marks a purchase whose claim was rolled back because it could not be stored.
	ErrPersistence = errors.New("persistence failure")
)

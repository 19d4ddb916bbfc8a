package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Reconciliation errors
	ErrUnauthorized      = errors.New("signature or credential verification failed")
	ErrAmountMismatch    = errors.New("amount does not match ledger entry")
	ErrInvalidState      = errors.New("operation not valid in current payment state")
	ErrVersionConflict   = errors.New("ledger version conflict")
	ErrStoreUnavailable  = errors.New("ledger store temporarily unavailable")
	ErrUnknownPlan       = errors.New("unknown subscription plan")
	ErrTransactionExists = errors.New("order already has an active provider transaction")
)

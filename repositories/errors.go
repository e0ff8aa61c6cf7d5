package repositories

import "errors"

// Recoverable, user-actionable errors. Controllers surface these verbatim;
// anything else rolls back and maps to ErrStorageUnavailable.
var (
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidSerialState  = errors.New("serial is not in a valid state for this operation")
	ErrDuplicateSerial     = errors.New("serial number already exists")
	ErrSerialCountMismatch = errors.New("serial count does not match quantity")
	ErrCodeNotFound        = errors.New("code not found")
	ErrNamespaceCollision  = errors.New("code namespace collision")
	ErrSyncConflict        = errors.New("sync conflict")
	ErrTransactionAborted  = errors.New("transaction aborted")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)

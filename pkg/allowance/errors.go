package allowance

import "errors"

var (
	// ErrValidation is returned for rejected input (empty note, non-finite amount, malformed key)
	// before anything is written.
	ErrValidation = errors.New("validation error")
	// ErrImmutableClaim is returned for any write against a PAID claim.
	ErrImmutableClaim = errors.New("claim is paid and can no longer be changed")
	// ErrStoreUnavailable wraps I/O failures of the backing store. Callers may retry manually.
	ErrStoreUnavailable = errors.New("claim store unavailable")
	// ErrSyncFailed is returned when a wallet sync run ends in ERROR.
	ErrSyncFailed       = errors.New("wallet sync failed")
	ErrClaimNotFound    = errors.New("claim not found")
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrSyncLockNotFound = errors.New("sync lock not found")
)

package service

import "errors"

var (
	// ErrInvalidArgument marks caller input the service rejects outright.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrImportNotFound is returned for an unknown or expired import batch.
	ErrImportNotFound = errors.New("import batch not found")
	// ErrBusy means the import queue cannot take the batch right now.
	ErrBusy = errors.New("import queue is full, retry later")
	// ErrInFlight means another request holding the same Idempotency-Key is
	// still being processed.
	ErrInFlight = errors.New("request with this idempotency key is in progress")
)

package audit

import "errors"

var (
	// ErrEventValidation indicates event validation failed
	ErrEventValidation = errors.New("audit event validation failed")

	// ErrRecorderClosed is returned by Close when called more than once
	ErrRecorderClosed = errors.New("audit recorder is closed")

	// ErrStoragePanic wraps a panic raised by Storage.StoreBatch
	ErrStoragePanic = errors.New("audit storage panicked")
)

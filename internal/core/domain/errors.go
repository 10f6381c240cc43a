package domain

import "errors"

// Sentinel errors. Adapters wrap them with context and map them to exit
// codes, HTTP statuses and tool errors; test for them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedType covers transcript formats and processor names
	// nothing is registered for.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrMalformedInput rejects a whole message batch: timestamps out of
	// order or a required field missing.
	ErrMalformedInput = errors.New("malformed input")
	// ErrStagePanic marks the one conversation whose pipeline stage
	// panicked. The rest of its batch still commits.
	ErrStagePanic = errors.New("pipeline stage failed")

	// ErrIndexUnavailable means no index snapshot is loaded or its store
	// is unreachable. Retrying may succeed.
	ErrIndexUnavailable = errors.New("index unavailable")
	ErrStoreClosed      = errors.New("store closed")

	// ErrJobRunning refuses to start a maintenance job that is in flight.
	ErrJobRunning = errors.New("job already running")
)

// IsRetryable reports whether the same call may succeed later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrIndexUnavailable)
}

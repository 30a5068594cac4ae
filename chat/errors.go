package chat

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrTimeout is returned when no qualifying response appears within the
// polling budget. Callers must treat it as retryable-by-user; the correlator
// never retries on its own.
var ErrTimeout = errors.New("timed out waiting for a qualifying response")

// ErrNotFound classifies upstream errors for missing article/lead lookups.
var ErrNotFound = errors.New("not found")

// UpstreamError carries an error field the backend included in a decoded
// response. The message is propagated verbatim.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: %s", e.Message)
}

// IsNotFound reports whether err is classified as a missing-resource error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTimeout reports whether err is a correlator polling timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

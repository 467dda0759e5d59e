package errors

// Transport-level classification shared by outbound clients

import (
	"context"
	stderrs "errors"
	"net"
)

// IsTransient reports whether err describes a condition that may clear on its own
// Unavailable and TooManyRequests codes, context cancellation or deadline,
// network timeouts, dial failures and postgres contention all count
// everything else is permanent
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	switch CodeOf(err) {
	case ErrorCodeUnavailable, ErrorCodeTooManyRequests:
		return true
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if stderrs.As(err, &ne) && ne.Timeout() {
		return true
	}
	var oe *net.OpError
	if stderrs.As(err, &oe) {
		return true
	}
	return pgRetryable(err)
}

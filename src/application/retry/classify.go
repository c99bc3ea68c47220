package retry

import (
	"context"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/input-output-hk/quaestor/src/domain"
)

// Retryable reports whether err is a transient failure.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var transient *domain.TransientError
	if errors.As(err, &transient) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}

	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

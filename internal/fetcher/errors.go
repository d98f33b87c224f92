package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/tansode/sitemd/internal/model"
)

// Error is a classified fetch failure for a single URL.
// The Kind is always set; Unwrap exposes the underlying cause for
// errors.Is/As checks.
type Error struct {
	// URL is the URL whose fetch failed.
	URL string

	// Kind classifies the failure.
	Kind model.ErrorKind

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Kind extracts the error kind from a fetch error.
// Unclassified errors default to the network kind, which keeps unknown
// failures page-local rather than escalating them to session level.
func Kind(err error) model.ErrorKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return model.KindNetwork
}

// classify maps a transport-level error to an error kind.
//
// Design decision: Connection-refused and DNS resolution failures are
// systemic rather than network errors because they mean the origin host
// itself is unreachable. Every remaining page would fail the same way,
// so the scheduler should stop admitting fetches instead of burning
// through the queue.
func classify(err error) model.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.KindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return model.KindSystemic
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return model.KindSystemic
	}

	return model.KindNetwork
}

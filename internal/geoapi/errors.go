package geoapi

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"

	"github.com/evyataryagoni/ipgeobot/internal/models"
)

// Classify maps a failed outbound call onto the LookupError taxonomy.
// Timeouts are checked first: a dial that runs out of time is a timeout,
// not a connection problem. It never panics, and a nil error yields ErrUnknown.
func Classify(err error) models.LookupError {
	switch {
	case err == nil:
		return models.LookupError{Kind: models.ErrUnknown, Detail: "no error"}
	case isTimeout(err):
		return models.LookupError{Kind: models.ErrTimeout}
	case isConnection(err):
		return models.LookupError{Kind: models.ErrConnection}
	default:
		return models.LookupError{Kind: models.ErrUnknown, Detail: err.Error()}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnection(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH)
}

package remote

import (
	"context"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"

	"github.com/pario-ai/vndb-mcp/pkg/models"
)

// Classify maps an error from the VNDB client to a QueryError. The decision
// uses error types and sentinels only, never message text.
func Classify(err error) *models.QueryError {
	if err == nil {
		return nil
	}
	var qe *models.QueryError
	if errors.As(err, &qe) {
		return qe
	}

	switch {
	case isTimeout(err):
		return &models.QueryError{
			Kind:    models.KindTimeout,
			Message: "request to VNDB timed out",
			Details: describe(err),
		}
	case isConnection(err):
		return &models.QueryError{
			Kind:    models.KindConnection,
			Message: "could not connect to VNDB",
			Details: describe(err),
		}
	default:
		return &models.QueryError{
			Kind:    models.KindUnexpected,
			Message: "unexpected error from VNDB",
			Details: describe(err),
		}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isConnection(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// describe renders "<kind>: <message>" where kind is the type name of the
// innermost cause.
func describe(err error) string {
	cause := errors.UnwrapAll(err)
	kind := strings.TrimPrefix(fmt.Sprintf("%T", cause), "*")
	if errors.Is(err, context.Canceled) {
		kind = "context.Canceled"
	}
	return kind + ": " + err.Error()
}

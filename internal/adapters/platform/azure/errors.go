package azure

import (
	"context"
	stderrs "errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/skylift/region-advisor/internal/errors"
)

// errNoEndpoint signals that the provider exposes no listing at the
// requested path. Callers normalize this into an empty inventory; it is
// never surfaced as a fetch failure.
var errNoEndpoint = stderrs.New("provider exposes no endpoint at this path")

// classifyHTTPStatus maps an upstream response code onto the fetch
// error taxonomy: throttling and server faults are transient and get
// retried, auth and request faults are permanent and abort the
// provider immediately.
func classifyHTTPStatus(status int, provider, operation string, body string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return errors.Newf(errors.CodeTransientFetch, "rate limited on %s %s", provider, operation)
	case status >= 500:
		return errors.Newf(errors.CodeTransientFetch, "upstream %d on %s %s", status, provider, operation)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.Newf(errors.CodePermanentFetch, "authorization failure (%d) on %s %s", status, provider, operation)
	case status == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", provider, operation, errNoEndpoint)
	case status >= 400:
		return errors.Newf(errors.CodePermanentFetch, "malformed request (%d) on %s %s: %s", status, provider, operation, truncate(body, 200))
	default:
		return nil
	}
}

// classifyTransportError maps transport-level failures. Context
// cancellation passes through untouched so callers can distinguish a
// caller-initiated stop from an upstream fault.
func classifyTransportError(ctx context.Context, err error, provider, operation string) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return err
	}

	var netErr net.Error
	if stderrs.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrapf(err, errors.CodeTransientFetch, "timeout on %s %s", provider, operation)
	}
	if strings.Contains(err.Error(), "connection refused") || strings.Contains(err.Error(), "connection reset") {
		return errors.Wrapf(err, errors.CodeTransientFetch, "connection failure on %s %s", provider, operation)
	}

	return errors.Wrapf(err, errors.CodePermanentFetch, "request failed on %s %s", provider, operation)
}

func isNoEndpoint(err error) bool {
	return stderrs.Is(err, errNoEndpoint)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Upstream failure taxonomy shared by all adapters. These are provider-side
// failures: they are reported to the caller, not retried in-core.
var (
	// ErrUpstreamTimeout signals the provider did not answer within the
	// adapter's deadline.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrUpstreamProtocol signals an unparseable upstream payload.
	ErrUpstreamProtocol = errors.New("upstream protocol error")
)

// UpstreamHTTPError carries a non-2xx upstream response.
type UpstreamHTTPError struct {
	Status int
	Body   string
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
}

// wrapTransportErr classifies a transport-level failure from http.Client.Do.
func wrapTransportErr(provider string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w", provider, ErrUpstreamTimeout)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", provider, ErrUpstreamTimeout)
	}
	return fmt.Errorf("%s: request failed: %w", provider, err)
}

package replay

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ValidationError reports a replay request that cannot be dispatched
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

/* TransportError means the outbound call did not complete an HTTP round trip
 * A non-2xx response is not a TransportError; it is a normal outcome with OK=false
 */
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("replay to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the dispatch ran out of time
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

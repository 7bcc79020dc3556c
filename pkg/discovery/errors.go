package discovery

import (
	"errors"
	"fmt"
)

// NetworkError reports a failed call to the discovery API: the transport
// failed, the server answered with a non-2xx status, or the body did not
// have the expected JSON shape.
type NetworkError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("discovery: %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("discovery: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError returns true if err (or any error in its chain) is a
// NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// StatusCode returns the HTTP status carried by a NetworkError in the chain,
// or 0.
func StatusCode(err error) int {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.StatusCode
	}
	return 0
}

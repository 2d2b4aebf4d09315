package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the catalog has no record for a query.
var ErrNotFound = errors.New("catalog: not found")

// ErrInternal wraps unexpected transport failures.
var ErrInternal = errors.New("catalog: internal error")

// ErrTimeout is returned when a coalesced waiter is cancelled before the
// owning request broadcasts its result.
var ErrTimeout = errors.New("catalog: timed out waiting for result")

// RemoteAPIError is a persistently non-200 response from the catalog.
type RemoteAPIError struct {
	Code    int
	Message string
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("catalog: remote api error %d: %s", e.Code, e.Message)
}

// DeserializationError is a response body that could not be decoded.
type DeserializationError struct {
	Body   []byte
	Detail string
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("catalog: deserialization failed: %s", e.Detail)
}

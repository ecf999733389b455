package api

import (
	"errors"
	"fmt"
)

// Error describes a failed API call. Status carries the HTTP status code
// of the response, or 0 when no response was obtained at all (connection
// refused, DNS failure, timeout). The two cases must stay distinguishable
// so callers can tell "offline" from "rejected".
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Transport reports whether the error represents a transport-level failure
// where no HTTP response was obtained.
func (e *Error) Transport() bool {
	return e.Status == 0
}

// IsTransport reports whether err is an API transport failure.
func IsTransport(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Transport()
}

func transportError(err error) *Error {
	return &Error{Message: fmt.Sprintf("no response from server: %v", err)}
}

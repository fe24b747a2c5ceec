package upstream

import (
	"fmt"
	"net/http"
)

// Error is a failed upstream call.
type Error struct {
	// Op names the call, e.g. "create post".
	Op string

	// Status is the upstream HTTP status, or 0 when no response arrived.
	Status int

	// Body is the upstream response body, if any.
	Body []byte

	// Err is the transport error when Status is 0.
	Err error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("upstream: %s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Responded reports whether the upstream answered at all.
func (e *Error) Responded() bool {
	return e.Status != 0
}

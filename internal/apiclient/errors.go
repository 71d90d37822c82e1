package apiclient

import (
	"errors"
	"fmt"
)

// StatusError is returned alongside the Response when the backend answers
// with a non-2xx status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %s", e.Method, e.URL, e.Status)
}

// StatusCode extracts the backend status from err, or 0 when err is not a StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

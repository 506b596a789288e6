package hubclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidResponse means the server answered with something this client
// cannot read.
var ErrInvalidResponse = errors.New("invalid response from the Hub")

// StatusError is a non-2xx answer from the Hub. Its message carries the HTTP
// status text so callers can recognise well-known failures.
type StatusError struct {
	Op         string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Status)
}

func newStatusError(op string, resp *http.Response) error {
	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Status: status}
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

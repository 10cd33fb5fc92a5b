package upstream

import (
	"errors"
	"fmt"
	"io"
)

// maxErrorBody caps how much of an upstream response body is kept on an Error.
const maxErrorBody = 512

// maxResponseBody caps how much of an upstream response body is read at all.
const maxResponseBody = 1 << 20

// Error describes a failed call to one of the external platforms: a non
// success status, an unparseable body or an error reported inside the body.
type Error struct {
	Service    string
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Service, e.Operation)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status=%d", msg, e.StatusCode)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s body=%s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error, trimming body to a loggable size.
func NewError(service, operation string, statusCode int, body []byte, err error) *Error {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &Error{
		Service:    service,
		Operation:  operation,
		StatusCode: statusCode,
		Body:       string(body),
		Err:        err,
	}
}

// IsError reports whether err is, or wraps, an upstream Error.
func IsError(err error) bool {
	var ue *Error
	return errors.As(err, &ue)
}

// ReadBody reads at most 1MiB of an upstream response body.
func ReadBody(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxResponseBody))
}

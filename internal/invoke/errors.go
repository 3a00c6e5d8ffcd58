package invoke

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the single failure shape of an invocation: transport failures,
// non-2xx statuses and errors embedded in a 200 body.
type Error struct {
	// HTTP status, 0 when the request never completed.
	Status   int
	Code     string
	Message  string
	Provider string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	switch {
	case e.Status != 0:
		fmt.Fprintf(&b, "status %d", e.Status)
	case e.Err != nil:
		b.WriteString("request failed")
	default:
		b.WriteString("upstream error")
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// IsRateLimited reports a 429 from the router or the provider.
func IsRateLimited(err error) bool {
	var ie *Error
	return errors.As(err, &ie) && ie.Status == 429
}

// IsTransport reports an error raised before any HTTP status was received.
func IsTransport(err error) bool {
	var ie *Error
	return errors.As(err, &ie) && ie.Status == 0 && ie.Err != nil
}

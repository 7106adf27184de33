package client

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind is the closed set of ways a control call can fail.
type Kind int

const (
	KindTransport Kind = iota
	KindTimeout
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindMalformedResponse:
		return "malformed response"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching on the kind of an *Error.
var (
	ErrTransport         = errors.New("camera unreachable")
	ErrTimeout           = errors.New("camera timed out")
	ErrMalformedResponse = errors.New("malformed camera response")
)

// Error is the single failure outcome of every control operation.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrMalformedResponse:
		return e.Kind == KindMalformedResponse
	}
	return false
}

// newError classifies a transport error returned by resty.
func newError(op string, err error) *Error {
	kind := KindTransport

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}

	return &Error{Op: op, Kind: kind, Err: err}
}

// IsNoConnection reports whether err is a control failure. Every kind maps
// to the same "no connection" message for the user.
func IsNoConnection(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

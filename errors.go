package httpaction

import (
	"errors"
	"fmt"
)

// ErrActionNotFound is returned when no action is registered under the
// requested path.
var ErrActionNotFound = errors.New("action not found")

// ErrConversion is wrapped by errors produced while converting the inputs
// of an invocation into the arguments of the action.
var ErrConversion = errors.New("parameter conversion failed")

// ErrResultType is returned by InvokeAs when the action produced a value
// of an unexpected type.
var ErrResultType = errors.New("unexpected result type")

// ErrForwardLimit is returned when forward results chain more than
// MaxForwards times within one request, such as an action forwarding to
// itself.
var ErrForwardLimit = errors.New("too many forwards")

// InvocationError reports a failure while running an action, one of its
// interceptors, or its result handler.
type InvocationError struct {
	Path string
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoke %s: %v", e.Path, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

func notFound(path string) error {
	return fmt.Errorf("%w: %s", ErrActionNotFound, path)
}

// Package errs implements the error taxonomy spec.md §7 lists for the
// runtime: SystemError (an errno from a syscall), InvalidUsage (a
// caller broke a documented invariant), PollerError (the readiness
// facility itself failed), and TaskFailure (a task body returned or
// panicked with an error).
//
// Grounded on api/errors.go's structured *Error (code + message +
// context map), kept as a plain struct rather than a type hierarchy.
package errs

import "fmt"

// Code classifies which part of the taxonomy an Error belongs to.
type Code int

const (
	SystemError Code = iota
	InvalidUsage
	PollerError
	TaskFailure
)

func (c Code) String() string {
	switch c {
	case SystemError:
		return "SystemError"
	case InvalidUsage:
		return "InvalidUsage"
	case PollerError:
		return "PollerError"
	case TaskFailure:
		return "TaskFailure"
	default:
		return "UnknownError"
	}
}

// Error is a structured error carrying a taxonomy Code, a message, an
// optional wrapped cause, and free-form context for diagnostics.
type Error struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap lets errors.Is/errors.As see through to Cause.
func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error around an existing cause, such as a raw errno
// returned by golang.org/x/sys/unix.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithContext attaches a diagnostic key/value pair and returns e for
// chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

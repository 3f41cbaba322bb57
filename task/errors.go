package task

import (
	"fmt"

	"github.com/momentics/corortime/errs"
)

// ErrInvalidUsage corresponds to spec.md §7's InvalidUsage: a null
// executor on Spawn, or awaiting the same Task's result twice.
var ErrInvalidUsage = errs.New(errs.InvalidUsage, "task: invalid usage")

// Failure wraps an error produced by a task body, corresponding to
// spec.md §7's TaskFailure. It lets an awaiter distinguish "the task I
// awaited panicked or returned an error" from an error the awaiter
// itself produced afterward.
type Failure struct {
	Err error
}

func (f *Failure) Error() string { return f.Err.Error() }
func (f *Failure) Unwrap() error { return f.Err }

// panicError wraps a recovered panic value as an error.
type panicError struct {
	v any
}

func (p panicError) Error() string {
	return fmt.Sprintf("task: panic: %v", p.v)
}

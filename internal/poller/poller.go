// Package poller is a thin wrapper over the OS readiness-notification
// facility: register/modify/unregister a file descriptor, then wait for
// a batch of readiness events. It is the ReadinessPoller of spec.md §4.2.
//
// Grounded on reactor/reactor_linux.go, rewritten to talk in terms of a
// platform-neutral event mask rather than raw EPOLLIN/EPOLLOUT bits, and
// to return events as a plain slice rather than writing through unsafe
// pointer math on epoll_event.Pad.
package poller

import "errors"

// Mask is the OR of readiness bits a caller is interested in, or that a
// poller reports as observed.
type Mask uint32

const (
	Readable Mask = 1 << iota
	Writable
	Err
	Hangup
)

// Event is one readiness notification: a file descriptor and the mask of
// events actually observed on it.
type Event struct {
	FD     int
	Events Mask
}

// ErrUnsupported is returned by New on platforms without a poller
// implementation. Portability beyond a POSIX-style readiness-notification
// facility is a declared non-goal (spec.md §1).
var ErrUnsupported = errors.New("poller: platform not supported")

// Poller is the readiness-notification contract. Wait must only ever be
// called by one goroutine at a time (spec.md §4.2: "the poller is
// single-threaded").
type Poller interface {
	Add(fd int, mask Mask) error
	Modify(fd int, mask Mask) error
	Remove(fd int) error
	// Wait blocks until at least one event is ready, an error other than
	// EINTR occurs, or timeoutMs elapses (negative means block forever),
	// writing up to len(out) events and returning the count actually
	// written.
	Wait(out []Event, timeoutMs int) (int, error)
	Close() error
}

package socket

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/momentics/corortime/errs"
	"github.com/momentics/corortime/internal/poller"
	"github.com/momentics/corortime/reactor"
	"github.com/momentics/corortime/task"
)

// Listener is a non-blocking TCP listening socket (spec.md §4.6). Only
// one frame may await Accept on a given Listener at a time, per the
// reactor's single-owner-per-fd invariant.
type Listener struct {
	mu     sync.Mutex
	fd     int
	r      *reactor.Reactor
	closed bool
}

// Listen binds and starts listening on address ("host:port"), in
// non-blocking mode. Listen does not register the fd with r's poller;
// that happens on the first Accept that has to wait for a connection.
func Listen(r *reactor.Reactor, address string, backlog int) (*Listener, error) {
	fd, err := newNonblockingSocket()
	if err != nil {
		return nil, errs.Wrap(errs.SystemError, "socket: create listening socket", err)
	}
	sa, err := resolveTCP4(address)
	if err != nil {
		_ = unix.Close(fd)
		return nil, errs.Wrap(errs.InvalidUsage, "socket: resolve listen address", err).WithContext("address", address)
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, errs.Wrap(errs.SystemError, "socket: bind", err).WithContext("address", address)
	}
	if backlog <= 0 {
		backlog = 128
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, errs.Wrap(errs.SystemError, "socket: listen", err).WithContext("backlog", backlog)
	}
	return &Listener{fd: fd, r: r}, nil
}

// FD returns the listener's raw file descriptor.
func (l *Listener) FD() int { return l.fd }

// Accept suspends the calling frame until a connection is ready, then
// returns a non-blocking Stream for it. It retries transparently
// across EAGAIN/EWOULDBLOCK and EINTR, the two errnos accept4 legally
// produces on a socket already confirmed readable (spec.md §4.6).
func (l *Listener) Accept(rt *task.Runtime) (*Stream, error) {
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return nil, ErrClosed
		}
		fd := l.fd
		l.mu.Unlock()

		nfd, _, err := unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err == nil {
			return newStream(nfd, l.r), nil
		}
		if err == unix.EINTR {
			continue
		}
		if !isAgain(err) {
			return nil, errs.Wrap(errs.SystemError, "socket: accept4", err).WithContext("fd", fd)
		}
		if _, err := l.r.AwaitFD(rt.Executor(), fd, poller.Readable); err != nil {
			return nil, err
		}
	}
}

// Close cancels any pending Accept and releases the listening socket.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	fd := l.fd
	l.mu.Unlock()

	l.r.Close(fd)
	if err := unix.Close(fd); err != nil {
		return errs.Wrap(errs.SystemError, "socket: close listener fd", err).WithContext("fd", fd)
	}
	return nil
}

package socket

import (
	"io"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/momentics/corortime/buffer"
	"github.com/momentics/corortime/errs"
	"github.com/momentics/corortime/internal/poller"
	"github.com/momentics/corortime/reactor"
	"github.com/momentics/corortime/task"
)

// Stream is a non-blocking, connected TCP socket (spec.md §4.6). Reads
// and writes suspend the calling frame on EAGAIN/EWOULDBLOCK and
// resume once the reactor observes the fd ready again; the event mask
// a Stream registers is only ever widened, never cleared, across its
// lifetime (the same OR-in policy the reactor itself uses).
type Stream struct {
	mu     sync.Mutex
	fd     int
	r      *reactor.Reactor
	closed bool
}

func newStream(fd int, r *reactor.Reactor) *Stream {
	return &Stream{fd: fd, r: r}
}

// Dial connects to address, suspending the caller until the connection
// completes or fails.
func Dial(rt *task.Runtime, r *reactor.Reactor, address string) (*Stream, error) {
	fd, err := newNonblockingSocket()
	if err != nil {
		return nil, errs.Wrap(errs.SystemError, "socket: create socket", err)
	}
	sa, err := resolveTCP4(address)
	if err != nil {
		_ = unix.Close(fd)
		return nil, errs.Wrap(errs.InvalidUsage, "socket: resolve dial address", err).WithContext("address", address)
	}

	err = unix.Connect(fd, sa)
	if err != nil && err != unix.EINPROGRESS {
		_ = unix.Close(fd)
		return nil, errs.Wrap(errs.SystemError, "socket: connect", err).WithContext("address", address)
	}
	if err == unix.EINPROGRESS {
		if _, err := r.AwaitFD(rt.Executor(), fd, poller.Writable); err != nil {
			_ = unix.Close(fd)
			return nil, err
		}
		if errno, sockErr := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR); sockErr == nil && errno != 0 {
			_ = unix.Close(fd)
			return nil, errs.Wrap(errs.SystemError, "socket: connect", unix.Errno(errno)).WithContext("address", address)
		}
	}
	return newStream(fd, r), nil
}

// FD returns the stream's raw file descriptor.
func (s *Stream) FD() int { return s.fd }

func (s *Stream) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Read fills p with whatever bytes are available, suspending the
// calling frame when none are (EAGAIN) and resuming once the reactor
// reports the fd readable again. It returns io.EOF once the peer has
// performed an orderly shutdown, matching the conventional Go Reader
// contract rather than the raw read(2) "n==0" signal.
func (s *Stream) Read(rt *task.Runtime, p []byte) (int, error) {
	for {
		if err := s.checkOpen(); err != nil {
			return 0, err
		}
		n, err := unix.Read(s.fd, p)
		if err == nil {
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		}
		if err == unix.EINTR {
			continue
		}
		if !isAgain(err) {
			return 0, errs.Wrap(errs.SystemError, "socket: read", err).WithContext("fd", s.fd)
		}
		if _, err := s.r.AwaitFD(rt.Executor(), s.fd, poller.Readable); err != nil {
			return 0, err
		}
	}
}

// Write writes all of p, suspending on EAGAIN and resuming once the
// reactor reports the fd writable again. Short writes are retried
// until the whole buffer has been accepted by the kernel or an error
// other than EAGAIN occurs.
func (s *Stream) Write(rt *task.Runtime, p []byte) (int, error) {
	written := 0
	for written < len(p) {
		if err := s.checkOpen(); err != nil {
			return written, err
		}
		n, err := unix.Write(s.fd, p[written:])
		if err == nil {
			written += n
			continue
		}
		if err == unix.EINTR {
			continue
		}
		if !isAgain(err) {
			return written, errs.Wrap(errs.SystemError, "socket: write", err).WithContext("fd", s.fd)
		}
		if _, err := s.r.AwaitFD(rt.Executor(), s.fd, poller.Writable); err != nil {
			return written, err
		}
	}
	return written, nil
}

// ReadInto performs one scattered read(2) directly into b's writable
// region via buffer.Buffer.ReadFD, suspending on EAGAIN exactly like
// Read. It returns io.EOF when the peer has closed the connection.
func (s *Stream) ReadInto(rt *task.Runtime, b *buffer.Buffer) (int, error) {
	for {
		if err := s.checkOpen(); err != nil {
			return 0, err
		}
		n, err := b.ReadFD(s.fd)
		if err == nil {
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		}
		if err == unix.EINTR {
			continue
		}
		if !isAgain(err) {
			return 0, errs.Wrap(errs.SystemError, "socket: readv", err).WithContext("fd", s.fd)
		}
		if _, err := s.r.AwaitFD(rt.Executor(), s.fd, poller.Readable); err != nil {
			return 0, err
		}
	}
}

// WriteFrom drains b's readable region to the socket via
// buffer.Buffer.WriteFD, suspending on EAGAIN until the kernel accepts
// at least one more byte, and repeating until b has nothing left to
// write.
func (s *Stream) WriteFrom(rt *task.Runtime, b *buffer.Buffer) (int, error) {
	total := 0
	for b.Readable() > 0 {
		if err := s.checkOpen(); err != nil {
			return total, err
		}
		n, err := b.WriteFD(s.fd)
		if err == nil {
			total += n
			continue
		}
		if err == unix.EINTR {
			continue
		}
		if !isAgain(err) {
			return total, errs.Wrap(errs.SystemError, "socket: write", err).WithContext("fd", s.fd)
		}
		if _, err := s.r.AwaitFD(rt.Executor(), s.fd, poller.Writable); err != nil {
			return total, err
		}
	}
	return total, nil
}

// Close cancels any pending await on the stream and releases the
// socket.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	fd := s.fd
	s.mu.Unlock()

	s.r.Close(fd)
	if err := unix.Close(fd); err != nil {
		return errs.Wrap(errs.SystemError, "socket: close stream fd", err).WithContext("fd", fd)
	}
	return nil
}

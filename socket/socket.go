// Package socket implements the non-blocking Listener/Stream layer of
// spec.md §3/§4.6: raw, non-blocking sockets whose Accept/Read/Write
// operations suspend the calling task frame on EAGAIN/EWOULDBLOCK
// rather than blocking an OS thread, resuming through a Reactor once
// the underlying file descriptor is observed ready.
//
// Grounded on internal/transport/transport_linux.go's raw
// socket()/SOCK_NONBLOCK/unix.Read/unix.Write usage, restructured
// around the reactor's AwaitFD instead of that package's
// features-negotiated batch Send/Recv.
package socket

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/momentics/corortime/errs"
)

// ErrClosed is returned by any operation on an fd after Close.
var ErrClosed = errs.New(errs.InvalidUsage, "socket: use of closed file descriptor")

func isAgain(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}

// resolveTCP4 turns a "host:port" string into a SockaddrInet4, the only
// address family this package implements — IPv6 and Unix-domain
// sockets are out of scope.
func resolveTCP4(address string) (*unix.SockaddrInet4, error) {
	addr, err := net.ResolveTCPAddr("tcp4", address)
	if err != nil {
		return nil, err
	}
	sa := &unix.SockaddrInet4{Port: addr.Port}
	if ip4 := addr.IP.To4(); ip4 != nil {
		copy(sa.Addr[:], ip4)
	}
	return sa, nil
}

func newNonblockingSocket() (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, err
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	return fd, nil
}

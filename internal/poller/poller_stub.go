//go:build !linux

// Stub for platforms without an epoll-style readiness facility. Grounded
// on reactor/reactor_stub.go's pattern: non-goal platforms fail fast at
// construction rather than faking readiness notification.

package poller

// New returns ErrUnsupported on any non-Linux platform.
func New() (Poller, error) {
	return nil, ErrUnsupported
}

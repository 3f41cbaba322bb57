// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor implements the readiness-driven event loop of
// spec.md §3/§4.5: a single poller thread that turns OS readiness
// notifications into task resumptions submitted to an executor.
//
// The platform-specific epoll/IOCP split this package used to own now
// lives one layer down in internal/poller; this package is the
// platform-neutral waiter map and dispatch loop built on top of it.
package reactor

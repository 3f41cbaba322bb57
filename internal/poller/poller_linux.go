//go:build linux

package poller

import (
	"golang.org/x/sys/unix"
)

// epollPoller implements Poller with Linux epoll, level-triggered (the
// implementation choice spec.md §4.6 leaves open, taken to tolerate the
// waiter-drop race described in spec.md §4.5).
type epollPoller struct {
	epfd int
}

// New creates an epoll-backed Poller.
func New() (Poller, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	return &epollPoller{epfd: epfd}, nil
}

func toEpollEvents(m Mask) uint32 {
	var e uint32
	if m&Readable != 0 {
		e |= unix.EPOLLIN
	}
	if m&Writable != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func fromEpollEvents(e uint32) Mask {
	var m Mask
	if e&unix.EPOLLIN != 0 {
		m |= Readable
	}
	if e&unix.EPOLLOUT != 0 {
		m |= Writable
	}
	if e&unix.EPOLLERR != 0 {
		m |= Err
	}
	if e&unix.EPOLLHUP != 0 {
		m |= Hangup
	}
	return m
}

func (p *epollPoller) Add(fd int, mask Mask) error {
	ev := unix.EpollEvent{Events: toEpollEvents(mask), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *epollPoller) Modify(fd int, mask Mask) error {
	ev := unix.EpollEvent{Events: toEpollEvents(mask), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (p *epollPoller) Remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) Wait(out []Event, timeoutMs int) (int, error) {
	raw := make([]unix.EpollEvent, len(out))
	for {
		n, err := unix.EpollWait(p.epfd, raw, timeoutMs)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		for i := 0; i < n; i++ {
			out[i] = Event{FD: int(raw[i].Fd), Events: fromEpollEvents(raw[i].Events)}
		}
		return n, nil
	}
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}

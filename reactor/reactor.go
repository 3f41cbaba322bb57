// File: reactor/reactor.go
//
// Reactor turns OS-level readiness notifications into task
// resumptions, per spec.md §3/§4.5: one poller thread waits on a
// batch of file descriptors and, for each one that becomes ready,
// hands the corresponding continuation to the executor — resumption
// is always dispatched through the executor, never run inline on the
// poller's own goroutine.
//
// Grounded on internal/poller for the OS facility, and on the
// waiter-map design sketched in
// original_source/include/net/IOContext.hpp's fd→continuation table.
package reactor

import (
	"sync"

	"github.com/momentics/corortime/errs"
	"github.com/momentics/corortime/internal/poller"
	"github.com/momentics/corortime/logging"
)

// ErrFDBusy is returned by AwaitFD when a waiter is already registered
// for fd: only one outstanding await per file descriptor is permitted
// at a time (spec.md §4.5's single-owner-per-fd invariant, shared with
// the socket layer).
var ErrFDBusy = errs.New(errs.InvalidUsage, "reactor: file descriptor already has a pending waiter")

// Executor is the minimal capability AwaitFD needs: submit a
// zero-argument resumption.
type Executor interface {
	Submit(func()) error
}

type waiterEntry struct {
	mask poller.Mask
	wake func(poller.Mask, error)
}

type fdState struct {
	// registered is the union of every mask bit ever handed to the OS
	// poller for this fd. It only grows (an OR-in policy, never
	// cleared) until the fd is closed, so repeated awaits on the same
	// fd for the same interest never re-issue epoll_ctl.
	registered poller.Mask
	waiter     *waiterEntry
}

// Reactor is the readiness-driven event loop. A single goroutine owns
// the poller; AwaitFD may be called concurrently from any number of
// task frames.
type Reactor struct {
	mu          sync.Mutex
	p           poller.Poller
	exec        Executor
	fds         map[int]*fdState
	stop        chan struct{}
	stopped     bool
	running     bool
	wg          sync.WaitGroup
	pollTimeout int
}

// New builds a Reactor over an already-constructed poller and the
// executor resumptions are submitted to by default. AwaitFD callers
// may override the executor per-call via their task Runtime; exec here
// is only the fallback used when no runtime is supplied.
func New(p poller.Poller, exec Executor) *Reactor {
	return &Reactor{
		p:           p,
		exec:        exec,
		fds:         make(map[int]*fdState),
		stop:        make(chan struct{}),
		pollTimeout: -1,
	}
}

// SetPollTimeout overrides the millisecond timeout passed to the
// underlying poller's Wait on each iteration of the loop; -1 (the
// default) blocks indefinitely until an fd is ready or Stop is called.
func (r *Reactor) SetPollTimeout(ms int) {
	r.mu.Lock()
	r.pollTimeout = ms
	r.mu.Unlock()
}

// Run starts the poller loop on a dedicated goroutine. Calling Run
// more than once is a no-op, matching the executor's idempotent Run
// (spec.md §8).
func (r *Reactor) Run() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.loop()
}

// Stop closes the poller, which unblocks the in-flight Wait, and joins
// the poll loop goroutine. Idempotent.
func (r *Reactor) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stop)
	_ = r.p.Close()
	r.wg.Wait()
}

// AwaitFD registers interest in mask on fd and blocks the calling
// goroutine until the reactor observes fd ready for at least one bit
// in mask, or fd's waiter is cancelled by Close. The resumption is
// always submitted through execFor (by default rt's executor), never
// run on the poller's own goroutine — this is what keeps a slow
// continuation from stalling every other fd's readiness delivery.
func (r *Reactor) AwaitFD(execFor Executor, fd int, mask poller.Mask) (poller.Mask, error) {
	type result struct {
		mask poller.Mask
		err  error
	}
	done := make(chan result, 1)
	if execFor == nil {
		execFor = r.exec
	}

	wake := func(got poller.Mask, err error) {
		submitErr := execFor.Submit(func() { done <- result{got, err} })
		if submitErr != nil {
			// Executor already stopped: deliver directly so AwaitFD
			// does not block forever on a submission that can never
			// land.
			done <- result{got, err}
		}
	}

	if err := r.register(fd, mask, wake); err != nil {
		return 0, err
	}

	res := <-done
	return res.mask, res.err
}

func (r *Reactor) register(fd int, mask poller.Mask, wake func(poller.Mask, error)) error {
	r.mu.Lock()
	st := r.fds[fd]
	if st == nil {
		st = &fdState{}
		r.fds[fd] = st
	}
	if st.waiter != nil {
		r.mu.Unlock()
		return ErrFDBusy
	}

	newMask := st.registered | mask
	var err error
	switch {
	case st.registered == 0:
		err = r.p.Add(fd, newMask)
	case newMask != st.registered:
		err = r.p.Modify(fd, newMask)
	}
	if err != nil {
		r.mu.Unlock()
		return errs.Wrap(errs.PollerError, "reactor: register fd with poller", err).WithContext("fd", fd)
	}
	st.registered = newMask
	st.waiter = &waiterEntry{mask: mask, wake: wake}
	r.mu.Unlock()
	return nil
}

// Close cancels any pending waiter on fd and removes it from the OS
// poller. Socket Close calls this as part of tearing down an fd;
// it tolerates being called on an fd with no registered state.
func (r *Reactor) Close(fd int) {
	r.mu.Lock()
	st, ok := r.fds[fd]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.fds, fd)
	w := st.waiter
	r.mu.Unlock()

	if w != nil {
		w.wake(0, errFDClosed)
	}
	_ = r.p.Remove(fd)
}

var errFDClosed = errs.New(errs.InvalidUsage, "reactor: file descriptor closed while awaited")

func (r *Reactor) loop() {
	defer r.wg.Done()
	events := make([]poller.Event, 128)
	for {
		select {
		case <-r.stop:
			return
		default:
		}

		r.mu.Lock()
		timeout := r.pollTimeout
		r.mu.Unlock()

		n, err := r.p.Wait(events, timeout)
		if err != nil {
			select {
			case <-r.stop:
				return
			default:
			}
			logging.Errorf("reactor: poll wait failed: {}", err)
			continue
		}

		for i := 0; i < n; i++ {
			r.dispatch(events[i])
		}
	}
}

// dispatch hands a ready fd's waiter to the executor. It is tolerant
// of the fd having already been removed (Close raced ahead of an event
// already pulled out of the poller, spec.md §4.5), in which case it
// silently drops the stale notification.
func (r *Reactor) dispatch(ev poller.Event) {
	r.mu.Lock()
	st, ok := r.fds[ev.FD]
	if !ok || st.waiter == nil {
		r.mu.Unlock()
		return
	}
	observed := ev.Events & (st.waiter.mask | poller.Err | poller.Hangup)
	if observed == 0 {
		r.mu.Unlock()
		return
	}
	w := st.waiter
	st.waiter = nil
	r.mu.Unlock()

	w.wake(observed, nil)
}

// Package runtime is the public entry point of spec.md §4.7's bootstrap
// sequence: construct an Executor, start its workers, build a Reactor
// over a platform Poller sharing that Executor, run the Reactor's poll
// loop, and hand back a task.Runtime a caller can Spawn its first Task
// from.
//
// Grounded on the top-level wiring pattern in _examples/reactor_echo/
// main.go: build collaborators bottom-up, start them, run until
// signalled, tear down in reverse order.
package runtime

import (
	"github.com/momentics/corortime/internal/poller"
	"github.com/momentics/corortime/internal/sched"
	"github.com/momentics/corortime/reactor"
	"github.com/momentics/corortime/task"
)

// Runtime bundles the three long-lived collaborators a program needs
// to host tasks: the worker pool, the readiness reactor, and a
// task.Runtime bound to the pool for spawning top-level work. Backlog
// is the default listen backlog a caller should pass to socket.Listen;
// it is carried here rather than hardcoded in that package so a single
// Option controls it for every listener a program opens.
type Runtime struct {
	Executor *sched.Executor
	Reactor  *reactor.Reactor
	Root     *task.Runtime
	Backlog  int
}

// Option configures a Runtime at construction time.
type Option func(*options)

type options struct {
	workers     int
	pollTimeout int
	backlog     int
}

// WithWorkers overrides the executor's worker count; by default it
// matches GOMAXPROCS (spec.md §4.3).
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithPollerTimeout overrides the millisecond timeout the reactor's
// poll loop passes to the underlying poller on each iteration; by
// default it blocks indefinitely (-1).
func WithPollerTimeout(ms int) Option {
	return func(o *options) { o.pollTimeout = ms }
}

// WithListenBacklog overrides the default backlog a program should use
// for its listening sockets; by default 128.
func WithListenBacklog(n int) Option {
	return func(o *options) { o.backlog = n }
}

// New constructs and starts a Runtime: the executor's workers and the
// reactor's poll loop are both running by the time New returns.
func New(opts ...Option) (*Runtime, error) {
	o := options{backlog: 128, pollTimeout: -1}
	for _, opt := range opts {
		opt(&o)
	}

	p, err := poller.New()
	if err != nil {
		return nil, err
	}

	ex := sched.New()
	if o.workers > 0 {
		ex.RunWorkers(o.workers)
	} else {
		ex.Run()
	}

	r := reactor.New(p, ex)
	r.SetPollTimeout(o.pollTimeout)
	r.Run()

	return &Runtime{
		Executor: ex,
		Reactor:  r,
		Root:     task.NewRuntime(ex),
		Backlog:  o.backlog,
	}, nil
}

// Spawn starts body as a top-level task bound to rt's executor, per
// spec.md §4.4's top-level injection point.
func Spawn[T any](rt *Runtime, body task.Func[T]) *task.Task[T] {
	return task.Spawn[T](rt.Executor, body)
}

// Shutdown stops the reactor and then the executor, in that order, so
// that no pending readiness notification tries to submit work to an
// already-stopped executor.
func (rt *Runtime) Shutdown() {
	rt.Reactor.Stop()
	rt.Executor.Stop()
}

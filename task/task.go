// Package task implements Task[T], the suspendable-procedure
// abstraction of spec.md §3/§4.4: a handle to a computation that may
// suspend at an await point and resume later, possibly on a different
// worker goroutine of the owning executor.
//
// Go has no user-level primitive for suspending and resuming a stack
// mid-function the way the original's coroutine-based design does,
// so each Task's body runs on one dedicated goroutine for its entire
// life — its "frame" — and an await blocks that goroutine on a
// channel rather than actually yielding a stack back to the executor.
// The executor's worker goroutines therefore never run a task body
// inline; they only ever run the tiny non-blocking dispatch closures
// that start a frame or wake one up — running a whole body on a pool
// goroutine would let a task blocked mid-await pin that goroutine
// forever, starving the pool.
//
// Grounded on the Executor/continuation split in
// original_source/Task.hpp and the scheduler/awaitable split in
// original_source/include/coro/Scheduler.hpp and Awaitable.hpp, and
// on the run-to-completion single-assignment result slot of
// _examples/b97tsk-async's Task/Promise pair.
package task

import "sync"

// State is a Task's lifecycle position.
type State int32

const (
	StateCreated State = iota
	StateScheduled
	StateRunning
	StateSuspended
	StateCompleted
	StateFailed
)

// Executor is the minimal capability a Task needs: submit a
// zero-argument resumption for later execution by a worker goroutine.
type Executor interface {
	Submit(func()) error
}

// Runtime carries the executor reference down an await chain (spec.md
// §4.4: "the executor reference propagates transitively: when a task
// awaits another task, the inner task inherits the outer task's
// executor"). A task body receives one as its sole argument and passes
// it unchanged to Await, Go, or a reactor's AwaitFD.
type Runtime struct {
	exec Executor
}

// Executor returns the executor this runtime resumes work on.
func (r *Runtime) Executor() Executor { return r.exec }

// NewRuntime builds a Runtime bound to exec directly, without a task
// frame around it. This is how a bootstrap entry point (spec.md §4.7)
// obtains the first Runtime to pass into a top-level Spawn's body, and
// how tests drive Await/AwaitFD-based APIs without a surrounding task.
func NewRuntime(exec Executor) *Runtime { return &Runtime{exec: exec} }

// Func is the body of a suspendable procedure.
type Func[T any] func(rt *Runtime) (T, error)

// Task is a handle to one suspendable computation (spec.md §3). A
// Task's result is produced at most once and consumed at most once:
// Await must be called no more than one time per Task.
type Task[T any] struct {
	mu     sync.Mutex
	state  State
	result T
	err    error
	done   chan struct{}
	cont   func()
	exec   Executor
	taken  bool
}

func newTask[T any](exec Executor) *Task[T] {
	return &Task[T]{exec: exec, done: make(chan struct{}), state: StateCreated}
}

// State reports the task's current lifecycle position.
func (t *Task[T]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Spawn injects exec into a new task and submits it for its first
// resumption: this is the top-level injection point for the executor
// reference (spec.md §4.4). The returned handle may be discarded; the
// frame runs to completion regardless.
func Spawn[T any](exec Executor, body Func[T]) *Task[T] {
	if exec == nil {
		panic(ErrInvalidUsage)
	}
	t := newTask[T](exec)
	t.schedule(body)
	return t
}

// Go creates a child task that inherits rt's executor and submits it
// for its first resumption. This is how a task awaiting further work
// propagates its executor reference onward without a second injection
// point (spec.md §4.4).
func Go[T any](rt *Runtime, body Func[T]) *Task[T] {
	return Spawn[T](rt.exec, body)
}

func (t *Task[T]) schedule(body Func[T]) {
	t.mu.Lock()
	t.state = StateScheduled
	t.mu.Unlock()
	if err := t.exec.Submit(func() { t.runFrame(body) }); err != nil {
		var zero T
		t.complete(zero, err)
	}
}

// runFrame starts the task's dedicated goroutine. The worker that
// dequeued the submission does only this — spawn and return — so it
// is immediately free to dequeue the next ready item, no matter how
// long the frame itself ends up blocked on an await.
func (t *Task[T]) runFrame(body Func[T]) {
	go func() {
		t.mu.Lock()
		t.state = StateRunning
		t.mu.Unlock()

		rt := &Runtime{exec: t.exec}
		v, err := t.invoke(rt, body)
		t.complete(v, err)
	}()
}

func (t *Task[T]) invoke(rt *Runtime, body Func[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Failure{Err: panicError{r}}
		}
	}()
	v, err = body(rt)
	if err != nil {
		err = &Failure{Err: err}
	}
	return v, err
}

// complete records the task's single-assignment result and, if a
// continuation is already registered, submits it exactly once. Called
// at most once per task; later calls are no-ops (spec.md §8: "resumed
// at most once per registration").
func (t *Task[T]) complete(v T, err error) {
	t.mu.Lock()
	select {
	case <-t.done:
		t.mu.Unlock()
		return
	default:
	}
	t.result, t.err = v, err
	if err != nil {
		t.state = StateFailed
	} else {
		t.state = StateCompleted
	}
	cont := t.cont
	t.cont = nil
	close(t.done)
	t.mu.Unlock()

	if cont != nil {
		cont()
	}
}

// registerContinuation records f as the continuation to run once the
// task completes. It returns false without recording f if the task has
// already completed, in which case the caller must take the fast path
// and read the result directly instead of waiting on f.
func (t *Task[T]) registerContinuation(f func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	select {
	case <-t.done:
		return false
	default:
	}
	t.state = StateSuspended
	t.cont = f
	return true
}

// Await suspends the calling frame until t completes, then returns its
// result. If t is already complete, the result is read immediately
// with no suspension (spec.md §8 scenario 4, the "already resolved"
// fast path). Otherwise the calling frame's resumption is submitted to
// rt's executor exactly once, when t completes (spec.md §8 scenario 3)
// — never inline on t's own frame and never on the reactor thread.
//
// Await must be called at most once per Task; a second call on an
// already-consumed Task panics with ErrInvalidUsage, since the result
// slot has already been handed off and there is nothing left to wait
// on safely.
func Await[T any](rt *Runtime, t *Task[T]) (T, error) {
	t.mu.Lock()
	if t.taken {
		t.mu.Unlock()
		panic(ErrInvalidUsage)
	}
	t.taken = true
	t.mu.Unlock()

	select {
	case <-t.done:
		return t.result, t.err
	default:
	}

	woke := make(chan struct{}, 1)
	registered := t.registerContinuation(func() {
		if err := rt.exec.Submit(func() { woke <- struct{}{} }); err != nil {
			// Executor already stopped: wake the waiter directly so it
			// does not block forever on a submission that can never land.
			woke <- struct{}{}
		}
	})
	if !registered {
		return t.result, t.err
	}
	<-woke
	return t.result, t.err
}

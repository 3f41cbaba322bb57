// Package sched implements the Executor: a fixed-size worker pool
// consuming a single shared FIFO of ready work items (spec.md §3, §4.3).
//
// Grounded on original_source/include/tools/ThreadPool.hpp's
// mutex+condition-variable worker loop (Go's sync.Cond stands in for
// std::condition_variable), with per-worker lock-free queues (as used
// in _examples/momentics-hioload-ws/core/concurrency) replaced by a
// single github.com/eapache/queue-backed FIFO shared across all
// workers, matching spec.md §3/§4.3's single-ready-queue design.
package sched

import (
	"errors"
	"runtime"
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/corortime/logging"
)

// ErrClosed is returned by Submit once Stop or StopHard has completed.
var ErrClosed = errors.New("sched: executor is stopped")

// Work is a ready-to-run, zero-argument unit of work.
type Work func()

// Executor is a fixed-size pool of worker goroutines draining a single
// FIFO queue, per spec.md §4.3.
type Executor struct {
	mu      sync.Mutex
	cond    *sync.Cond
	q       *queue.Queue
	running bool
	stopped bool
	wg      sync.WaitGroup
}

// New constructs an Executor. It does not start workers; call Run.
func New() *Executor {
	e := &Executor{q: queue.New()}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Run transitions the executor from stopped to running, spinning up N
// workers where N is the detected hardware parallelism, falling back to
// 2. Calling Run on an already-running executor is a no-op (spec.md §8:
// "run(); run() is equivalent to one run").
func (e *Executor) Run() { e.RunWorkers(workerCount()) }

// RunWorkers is Run with an explicit worker count, for tests.
func (e *Executor) RunWorkers(n int) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopped = false
	e.mu.Unlock()

	if n <= 0 {
		n = 2
	}
	e.wg.Add(n)
	for i := 0; i < n; i++ {
		go e.worker()
	}
}

func workerCount() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 2
}

// Submit enqueues work and wakes one idle worker if any is sleeping.
// Submitting after Stop/StopHard returns ErrClosed. The parameter type
// is the bare func() the Executor interfaces in task and reactor
// require, not the named Work type, so *Executor satisfies those
// interfaces structurally.
func (e *Executor) Submit(w func()) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrClosed
	}
	e.q.Add(Work(w))
	e.mu.Unlock()
	e.cond.Signal()
	return nil
}

// Stop sets running to false, wakes every worker, and joins them all.
// The queue is drained and discarded once every worker has exited.
// Calling Stop twice is equivalent to calling it once (spec.md §8).
func (e *Executor) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.mu.Unlock()
	e.cond.Broadcast()
	e.wg.Wait()

	e.mu.Lock()
	e.q = queue.New()
	e.running = false
	e.mu.Unlock()
}

// StopHard marks the executor stopped and wakes workers without waiting
// for them to exit or draining the queue. It exists only for crash
// paths; normal shutdown uses Stop (spec.md §4.3).
func (e *Executor) StopHard() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.mu.Unlock()
	e.cond.Broadcast()
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		for !e.stopped && e.q.Length() == 0 {
			e.cond.Wait()
		}
		if e.stopped && e.q.Length() == 0 {
			e.mu.Unlock()
			return
		}
		item := e.q.Remove().(Work)
		e.mu.Unlock()

		runSafely(item)
	}
}

// runSafely invokes w, catching any panic so a single misbehaving task
// cannot kill the pool (spec.md §4.3, §7): the panic is logged and
// swallowed, never propagated to the worker loop.
func runSafely(w Work) {
	defer func() {
		if r := recover(); r != nil {
			logging.Errorf("sched: work item panicked: {}", r)
		}
	}()
	w()
}

// Package rendezvous delivers a worker agent's final result back to
// whichever goroutine is blocked waiting for it — typically the start_task
// tool call that spawned the worker (spec.md §4.5). The Rust original keys a
// registry of worker_id -> (slot, Condvar) and signals the condvar on
// completion; this package reaches the same rendezvous with a buffered
// channel per waiter, which is the idiomatic Go analogue of a condvar
// signaling a single waiter.
package rendezvous

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fibanez/agentcore/agent"
)

// Completion is the result of a worker agent's execution.
type Completion struct {
	WorkerID      agent.ID
	Result        string // set when Err == nil
	Err           error  // set when the worker failed
	ExecutionTime time.Duration
}

// DefaultTimeout matches the five-minute default wait of the original
// implementation.
const DefaultTimeout = 5 * time.Minute

// ErrAlreadyAwaited is returned by Wait when a waiter is already registered
// for worker_id. The original implementation silently let a second Wait
// replace the first registry entry, which would strand the first waiter
// forever; per the Open Question decision in DESIGN.md, this port rejects
// the double-wait outright instead of reproducing that bug.
var ErrAlreadyAwaited = errors.New("rendezvous: a waiter is already registered for this worker")

// ErrTimeout is returned by Wait when no Completion arrives before the
// deadline. The message deliberately carries the literal substring
// "timeout" (spec.md §7's documented error shape, "timeout after N
// seconds") so callers asserting on that substring can match it.
var ErrTimeout = errors.New("rendezvous: timeout waiting for worker completion")

// noWaiterLogger is the callback Send invokes when no waiter is registered
// for the completion's worker. It is nil (no callback) until installed with
// OnNoWaiter; tests use it to assert on the discard path without depending
// on log output, and cmd/agentcored installs one that logs the discard.
type noWaiterLogger func(workerID agent.ID)

// Registry is the completion rendezvous: a process-wide map of worker_id to
// the channel its (single) waiter is blocked on.
type Registry struct {
	mu      sync.Mutex
	waiters map[agent.ID]chan Completion
	onNoWaiter noWaiterLogger
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{waiters: make(map[agent.ID]chan Completion)}
}

// OnNoWaiter installs a callback invoked whenever Send finds no registered
// waiter for the completion it is delivering. Intended for wiring a logger;
// nil disables the callback.
func (r *Registry) OnNoWaiter(fn func(agent.ID)) {
	r.mu.Lock()
	r.onNoWaiter = fn
	r.mu.Unlock()
}

// Wait blocks until worker_id's Completion is delivered via Send, ctx is
// cancelled, or timeout elapses. It returns ErrAlreadyAwaited immediately if
// another goroutine is already waiting on the same worker_id.
func (r *Registry) Wait(ctx context.Context, workerID agent.ID, timeout time.Duration) (Completion, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ch := make(chan Completion, 1)
	r.mu.Lock()
	if _, exists := r.waiters[workerID]; exists {
		r.mu.Unlock()
		return Completion{}, ErrAlreadyAwaited
	}
	r.waiters[workerID] = ch
	r.mu.Unlock()

	cleanup := func() {
		r.mu.Lock()
		delete(r.waiters, workerID)
		r.mu.Unlock()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case completion := <-ch:
		return completion, nil
	case <-ctx.Done():
		cleanup()
		return Completion{}, ctx.Err()
	case <-timer.C:
		cleanup()
		return Completion{}, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}

// Send delivers completion to whichever goroutine is waiting on its
// WorkerID. If no waiter is registered — the worker finished after its
// caller already timed out, or no one ever called Wait — Send discards the
// completion after invoking the OnNoWaiter callback, matching the original's
// "no waiter" log-and-drop behavior rather than blocking or erroring.
func (r *Registry) Send(completion Completion) {
	r.mu.Lock()
	ch, ok := r.waiters[completion.WorkerID]
	if ok {
		delete(r.waiters, completion.WorkerID)
	}
	onNoWaiter := r.onNoWaiter
	r.mu.Unlock()

	if !ok {
		if onNoWaiter != nil {
			onNoWaiter(completion.WorkerID)
		}
		return
	}
	ch <- completion
}

// Package creation implements the agent-creation request/response bus of
// spec.md §4.3: a way for a running agent's tool call to ask the manager to
// spawn a new worker without holding a reference to the manager itself. The
// tool sends a Request on the bus, the manager's event loop receives it,
// creates the worker, and delivers a matching Response keyed by request ID.
package creation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fibanez/agentcore/agent"
	"github.com/fibanez/agentcore/workspace"
)

// Request asks the manager to create a new worker agent.
type Request struct {
	// ID uniquely identifies this request so its Response can be routed
	// back to the caller that issued it. IDs are assigned by the Bus and
	// are monotonically increasing within a process lifetime.
	ID uint64

	// ShortDescription is a 3-5 word label for UI display.
	ShortDescription string
	// TaskDescription is the task handed to the new worker.
	TaskDescription string
	// ExpectedOutputFormat optionally constrains the worker's output shape.
	ExpectedOutputFormat string
	// ParentID is the manager requesting the new worker.
	ParentID agent.ID

	// Workspace is the workspace reference handed to a PageBuilderWorker; it
	// may be the zero Ref even for a page-builder request, so it does not
	// decide the worker type (IsPageBuilder does).
	Workspace workspace.Ref
	// IsPageBuilder distinguishes a PageBuilderWorker request from a plain
	// TaskWorker request.
	IsPageBuilder bool
	// WorkspaceName names the page workspace to create or reuse
	// (PageBuilderWorker requests only).
	WorkspaceName string
	// Context carries optional extra instructions for a page-builder worker
	// (e.g. prior page content when editing).
	Context string
	// ReuseExisting records the caller's request to reuse an existing page
	// workspace. The manager does no workspace collision detection or
	// allocation; it uses Workspace and WorkspaceName as given whatever this
	// flag says, so the flag does not change how a request is handled.
	ReuseExisting bool
	// IsPersistent marks a page workspace as surviving its worker's
	// termination. Nothing in this module cleans up workspaces, so the
	// flag is carried as metadata only.
	IsPersistent bool
}

// Response answers a Request.
type Response struct {
	AgentID agent.ID
	// WorkspaceName echoes back the workspace attached to the created
	// agent, set only for PageBuilderWorker requests.
	WorkspaceName string
	Success       bool
	Err           error
}

// ErrParentNotFound is the error wrapped into a failed Response when a
// Request names a parent the manager has no record of (spec.md §4.3's
// consumer contract, §4.7's "unknown parent" edge case).
var ErrParentNotFound = errors.New("creation: parent not found")

// SuccessResponse builds a successful Response for the given agent.
func SuccessResponse(id agent.ID) Response {
	return Response{AgentID: id, Success: true}
}

// SuccessPageBuilderResponse builds a successful Response for a newly
// created or reused page-builder workspace.
func SuccessPageBuilderResponse(id agent.ID, workspaceName string) Response {
	return Response{AgentID: id, WorkspaceName: workspaceName, Success: true}
}

// ErrorResponse builds a failed Response carrying err.
func ErrorResponse(id agent.ID, err error) Response {
	return Response{AgentID: id, Success: false, Err: err}
}

// ErrTimeout is returned by RequestCreation when no Response arrives within
// the configured timeout.
var ErrTimeout = errors.New("creation: timed out waiting for response")

// Options configures Bus behavior. The zero value is valid and uses
// DefaultResponseTimeout.
type Options struct {
	// ResponseTimeout bounds how long RequestCreation waits for a matching
	// Response before returning ErrTimeout. Promoted from the teacher's
	// hardcoded 5-second wait to a configurable field (see DESIGN.md's Open
	// Question decisions) so deployments with slower worker start-up paths
	// are not forced to fail requests that would otherwise have succeeded.
	ResponseTimeout time.Duration
}

// DefaultResponseTimeout matches the 5-second wait of the original
// implementation.
const DefaultResponseTimeout = 5 * time.Second

func (o Options) responseTimeout() time.Duration {
	if o.ResponseTimeout <= 0 {
		return DefaultResponseTimeout
	}
	return o.ResponseTimeout
}

// Bus multiplexes creation requests from many caller goroutines onto a
// single receiver (the manager's event loop) and routes each Response back
// to the specific caller that issued the matching Request.
type Bus struct {
	opts Options

	requests chan Request

	nextID uint64 // atomic

	mu       sync.Mutex
	pending  map[uint64]chan Response
}

// NewBus constructs a ready-to-use Bus. The request channel is large enough
// to never block a well-behaved manager loop that drains it promptly; it is
// not a substitute for the manager actually calling Receive.
func NewBus(opts Options) *Bus {
	return &Bus{
		opts:     opts,
		requests: make(chan Request, 64),
		pending:  make(map[uint64]chan Response),
	}
}

// Receive returns the channel the manager's event loop reads creation
// requests from.
func (b *Bus) Receive() <-chan Request {
	return b.requests
}

// RequestCreation submits req, blocking until a matching Response arrives,
// ctx is cancelled, or the configured timeout elapses. req.ID is overwritten
// with a freshly allocated, monotonically increasing request ID.
func (b *Bus) RequestCreation(ctx context.Context, req Request) (agent.ID, error) {
	req.ID = atomic.AddUint64(&b.nextID, 1)

	respCh := make(chan Response, 1)
	b.mu.Lock()
	b.pending[req.ID] = respCh
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, req.ID)
		b.mu.Unlock()
	}()

	select {
	case b.requests <- req:
	case <-ctx.Done():
		return agent.NilID, ctx.Err()
	}

	timer := time.NewTimer(b.opts.responseTimeout())
	defer timer.Stop()

	select {
	case resp := <-respCh:
		if !resp.Success {
			if resp.Err != nil {
				return agent.NilID, fmt.Errorf("creation: request %d failed: %w", req.ID, resp.Err)
			}
			return agent.NilID, fmt.Errorf("creation: request %d failed", req.ID)
		}
		return resp.AgentID, nil
	case <-ctx.Done():
		return agent.NilID, ctx.Err()
	case <-timer.C:
		return agent.NilID, ErrTimeout
	}
}

// RequestPageBuilderCreation is the PageBuilderWorker-specific convenience
// entry point named in spec.md §6: it asks the manager for a worker bound
// to a named workspace, optionally reusing an existing one, and returns the
// new agent's ID alongside the (possibly manager-assigned) workspace name.
func (b *Bus) RequestPageBuilderCreation(ctx context.Context, req Request) (agent.ID, string, error) {
	req.IsPageBuilder = true
	req.ID = atomic.AddUint64(&b.nextID, 1)

	respCh := make(chan Response, 1)
	b.mu.Lock()
	b.pending[req.ID] = respCh
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, req.ID)
		b.mu.Unlock()
	}()

	select {
	case b.requests <- req:
	case <-ctx.Done():
		return agent.NilID, "", ctx.Err()
	}

	timer := time.NewTimer(b.opts.responseTimeout())
	defer timer.Stop()

	select {
	case resp := <-respCh:
		if !resp.Success {
			if resp.Err != nil {
				return agent.NilID, "", fmt.Errorf("creation: request %d failed: %w", req.ID, resp.Err)
			}
			return agent.NilID, "", fmt.Errorf("creation: request %d failed", req.ID)
		}
		return resp.AgentID, resp.WorkspaceName, nil
	case <-ctx.Done():
		return agent.NilID, "", ctx.Err()
	case <-timer.C:
		return agent.NilID, "", ErrTimeout
	}
}

// Respond delivers resp to the caller waiting on the request identified by
// requestID. It is a no-op if no caller is currently waiting on that ID
// (the request already timed out, or requestID is unknown), mirroring the
// discard-if-no-waiter behavior of the completion rendezvous in package
// rendezvous.
func (b *Bus) Respond(requestID uint64, resp Response) {
	b.mu.Lock()
	ch, ok := b.pending[requestID]
	if ok {
		delete(b.pending, requestID)
	}
	b.mu.Unlock()
	if !ok {
		return
	}
	ch <- resp
}

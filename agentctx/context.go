// Package agentctx resolves the "ambient current agent" and "ambient
// current session VFS" identities that spec.md §4.2 models as thread-local
// storage (current_agent_id / current_vfs_id). Go has no safe per-goroutine
// local storage, so per spec.md §9's explicit allowance for message-passing
// languages, this package threads both explicitly through context.Context
// instead: every tool dispatch receives a context carrying the calling
// agent's id and type (read back with AgentFrom) and, for a Manager-typed
// agent, its session VFS id (read back with VFSFrom). Middleware callbacks
// get the agent's id and type on their *middleware.LayerContext instead.
package agentctx

import (
	"context"
	"fmt"

	"github.com/fibanez/agentcore/agent"
)

type contextKey int

const (
	agentKey contextKey = iota
	vfsKey
)

// Identity is the ambient caller identity carried on a context: which agent
// is currently executing, and what kind of agent it is.
type Identity struct {
	ID   agent.ID
	Type agent.Type
}

// WithAgent returns a copy of ctx carrying id as the ambient current agent.
func WithAgent(ctx context.Context, id agent.ID, typ agent.Type) context.Context {
	return context.WithValue(ctx, agentKey, Identity{ID: id, Type: typ})
}

// AgentFrom extracts the ambient agent identity previously attached with
// WithAgent. ok is false if ctx carries no agent identity, which every
// caller outside an agent's own execution goroutine must handle rather than
// assume away (there is no implicit "main thread" identity in this model).
func AgentFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(agentKey).(Identity)
	return id, ok
}

// MustAgentFrom is AgentFrom for call sites that are only ever reached from
// inside an agent's own execution goroutine, where a missing identity is a
// programming error rather than a recoverable condition.
func MustAgentFrom(ctx context.Context) Identity {
	id, ok := AgentFrom(ctx)
	if !ok {
		panic(fmt.Sprintf("agentctx: %T used outside an agent execution context", id))
	}
	return id
}

// WithVFS returns a copy of ctx carrying vfsID as the ambient current
// session VFS, the analogue of spec.md §4.2's set_current_vfs. Only a
// Manager-typed agent has a session VFS; workers dispatch without one.
func WithVFS(ctx context.Context, vfsID string) context.Context {
	return context.WithValue(ctx, vfsKey, vfsID)
}

// VFSFrom extracts the ambient session VFS id previously attached with
// WithVFS. It is the tool-facing accessor behind get_current_vfs_id, and ok
// is false wherever a tool runs with no ambient VFS — every worker
// dispatch, and a manager dispatch with no session VFS configured — which
// tools must treat as get_current_vfs_id's `None`, not as an error.
func VFSFrom(ctx context.Context) (string, bool) {
	vfsID, ok := ctx.Value(vfsKey).(string)
	return vfsID, ok
}

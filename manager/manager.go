// Package manager implements the AgentManager of spec.md §4.7: the sole
// consumer of the creation bus, owner of the agent.ID -> AgentInstance map,
// and the component that turns a worker's termination into a rendezvous
// completion. Grounded on
// original_source/.../agent_creation.rs's consumer contract and
// worker_completion.rs's publish-on-terminate, combined with
// goadesign-goa-ai/runtime/agent/runtime/runtime.go's central-registry
// shape (mutex-guarded map plus logger/metrics/tracer fields).
package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fibanez/agentcore/agent"
	"github.com/fibanez/agentcore/creation"
	"github.com/fibanez/agentcore/hooks"
	"github.com/fibanez/agentcore/instance"
	"github.com/fibanez/agentcore/rendezvous"
	"github.com/fibanez/agentcore/session"
	"github.com/fibanez/agentcore/telemetry"
)

// InstanceFactory builds the Options passed to instance.New for a newly
// requested agent. Callers supply this to wire in the model client,
// system prompt, tools, and middleware stack appropriate to the request
// (e.g. different tool sets for a TaskManager vs. a PageBuilderWorker).
type InstanceFactory func(req creation.Request, typ agent.Type) instance.Options

// Options configures a Manager.
type Options struct {
	// Factory builds per-agent instance.Options. Required.
	Factory InstanceFactory
	// Creation is the bus the Manager consumes creation requests from. If
	// nil, a fresh one is constructed with default options.
	Creation *creation.Bus
	// Rendezvous delivers worker completions to their spawning tool call.
	// If nil, a fresh one is constructed.
	Rendezvous *rendezvous.Registry
	// UIEvents receives lifecycle events. If nil, a fresh bus is
	// constructed.
	UIEvents hooks.Bus
	// Sessions optionally persists session/run metadata. Nil disables
	// persistence (spec.md §11's session expansion: "a session.Store is
	// optional on manager.Manager").
	Sessions session.Store
	// SessionID is the durable session new agents' run metadata is
	// recorded under. Required only when Sessions is non-nil.
	SessionID string
	// Telemetry provides logging/metrics/tracing. Defaults to a no-op
	// bundle.
	Telemetry telemetry.Bundle
}

// Manager owns every live AgentInstance in the process and is the sole
// consumer of the creation bus (spec.md §4.7).
type Manager struct {
	opts Options

	mu        sync.RWMutex
	instances map[agent.ID]*instance.AgentInstance

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New constructs a Manager. The returned Manager does not start consuming
// the creation bus until Run is called.
func New(opts Options) *Manager {
	if opts.Creation == nil {
		opts.Creation = creation.NewBus(creation.Options{})
	}
	if opts.Rendezvous == nil {
		opts.Rendezvous = rendezvous.NewRegistry()
	}
	if opts.UIEvents == nil {
		opts.UIEvents = hooks.NewBus()
	}
	return &Manager{
		opts:      opts,
		instances: make(map[agent.ID]*instance.AgentInstance),
		stopCh:    make(chan struct{}),
	}
}

// Creation returns the bus tools submit creation requests to.
func (m *Manager) Creation() *creation.Bus { return m.opts.Creation }

// Rendezvous returns the registry tools wait on for worker completions.
func (m *Manager) Rendezvous() *rendezvous.Registry { return m.opts.Rendezvous }

// UIEvents returns the bus the UI polls for lifecycle events.
func (m *Manager) UIEvents() hooks.Bus { return m.opts.UIEvents }

// Lookup returns the instance registered under id, or nil if unknown. The
// map is guarded by a reader-writer lock so lookups proceed concurrently
// with creation/destruction (spec.md §5).
func (m *Manager) Lookup(id agent.ID) *instance.AgentInstance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instances[id]
}

// SpawnManager creates and starts a root TaskManager outside the creation
// bus flow (spec.md §2: "or by user action for a root Manager").
func (m *Manager) SpawnManager(ctx context.Context, metadata agent.Metadata) *instance.AgentInstance {
	typ := agent.NewTaskManager()
	id := agent.NewID()
	inst := m.newInstance(id, typ, metadata, creation.Request{})
	m.register(inst)
	inst.Start(ctx)
	m.recordRunUpsert(ctx, id, agent.NilID)
	return inst
}

// Run consumes the creation bus until ctx is cancelled or Shutdown is
// called. It is the Manager's main loop and should be run in its own
// goroutine.
func (m *Manager) Run(ctx context.Context) {
	logger := m.opts.Telemetry.Logger
	for {
		select {
		case req := <-m.opts.Creation.Receive():
			m.handleCreationRequest(ctx, req)
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		}
		if logger != nil {
			logger.Debug(ctx, "manager: drained one creation request")
		}
	}
}

// handleCreationRequest implements spec.md §4.3's consumer contract:
// exactly one Response is produced for every dequeued Request.
func (m *Manager) handleCreationRequest(ctx context.Context, req creation.Request) {
	parent := m.Lookup(req.ParentID)
	if parent == nil {
		m.opts.Creation.Respond(req.ID, creation.ErrorResponse(agent.NilID, creation.ErrParentNotFound))
		return
	}

	var typ agent.Type
	switch {
	case req.IsPageBuilder:
		typ = agent.NewPageBuilderWorker(req.ParentID, req.Workspace)
	default:
		typ = agent.NewTaskWorker(req.ParentID)
	}

	id := agent.NewID()
	metadata := agent.NewMetadata(req.ShortDescription, req.TaskDescription, parent.Metadata().Model, time.Now())
	inst := m.newInstance(id, typ, metadata, req)
	inst.SetShortDescription(req.ShortDescription)
	m.register(inst)

	m.opts.UIEvents.Send(hooks.NewWorkerStarted(id, req.ParentID, req.ShortDescription, 0))
	inst.Start(ctx)
	if err := inst.PostUserMessage(req.TaskDescription); err != nil && m.opts.Telemetry.Logger != nil {
		m.opts.Telemetry.Logger.Warn(ctx, "manager: failed to post initial task to worker", "agent_id", id.String(), "err", err)
	}
	m.recordRunUpsert(ctx, id, req.ParentID)

	if req.IsPageBuilder {
		workspaceName := req.WorkspaceName
		m.opts.Creation.Respond(req.ID, creation.SuccessPageBuilderResponse(id, workspaceName))
		return
	}
	m.opts.Creation.Respond(req.ID, creation.SuccessResponse(id))
}

func (m *Manager) newInstance(id agent.ID, typ agent.Type, metadata agent.Metadata, req creation.Request) *instance.AgentInstance {
	opts := m.opts.Factory(req, typ)
	inst := instance.New(id, typ, metadata, opts)
	inst.OnTerminate = m.onTerminate
	return inst
}

func (m *Manager) register(inst *instance.AgentInstance) {
	m.mu.Lock()
	m.instances[inst.ID()] = inst
	m.mu.Unlock()
}

// onTerminate runs on the terminating instance's own goroutine: for a
// worker it publishes the WorkerCompletion to the rendezvous registry
// (spec.md §4.7's "observe worker termination") and upserts terminal run
// metadata; for a manager it only upserts the run metadata. It sends no UI
// event itself: the instance emits WorkerCompleted or AgentCompleted on its
// own Options.UIEvents bus, when the factory supplied one. It must not block.
func (m *Manager) onTerminate(inst *instance.AgentInstance, finalText string, err error) {
	if inst.Type().IsManager() {
		m.recordRunUpsert(context.Background(), inst.ID(), agent.NilID)
		return
	}
	completion := rendezvous.Completion{WorkerID: inst.ID()}
	if err != nil {
		completion.Err = err
	} else {
		completion.Result = finalText
	}
	m.opts.Rendezvous.Send(completion)

	ctx := context.Background()
	m.recordRunUpsert(ctx, inst.ID(), parentOf(inst.Type()))
}

func parentOf(typ agent.Type) agent.ID {
	parent, _ := typ.ParentOf()
	return parent
}

func (m *Manager) recordRunUpsert(ctx context.Context, id, parent agent.ID) {
	if m.opts.Sessions == nil {
		return
	}
	inst := m.Lookup(id)
	status := agent.StatusRunning
	if inst != nil {
		status = inst.Status()
	}
	err := m.opts.Sessions.UpsertRun(ctx, session.RunMeta{
		AgentID:   id,
		ParentID:  parent,
		SessionID: m.opts.SessionID,
		Status:    status,
	})
	if err != nil && m.opts.Telemetry.Logger != nil {
		m.opts.Telemetry.Logger.Warn(ctx, "manager: failed to upsert run metadata", "agent_id", id.String(), "err", err)
	}
}

// Shutdown cancels every live instance, workers first and managers second
// (spec.md §4.7's "a worker cannot outlive the overall process cleanly"),
// then waits up to the given context for all execution goroutines to exit.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.stopOnce.Do(func() { close(m.stopCh) })

	m.mu.RLock()
	var workers, managers []*instance.AgentInstance
	for _, inst := range m.instances {
		if inst.Type().IsManager() {
			managers = append(managers, inst)
		} else {
			workers = append(workers, inst)
		}
	}
	m.mu.RUnlock()

	for _, w := range workers {
		w.Cancel()
	}
	for _, w := range workers {
		if err := w.Wait(ctx); err != nil {
			return fmt.Errorf("manager: shutdown waiting for worker %s: %w", w.ID(), err)
		}
	}
	for _, mgr := range managers {
		mgr.Cancel()
	}
	for _, mgr := range managers {
		if err := mgr.Wait(ctx); err != nil {
			return fmt.Errorf("manager: shutdown waiting for manager %s: %w", mgr.ID(), err)
		}
	}
	return nil
}

// Package instance implements the AgentInstance aggregate and its execution
// loop (spec.md §4.6): the per-agent state machine that owns a transcript,
// calls the model, dispatches tool calls, and runs the middleware stack
// around each turn. Grounded on original_source/.../agent_types.rs for the
// status/metadata shape and worker_completion.rs for result delivery,
// combined with goadesign-goa-ai/runtime/agent/runtime/workflow_loop.go's
// plan -> respond -> dispatch-tools -> repeat loop shape, simplified to a
// single goroutine per agent with no durable workflow engine underneath.
package instance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fibanez/agentcore/agent"
	"github.com/fibanez/agentcore/agentctx"
	"github.com/fibanez/agentcore/hooks"
	"github.com/fibanez/agentcore/middleware"
	"github.com/fibanez/agentcore/modelclient"
	"github.com/fibanez/agentcore/telemetry"
	"github.com/fibanez/agentcore/transcript"
)

// ErrTerminal is returned by operations attempted against an instance whose
// status is already terminal (Completed, Failed, or Cancelled).
var ErrTerminal = errors.New("instance: agent is terminal")

// Tool is one function an agent's model may invoke. Dispatch happens on the
// instance's own execution goroutine; Tools must not assume they run
// concurrently with other calls against the same instance.
type Tool interface {
	// Name is the identifier the model uses to request this tool.
	Name() string
	// Description is shown to the model alongside InputSchema.
	Description() string
	// InputSchema describes the tool's expected arguments, passed through
	// to modelclient.ToolDefinition verbatim.
	InputSchema() any
	// Invoke runs the tool with the ambient agent identity already set in
	// ctx (see agentctx.WithAgent), returning the result payload or an
	// error. A returned error becomes an IsError tool_result turn; it does
	// not fail the agent's execution loop.
	Invoke(ctx context.Context, input any) (any, error)
}

// Options configures a new AgentInstance.
type Options struct {
	// Model is the provider-qualified model selection for this agent.
	Model modelclient.Client
	// SystemPrompt is the system-role instruction sent with every model
	// call.
	SystemPrompt string
	// Tools lists the tools available to this agent's model calls.
	Tools []Tool
	// Middleware is the conversation-layer stack run around each turn. A
	// nil stack behaves like an empty one.
	Middleware *middleware.Stack
	// UIEvents receives WorkerToolStarted/WorkerToolCompleted/
	// WorkerTokensUpdated/WorkerCompleted events when this instance is a
	// worker, and AgentCompleted when it is a manager. May be nil, in which
	// case no events are emitted.
	UIEvents hooks.Bus
	// SessionVFSID is the session VFS this instance's tools should see as
	// the ambient current-vfs (spec.md §4.2/§4.6). Only meaningful for a
	// Manager-typed instance; left empty, a Manager dispatches tools with
	// no ambient VFS, same as any worker.
	SessionVFSID string
	// Telemetry provides logging/metrics/tracing. Defaults to a no-op
	// bundle.
	Telemetry telemetry.Bundle
	// MaxTokens and Temperature are passed through to every model call.
	MaxTokens   int
	Temperature float32
}

// AgentInstance is the aggregate spec.md §4.6 describes: identity, type,
// metadata, status, transcript, short description, token counters, and
// (for workers) the execution goroutine's cancellation handle.
type AgentInstance struct {
	id   agent.ID
	typ  agent.Type
	opts Options

	mu               sync.Mutex
	metadata         agent.Metadata
	status           agent.Status
	shortDescription string
	tokensIn         uint64
	tokensOut        uint64
	tokensTotal      uint64

	ledger *transcript.Ledger

	inbox  chan transcript.Turn
	cancel context.CancelFunc
	done   chan struct{}

	// OnTerminate is invoked exactly once, from the execution goroutine,
	// when the instance reaches a terminal status. finalText carries the
	// final assistant text on success and is empty on error; err carries
	// the failure (nil on success and on cancellation). The
	// manager uses this to publish a rendezvous completion and UI event;
	// it must not block.
	OnTerminate func(inst *AgentInstance, finalText string, err error)
}

// New constructs an AgentInstance in the Running status but does not start
// its execution goroutine; call Start to begin processing turns.
func New(id agent.ID, typ agent.Type, metadata agent.Metadata, opts Options) *AgentInstance {
	return &AgentInstance{
		id:       id,
		typ:      typ,
		opts:     opts,
		metadata: metadata,
		status:   agent.StatusRunning,
		ledger:   transcript.NewLedger(),
		inbox:    make(chan transcript.Turn, 16),
		done:     make(chan struct{}),
	}
}

// ID returns the instance's identity.
func (a *AgentInstance) ID() agent.ID { return a.id }

// Type returns the instance's agent type.
func (a *AgentInstance) Type() agent.Type { return a.typ }

// Status returns the instance's current status.
func (a *AgentInstance) Status() agent.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Metadata returns a copy of the instance's metadata.
func (a *AgentInstance) Metadata() agent.Metadata {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.metadata
}

// ShortDescription returns the inline UI label set at creation or via
// SetShortDescription, supplementing spec.md §3's under-specified field
// per original_source's ui_events.rs.
func (a *AgentInstance) ShortDescription() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.shortDescription
}

// SetShortDescription updates the inline UI label.
func (a *AgentInstance) SetShortDescription(s string) {
	a.mu.Lock()
	a.shortDescription = s
	a.mu.Unlock()
}

// Tokens returns the cumulative input/output/total token counters.
func (a *AgentInstance) Tokens() (in, out, total uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tokensIn, a.tokensOut, a.tokensTotal
}

// UpdateTokens adds deltaIn/deltaOut to the cumulative counters and, for
// worker-typed instances, emits a WorkerTokensUpdated UI event — the
// original's split between manager-only and worker-only event classes
// (original_source's worker_completion.rs / ui_events.rs).
func (a *AgentInstance) UpdateTokens(deltaIn, deltaOut uint64) {
	a.mu.Lock()
	a.tokensIn += deltaIn
	a.tokensOut += deltaOut
	a.tokensTotal += deltaIn + deltaOut
	in, out, total := a.tokensIn, a.tokensOut, a.tokensTotal
	a.mu.Unlock()

	if a.opts.UIEvents == nil || a.typ.IsManager() {
		return
	}
	parent, _ := a.typ.ParentOf()
	a.opts.UIEvents.Send(hooks.NewWorkerTokensUpdated(a.id, parent, uint32(in), uint32(out), uint32(total)))
}

// Start launches the execution goroutine. Calling Start twice is a
// programmer error and panics, matching spec.md §7's treatment of
// invariant violations as fatal.
func (a *AgentInstance) Start(ctx context.Context) {
	if a.cancel != nil {
		panic("instance: Start called twice")
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	runCtx = agentctx.WithAgent(runCtx, a.id, a.typ)
	go a.run(runCtx)
}

// PostUserMessage appends a User turn and wakes the execution loop
// (spec.md §4.6's post_user_message).
func (a *AgentInstance) PostUserMessage(text string) error {
	if a.Status().IsTerminal() {
		return ErrTerminal
	}
	select {
	case a.inbox <- transcript.Turn{Role: transcript.RoleUser, Parts: []transcript.Part{transcript.TextPart{Text: text}}}:
		return nil
	case <-a.done:
		return ErrTerminal
	}
}

// Cancel cooperatively stops the execution loop, transitioning status
// toward Cancelled. Idempotent: calling it after termination has no
// further effect (spec.md §8's round-trip invariant).
func (a *AgentInstance) Cancel() {
	a.mu.Lock()
	alreadyTerminal := a.status.IsTerminal()
	a.mu.Unlock()
	if alreadyTerminal {
		return
	}
	if a.cancel != nil {
		a.cancel()
	}
}

// Done returns a channel closed once the execution loop has terminated.
func (a *AgentInstance) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the execution loop terminates or ctx is cancelled.
func (a *AgentInstance) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *AgentInstance) setStatus(next agent.Status) {
	a.mu.Lock()
	a.status = next
	a.mu.Unlock()
}

// run is the execution loop of spec.md §4.6:
//  1. wait for the next User turn (initial task or follow-up);
//  2. run middleware pre_response;
//  3. call the model;
//  4. append the assistant turn;
//  5. dispatch tool calls, appending ToolResult turns;
//  6. run on_tool_complete / on_post_response; a follow-up loops to 2;
//  7. otherwise loop to 1.
func (a *AgentInstance) run(ctx context.Context) {
	defer close(a.done)

	logger := a.opts.Telemetry.Logger
	layerCtx := middleware.NewLayerContext(a.id, a.typ)

	var finalText string
	var runErr error

	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("instance: panic in execution loop: %v", r)
		}
		terminal := agent.StatusCompleted
		if ctx.Err() != nil && runErr == nil {
			terminal = agent.StatusCancelled
		} else if runErr != nil {
			terminal = agent.StatusFailed(runErr.Error())
		}
		a.setStatus(terminal)
		if a.opts.UIEvents != nil {
			if parent, ok := a.typ.ParentOf(); ok {
				a.opts.UIEvents.Send(hooks.NewWorkerCompleted(a.id, parent, runErr == nil))
			} else {
				a.opts.UIEvents.Send(hooks.NewAgentCompleted(a.id))
			}
		}
		if a.OnTerminate != nil {
			a.OnTerminate(a, finalText, runErr)
		}
	}()

	for {
		select {
		case turn := <-a.inbox:
			a.ledger.AppendUserText(extractText(turn))
		case <-ctx.Done():
			return
		}

	turnLoop:
		for {
			if ctx.Err() != nil {
				return
			}

			// Each model turn gets a fresh LayerContext, so layer metadata
			// is shared by the layers within one turn only; the counters
			// and last-tool fields carry forward.
			next := middleware.NewLayerContext(a.id, a.typ)
			next.TokenCount, next.TurnCount, next.MessageCount = layerCtx.TokenCount, layerCtx.TurnCount, layerCtx.MessageCount
			next.LastTool, next.LastToolSuccess = layerCtx.LastTool, layerCtx.LastToolSuccess
			layerCtx = next

			if a.opts.Middleware != nil {
				a.opts.Middleware.RunPreResponse(layerCtx)
			}

			resp, err := a.callModel(ctx)
			if err != nil {
				runErr = fmt.Errorf("model call failed: %w", err)
				return
			}

			a.ledger.AppendAssistantText(resp.Text)
			for _, call := range resp.ToolCalls {
				a.ledger.DeclareToolUse(call.ID, call.Name, call.Input)
			}
			a.ledger.FlushAssistant()
			layerCtx.TurnCount++
			layerCtx.MessageCount = len(a.ledger.Turns())
			layerCtx.TokenCount += resp.Usage.TotalTokens
			a.UpdateTokens(uint64(resp.Usage.InputTokens), uint64(resp.Usage.OutputTokens))

			hadToolCalls := len(resp.ToolCalls) > 0
			if hadToolCalls {
				results := a.dispatchTools(ctx, resp.ToolCalls, layerCtx)
				a.ledger.AppendUserToolResults(results)
			}

			injected := false
			if a.opts.Middleware != nil {
				action := a.opts.Middleware.RunPostResponse(resp.Text, layerCtx)
				if prompt, inject := action.ShouldInjectFollowUp(); inject {
					a.ledger.AppendUserText(prompt)
					injected = true
				}
			}

			// A response with pending tool results always needs another
			// model turn to interpret them; only a response with no tool
			// calls and no injected follow-up is a genuine stopping point
			// (spec.md §4.7's "no follow-up, no pending user input").
			if hadToolCalls || injected {
				continue turnLoop
			}
			finalText = resp.Text
			break turnLoop
		}

		// A worker is a one-shot task: reaching an orderly stopping point
		// is its completion, and the result is handed to AgentManager via
		// OnTerminate for rendezvous delivery. A manager is a standing
		// session: it loops back to wait for the next user message instead
		// of terminating (spec.md §4.7 distinguishes worker lifecycles,
		// which end in a result, from a manager's, which persists).
		if !a.typ.IsManager() {
			return
		}
		if logger != nil {
			logger.Debug(ctx, "instance: turn complete, awaiting next user message", "agent_id", a.id.String())
		}
	}
}

func extractText(turn transcript.Turn) string {
	var out string
	for _, p := range turn.Parts {
		if tp, ok := p.(transcript.TextPart); ok {
			out += tp.Text
		}
	}
	return out
}

func (a *AgentInstance) callModel(ctx context.Context) (*modelclient.Response, error) {
	tools := make([]modelclient.ToolDefinition, 0, len(a.opts.Tools))
	for _, t := range a.opts.Tools {
		tools = append(tools, modelclient.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	req := &modelclient.Request{
		Model:        a.Metadata().Model,
		Turns:        a.ledger.Turns(),
		SystemPrompt: a.opts.SystemPrompt,
		Tools:        tools,
		MaxTokens:    a.opts.MaxTokens,
		Temperature:  a.opts.Temperature,
	}
	return a.opts.Model.Complete(ctx, req)
}

func (a *AgentInstance) dispatchTools(ctx context.Context, calls []transcript.ToolUsePart, layerCtx *middleware.LayerContext) []transcript.ToolResultPart {
	byName := make(map[string]Tool, len(a.opts.Tools))
	for _, t := range a.opts.Tools {
		byName[t.Name()] = t
	}

	// Tool-dispatch contract (spec.md §4.6): the runtime sets the
	// ambient current-vfs to the session VFS only for a Manager; workers
	// always dispatch with no ambient VFS. dispatchCtx is derived fresh
	// from ctx (which already carries the ambient agent identity set in
	// Start) rather than stored on a, so it is discarded the moment this
	// call returns — the behavioral equivalent of clear_current_vfs.
	dispatchCtx := ctx
	if a.typ.IsManager() && a.opts.SessionVFSID != "" {
		dispatchCtx = agentctx.WithVFS(ctx, a.opts.SessionVFSID)
	}

	results := make([]transcript.ToolResultPart, 0, len(calls))
	for _, call := range calls {
		if a.opts.UIEvents != nil {
			if parent, ok := a.typ.ParentOf(); ok {
				a.opts.UIEvents.Send(hooks.NewWorkerToolStarted(a.id, parent, call.Name))
			}
		}

		tool, ok := byName[call.Name]
		var content any
		var toolErr error
		if !ok {
			toolErr = fmt.Errorf("instance: unknown tool %q", call.Name)
		} else {
			content, toolErr = tool.Invoke(dispatchCtx, call.Input)
		}
		success := toolErr == nil

		layerCtx.LastTool = call.Name
		layerCtx.LastToolSuccess = success
		if a.opts.Middleware != nil {
			a.opts.Middleware.RunToolComplete(call.Name, success, layerCtx)
		}
		if a.opts.UIEvents != nil {
			if parent, ok := a.typ.ParentOf(); ok {
				a.opts.UIEvents.Send(hooks.NewWorkerToolCompleted(a.id, parent, call.Name, success))
			}
		}

		if toolErr != nil {
			results = append(results, transcript.ToolResultPart{ToolUseID: call.ID, Content: toolErr.Error(), IsError: true})
			continue
		}
		results = append(results, transcript.ToolResultPart{ToolUseID: call.ID, Content: content})
	}
	return results
}


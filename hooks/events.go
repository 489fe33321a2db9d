// Package hooks implements the global UI event channel of spec.md §4.4: a
// single process-wide queue that lets agent tools signal UI-relevant state
// changes (a worker started, a tool completed, token usage changed) without
// holding a reference to whatever is rendering the UI.
//
// Unlike runtime/agent/hooks.Bus in the broader agent runtime, which fans a
// published event out to every registered Subscriber synchronously, this bus
// has exactly one logical consumer (the UI poll loop) and never blocks a
// sender: Send enqueues and returns immediately, and TryRecv drains the
// queue in the order events were sent.
package hooks

import "github.com/fibanez/agentcore/agent"

// EventKind discriminates the closed set of AgentUIEvent variants. The set
// is closed deliberately: adding a ninth variant is a breaking change to
// every UI that switches on EventKind, so new UI-relevant signals should be
// modeled as new fields on an existing variant where possible.
type EventKind int

const (
	// SwitchToAgent asks the UI to display the named agent, sent when a new
	// worker is spawned and should become the focused view.
	SwitchToAgent EventKind = iota
	// SwitchToParent asks the UI to return to the parent of a worker that
	// has just completed.
	SwitchToParent
	// AgentCompleted notifies the UI that an agent finished, so task
	// indicators and active-agent lists can be updated.
	AgentCompleted
	// WorkerStarted notifies the UI that a TaskManager spawned a worker.
	WorkerStarted
	// WorkerToolStarted notifies the UI that a worker began executing a tool.
	WorkerToolStarted
	// WorkerToolCompleted notifies the UI that a worker's tool call finished.
	WorkerToolCompleted
	// WorkerCompleted notifies the UI that a worker finished its work.
	WorkerCompleted
	// WorkerTokensUpdated notifies the UI of a worker's cumulative token
	// usage after a model call.
	WorkerTokensUpdated
)

func (k EventKind) String() string {
	switch k {
	case SwitchToAgent:
		return "SwitchToAgent"
	case SwitchToParent:
		return "SwitchToParent"
	case AgentCompleted:
		return "AgentCompleted"
	case WorkerStarted:
		return "WorkerStarted"
	case WorkerToolStarted:
		return "WorkerToolStarted"
	case WorkerToolCompleted:
		return "WorkerToolCompleted"
	case WorkerCompleted:
		return "WorkerCompleted"
	case WorkerTokensUpdated:
		return "WorkerTokensUpdated"
	default:
		return "Unknown"
	}
}

// Event is a single UI-relevant occurrence. Only the fields relevant to Kind
// are meaningful; the others are left at their zero value. A struct-of-all-
// fields tagged by Kind is used instead of an interface{} payload so the
// event can be copied and compared by value, matching the teacher's
// preference for plain data types on the hot path.
type Event struct {
	Kind EventKind

	AgentID  agent.ID // SwitchToAgent, SwitchToParent, AgentCompleted
	WorkerID agent.ID // WorkerStarted, WorkerToolStarted, WorkerToolCompleted, WorkerCompleted, WorkerTokensUpdated
	ParentID agent.ID // WorkerStarted, WorkerToolStarted, WorkerToolCompleted, WorkerCompleted, WorkerTokensUpdated

	ShortDescription string // WorkerStarted
	MessageIndex     int    // WorkerStarted

	ToolName string // WorkerToolStarted, WorkerToolCompleted
	Success  bool   // WorkerToolCompleted, WorkerCompleted

	InputTokens  uint32 // WorkerTokensUpdated
	OutputTokens uint32 // WorkerTokensUpdated
	TotalTokens  uint32 // WorkerTokensUpdated
}

// NewSwitchToAgent builds a SwitchToAgent event.
func NewSwitchToAgent(id agent.ID) Event {
	return Event{Kind: SwitchToAgent, AgentID: id}
}

// NewSwitchToParent builds a SwitchToParent event.
func NewSwitchToParent(parentID agent.ID) Event {
	return Event{Kind: SwitchToParent, AgentID: parentID}
}

// NewAgentCompleted builds an AgentCompleted event.
func NewAgentCompleted(id agent.ID) Event {
	return Event{Kind: AgentCompleted, AgentID: id}
}

// NewWorkerStarted builds a WorkerStarted event.
func NewWorkerStarted(workerID, parentID agent.ID, shortDescription string, messageIndex int) Event {
	return Event{
		Kind:             WorkerStarted,
		WorkerID:         workerID,
		ParentID:         parentID,
		ShortDescription: shortDescription,
		MessageIndex:     messageIndex,
	}
}

// NewWorkerToolStarted builds a WorkerToolStarted event.
func NewWorkerToolStarted(workerID, parentID agent.ID, toolName string) Event {
	return Event{Kind: WorkerToolStarted, WorkerID: workerID, ParentID: parentID, ToolName: toolName}
}

// NewWorkerToolCompleted builds a WorkerToolCompleted event.
func NewWorkerToolCompleted(workerID, parentID agent.ID, toolName string, success bool) Event {
	return Event{
		Kind:     WorkerToolCompleted,
		WorkerID: workerID,
		ParentID: parentID,
		ToolName: toolName,
		Success:  success,
	}
}

// NewWorkerCompleted builds a WorkerCompleted event.
func NewWorkerCompleted(workerID, parentID agent.ID, success bool) Event {
	return Event{Kind: WorkerCompleted, WorkerID: workerID, ParentID: parentID, Success: success}
}

// NewWorkerTokensUpdated builds a WorkerTokensUpdated event.
func NewWorkerTokensUpdated(workerID, parentID agent.ID, input, output, total uint32) Event {
	return Event{
		Kind:         WorkerTokensUpdated,
		WorkerID:     workerID,
		ParentID:     parentID,
		InputTokens:  input,
		OutputTokens: output,
		TotalTokens:  total,
	}
}

package agent

import (
	"fmt"
	"time"

	"github.com/fibanez/agentcore/workspace"
)

// Kind discriminates the tagged Type variants without exposing their
// payloads. Callers that only need to branch on the kind (e.g. policy
// checks) can switch on the Kind field instead of pattern-matching the full
// Type.
type Kind int

const (
	// KindTaskManager is a top-level agent that plans and spawns workers.
	KindTaskManager Kind = iota
	// KindTaskWorker is a subordinate agent created to carry out one task.
	KindTaskWorker
	// KindPageBuilderWorker is a TaskWorker specialization that renders its
	// output into a workspace.
	KindPageBuilderWorker
)

func (k Kind) String() string {
	switch k {
	case KindTaskManager:
		return "TaskManager"
	case KindTaskWorker:
		return "TaskWorker"
	case KindPageBuilderWorker:
		return "PageBuilderWorker"
	default:
		return "Unknown"
	}
}

// Type is the tagged variant of spec.md §3's AgentType. Every non-manager
// variant carries a Parent that must reference a live Manager at creation
// time; the Manager may terminate before the worker does (spec.md §4.7's
// "duplicate parent death" edge case), so Parent is not re-validated later.
type Type struct {
	Kind      Kind
	Parent    ID              // zero for KindTaskManager
	Workspace workspace.Ref   // only meaningful for KindPageBuilderWorker
}

// NewTaskManager constructs the TaskManager variant.
func NewTaskManager() Type {
	return Type{Kind: KindTaskManager}
}

// NewTaskWorker constructs the TaskWorker variant for the given parent.
func NewTaskWorker(parent ID) Type {
	return Type{Kind: KindTaskWorker, Parent: parent}
}

// NewPageBuilderWorker constructs the PageBuilderWorker variant.
func NewPageBuilderWorker(parent ID, ws workspace.Ref) Type {
	return Type{Kind: KindPageBuilderWorker, Parent: parent, Workspace: ws}
}

// IsManager reports whether t is the TaskManager variant.
func (t Type) IsManager() bool {
	return t.Kind == KindTaskManager
}

// ParentOf returns the parent id and true for any worker variant, or the
// zero ID and false for a manager.
func (t Type) ParentOf() (ID, bool) {
	if t.Kind == KindTaskManager {
		return NilID, false
	}
	return t.Parent, true
}

func (t Type) String() string {
	return t.Kind.String()
}

// Status is the agent execution status. Transitions are monotone toward a
// terminal state (Completed, Failed, or Cancelled); once terminal, no
// further transition is permitted (spec.md §3, §8 invariant 5).
type Status struct {
	state   statusState
	message string // only meaningful when state == statusFailed
}

type statusState int

const (
	statusRunning statusState = iota
	statusPaused
	statusCompleted
	statusFailed
	statusCancelled
)

// StatusRunning is the initial status of every newly created agent.
var StatusRunning = Status{state: statusRunning}

// StatusPaused indicates execution is suspended but not terminal.
var StatusPaused = Status{state: statusPaused}

// StatusCompleted is a terminal success status.
var StatusCompleted = Status{state: statusCompleted}

// StatusCancelled is a terminal status reached via cooperative cancellation.
var StatusCancelled = Status{state: statusCancelled}

// StatusFailed builds a terminal failure status. msg must be non-empty
// (spec.md §4.1 invariant: "AgentStatus::Failed(msg) carries a non-empty
// message").
func StatusFailed(msg string) Status {
	if msg == "" {
		msg = "failed"
	}
	return Status{state: statusFailed, message: msg}
}

// IsTerminal reports whether the status is Completed, Failed, or Cancelled.
func (s Status) IsTerminal() bool {
	return s.state == statusCompleted || s.state == statusFailed || s.state == statusCancelled
}

// Message returns the failure message; empty unless the status is Failed.
func (s Status) Message() string {
	return s.message
}

func (s Status) String() string {
	switch s.state {
	case statusRunning:
		return "Running"
	case statusPaused:
		return "Paused"
	case statusCompleted:
		return "Completed"
	case statusFailed:
		return fmt.Sprintf("Failed(%s)", s.message)
	case statusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Equal reports whether two statuses carry the same state and message.
func (s Status) Equal(other Status) bool {
	return s.state == other.state && s.message == other.message
}

// CanTransitionTo reports whether moving from s to next is a legal
// transition under spec.md §3/§8's monotonicity invariant: no transition is
// permitted out of a terminal state, and any non-terminal state may move to
// any other state (including back to Running from Paused).
func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	return true
}

// Metadata is the descriptive, non-identity state of an agent: its name,
// purpose, model selection, and creation/update timestamps (spec.md §3).
type Metadata struct {
	Name        string
	Description string
	Model       string // provider-qualified model identifier, e.g. "anthropic:claude-sonnet"
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewMetadata constructs Metadata with both timestamps set to now.
func NewMetadata(name, description, model string, now time.Time) Metadata {
	return Metadata{Name: name, Description: description, Model: model, CreatedAt: now, UpdatedAt: now}
}

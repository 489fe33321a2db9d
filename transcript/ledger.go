// Package transcript records the ordered conversation an AgentInstance has
// with its model: user turns, assistant text/tool-use turns, and the tool
// results fed back in response. It is the provider-agnostic record the
// execution loop in package instance replays into a modelclient.Request on
// each iteration, grounded on runtime/agent/transcript.Ledger's
// provider-fidelity design (thinking/text/tool_use ordering preserved
// exactly) but trimmed to the single canonical role set this module's
// model clients need.
package transcript

import "fmt"

// Role identifies who produced a Turn.
type Role int

const (
	// RoleUser is a user-authored turn: the initial task description, or a
	// tool_result turn fed back to the model.
	RoleUser Role = iota
	// RoleAssistant is a model-authored turn: text and/or tool_use parts.
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Part is one fragment of a Turn's content, preserved in provider order.
type Part interface {
	isPart()
}

// TextPart is plain visible text.
type TextPart struct {
	Text string
}

// ToolUsePart declares a tool invocation the assistant requested.
type ToolUsePart struct {
	ID    string
	Name  string
	Input any
}

// ToolResultPart answers a prior ToolUsePart, correlated by ToolUseID.
type ToolResultPart struct {
	ToolUseID string
	Content   any
	IsError   bool
}

func (TextPart) isPart()       {}
func (ToolUsePart) isPart()    {}
func (ToolResultPart) isPart() {}

// Turn is one role-tagged message in the conversation.
type Turn struct {
	Role  Role
	Parts []Part
}

// Ledger accumulates Turns for a single agent's conversation. It is not
// safe for concurrent use; an AgentInstance owns exactly one Ledger and
// only its own execution goroutine touches it.
type Ledger struct {
	turns   []Turn
	current *Turn
}

// NewLedger constructs an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{turns: make([]Turn, 0, 8)}
}

// AppendUserText starts a new user turn carrying plain text, flushing
// whatever assistant turn was in progress.
func (l *Ledger) AppendUserText(text string) {
	l.flush()
	l.turns = append(l.turns, Turn{Role: RoleUser, Parts: []Part{TextPart{Text: text}}})
}

// AppendUserToolResults starts a new user turn carrying the given tool
// results, in the order supplied.
func (l *Ledger) AppendUserToolResults(results []ToolResultPart) {
	l.flush()
	if len(results) == 0 {
		return
	}
	parts := make([]Part, 0, len(results))
	for _, r := range results {
		parts = append(parts, r)
	}
	l.turns = append(l.turns, Turn{Role: RoleUser, Parts: parts})
}

// AppendAssistantText appends text to the in-progress assistant turn,
// opening one if none is open.
func (l *Ledger) AppendAssistantText(text string) {
	if text == "" {
		return
	}
	l.openAssistant()
	l.current.Parts = append(l.current.Parts, TextPart{Text: text})
}

// DeclareToolUse appends a tool_use part to the in-progress assistant turn.
func (l *Ledger) DeclareToolUse(id, name string, input any) {
	l.openAssistant()
	l.current.Parts = append(l.current.Parts, ToolUsePart{ID: id, Name: name, Input: input})
}

// FlushAssistant finalizes the in-progress assistant turn, if any.
func (l *Ledger) FlushAssistant() {
	l.flush()
}

// Turns returns the finalized turns recorded so far, flushing any
// in-progress assistant turn first. The returned slice must not be mutated.
func (l *Ledger) Turns() []Turn {
	l.flush()
	return l.turns
}

// PendingToolUseIDs returns the IDs of tool_use parts declared in the most
// recently flushed assistant turn, flushing any in-progress assistant turn
// first. It returns nil when the last turn is not an assistant turn.
func (l *Ledger) PendingToolUseIDs() []string {
	l.flush()
	if len(l.turns) == 0 {
		return nil
	}
	last := l.turns[len(l.turns)-1]
	if last.Role != RoleAssistant {
		return nil
	}
	var ids []string
	for _, p := range last.Parts {
		if tu, ok := p.(ToolUsePart); ok && tu.ID != "" {
			ids = append(ids, tu.ID)
		}
	}
	return ids
}

// Validate checks the handshake invariant shared by every provider this
// module talks to: a user turn of tool results must immediately follow an
// assistant turn declaring at least that many matching tool_use ids.
func (l *Ledger) Validate() error {
	turns := l.Turns()
	for i, t := range turns {
		if t.Role != RoleAssistant {
			continue
		}
		useIDs := map[string]struct{}{}
		for _, p := range t.Parts {
			if tu, ok := p.(ToolUsePart); ok && tu.ID != "" {
				useIDs[tu.ID] = struct{}{}
			}
		}
		if len(useIDs) == 0 {
			continue
		}
		if i+1 >= len(turns) || turns[i+1].Role != RoleUser {
			return fmt.Errorf("transcript: assistant tool_use at turn %d has no following tool_result turn", i)
		}
		for _, p := range turns[i+1].Parts {
			tr, ok := p.(ToolResultPart)
			if !ok {
				continue
			}
			if _, declared := useIDs[tr.ToolUseID]; !declared {
				return fmt.Errorf("transcript: tool_result %q does not match any tool_use in the preceding assistant turn", tr.ToolUseID)
			}
		}
	}
	return nil
}

// IsEmpty reports whether the ledger holds no turns, including any
// in-progress assistant turn.
func (l *Ledger) IsEmpty() bool {
	if l == nil {
		return true
	}
	return len(l.turns) == 0 && (l.current == nil || len(l.current.Parts) == 0)
}

func (l *Ledger) openAssistant() {
	if l.current == nil {
		l.current = &Turn{Role: RoleAssistant}
	}
}

func (l *Ledger) flush() {
	if l.current == nil || len(l.current.Parts) == 0 {
		l.current = nil
		return
	}
	l.turns = append(l.turns, *l.current)
	l.current = nil
}

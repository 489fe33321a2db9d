// Package middleware implements the conversation-layer stack of spec.md
// §4.6: an ordered list of layers that observe an agent's model responses
// and tool completions, with the option to inject a follow-up prompt before
// the agent's execution loop decides the turn is finished.
//
// Grounded on original_source/.../middleware/context.rs for LayerContext's
// field set and original_source/.../middleware/layers/auto_analysis.rs for
// the ConversationLayer contract those fields are passed through.
package middleware

import (
	"sync"
	"time"

	"github.com/fibanez/agentcore/agent"
)

// PostResponseAction is a layer's verdict after observing an assistant
// response.
type PostResponseAction struct {
	injectFollowUp bool
	followUpPrompt string
}

// PassThrough is the default action: the layer has nothing to add.
var PassThrough = PostResponseAction{}

// InjectFollowUp builds an action that asks the execution loop to send
// prompt back to the model as an additional user turn before concluding.
func InjectFollowUp(prompt string) PostResponseAction {
	return PostResponseAction{injectFollowUp: true, followUpPrompt: prompt}
}

// ShouldInjectFollowUp reports whether this action requests a follow-up,
// and if so, what prompt to send.
func (a PostResponseAction) ShouldInjectFollowUp() (string, bool) {
	return a.followUpPrompt, a.injectFollowUp
}

// LayerContext carries the per-turn state layers use to make decisions. The
// execution loop builds a fresh one at the start of each model turn,
// carrying the counters and last-tool fields forward, so metadata is shared
// by the layers within that turn only; mirrors middleware/context.rs's
// LayerContext.
type LayerContext struct {
	AgentID   agent.ID
	AgentType agent.Type

	TokenCount   int
	TurnCount    int
	MessageCount int

	LastTool        string
	LastToolSuccess bool

	ProcessingStart time.Time

	mu       sync.Mutex
	metadata map[string]string
}

// NewLayerContext constructs a LayerContext for agentID/agentType with all
// counters at zero.
func NewLayerContext(agentID agent.ID, agentType agent.Type) *LayerContext {
	return &LayerContext{AgentID: agentID, AgentType: agentType, LastToolSuccess: true}
}

// WithProcessingStart marks processing as started now and returns the
// context for chaining.
func (c *LayerContext) WithProcessingStart(now time.Time) *LayerContext {
	c.ProcessingStart = now
	return c
}

// ElapsedSince reports the duration since ProcessingStart, or zero if
// processing was never marked started.
func (c *LayerContext) ElapsedSince(now time.Time) time.Duration {
	if c.ProcessingStart.IsZero() {
		return 0
	}
	return now.Sub(c.ProcessingStart)
}

// SetMetadata stores a layer-shared key/value pair.
func (c *LayerContext) SetMetadata(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metadata == nil {
		c.metadata = make(map[string]string)
	}
	c.metadata[key] = value
}

// GetMetadata retrieves a previously stored metadata value.
func (c *LayerContext) GetMetadata(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.metadata[key]
	return v, ok
}

// IsLongConversation reports whether TokenCount exceeds threshold.
func (c *LayerContext) IsLongConversation(threshold int) bool {
	return c.TokenCount > threshold
}

// ManyTurns reports whether TurnCount exceeds threshold.
func (c *LayerContext) ManyTurns(threshold int) bool {
	return c.TurnCount > threshold
}

// Layer is a single conversation middleware. All three methods are
// optional in spirit: a layer with nothing to say on a given hook can
// return PassThrough / do nothing, which is exactly what Base provides via
// embedding.
type Layer interface {
	// Name identifies the layer for logging and diagnostics.
	Name() string
	// OnPreResponse runs before the model is called for this turn.
	OnPreResponse(ctx *LayerContext)
	// OnPostResponse runs after the model returns response text for this
	// turn and decides whether to inject a follow-up prompt.
	OnPostResponse(response string, ctx *LayerContext) PostResponseAction
	// OnToolComplete runs after a tool call finishes, successfully or not.
	OnToolComplete(toolName string, success bool, ctx *LayerContext)
}

// Base is embedded by layers that only care about one or two of the three
// hooks, so they don't have to write no-op bodies for the rest.
type Base struct{}

func (Base) OnPreResponse(*LayerContext)                                {}
func (Base) OnPostResponse(string, *LayerContext) PostResponseAction    { return PassThrough }
func (Base) OnToolComplete(string, bool, *LayerContext)                 {}

// Stack runs an ordered list of Layers. OnPostResponse evaluates layers in
// order and returns the first InjectFollowUp verdict; later layers are
// still invoked (for their side effects / metadata writes) but their
// verdict is discarded once a winner is found.
type Stack struct {
	layers []Layer
}

// NewStack constructs a Stack running layers in the given order.
func NewStack(layers ...Layer) *Stack {
	return &Stack{layers: layers}
}

// Add appends a layer to the end of the stack.
func (s *Stack) Add(layer Layer) {
	s.layers = append(s.layers, layer)
}

// Layers returns the stack's layers in execution order.
func (s *Stack) Layers() []Layer {
	return s.layers
}

// RunPreResponse invokes OnPreResponse on every layer, in order.
func (s *Stack) RunPreResponse(ctx *LayerContext) {
	for _, l := range s.layers {
		l.OnPreResponse(ctx)
	}
}

// RunPostResponse invokes OnPostResponse on every layer, in order, and
// returns the first action requesting a follow-up. If no layer requests
// one, PassThrough is returned.
func (s *Stack) RunPostResponse(response string, ctx *LayerContext) PostResponseAction {
	winner := PassThrough
	found := false
	for _, l := range s.layers {
		action := l.OnPostResponse(response, ctx)
		if !found {
			if _, inject := action.ShouldInjectFollowUp(); inject {
				winner = action
				found = true
			}
		}
	}
	return winner
}

// RunToolComplete invokes OnToolComplete on every layer, in order.
func (s *Stack) RunToolComplete(toolName string, success bool, ctx *LayerContext) {
	for _, l := range s.layers {
		l.OnToolComplete(toolName, success, ctx)
	}
}

// Package modelclient defines the provider-agnostic model invocation
// surface spec.md §6 leaves external ("the LLM provider integration is
// supplied by the host application"), trimmed from
// runtime/agent/model.Client to the request/response shape this module's
// execution loop (package instance) actually drives: a single Complete
// call per turn, built from a transcript.Ledger, against one of three
// concrete provider adapters (modelclient/anthropic, modelclient/bedrock,
// modelclient/openai).
package modelclient

import (
	"context"
	"errors"

	"github.com/fibanez/agentcore/transcript"
)

// ToolDefinition describes one tool exposed to the model for this request.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema any
}

// TokenUsage tracks token counts for a single model call.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Request captures everything needed for one model invocation.
type Request struct {
	// Model is the provider-qualified model identifier, e.g.
	// "anthropic:claude-sonnet-4" (see agent.Metadata.Model).
	Model string
	// Turns is the conversation so far, in provider order.
	Turns []transcript.Turn
	// SystemPrompt is the system-role instruction for this agent.
	SystemPrompt string
	// Tools lists the tools the model may call this turn.
	Tools []ToolDefinition
	// MaxTokens caps the number of output tokens, when supported.
	MaxTokens int
	// Temperature controls sampling, when supported.
	Temperature float32
}

// Response is the result of a non-streaming model invocation.
type Response struct {
	// Text is the assistant's visible text for this turn, if any.
	Text string
	// ToolCalls lists the tool invocations the model requested this turn.
	ToolCalls []transcript.ToolUsePart
	// Usage reports token consumption for the call.
	Usage TokenUsage
	// StopReason records why generation stopped (provider-specific).
	StopReason string
}

// ErrUnsupportedModel is returned by a Client when asked to serve a model
// identifier it does not recognize (e.g. a Bedrock client asked to run an
// OpenAI-qualified model string).
var ErrUnsupportedModel = errors.New("modelclient: model not supported by this client")

// Client is the provider-agnostic model invocation port. Every adapter
// subpackage (anthropic, bedrock, openai) implements this interface against
// its own SDK.
type Client interface {
	// Complete performs one non-streaming model invocation.
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Package openai implements modelclient.Client on top of the OpenAI Chat
// Completions API via github.com/openai/openai-go, grounded on
// features/model/openai.Client's request/response translation, adapted to
// the official SDK's client shape (mirrors anthropic-sdk-go's
// option.RequestOption pattern rather than a community client).
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/fibanez/agentcore/modelclient"
	"github.com/fibanez/agentcore/transcript"
)

// ChatClient captures the subset of the OpenAI SDK used by Client.
type ChatClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Options configures Client.
type Options struct {
	// DefaultModel is used when a Request does not specify Model.
	DefaultModel string
	// MaxTokens is the default completion cap applied when a Request does
	// not specify MaxTokens.
	MaxTokens int64
}

// Client implements modelclient.Client against OpenAI Chat Completions.
type Client struct {
	chat         ChatClient
	defaultModel string
	maxTokens    int64
}

// New builds a Client from an already-constructed chat-completions service
// and Options.
func New(chat ChatClient, opts Options) (*Client, error) {
	if chat == nil {
		return nil, errors.New("openai: chat client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("openai: default model is required")
	}
	return &Client{chat: chat, defaultModel: opts.DefaultModel, maxTokens: opts.MaxTokens}, nil
}

// NewFromAPIKey constructs a Client using the SDK's default HTTP transport.
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	c := openai.NewClient(option.WithAPIKey(apiKey))
	return New(&c.Chat.Completions, Options{DefaultModel: defaultModel})
}

// Complete implements modelclient.Client.
func (c *Client) Complete(ctx context.Context, req *modelclient.Request) (*modelclient.Response, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.chat.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: chat.completions.new: %w", err)
	}
	return translateResponse(resp)
}

func (c *Client) buildParams(req *modelclient.Request) (openai.ChatCompletionNewParams, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = c.defaultModel
	}

	messages, err := translateTurns(req.Turns, req.SystemPrompt)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(modelID),
		Messages: messages,
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = int(c.maxTokens)
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}
	for _, tool := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  tool.InputSchema.(shared.FunctionParameters),
			},
		})
	}
	return params, nil
}

func translateTurns(turns []transcript.Turn, systemPrompt string) ([]openai.ChatCompletionMessageParamUnion, error) {
	var out []openai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		out = append(out, openai.SystemMessage(systemPrompt))
	}
	for _, turn := range turns {
		switch turn.Role {
		case transcript.RoleUser:
			for _, part := range turn.Parts {
				switch p := part.(type) {
				case transcript.TextPart:
					out = append(out, openai.UserMessage(p.Text))
				case transcript.ToolResultPart:
					encoded, err := json.Marshal(p.Content)
					if err != nil {
						return nil, fmt.Errorf("openai: encode tool result %q: %w", p.ToolUseID, err)
					}
					out = append(out, openai.ToolMessage(string(encoded), p.ToolUseID))
				}
			}
		case transcript.RoleAssistant:
			msg := openai.ChatCompletionAssistantMessageParam{}
			for _, part := range turn.Parts {
				switch p := part.(type) {
				case transcript.TextPart:
					msg.Content.OfString = openai.String(p.Text)
				case transcript.ToolUsePart:
					args, err := json.Marshal(p.Input)
					if err != nil {
						return nil, fmt.Errorf("openai: encode tool_use args for %q: %w", p.Name, err)
					}
					msg.ToolCalls = append(msg.ToolCalls, openai.ChatCompletionMessageToolCallParam{
						ID: p.ID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      p.Name,
							Arguments: string(args),
						},
					})
				}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &msg})
		}
	}
	return out, nil
}

func translateResponse(resp *openai.ChatCompletion) (*modelclient.Response, error) {
	out := &modelclient.Response{
		Usage: modelclient.TokenUsage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
	}
	if len(resp.Choices) == 0 {
		return out, nil
	}
	choice := resp.Choices[0]
	out.StopReason = string(choice.FinishReason)
	out.Text = choice.Message.Content
	for _, call := range choice.Message.ToolCalls {
		var args any
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			args = call.Function.Arguments
		}
		out.ToolCalls = append(out.ToolCalls, transcript.ToolUsePart{
			ID:    call.ID,
			Name:  call.Function.Name,
			Input: args,
		})
	}
	return out, nil
}

// Package anthropic implements modelclient.Client on top of the Anthropic
// Claude Messages API via github.com/anthropics/anthropic-sdk-go, grounded
// on features/model/anthropic.Client's translation of generic request/
// response types into SDK calls.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/fibanez/agentcore/modelclient"
	"github.com/fibanez/agentcore/transcript"
)

// MessagesClient captures the subset of the Anthropic SDK used by Client,
// so tests can substitute a fake without a real API key.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Options configures Client.
type Options struct {
	// DefaultModel is used when a Request does not specify Model.
	DefaultModel string
	// MaxTokens is the default completion cap applied when a Request does
	// not specify MaxTokens.
	MaxTokens int64
}

// Client implements modelclient.Client against Anthropic Claude Messages.
type Client struct {
	msg          MessagesClient
	defaultModel string
	maxTokens    int64
}

// New builds a Client from an already-constructed Anthropic Messages
// service and Options.
func New(msg MessagesClient, opts Options) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic: messages client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("anthropic: default model is required")
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Client{msg: msg, defaultModel: opts.DefaultModel, maxTokens: maxTokens}, nil
}

// NewFromAPIKey constructs a Client using the SDK's default HTTP transport
// and the given API key.
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	c := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&c.Messages, Options{DefaultModel: defaultModel})
}

// Complete implements modelclient.Client.
func (c *Client) Complete(ctx context.Context, req *modelclient.Request) (*modelclient.Response, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return nil, err
	}
	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: messages.new: %w", err)
	}
	return translateResponse(msg)
}

func (c *Client) buildParams(req *modelclient.Request) (sdk.MessageNewParams, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	messages, err := translateTurns(req.Turns)
	if err != nil {
		return sdk.MessageNewParams{}, err
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if req.SystemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemPrompt}}
	}
	for _, tool := range req.Tools {
		params.Tools = append(params.Tools, sdk.ToolUnionParam{
			OfTool: &sdk.ToolParam{
				Name:        tool.Name,
				Description: sdk.String(tool.Description),
			},
		})
	}
	return params, nil
}

func translateTurns(turns []transcript.Turn) ([]sdk.MessageParam, error) {
	out := make([]sdk.MessageParam, 0, len(turns))
	for _, turn := range turns {
		var blocks []sdk.ContentBlockParamUnion
		for _, part := range turn.Parts {
			switch p := part.(type) {
			case transcript.TextPart:
				blocks = append(blocks, sdk.NewTextBlock(p.Text))
			case transcript.ToolUsePart:
				blocks = append(blocks, sdk.NewToolUseBlock(p.ID, p.Input, p.Name))
			case transcript.ToolResultPart:
				encoded, err := json.Marshal(p.Content)
				if err != nil {
					return nil, fmt.Errorf("anthropic: encode tool result %q: %w", p.ToolUseID, err)
				}
				blocks = append(blocks, sdk.NewToolResultBlock(p.ToolUseID, string(encoded), p.IsError))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		switch turn.Role {
		case transcript.RoleUser:
			out = append(out, sdk.NewUserMessage(blocks...))
		case transcript.RoleAssistant:
			out = append(out, sdk.NewAssistantMessage(blocks...))
		}
	}
	return out, nil
}

func translateResponse(msg *sdk.Message) (*modelclient.Response, error) {
	resp := &modelclient.Response{
		StopReason: string(msg.StopReason),
		Usage: modelclient.TokenUsage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case sdk.TextBlock:
			resp.Text += variant.Text
		case sdk.ToolUseBlock:
			resp.ToolCalls = append(resp.ToolCalls, transcript.ToolUsePart{
				ID:    variant.ID,
				Name:  variant.Name,
				Input: variant.Input,
			})
		}
	}
	return resp, nil
}

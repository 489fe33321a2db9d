// Package bedrock implements modelclient.Client on top of the AWS Bedrock
// Converse API, grounded on features/model/bedrock.Client's pipeline: split
// system vs. conversational messages, encode tool schemas into Bedrock's
// ToolConfiguration, and translate Converse output back into the generic
// response shape.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/fibanez/agentcore/modelclient"
	"github.com/fibanez/agentcore/transcript"
)

// RuntimeClient mirrors the subset of the AWS Bedrock runtime client this
// adapter needs, matching *bedrockruntime.Client so tests can substitute a
// fake.
type RuntimeClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Options configures Client.
type Options struct {
	// Runtime provides access to the Bedrock runtime. Required.
	Runtime RuntimeClient
	// DefaultModel is used when a Request does not specify Model.
	DefaultModel string
	// MaxTokens is the default completion cap, omitted from the Converse
	// call when zero or negative.
	MaxTokens int
}

// Client implements modelclient.Client against AWS Bedrock Converse.
type Client struct {
	runtime      RuntimeClient
	defaultModel string
	maxTokens    int
}

// New builds a Client from Options.
func New(opts Options) (*Client, error) {
	if opts.Runtime == nil {
		return nil, errors.New("bedrock: runtime client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("bedrock: default model is required")
	}
	return &Client{runtime: opts.Runtime, defaultModel: opts.DefaultModel, maxTokens: opts.MaxTokens}, nil
}

// Complete implements modelclient.Client.
func (c *Client) Complete(ctx context.Context, req *modelclient.Request) (*modelclient.Response, error) {
	input, err := c.buildInput(req)
	if err != nil {
		return nil, err
	}
	out, err := c.runtime.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("bedrock: converse: %w", err)
	}
	return translateOutput(out)
}

func (c *Client) buildInput(req *modelclient.Request) (*bedrockruntime.ConverseInput, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = c.defaultModel
	}

	messages, err := translateTurns(req.Turns)
	if err != nil {
		return nil, err
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(modelID),
		Messages: messages,
	}
	if req.SystemPrompt != "" {
		input.System = []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: req.SystemPrompt},
		}
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	if maxTokens > 0 {
		input.InferenceConfig = &brtypes.InferenceConfiguration{MaxTokens: aws.Int32(int32(maxTokens))}
	}
	if len(req.Tools) > 0 {
		toolConfig := &brtypes.ToolConfiguration{}
		for _, tool := range req.Tools {
			schema, err := document.NewLazyDocument(tool.InputSchema).MarshalSmithyDocument()
			if err != nil {
				return nil, fmt.Errorf("bedrock: encode tool schema for %q: %w", tool.Name, err)
			}
			toolConfig.Tools = append(toolConfig.Tools, &brtypes.ToolMemberToolSpec{
				Value: brtypes.ToolSpecification{
					Name:        aws.String(tool.Name),
					Description: aws.String(tool.Description),
					InputSchema: &brtypes.ToolInputSchemaMemberJson{Value: document.NewLazyDocumentMarshaler(schema)},
				},
			})
		}
		input.ToolConfig = toolConfig
	}
	return input, nil
}

func translateTurns(turns []transcript.Turn) ([]brtypes.Message, error) {
	out := make([]brtypes.Message, 0, len(turns))
	for _, turn := range turns {
		var blocks []brtypes.ContentBlock
		for _, part := range turn.Parts {
			switch p := part.(type) {
			case transcript.TextPart:
				blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: p.Text})
			case transcript.ToolUsePart:
				input, err := document.NewLazyDocument(p.Input).MarshalSmithyDocument()
				if err != nil {
					return nil, fmt.Errorf("bedrock: encode tool_use input for %q: %w", p.Name, err)
				}
				blocks = append(blocks, &brtypes.ContentBlockMemberToolUse{
					Value: brtypes.ToolUseBlock{
						ToolUseId: aws.String(p.ID),
						Name:      aws.String(p.Name),
						Input:     document.NewLazyDocumentMarshaler(input),
					},
				})
			case transcript.ToolResultPart:
				status := brtypes.ToolResultStatusSuccess
				if p.IsError {
					status = brtypes.ToolResultStatusError
				}
				encoded, err := json.Marshal(p.Content)
				if err != nil {
					return nil, fmt.Errorf("bedrock: encode tool_result for %q: %w", p.ToolUseID, err)
				}
				blocks = append(blocks, &brtypes.ContentBlockMemberToolResult{
					Value: brtypes.ToolResultBlock{
						ToolUseId: aws.String(p.ToolUseID),
						Status:    status,
						Content: []brtypes.ToolResultContentBlock{
							&brtypes.ToolResultContentBlockMemberJson{
								Value: document.NewLazyDocumentMarshaler(encoded),
							},
						},
					},
				})
			}
		}
		if len(blocks) == 0 {
			continue
		}
		role := brtypes.ConversationRoleUser
		if turn.Role == transcript.RoleAssistant {
			role = brtypes.ConversationRoleAssistant
		}
		out = append(out, brtypes.Message{Role: role, Content: blocks})
	}
	return out, nil
}

func translateOutput(out *bedrockruntime.ConverseOutput) (*modelclient.Response, error) {
	resp := &modelclient.Response{StopReason: string(out.StopReason)}
	if out.Usage != nil {
		resp.Usage = modelclient.TokenUsage{
			InputTokens:  int(aws.ToInt32(out.Usage.InputTokens)),
			OutputTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
			TotalTokens:  int(aws.ToInt32(out.Usage.TotalTokens)),
		}
	}
	member, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return resp, nil
	}
	for _, block := range member.Value.Content {
		switch v := block.(type) {
		case *brtypes.ContentBlockMemberText:
			resp.Text += v.Value
		case *brtypes.ContentBlockMemberToolUse:
			resp.ToolCalls = append(resp.ToolCalls, transcript.ToolUsePart{
				ID:    aws.ToString(v.Value.ToolUseId),
				Name:  aws.ToString(v.Value.Name),
				Input: v.Value.Input,
			})
		}
	}
	return resp, nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fibanez/agentcore/agentctx"
	"github.com/fibanez/agentcore/creation"
	"github.com/fibanez/agentcore/rendezvous"
)

// decodeToolInput normalizes a tool call's input, which arrives in
// whatever shape a given modelclient adapter hands back (json.RawMessage
// from anthropic, map[string]any from openai, a smithy document from
// bedrock), into a concrete Go struct via a JSON round trip.
func decodeToolInput(raw any, out any) error {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("decoding tool input: re-encoding %T: %w", raw, err)
	}
	if err := json.Unmarshal(encoded, out); err != nil {
		return fmt.Errorf("decoding tool input: %w", err)
	}
	return nil
}

// startTaskTool is the tool a TaskManager's model calls to spawn a
// TaskWorker and block for its result, the demo-wiring equivalent of
// original_source/.../tools/orchestration/start_task.rs.
type startTaskTool struct {
	bus        *creation.Bus
	rendezvous *rendezvous.Registry
	waitFor    time.Duration
}

type startTaskInput struct {
	ShortDescription string `json:"short_description"`
	TaskDescription  string `json:"task_description"`
}

func (t *startTaskTool) Name() string { return "start_task" }

func (t *startTaskTool) Description() string {
	return "Spawns a TaskWorker to carry out task_description and waits for its result."
}

func (t *startTaskTool) InputSchema() any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"short_description": map[string]any{"type": "string"},
			"task_description":  map[string]any{"type": "string"},
		},
		"required": []string{"short_description", "task_description"},
	}
}

func (t *startTaskTool) Invoke(ctx context.Context, rawInput any) (any, error) {
	var input startTaskInput
	if err := decodeToolInput(rawInput, &input); err != nil {
		return nil, fmt.Errorf("start_task: %w", err)
	}
	caller := agentctx.MustAgentFrom(ctx)

	workerID, err := t.bus.RequestCreation(ctx, creation.Request{
		ShortDescription: input.ShortDescription,
		TaskDescription:  input.TaskDescription,
		ParentID:         caller.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("start_task: spawning worker: %w", err)
	}

	completion, err := t.rendezvous.Wait(ctx, workerID, t.waitFor)
	if err != nil {
		return nil, fmt.Errorf("start_task: waiting for worker %s: %w", workerID, err)
	}
	if completion.Err != nil {
		return nil, fmt.Errorf("start_task: worker %s failed: %w", workerID, completion.Err)
	}
	return completion.Result, nil
}

// editPageTool is the PageBuilderWorker-specific entry point, wrapping
// creation.RequestPageBuilderCreation (spec.md §6).
type editPageTool struct {
	bus        *creation.Bus
	rendezvous *rendezvous.Registry
	waitFor    time.Duration
}

type editPageInput struct {
	WorkspaceName   string `json:"workspace_name"`
	TaskDescription string `json:"task_description"`
	ReuseExisting   bool   `json:"reuse_existing"`
}

func (t *editPageTool) Name() string { return "edit_page" }

func (t *editPageTool) Description() string {
	return "Spawns or reuses a PageBuilderWorker bound to workspace_name and waits for its result."
}

func (t *editPageTool) InputSchema() any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"workspace_name":   map[string]any{"type": "string"},
			"task_description": map[string]any{"type": "string"},
			"reuse_existing":   map[string]any{"type": "boolean"},
		},
		"required": []string{"workspace_name", "task_description"},
	}
}

func (t *editPageTool) Invoke(ctx context.Context, rawInput any) (any, error) {
	var input editPageInput
	if err := decodeToolInput(rawInput, &input); err != nil {
		return nil, fmt.Errorf("edit_page: %w", err)
	}
	caller := agentctx.MustAgentFrom(ctx)

	workerID, workspaceName, err := t.bus.RequestPageBuilderCreation(ctx, creation.Request{
		ShortDescription: "edit " + input.WorkspaceName,
		TaskDescription:  input.TaskDescription,
		ParentID:         caller.ID,
		WorkspaceName:    input.WorkspaceName,
		ReuseExisting:    input.ReuseExisting,
		IsPersistent:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("edit_page: spawning page builder: %w", err)
	}

	completion, err := t.rendezvous.Wait(ctx, workerID, t.waitFor)
	if err != nil {
		return nil, fmt.Errorf("edit_page: waiting for page builder %s: %w", workerID, err)
	}
	if completion.Err != nil {
		return nil, fmt.Errorf("edit_page: page builder %s failed: %w", workerID, completion.Err)
	}
	return map[string]any{"workspace_name": workspaceName, "result": completion.Result}, nil
}

package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fibanez/agentcore/agent"
	"github.com/fibanez/agentcore/agentctx"
	"github.com/fibanez/agentcore/creation"
	"github.com/fibanez/agentcore/rendezvous"
)

func TestDecodeToolInput_FromMap(t *testing.T) {
	var got startTaskInput
	raw := map[string]any{"short_description": "list buckets", "task_description": "enumerate S3 buckets"}
	require.NoError(t, decodeToolInput(raw, &got))
	assert.Equal(t, "list buckets", got.ShortDescription)
	assert.Equal(t, "enumerate S3 buckets", got.TaskDescription)
}

func TestDecodeToolInput_FromRawJSON(t *testing.T) {
	var got editPageInput
	raw := json.RawMessage(`{"workspace_name":"dashboard","task_description":"add widget","reuse_existing":true}`)
	require.NoError(t, decodeToolInput(raw, &got))
	assert.Equal(t, "dashboard", got.WorkspaceName)
	assert.True(t, got.ReuseExisting)
}

func TestStartTaskTool_SpawnsAndWaitsForCompletion(t *testing.T) {
	bus := creation.NewBus(creation.Options{ResponseTimeout: time.Second})
	reg := rendezvous.NewRegistry()
	caller := agent.NewID()

	go func() {
		req := <-bus.Receive()
		workerID := agent.NewID()
		bus.Respond(req.ID, creation.SuccessResponse(workerID))
		// Give the tool time to start waiting: Registry.Send discards a
		// completion nobody is waiting for.
		time.Sleep(50 * time.Millisecond)
		reg.Send(rendezvous.Completion{WorkerID: workerID, Result: "42 buckets found"})
	}()

	tool := &startTaskTool{bus: bus, rendezvous: reg, waitFor: time.Second}
	ctx := agentctx.WithAgent(context.Background(), caller, agent.NewTaskManager())

	result, err := tool.Invoke(ctx, map[string]any{
		"short_description": "list buckets",
		"task_description":  "enumerate S3 buckets",
	})
	require.NoError(t, err)
	assert.Equal(t, "42 buckets found", result)
}

func TestStartTaskTool_PropagatesWorkerFailure(t *testing.T) {
	bus := creation.NewBus(creation.Options{ResponseTimeout: time.Second})
	reg := rendezvous.NewRegistry()
	caller := agent.NewID()

	go func() {
		req := <-bus.Receive()
		workerID := agent.NewID()
		bus.Respond(req.ID, creation.SuccessResponse(workerID))
		time.Sleep(50 * time.Millisecond)
		reg.Send(rendezvous.Completion{WorkerID: workerID, Err: assertErr("boom")})
	}()

	tool := &startTaskTool{bus: bus, rendezvous: reg, waitFor: time.Second}
	ctx := agentctx.WithAgent(context.Background(), caller, agent.NewTaskManager())

	_, err := tool.Invoke(ctx, map[string]any{"short_description": "x", "task_description": "y"})
	assert.Error(t, err)
}

func TestEditPageTool_ReturnsWorkspaceName(t *testing.T) {
	bus := creation.NewBus(creation.Options{ResponseTimeout: time.Second})
	reg := rendezvous.NewRegistry()
	caller := agent.NewID()

	go func() {
		req := <-bus.Receive()
		assert.True(t, req.IsPageBuilder)
		workerID := agent.NewID()
		bus.Respond(req.ID, creation.SuccessPageBuilderResponse(workerID, "dashboard"))
		time.Sleep(50 * time.Millisecond)
		reg.Send(rendezvous.Completion{WorkerID: workerID, Result: "page updated"})
	}()

	tool := &editPageTool{bus: bus, rendezvous: reg, waitFor: time.Second}
	ctx := agentctx.WithAgent(context.Background(), caller, agent.NewTaskManager())

	result, err := tool.Invoke(ctx, map[string]any{
		"workspace_name":   "dashboard",
		"task_description": "add a cost widget",
	})
	require.NoError(t, err)
	asMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "dashboard", asMap["workspace_name"])
	assert.Equal(t, "page updated", asMap["result"])
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

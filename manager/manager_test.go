package manager_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fibanez/agentcore/agent"
	"github.com/fibanez/agentcore/creation"
	"github.com/fibanez/agentcore/hooks"
	"github.com/fibanez/agentcore/instance"
	"github.com/fibanez/agentcore/manager"
	"github.com/fibanez/agentcore/modelclient"
)

// oneShotModel answers every call with the same fixed response; enough to
// drive a worker through exactly one orderly turn.
type oneShotModel struct {
	text string
}

func (m oneShotModel) Complete(context.Context, *modelclient.Request) (*modelclient.Response, error) {
	return &modelclient.Response{Text: m.text}, nil
}

func testFactory(text string) manager.InstanceFactory {
	return func(creation.Request, agent.Type) instance.Options {
		return instance.Options{Model: oneShotModel{text: text}}
	}
}

func drainEvents(bus hooks.Bus, n int, timeout time.Duration) []hooks.Event {
	deadline := time.After(timeout)
	var out []hooks.Event
	for len(out) < n {
		if e, ok := bus.TryRecv(); ok {
			out = append(out, e)
			continue
		}
		select {
		case <-deadline:
			return out
		case <-time.After(5 * time.Millisecond):
		}
	}
	return out
}

func TestManager_SpawnAndCreateWorker_Success(t *testing.T) {
	m := manager.New(manager.Options{Factory: testFactory("done")})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	root := m.SpawnManager(ctx, agent.NewMetadata("root", "plans work", "anthropic:claude", time.Now()))
	require.NotNil(t, root)

	id, err := m.Creation().RequestCreation(ctx, creation.Request{
		ShortDescription: "list buckets",
		TaskDescription:  "enumerate S3 buckets",
		ParentID:         root.ID(),
	})
	require.NoError(t, err)
	assert.False(t, id.IsNil())

	events := drainEvents(m.UIEvents(), 1, time.Second)
	require.Len(t, events, 1)
	assert.Equal(t, hooks.WorkerStarted, events[0].Kind)
	assert.Equal(t, id, events[0].WorkerID)
	assert.Equal(t, root.ID(), events[0].ParentID)

	worker := m.Lookup(id)
	require.NotNil(t, worker)
	completion, err := m.Rendezvous().Wait(ctx, id, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "done", completion.Result)
}

func TestManager_CreationRequest_UnknownParentErrors(t *testing.T) {
	m := manager.New(manager.Options{Factory: testFactory("done")})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	_, err := m.Creation().RequestCreation(ctx, creation.Request{
		ShortDescription: "orphaned request",
		TaskDescription:  "has no live parent",
		ParentID:         agent.NewID(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, creation.ErrParentNotFound)

	events := drainEvents(m.UIEvents(), 1, 100*time.Millisecond)
	assert.Empty(t, events, "no WorkerStarted should be emitted for a rejected request")
}

func TestManager_ThreeParallelWorkers_DistinctIDsAndFIFOEvents(t *testing.T) {
	m := manager.New(manager.Options{Factory: testFactory("finished")})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	root := m.SpawnManager(ctx, agent.NewMetadata("root", "plans work", "anthropic:claude", time.Now()))

	const workerCount = 3
	ids := make([]agent.ID, workerCount)
	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		i := i
		go func() {
			defer wg.Done()
			id, err := m.Creation().RequestCreation(ctx, creation.Request{
				ShortDescription: "worker",
				TaskDescription:  "task",
				ParentID:         root.ID(),
			})
			require.NoError(t, err)
			ids[i] = id
		}()
	}
	wg.Wait()

	seen := make(map[agent.ID]bool, workerCount)
	for _, id := range ids {
		assert.False(t, id.IsNil())
		assert.False(t, seen[id], "worker IDs must be distinct")
		seen[id] = true
	}

	events := drainEvents(m.UIEvents(), workerCount, time.Second)
	require.Len(t, events, workerCount)
	seenParents := make(map[agent.ID]bool, workerCount)
	for _, e := range events {
		assert.Equal(t, hooks.WorkerStarted, e.Kind)
		assert.Equal(t, root.ID(), e.ParentID)
		assert.True(t, seen[e.WorkerID], "every WorkerStarted event must reference one of the spawned workers")
		seenParents[e.WorkerID] = true
	}
	assert.Len(t, seenParents, workerCount, "each worker gets exactly one WorkerStarted event")

	for _, id := range ids {
		completion, err := m.Rendezvous().Wait(ctx, id, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "finished", completion.Result)
	}
}

func TestManager_Shutdown_TerminatesRootManager(t *testing.T) {
	longRunning := manager.InstanceFactory(func(creation.Request, agent.Type) instance.Options {
		return instance.Options{Model: oneShotModel{text: "should not complete before cancel"}}
	})
	m := manager.New(manager.Options{Factory: longRunning})
	ctx := context.Background()

	root := m.SpawnManager(ctx, agent.NewMetadata("root", "plans work", "anthropic:claude", time.Now()))
	require.NoError(t, root.PostUserMessage("start"))

	// Let the manager's instance settle back into waiting for the next
	// message before shutdown is requested.
	time.Sleep(20 * time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(shutdownCtx))
	assert.True(t, root.Status().IsTerminal())
}

package rendezvous_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fibanez/agentcore/agent"
	"github.com/fibanez/agentcore/rendezvous"
)

func TestRegistry_Success(t *testing.T) {
	reg := rendezvous.NewRegistry()
	workerID := agent.NewID()

	go func() {
		time.Sleep(20 * time.Millisecond)
		reg.Send(rendezvous.Completion{WorkerID: workerID, Result: "done", ExecutionTime: 2 * time.Second})
	}()

	completion, err := reg.Wait(context.Background(), workerID, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "done", completion.Result)
}

func TestRegistry_Error(t *testing.T) {
	reg := rendezvous.NewRegistry()
	workerID := agent.NewID()

	go func() {
		time.Sleep(10 * time.Millisecond)
		reg.Send(rendezvous.Completion{WorkerID: workerID, Err: assertErr("connection timeout")})
	}()

	completion, err := reg.Wait(context.Background(), workerID, time.Second)
	require.NoError(t, err)
	assert.Error(t, completion.Err)
}

func TestRegistry_Timeout(t *testing.T) {
	reg := rendezvous.NewRegistry()
	workerID := agent.NewID()

	start := time.Now()
	_, err := reg.Wait(context.Background(), workerID, 50*time.Millisecond)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, rendezvous.ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestRegistry_DoubleWaitRejected(t *testing.T) {
	reg := rendezvous.NewRegistry()
	workerID := agent.NewID()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = reg.Wait(context.Background(), workerID, time.Second)
	}()
	time.Sleep(20 * time.Millisecond)

	_, err := reg.Wait(context.Background(), workerID, time.Second)
	assert.ErrorIs(t, err, rendezvous.ErrAlreadyAwaited)

	reg.Send(rendezvous.Completion{WorkerID: workerID, Result: "ok"})
	<-done
}

func TestRegistry_SendWithNoWaiterIsDiscarded(t *testing.T) {
	reg := rendezvous.NewRegistry()
	var gotNoWaiterFor agent.ID
	reg.OnNoWaiter(func(id agent.ID) { gotNoWaiterFor = id })

	workerID := agent.NewID()
	reg.Send(rendezvous.Completion{WorkerID: workerID, Result: "too late"})

	assert.Equal(t, workerID, gotNoWaiterFor)
}

func TestRegistry_ContextCancellation(t *testing.T) {
	reg := rendezvous.NewRegistry()
	workerID := agent.NewID()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := reg.Wait(ctx, workerID, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

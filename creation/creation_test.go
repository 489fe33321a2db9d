package creation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fibanez/agentcore/agent"
	"github.com/fibanez/agentcore/creation"
)

func TestBus_RequestCreation_Success(t *testing.T) {
	bus := creation.NewBus(creation.Options{ResponseTimeout: time.Second})
	parent := agent.NewID()

	go func() {
		req := <-bus.Receive()
		assert.Equal(t, parent, req.ParentID)
		bus.Respond(req.ID, creation.SuccessResponse(agent.NewID()))
	}()

	id, err := bus.RequestCreation(context.Background(), creation.Request{
		ShortDescription: "list instances",
		TaskDescription:  "list all EC2 instances",
		ParentID:         parent,
	})
	require.NoError(t, err)
	assert.False(t, id.IsNil())
}

func TestBus_RequestCreation_ErrorResponse(t *testing.T) {
	bus := creation.NewBus(creation.Options{ResponseTimeout: time.Second})

	go func() {
		req := <-bus.Receive()
		bus.Respond(req.ID, creation.ErrorResponse(agent.NilID, assertErr("boom")))
	}()

	_, err := bus.RequestCreation(context.Background(), creation.Request{ParentID: agent.NewID()})
	assert.Error(t, err)
}

func TestBus_RequestCreation_Timeout(t *testing.T) {
	bus := creation.NewBus(creation.Options{ResponseTimeout: 20 * time.Millisecond})

	go func() {
		<-bus.Receive() // receive but never respond
	}()

	_, err := bus.RequestCreation(context.Background(), creation.Request{ParentID: agent.NewID()})
	assert.ErrorIs(t, err, creation.ErrTimeout)
}

func TestBus_RequestCreation_RequestIDsMonotonic(t *testing.T) {
	bus := creation.NewBus(creation.Options{ResponseTimeout: time.Second})
	seen := make(chan uint64, 3)

	go func() {
		for i := 0; i < 3; i++ {
			req := <-bus.Receive()
			seen <- req.ID
			bus.Respond(req.ID, creation.SuccessResponse(agent.NewID()))
		}
	}()

	for i := 0; i < 3; i++ {
		_, err := bus.RequestCreation(context.Background(), creation.Request{ParentID: agent.NewID()})
		require.NoError(t, err)
	}
	close(seen)

	var last uint64
	for id := range seen {
		assert.Greater(t, id, last)
		last = id
	}
}

func TestBus_Respond_NoWaiterIsNoop(t *testing.T) {
	bus := creation.NewBus(creation.Options{})
	assert.NotPanics(t, func() {
		bus.Respond(999, creation.SuccessResponse(agent.NewID()))
	})
}

func TestBus_RequestPageBuilderCreation_Success(t *testing.T) {
	bus := creation.NewBus(creation.Options{ResponseTimeout: time.Second})
	parent := agent.NewID()

	go func() {
		req := <-bus.Receive()
		assert.True(t, req.IsPageBuilder)
		assert.True(t, req.ReuseExisting)
		bus.Respond(req.ID, creation.SuccessPageBuilderResponse(agent.NewID(), "dashboard"))
	}()

	id, workspaceName, err := bus.RequestPageBuilderCreation(context.Background(), creation.Request{
		ShortDescription: "edit dashboard",
		TaskDescription:  "add a cost widget",
		ParentID:         parent,
		WorkspaceName:    "dashboard",
		ReuseExisting:    true,
	})
	require.NoError(t, err)
	assert.False(t, id.IsNil())
	assert.Equal(t, "dashboard", workspaceName)
}

func TestBus_RequestPageBuilderCreation_ParentNotFound(t *testing.T) {
	bus := creation.NewBus(creation.Options{ResponseTimeout: time.Second})

	go func() {
		req := <-bus.Receive()
		bus.Respond(req.ID, creation.ErrorResponse(agent.NilID, creation.ErrParentNotFound))
	}()

	_, _, err := bus.RequestPageBuilderCreation(context.Background(), creation.Request{ParentID: agent.NewID()})
	assert.ErrorIs(t, err, creation.ErrParentNotFound)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

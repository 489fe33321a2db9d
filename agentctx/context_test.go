package agentctx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fibanez/agentcore/agent"
	"github.com/fibanez/agentcore/agentctx"
)

func TestWithAgent_RoundTrip(t *testing.T) {
	id := agent.NewID()
	typ := agent.NewTaskWorker(agent.NewID())

	ctx := agentctx.WithAgent(context.Background(), id, typ)
	got, ok := agentctx.AgentFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, typ, got.Type)
}

func TestAgentFrom_MissingIdentity(t *testing.T) {
	_, ok := agentctx.AgentFrom(context.Background())
	assert.False(t, ok)
}

func TestMustAgentFrom_PanicsWithoutIdentity(t *testing.T) {
	assert.Panics(t, func() {
		agentctx.MustAgentFrom(context.Background())
	})
}

func TestWithAgent_NestedOverride(t *testing.T) {
	outer := agentctx.WithAgent(context.Background(), agent.NewID(), agent.NewTaskManager())
	innerID := agent.NewID()
	inner := agentctx.WithAgent(outer, innerID, agent.NewTaskWorker(agent.NewID()))

	got := agentctx.MustAgentFrom(inner)
	assert.Equal(t, innerID, got.ID)
}

package inmem_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fibanez/agentcore/agent"
	"github.com/fibanez/agentcore/session"
	"github.com/fibanez/agentcore/session/inmem"
)

func TestStore_CreateSessionIdempotent(t *testing.T) {
	s := inmem.New()
	ctx := context.Background()
	now := time.Now()

	first, err := s.CreateSession(ctx, "sess-1", now)
	require.NoError(t, err)
	assert.Equal(t, session.StatusActive, first.Status)

	second, err := s.CreateSession(ctx, "sess-1", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestStore_CreateSessionAfterEndedFails(t *testing.T) {
	s := inmem.New()
	ctx := context.Background()
	now := time.Now()

	_, err := s.CreateSession(ctx, "sess-1", now)
	require.NoError(t, err)
	_, err = s.EndSession(ctx, "sess-1", now.Add(time.Minute))
	require.NoError(t, err)

	_, err = s.CreateSession(ctx, "sess-1", now.Add(2*time.Minute))
	assert.ErrorIs(t, err, session.ErrSessionEnded)
}

func TestStore_LoadSessionNotFound(t *testing.T) {
	s := inmem.New()
	_, err := s.LoadSession(context.Background(), "missing")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestStore_EndSessionIdempotent(t *testing.T) {
	s := inmem.New()
	ctx := context.Background()
	now := time.Now()
	_, err := s.CreateSession(ctx, "sess-1", now)
	require.NoError(t, err)

	first, err := s.EndSession(ctx, "sess-1", now.Add(time.Minute))
	require.NoError(t, err)
	second, err := s.EndSession(ctx, "sess-1", now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, first.EndedAt, second.EndedAt)
}

func TestStore_UpsertAndLoadRun(t *testing.T) {
	s := inmem.New()
	ctx := context.Background()
	id := agent.NewID()

	err := s.UpsertRun(ctx, session.RunMeta{
		AgentID:   id,
		SessionID: "sess-1",
		Status:    agent.StatusRunning,
	})
	require.NoError(t, err)

	run, err := s.LoadRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", run.SessionID)
	assert.False(t, run.StartedAt.IsZero())

	err = s.UpsertRun(ctx, session.RunMeta{
		AgentID:   id,
		SessionID: "sess-1",
		Status:    agent.StatusCompleted,
	})
	require.NoError(t, err)
	updated, err := s.LoadRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, run.StartedAt, updated.StartedAt)
	assert.True(t, updated.Status.Equal(agent.StatusCompleted))
}

func TestStore_LoadRunNotFound(t *testing.T) {
	s := inmem.New()
	_, err := s.LoadRun(context.Background(), agent.NewID())
	assert.ErrorIs(t, err, session.ErrRunNotFound)
}

func TestStore_ListRunsBySessionFiltersByStatus(t *testing.T) {
	s := inmem.New()
	ctx := context.Background()

	running := agent.NewID()
	done := agent.NewID()
	other := agent.NewID()

	require.NoError(t, s.UpsertRun(ctx, session.RunMeta{AgentID: running, SessionID: "sess-1", Status: agent.StatusRunning}))
	require.NoError(t, s.UpsertRun(ctx, session.RunMeta{AgentID: done, SessionID: "sess-1", Status: agent.StatusCompleted}))
	require.NoError(t, s.UpsertRun(ctx, session.RunMeta{AgentID: other, SessionID: "sess-2", Status: agent.StatusRunning}))

	all, err := s.ListRunsBySession(ctx, "sess-1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := s.ListRunsBySession(ctx, "sess-1", []agent.Status{agent.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, done, filtered[0].AgentID)
}

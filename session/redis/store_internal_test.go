package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fibanez/agentcore/agent"
)

func TestStatusKindRoundTrip(t *testing.T) {
	cases := []agent.Status{
		agent.StatusRunning,
		agent.StatusPaused,
		agent.StatusCompleted,
		agent.StatusCancelled,
		agent.StatusFailed("boom"),
	}
	for _, st := range cases {
		kind := statusKind(st)
		back := statusFromRecord(kind, st.Message())
		assert.True(t, st.Equal(back), "status %v round-tripped as %v", st, back)
	}
}

func TestRecordToRunMetaDecodesIDs(t *testing.T) {
	agentID := agent.NewID()
	parentID := agent.NewID()
	rec := runRecord{
		AgentID:       agentID.String(),
		ParentID:      parentID.String(),
		SessionID:     "sess-1",
		StatusState:   "Running",
		StartedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	run, err := recordToRunMeta(rec)
	require.NoError(t, err)
	assert.Equal(t, agentID, run.AgentID)
	assert.Equal(t, parentID, run.ParentID)
	assert.True(t, run.Status.Equal(agent.StatusRunning))
}

func TestRecordToRunMetaRejectsMalformedID(t *testing.T) {
	_, err := recordToRunMeta(runRecord{AgentID: "not-a-uuid"})
	assert.Error(t, err)
}

func TestRecordToSession(t *testing.T) {
	now := time.Now().UTC()
	sess := recordToSession(sessionRecord{ID: "sess-1", Status: "active", CreatedAt: now})
	assert.Equal(t, "sess-1", sess.ID)
	assert.Nil(t, sess.EndedAt)
}

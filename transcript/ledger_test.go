package transcript_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fibanez/agentcore/transcript"
)

func TestLedger_UserThenAssistant(t *testing.T) {
	l := transcript.NewLedger()
	l.AppendUserText("list ec2 instances")
	l.AppendAssistantText("I'll call the list_instances tool.")
	l.DeclareToolUse("call-1", "list_instances", map[string]any{"region": "us-east-1"})

	turns := l.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, transcript.RoleUser, turns[0].Role)
	assert.Equal(t, transcript.RoleAssistant, turns[1].Role)
	assert.Len(t, turns[1].Parts, 2)
}

func TestLedger_PendingToolUseIDs(t *testing.T) {
	l := transcript.NewLedger()
	l.AppendUserText("go")
	l.DeclareToolUse("call-1", "tool_a", nil)
	l.DeclareToolUse("call-2", "tool_b", nil)

	ids := l.PendingToolUseIDs()
	assert.Equal(t, []string{"call-1", "call-2"}, ids)
}

func TestLedger_ValidateHandshake(t *testing.T) {
	l := transcript.NewLedger()
	l.AppendUserText("go")
	l.DeclareToolUse("call-1", "tool_a", nil)
	l.AppendUserToolResults([]transcript.ToolResultPart{{ToolUseID: "call-1", Content: "ok"}})

	require.NoError(t, l.Validate())
}

func TestLedger_ValidateMissingToolResult(t *testing.T) {
	l := transcript.NewLedger()
	l.AppendUserText("go")
	l.DeclareToolUse("call-1", "tool_a", nil)
	l.FlushAssistant()

	assert.Error(t, l.Validate())
}

func TestLedger_ValidateMismatchedToolResult(t *testing.T) {
	l := transcript.NewLedger()
	l.AppendUserText("go")
	l.DeclareToolUse("call-1", "tool_a", nil)
	l.AppendUserToolResults([]transcript.ToolResultPart{{ToolUseID: "not-call-1", Content: "ok"}})

	assert.Error(t, l.Validate())
}

func TestLedger_IsEmpty(t *testing.T) {
	l := transcript.NewLedger()
	assert.True(t, l.IsEmpty())
	l.AppendUserText("go")
	assert.False(t, l.IsEmpty())
}

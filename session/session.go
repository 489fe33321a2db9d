// Package session defines durable session lifecycle and agent-run metadata
// persistence, trimmed from runtime/agent/session.Store to the shape
// package manager needs: a session is the durable
// container a top-level agent run belongs to, and a RunMeta tracks one
// agent's lifecycle within it across process restarts.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/fibanez/agentcore/agent"
)

type (
	// Session captures durable session lifecycle state.
	//
	// Contract:
	//   - Session IDs are stable and caller-provided.
	//   - Sessions are created explicitly (CreateSession) and ended
	//     explicitly (EndSession).
	//   - Ended sessions are terminal: new runs must not start under an
	//     ended session.
	Session struct {
		// ID is the durable identifier of the session.
		ID string
		// Status is the current session lifecycle state.
		Status Status
		// CreatedAt records when the session was created.
		CreatedAt time.Time
		// EndedAt is set when the session is ended.
		EndedAt *time.Time
	}

	// RunMeta captures persistent metadata for one agent's execution
	// within a session, so a crashed manager can reconstruct which agents
	// were active and in what state.
	RunMeta struct {
		// AgentID identifies the agent this run metadata describes.
		AgentID agent.ID
		// ParentID is the creating agent, zero for the root.
		ParentID agent.ID
		// SessionID associates this run with a durable Session.
		SessionID string
		// Status mirrors agent.Status at the time of the last update.
		Status agent.Status
		// StartedAt records when the agent began executing.
		StartedAt time.Time
		// UpdatedAt records when this metadata was last written.
		UpdatedAt time.Time
		// Labels stores caller- or policy-provided labels.
		Labels map[string]string
	}

	// Status represents the lifecycle state of a session.
	Status string

	// Store persists session lifecycle state and agent-run metadata.
	//
	// Store implementations must be durable: failures are surfaced to
	// callers rather than swallowed. The Manager logs a failed run upsert
	// as a warning and carries on running the agent.
	Store interface {
		// CreateSession creates (or returns) an active session.
		//
		// Idempotent for active sessions: returns the existing session.
		// Returns ErrSessionEnded when the session exists but is terminal.
		CreateSession(ctx context.Context, sessionID string, createdAt time.Time) (Session, error)
		// LoadSession loads an existing session.
		// Returns ErrSessionNotFound when the session does not exist.
		LoadSession(ctx context.Context, sessionID string) (Session, error)
		// EndSession ends a session and returns its terminal state.
		// Idempotent: ending an already-ended session returns the stored
		// session unchanged.
		EndSession(ctx context.Context, sessionID string, endedAt time.Time) (Session, error)

		// UpsertRun inserts or updates run metadata for one agent.
		UpsertRun(ctx context.Context, run RunMeta) error
		// LoadRun loads run metadata. Returns ErrRunNotFound when missing.
		LoadRun(ctx context.Context, agentID agent.ID) (RunMeta, error)
		// ListRunsBySession lists agent runs for the given session. When
		// statuses is non-empty, only runs whose status matches one of the
		// provided values are returned.
		ListRunsBySession(ctx context.Context, sessionID string, statuses []agent.Status) ([]RunMeta, error)
	}
)

const (
	// StatusActive indicates the session is open for new runs.
	StatusActive Status = "active"
	// StatusEnded indicates the session is terminal and must not accept
	// new runs.
	StatusEnded Status = "ended"
)

var (
	// ErrSessionNotFound indicates a session does not exist in the store.
	ErrSessionNotFound = errors.New("session: session not found")
	// ErrSessionEnded indicates a session exists but is ended.
	ErrSessionEnded = errors.New("session: session ended")
	// ErrRunNotFound indicates run metadata does not exist in the store.
	ErrRunNotFound = errors.New("session: run not found")
)

// Package redis implements session.Store on top of Redis, grounded on the
// teacher's own use of github.com/redis/go-redis/v9 for distributed state in
// registry.Registry. Where the teacher coordinates multi-node tool registries
// through Redis, this store persists agent session/run metadata so an
// AgentManager can recover across restarts without the Mongo dependency
// features/session/mongo pulls in — a lighter match for this module's
// single-process-with-durable-state scope.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fibanez/agentcore/agent"
	"github.com/fibanez/agentcore/session"
)

// Store implements session.Store against a Redis instance. Safe for
// concurrent use; all state lives in Redis, so multiple processes can share
// one Store transparently.
type Store struct {
	rdb    *redis.Client
	prefix string
}

// Options configures Store.
type Options struct {
	// KeyPrefix namespaces all keys this Store writes. Defaults to
	// "agentcore:session:".
	KeyPrefix string
}

// New builds a Store backed by rdb.
func New(rdb *redis.Client, opts Options) (*Store, error) {
	if rdb == nil {
		return nil, errors.New("redis: client is required")
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "agentcore:session:"
	}
	return &Store{rdb: rdb, prefix: prefix}, nil
}

func (s *Store) sessionKey(sessionID string) string {
	return s.prefix + "sess:" + sessionID
}

func (s *Store) runKey(agentID agent.ID) string {
	return s.prefix + "run:" + agentID.String()
}

func (s *Store) sessionRunsKey(sessionID string) string {
	return s.prefix + "sess-runs:" + sessionID
}

type sessionRecord struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

type runRecord struct {
	AgentID         string            `json:"agent_id"`
	ParentID        string            `json:"parent_id,omitempty"`
	SessionID       string            `json:"session_id"`
	StatusState     string            `json:"status_state"`
	StatusMessage   string            `json:"status_message,omitempty"`
	StartedAt       time.Time         `json:"started_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Labels          map[string]string `json:"labels,omitempty"`
}

// CreateSession implements session.Store.
func (s *Store) CreateSession(ctx context.Context, sessionID string, createdAt time.Time) (session.Session, error) {
	if sessionID == "" {
		return session.Session{}, errors.New("redis: session id is required")
	}
	if createdAt.IsZero() {
		return session.Session{}, errors.New("redis: created_at is required")
	}

	existing, err := s.LoadSession(ctx, sessionID)
	switch {
	case err == nil:
		if existing.Status == session.StatusEnded {
			return session.Session{}, session.ErrSessionEnded
		}
		return existing, nil
	case !errors.Is(err, session.ErrSessionNotFound):
		return session.Session{}, err
	}

	rec := sessionRecord{ID: sessionID, Status: string(session.StatusActive), CreatedAt: createdAt.UTC()}
	if err := s.putSession(ctx, rec); err != nil {
		return session.Session{}, err
	}
	return recordToSession(rec), nil
}

// LoadSession implements session.Store.
func (s *Store) LoadSession(ctx context.Context, sessionID string) (session.Session, error) {
	if sessionID == "" {
		return session.Session{}, errors.New("redis: session id is required")
	}
	raw, err := s.rdb.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Session{}, session.ErrSessionNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("redis: get session %q: %w", sessionID, err)
	}
	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return session.Session{}, fmt.Errorf("redis: decode session %q: %w", sessionID, err)
	}
	return recordToSession(rec), nil
}

// EndSession implements session.Store.
func (s *Store) EndSession(ctx context.Context, sessionID string, endedAt time.Time) (session.Session, error) {
	if endedAt.IsZero() {
		return session.Session{}, errors.New("redis: ended_at is required")
	}
	existing, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	if existing.Status == session.StatusEnded {
		return existing, nil
	}
	at := endedAt.UTC()
	rec := sessionRecord{ID: existing.ID, Status: string(session.StatusEnded), CreatedAt: existing.CreatedAt, EndedAt: &at}
	if err := s.putSession(ctx, rec); err != nil {
		return session.Session{}, err
	}
	return recordToSession(rec), nil
}

func (s *Store) putSession(ctx context.Context, rec sessionRecord) error {
	encoded, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis: encode session %q: %w", rec.ID, err)
	}
	if err := s.rdb.Set(ctx, s.sessionKey(rec.ID), encoded, 0).Err(); err != nil {
		return fmt.Errorf("redis: set session %q: %w", rec.ID, err)
	}
	return nil
}

// UpsertRun implements session.Store.
func (s *Store) UpsertRun(ctx context.Context, run session.RunMeta) error {
	if run.AgentID.IsNil() {
		return errors.New("redis: agent id is required")
	}
	if run.SessionID == "" {
		return errors.New("redis: session id is required")
	}

	now := time.Now().UTC()
	startedAt := run.StartedAt
	if existing, err := s.LoadRun(ctx, run.AgentID); err == nil {
		if startedAt.IsZero() {
			startedAt = existing.StartedAt
		}
	} else if !errors.Is(err, session.ErrRunNotFound) {
		return err
	}
	if startedAt.IsZero() {
		startedAt = now
	}

	rec := runRecord{
		AgentID:       run.AgentID.String(),
		ParentID:      run.ParentID.String(),
		SessionID:     run.SessionID,
		StatusState:   statusKind(run.Status),
		StatusMessage: run.Status.Message(),
		StartedAt:     startedAt,
		UpdatedAt:     now,
		Labels:        run.Labels,
	}
	encoded, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis: encode run %q: %w", rec.AgentID, err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.runKey(run.AgentID), encoded, 0)
	pipe.SAdd(ctx, s.sessionRunsKey(run.SessionID), rec.AgentID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: upsert run %q: %w", rec.AgentID, err)
	}
	return nil
}

// LoadRun implements session.Store.
func (s *Store) LoadRun(ctx context.Context, agentID agent.ID) (session.RunMeta, error) {
	if agentID.IsNil() {
		return session.RunMeta{}, errors.New("redis: agent id is required")
	}
	raw, err := s.rdb.Get(ctx, s.runKey(agentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.RunMeta{}, session.ErrRunNotFound
	}
	if err != nil {
		return session.RunMeta{}, fmt.Errorf("redis: get run %q: %w", agentID, err)
	}
	var rec runRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return session.RunMeta{}, fmt.Errorf("redis: decode run %q: %w", agentID, err)
	}
	return recordToRunMeta(rec)
}

// ListRunsBySession implements session.Store.
func (s *Store) ListRunsBySession(ctx context.Context, sessionID string, statuses []agent.Status) ([]session.RunMeta, error) {
	if sessionID == "" {
		return nil, errors.New("redis: session id is required")
	}
	ids, err := s.rdb.SMembers(ctx, s.sessionRunsKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list runs for session %q: %w", sessionID, err)
	}
	out := make([]session.RunMeta, 0, len(ids))
	for _, idStr := range ids {
		id, err := agent.ParseID(idStr)
		if err != nil {
			continue
		}
		run, err := s.LoadRun(ctx, id)
		if errors.Is(err, session.ErrRunNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(statuses) > 0 && !statusAllowed(run.Status, statuses) {
			continue
		}
		out = append(out, run)
	}
	return out, nil
}

func statusAllowed(st agent.Status, allowed []agent.Status) bool {
	for _, a := range allowed {
		if st.Equal(a) {
			return true
		}
	}
	return false
}

func recordToSession(rec sessionRecord) session.Session {
	return session.Session{
		ID:        rec.ID,
		Status:    session.Status(rec.Status),
		CreatedAt: rec.CreatedAt,
		EndedAt:   rec.EndedAt,
	}
}

func recordToRunMeta(rec runRecord) (session.RunMeta, error) {
	agentID, err := agent.ParseID(rec.AgentID)
	if err != nil {
		return session.RunMeta{}, fmt.Errorf("redis: decode run agent id %q: %w", rec.AgentID, err)
	}
	var parentID agent.ID
	if rec.ParentID != "" {
		parentID, err = agent.ParseID(rec.ParentID)
		if err != nil {
			return session.RunMeta{}, fmt.Errorf("redis: decode run parent id %q: %w", rec.ParentID, err)
		}
	}
	status := statusFromRecord(rec.StatusState, rec.StatusMessage)
	return session.RunMeta{
		AgentID:   agentID,
		ParentID:  parentID,
		SessionID: rec.SessionID,
		Status:    status,
		StartedAt: rec.StartedAt,
		UpdatedAt: rec.UpdatedAt,
		Labels:    rec.Labels,
	}, nil
}

// statusKind maps an agent.Status to the stable state label stored in
// Redis, since Status.String() embeds the failure message inline and is
// not safe to parse back.
func statusKind(st agent.Status) string {
	switch {
	case st.Equal(agent.StatusRunning):
		return "Running"
	case st.Equal(agent.StatusPaused):
		return "Paused"
	case st.Equal(agent.StatusCompleted):
		return "Completed"
	case st.Equal(agent.StatusCancelled):
		return "Cancelled"
	default:
		return "Failed"
	}
}

func statusFromRecord(state, message string) agent.Status {
	switch state {
	case "Running":
		return agent.StatusRunning
	case "Paused":
		return agent.StatusPaused
	case "Completed":
		return agent.StatusCompleted
	case "Cancelled":
		return agent.StatusCancelled
	default:
		return agent.StatusFailed(message)
	}
}

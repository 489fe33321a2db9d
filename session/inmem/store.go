// Package inmem provides an in-memory implementation of session.Store,
// grounded on runtime/agent/session/inmem.Store. Intended for tests, local
// development, and the cmd/agentcored demo binary's default configuration.
package inmem

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fibanez/agentcore/agent"
	"github.com/fibanez/agentcore/session"
)

// Store is an in-memory implementation of session.Store. Safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
	runs     map[agent.ID]session.RunMeta
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		sessions: make(map[string]session.Session),
		runs:     make(map[agent.ID]session.RunMeta),
	}
}

// CreateSession implements session.Store.
func (s *Store) CreateSession(_ context.Context, sessionID string, createdAt time.Time) (session.Session, error) {
	if sessionID == "" {
		return session.Session{}, errors.New("inmem: session id is required")
	}
	if createdAt.IsZero() {
		return session.Session{}, errors.New("inmem: created_at is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sessions[sessionID]
	if ok {
		if existing.Status == session.StatusEnded {
			return session.Session{}, session.ErrSessionEnded
		}
		return cloneSession(existing), nil
	}

	out := session.Session{
		ID:        sessionID,
		Status:    session.StatusActive,
		CreatedAt: createdAt.UTC(),
	}
	s.sessions[sessionID] = out
	return cloneSession(out), nil
}

// LoadSession implements session.Store.
func (s *Store) LoadSession(_ context.Context, sessionID string) (session.Session, error) {
	if sessionID == "" {
		return session.Session{}, errors.New("inmem: session id is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	existing, ok := s.sessions[sessionID]
	if !ok {
		return session.Session{}, session.ErrSessionNotFound
	}
	return cloneSession(existing), nil
}

// EndSession implements session.Store.
func (s *Store) EndSession(_ context.Context, sessionID string, endedAt time.Time) (session.Session, error) {
	if sessionID == "" {
		return session.Session{}, errors.New("inmem: session id is required")
	}
	if endedAt.IsZero() {
		return session.Session{}, errors.New("inmem: ended_at is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sessions[sessionID]
	if !ok {
		return session.Session{}, session.ErrSessionNotFound
	}
	if existing.Status == session.StatusEnded {
		return cloneSession(existing), nil
	}
	at := endedAt.UTC()
	existing.Status = session.StatusEnded
	existing.EndedAt = &at
	s.sessions[sessionID] = existing
	return cloneSession(existing), nil
}

// UpsertRun implements session.Store.
func (s *Store) UpsertRun(_ context.Context, run session.RunMeta) error {
	if run.AgentID.IsNil() {
		return errors.New("inmem: agent id is required")
	}
	if run.SessionID == "" {
		return errors.New("inmem: session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := s.runs[run.AgentID]
	if ok && !existing.StartedAt.IsZero() {
		if run.StartedAt.IsZero() {
			run.StartedAt = existing.StartedAt
		}
	} else if run.StartedAt.IsZero() {
		run.StartedAt = now
	}
	run.UpdatedAt = now

	s.runs[run.AgentID] = cloneRunMeta(run)
	return nil
}

// LoadRun implements session.Store.
func (s *Store) LoadRun(_ context.Context, agentID agent.ID) (session.RunMeta, error) {
	if agentID.IsNil() {
		return session.RunMeta{}, errors.New("inmem: agent id is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[agentID]
	if !ok {
		return session.RunMeta{}, session.ErrRunNotFound
	}
	return cloneRunMeta(run), nil
}

// ListRunsBySession implements session.Store.
func (s *Store) ListRunsBySession(_ context.Context, sessionID string, statuses []agent.Status) ([]session.RunMeta, error) {
	if sessionID == "" {
		return nil, errors.New("inmem: session id is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]session.RunMeta, 0, len(s.runs))
	for _, run := range s.runs {
		if run.SessionID != sessionID {
			continue
		}
		if len(statuses) > 0 && !statusAllowed(run.Status, statuses) {
			continue
		}
		out = append(out, cloneRunMeta(run))
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

func cloneSession(in session.Session) session.Session {
	out := in
	if in.EndedAt != nil {
		at := *in.EndedAt
		out.EndedAt = &at
	}
	return out
}

func cloneRunMeta(in session.RunMeta) session.RunMeta {
	out := in
	if len(in.Labels) > 0 {
		out.Labels = make(map[string]string, len(in.Labels))
		for k, v := range in.Labels {
			out.Labels[k] = v
		}
	}
	return out
}

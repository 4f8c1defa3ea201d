package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doctalk0/doctalk/internal/log"
)

// ErrNotFound is returned when a session ID is unknown to the registry.
var ErrNotFound = errors.New("session not found")

// ErrNoFolder is returned when a session has not selected a knowledge base
// yet.
var ErrNoFolder = errors.New("no knowledge base selected")

// Session binds one conversation to its knowledge-base folder.
type Session struct {
	ID        string
	Folder    string
	History   []TurnRecord
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TurnRecord is one stored exchange, kept so follow-up questions can be
// rewritten with context.
type TurnRecord struct {
	User      string
	Assistant string
	At        time.Time
}

// Registry holds live sessions in memory, keyed by session ID. Safe for
// concurrent use.
type Registry struct {
	logger log.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty Registry. A nil logger discards output.
func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Registry{
		logger:   logger.With("component", "session"),
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session and returns a copy of it.
func (r *Registry) Create() Session {
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Info("session created", "session_id", s.ID)
	return *s
}

// Get returns a copy of the session, or ErrNotFound.
func (r *Registry) Get(id string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return *s, nil
}

// SelectFolder points the session at a knowledge-base folder and clears
// any history accumulated against the previous one.
func (r *Registry) SelectFolder(id, folder string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.Folder = folder
	s.History = nil
	s.UpdatedAt = time.Now()
	return nil
}

// Folder returns the session's active knowledge-base folder. ErrNoFolder
// means the session exists but has not selected one.
func (r *Registry) Folder(id string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return "", ErrNotFound
	}
	if s.Folder == "" {
		return "", ErrNoFolder
	}
	return s.Folder, nil
}

// AppendTurn records a completed exchange, keeping at most depth turns.
func (r *Registry) AppendTurn(id, user, assistant string, depth int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.History = append(s.History, TurnRecord{User: user, Assistant: assistant, At: time.Now()})
	if depth > 0 && len(s.History) > depth {
		s.History = s.History[len(s.History)-depth:]
	}
	s.UpdatedAt = time.Now()
	return nil
}

// History returns a copy of the session's stored turns.
func (r *Registry) History(id string) ([]TurnRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]TurnRecord, len(s.History))
	copy(out, s.History)
	return out, nil
}

// ClearHistory drops the session's stored turns but keeps the folder.
func (r *Registry) ClearHistory(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.History = nil
	s.UpdatedAt = time.Now()
	return nil
}

// Delete removes the session. Deleting an unknown ID is a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

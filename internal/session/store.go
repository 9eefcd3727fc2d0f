package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bryanwahyu/company-analyst/internal/domain/analysis"
	"github.com/bryanwahyu/company-analyst/internal/domain/settings"
	"github.com/bryanwahyu/company-analyst/internal/domain/validation"
)

// State is the explicit per-login session object replacing ambient globals:
// every operation reads its configuration from here and writes its result
// back through Update. Last write wins; execution is single-threaded per
// session so the lock only guards against unrelated sessions.
type State struct {
	Username     string
	Settings     settings.Settings
	ConfigSource string

	LastSingle *analysis.Result
	LastBatch  *analysis.BatchOutput
	LastRunID  string

	ValidationInput    any
	ValidationExpected any
	ValidationActual   any
	LastReport         *validation.Report
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*State)}
}

// Create registers a new session and returns its bearer token.
func (s *Store) Create(username string, cfg settings.Settings, source string) string {
	token := uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = &State{Username: username, Settings: cfg, ConfigSource: source}
	return token
}

func (s *Store) Get(token string) (*State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[token]
	return st, ok
}

// Update mutates the session state under the store lock.
func (s *Store) Update(token string, fn func(*State)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[token]
	if !ok {
		return false
	}
	fn(st)
	return true
}

func (s *Store) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

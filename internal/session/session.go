// Package session holds per-user state between interactions: who is logged in,
// the last extraction and the compose links generated for each form.
package session

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/contracts-tracker/constants"
	"github.com/joseph-ayodele/contracts-tracker/internal/common"
	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
)

// Session is a snapshot of one user's state. Mutate it through the Manager.
type Session struct {
	ID          uuid.UUID
	Salesperson string
	CreatedAt   time.Time
	LastSeen    time.Time

	// Extraction is the cached result for the document named ExtractedFrom.
	Extraction    *extract.Result
	ExtractedFrom string
	Links         map[constants.Kind]string
}

// Manager owns all live sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewManager creates a manager; ttl <= 0 disables expiry.
func NewManager(ttl time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Start logs a salesperson in and returns the new session.
func (m *Manager) Start(salesperson string) (Session, error) {
	name := strings.TrimSpace(salesperson)
	if err := common.NewValidator().
		Field("담당자 이름", name, common.Required, common.MaxLength(50)).
		Error(); err != nil {
		return Session{}, err
	}

	now := m.now()
	s := &Session{
		ID:          uuid.New(),
		Salesperson: name,
		CreatedAt:   now,
		LastSeen:    now,
		Links:       make(map[constants.Kind]string),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session.start", "session_id", s.ID, "salesperson", name)
	return s.clone(), nil
}

// Get returns the session and refreshes its last-seen time.
func (m *Manager) Get(id uuid.UUID) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(id)
	if err != nil {
		return Session{}, err
	}
	s.LastSeen = m.now()
	return s.clone(), nil
}

// Parse resolves a session id string.
func (m *Manager) Parse(id string) (Session, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return Session{}, common.NotFoundError("세션 ID가 올바르지 않습니다", common.ErrSessionNotFound)
	}
	return m.Get(uid)
}

// CachedExtraction returns the cached result if it belongs to the named document.
func (m *Manager) CachedExtraction(id uuid.UUID, name string) (extract.Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(id)
	if err != nil || s.Extraction == nil || s.ExtractedFrom != name {
		return extract.Result{}, false
	}
	return s.Extraction.Clone(), true
}

// StoreExtraction caches the result for the named document.
func (m *Manager) StoreExtraction(id uuid.UUID, name string, res extract.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	res = res.Clone()
	s.Extraction = &res
	s.ExtractedFrom = name
	return nil
}

// ClearExtraction drops the cached result after it has been registered.
func (m *Manager) ClearExtraction(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.Extraction = nil
	s.ExtractedFrom = ""
	return nil
}

// SetLink records the compose link generated by a form.
func (m *Manager) SetLink(id uuid.UUID, kind constants.Kind, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.Links[kind] = link
	return nil
}

// Reset clears the cached extraction and every generated link but keeps the login.
func (m *Manager) Reset(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.Extraction = nil
	s.ExtractedFrom = ""
	s.Links = make(map[constants.Kind]string)
	m.logger.Debug("session.reset", "session_id", id)
	return nil
}

// End logs the user out.
func (m *Manager) End(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	m.logger.Info("session.end", "session_id", id)
}

// Sweep drops sessions idle for longer than the ttl and returns how many were removed.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-m.ttl)
	n := 0
	for id, s := range m.sessions {
		if s.LastSeen.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		m.logger.Info("session.sweep", "expired", n, "live", len(m.sessions))
	}
	return n
}

func (m *Manager) lookup(id uuid.UUID) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, common.NotFoundError("세션이 만료되었습니다. 다시 로그인해 주세요", common.ErrSessionNotFound)
	}
	if m.ttl > 0 && m.now().Sub(s.LastSeen) > m.ttl {
		delete(m.sessions, id)
		return nil, common.NotFoundError("세션이 만료되었습니다. 다시 로그인해 주세요", common.ErrSessionNotFound)
	}
	return s, nil
}

func (s *Session) clone() Session {
	c := *s
	c.Links = make(map[constants.Kind]string, len(s.Links))
	for k, v := range s.Links {
		c.Links[k] = v
	}
	if s.Extraction != nil {
		r := s.Extraction.Clone()
		c.Extraction = &r
	}
	return c
}

package session

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/hextactics/game/engine"
	"github.com/wricardo/hextactics/game/service"
	"github.com/wricardo/hextactics/game/unit"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func validID(id string) bool { return sessionIDPattern.MatchString(id) }

// RecorderFactory returns the card usage recorder of a session.
type RecorderFactory func(sessionID string) engine.UsageRecorder

// Option configures a Manager.
type Option func(*Manager)

// WithPersistence stores sessions through p.
func WithPersistence(p SessionPersistence) Option {
	return func(m *Manager) { m.persistence = p }
}

// WithRecorders attaches a card usage recorder to every session.
func WithRecorders(f RecorderFactory) Option {
	return func(m *Manager) { m.recorders = f }
}

// WithLogger sets the logger handed to the manager and every engine.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// Manager handles match session lifecycle
type Manager struct {
	sessions    map[string]*service.Session
	persistence SessionPersistence
	library     engine.Library
	recorders   RecorderFactory
	logger      *zap.Logger
	mu          sync.RWMutex
}

// NewManager creates a new session manager drawing content from lib
func NewManager(lib engine.Library, opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
		library:  lib,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(lib engine.Library, persistence SessionPersistence, opts ...Option) *Manager {
	return NewManager(lib, append([]Option{WithPersistence(persistence)}, opts...)...)
}

func (m *Manager) engineOptions(id string) engine.Options {
	opts := engine.Options{
		Library: m.library,
		Logger:  m.logger.With(zap.String("session", id)),
	}
	if m.recorders != nil {
		opts.Usage = m.recorders(id)
	}
	return opts
}

// Create creates a new session and starts the requested content. A level or
// campaign that fails to load leaves the session on the default arena with
// the failure in its state.
func (m *Manager) Create(id string, opts service.CreateOptions) (*service.Session, error) {
	if id == "" {
		id = m.generateSessionID()
	}
	if !validID(id) {
		return nil, ErrInvalidSessionID
	}

	m.mu.RLock()
	exists := m.sessionExists(id)
	m.mu.RUnlock()
	if exists {
		return nil, ErrSessionAlreadyExists
	}

	class := unit.Warrior
	if opts.Class != "" {
		c, err := unit.ParseClass(opts.Class)
		if err != nil {
			return nil, err
		}
		class = c
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	eopts := m.engineOptions(id)
	eopts.Class = class
	eopts.Seed = seed
	eng, err := engine.New(eopts)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	switch {
	case opts.Skirmish != nil:
		sk := *opts.Skirmish
		if sk.Seed == 0 {
			sk.Seed = seed
		}
		if err := eng.StartSkirmish(sk); err != nil {
			return nil, fmt.Errorf("failed to start skirmish: %w", err)
		}
	case opts.Campaign != "":
		if err := eng.StartCampaign(opts.Campaign); err != nil {
			m.logger.Warn("campaign failed to load", zap.String("session", id), zap.String("campaign", opts.Campaign), zap.Error(err))
		}
	case opts.Level != "":
		if err := eng.StartLevel(opts.Level); err != nil {
			m.logger.Warn("level failed to load", zap.String("session", id), zap.String("level", opts.Level), zap.Error(err))
		}
	}

	now := time.Now()
	session := &service.Session{
		ID:             id,
		Engine:         eng,
		LevelID:        eng.LevelID(),
		CampaignID:     opts.Campaign,
		Class:          string(class),
		Seed:           seed,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	m.mu.Lock()
	// Check again, the engine was built without the lock
	if m.sessionExists(id) {
		m.mu.Unlock()
		return nil, ErrSessionAlreadyExists
	}
	m.sessions[strings.ToLower(id)] = session
	m.mu.Unlock()

	// Auto-save if persistence is enabled
	if m.persistence != nil {
		if err := m.persistence.Save(session); err != nil {
			// Log error but don't fail the creation
			m.logger.Warn("failed to persist session", zap.String("session", id), zap.Error(err))
		}
	}

	m.logger.Info("session created",
		zap.String("session", id),
		zap.String("level", session.LevelID),
		zap.String("class", session.Class),
		zap.Int64("seed", seed))
	return session, nil
}

// restore rebuilds a session from its stored form
func (m *Manager) restore(data *PersistedSessionData) (*service.Session, error) {
	eng, err := engine.Restore(m.engineOptions(data.ID), data.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", data.ID, err)
	}
	return &service.Session{
		ID:             data.ID,
		Engine:         eng,
		LevelID:        eng.LevelID(),
		CampaignID:     data.CampaignID,
		Class:          data.Class,
		Seed:           data.Seed,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	session, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()

	if exists {
		return session, nil
	}

	// Try loading from persistence if not in memory
	if m.persistence != nil && m.persistence.Exists(id) {
		data, err := m.persistence.Load(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted session: %w", err)
		}
		session, err := m.restore(data)
		if err != nil {
			return nil, err
		}

		// Add to memory cache, keeping a copy another caller loaded first
		m.mu.Lock()
		defer m.mu.Unlock()
		if existing, ok := m.sessions[strings.ToLower(id)]; ok {
			return existing, nil
		}
		m.sessions[strings.ToLower(id)] = session
		return session, nil
	}

	return nil, ErrSessionNotFound
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id string, opts service.CreateOptions) (*service.Session, error) {
	// Try to get existing session first
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}

	// Create new session if not found
	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, opts)
	}

	return nil, err
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete removes a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	_, inMemory := m.sessions[lowerID]
	delete(m.sessions, lowerID)

	// Delete from persistence if it exists
	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	// If not in persistence and not in memory, it doesn't exist
	if !inMemory {
		return ErrSessionNotFound
	}

	return nil
}

// DeleteFromMemory removes a session from memory only (not from persistence)
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	if _, exists := m.sessions[lowerID]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, lowerID)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session. The
// caller holds the session lock.
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.RLock()
	session, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}

	session.LastAccessedAt = time.Now()
	return nil
}

// Save saves a specific session to persistence. The caller holds the session
// lock.
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	m.mu.RLock()
	session, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}

	return m.persistence.Save(session)
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the
// given duration from memory. Persisted copies stay on disk.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, session := range m.sessions {
		session.Lock()
		expired := session.LastAccessedAt.Before(cutoff)
		session.Unlock()
		if expired {
			delete(m.sessions, id)
			removed++
		}
	}

	return removed
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID generates a random 8-character session ID
func (m *Manager) generateSessionID() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// sessionExists checks if a session exists (case-insensitive). The caller
// holds m.mu.
func (m *Manager) sessionExists(id string) bool {
	if _, exists := m.sessions[strings.ToLower(id)]; exists {
		return true
	}
	return m.persistence != nil && m.persistence.Exists(id)
}

// LoadPersistedSessions loads all persisted sessions into memory
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	sessionIDs, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	loadedCount := 0
	for _, id := range sessionIDs {
		// Skip if already loaded in memory
		m.mu.RLock()
		_, exists := m.sessions[strings.ToLower(id)]
		m.mu.RUnlock()
		if exists {
			continue
		}

		data, err := m.persistence.Load(id)
		if err == nil {
			var session *service.Session
			if session, err = m.restore(data); err == nil {
				m.mu.Lock()
				m.sessions[strings.ToLower(id)] = session
				m.mu.Unlock()
				loadedCount++
				continue
			}
		}
		m.logger.Warn("failed to load persisted session", zap.String("session", id), zap.Error(err))
	}

	if loadedCount > 0 {
		m.logger.Info("loaded persisted sessions", zap.Int("count", loadedCount))
	}

	return nil
}

// SaveAllSessions saves all in-memory sessions to persistence
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	sessions := m.List()

	errorCount := 0
	for _, session := range sessions {
		session.Lock()
		err := m.persistence.Save(session)
		session.Unlock()
		if err != nil {
			m.logger.Warn("failed to save session", zap.String("session", session.ID), zap.Error(err))
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to save %d sessions", errorCount)
	}

	return nil
}

package session

import (
	"time"

	"github.com/wricardo/hextactics/game/engine"
	"github.com/wricardo/hextactics/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a stored session by ID
	Load(id string) (*PersistedSessionData, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the stored form of a session
type PersistedSessionData struct {
	ID             string           `json:"id"`
	LevelID        string           `json:"level_id"`
	CampaignID     string           `json:"campaign_id,omitempty"`
	Class          string           `json:"class"`
	Seed           int64            `json:"seed"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	Snapshot       *engine.Snapshot `json:"snapshot"`
}

// newPersistedData captures a session. The caller holds the session lock or
// owns the session exclusively.
func newPersistedData(s *service.Session) *PersistedSessionData {
	return &PersistedSessionData{
		ID:             s.ID,
		LevelID:        s.Engine.LevelID(),
		CampaignID:     s.CampaignID,
		Class:          s.Class,
		Seed:           s.Seed,
		CreatedAt:      s.CreatedAt,
		LastAccessedAt: s.LastAccessedAt,
		Snapshot:       s.Engine.Snapshot(),
	}
}

package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wricardo/hextactics/game/service"
	"github.com/wricardo/hextactics/game/store"
)

// SQLPersistence implements SessionPersistence on top of store.DB. Saving a
// session also archives its turn log.
type SQLPersistence struct {
	db *store.DB
}

// NewSQLPersistence creates a database-backed persistence layer
func NewSQLPersistence(db *store.DB) *SQLPersistence {
	return &SQLPersistence{db: db}
}

// Save writes the session row and archives the retained log entries
func (sp *SQLPersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	data := newPersistedData(session)
	snapshot, err := json.Marshal(data.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	err = sp.db.SaveSession(store.SessionRow{
		ID:             data.ID,
		LevelID:        data.LevelID,
		CampaignID:     data.CampaignID,
		Class:          data.Class,
		Seed:           data.Seed,
		CreatedAt:      data.CreatedAt.UnixMilli(),
		LastAccessedAt: data.LastAccessedAt.UnixMilli(),
		Snapshot:       string(snapshot),
	})
	if err != nil {
		return err
	}
	return sp.db.ArchiveLog(data.ID, data.Snapshot.Log)
}

// Load reads a session row back
func (sp *SQLPersistence) Load(id string) (*PersistedSessionData, error) {
	row, err := sp.db.LoadSession(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	data := &PersistedSessionData{
		ID:             row.ID,
		LevelID:        row.LevelID,
		CampaignID:     row.CampaignID,
		Class:          row.Class,
		Seed:           row.Seed,
		CreatedAt:      row.Created(),
		LastAccessedAt: row.LastAccessed(),
	}
	if err := json.Unmarshal([]byte(row.Snapshot), &data.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if data.Snapshot == nil {
		return nil, fmt.Errorf("session %s has no snapshot", id)
	}
	return data, nil
}

// Delete removes the session and everything recorded for it
func (sp *SQLPersistence) Delete(id string) error {
	if err := sp.db.DeleteSession(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// ListAll returns all stored session IDs
func (sp *SQLPersistence) ListAll() ([]string, error) {
	return sp.db.SessionIDs()
}

// Exists checks if a session row exists
func (sp *SQLPersistence) Exists(id string) bool {
	return sp.db.SessionExists(id)
}

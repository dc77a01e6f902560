package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/hextactics/game/engine"
	"github.com/wricardo/hextactics/game/service"
)

var (
	ErrConfigNotFound = engine.ErrConfigNotFound
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Content subdirectories.
const (
	CardsDir     = "cards"
	DecksDir     = "decks"
	LevelsDir    = "levels"
	CampaignsDir = "campaigns"
)

// DefaultLevelID is preferred as the default level when present.
const DefaultLevelID = "default"

// Manager handles content loading and caching
type Manager struct {
	contentDir   string
	defaultLevel string
	cards        map[string]*engine.CardDefinition
	decks        map[string]*engine.DeckConfig
	levels       map[string]*engine.LevelConfig
	campaigns    map[string]*engine.CampaignConfig
	mu           sync.RWMutex
}

// NewManager creates a new content manager
func NewManager(contentDir string) (*Manager, error) {
	// Ensure content directory exists
	if _, err := os.Stat(contentDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("content directory does not exist: %s", contentDir)
	}

	m := &Manager{contentDir: contentDir}
	m.clear()
	m.defaultLevel = m.findDefaultLevel()
	return m, nil
}

// ContentDir is the root the manager reads from.
func (m *Manager) ContentDir() string { return m.contentDir }

func (m *Manager) clear() {
	m.cards = make(map[string]*engine.CardDefinition)
	m.decks = make(map[string]*engine.DeckConfig)
	m.levels = make(map[string]*engine.LevelConfig)
	m.campaigns = make(map[string]*engine.CampaignConfig)
}

// Card loads a card by id
func (m *Manager) Card(id string) (*engine.CardDefinition, error) {
	return load(m, func() map[string]*engine.CardDefinition { return m.cards }, CardsDir, id, engine.LoadCardFile)
}

// Deck loads a deck by id
func (m *Manager) Deck(id string) (*engine.DeckConfig, error) {
	return load(m, func() map[string]*engine.DeckConfig { return m.decks }, DecksDir, id, engine.LoadDeckFile)
}

// Level loads a level by id
func (m *Manager) Level(id string) (*engine.LevelConfig, error) {
	return load(m, func() map[string]*engine.LevelConfig { return m.levels }, LevelsDir, id, engine.LoadLevelFile)
}

// Campaign loads a campaign by id
func (m *Manager) Campaign(id string) (*engine.CampaignConfig, error) {
	return load(m, func() map[string]*engine.CampaignConfig { return m.campaigns }, CampaignsDir, id, engine.LoadCampaignFile)
}

func load[T any](m *Manager, cache func() map[string]*T, kind, id string, read func(string) (*T, error)) (*T, error) {
	id = engine.ContentID(id)

	m.mu.RLock()
	// Check cache first
	if v, exists := cache()[id]; exists {
		m.mu.RUnlock()
		return v, nil
	}
	m.mu.RUnlock()

	path, err := m.findFile(kind, id)
	if err != nil {
		return nil, err
	}
	v, err := read(path)
	if err != nil {
		if errors.Is(err, engine.ErrConfigNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Keep whichever copy was cached first
	if existing, exists := cache()[id]; exists {
		return existing, nil
	}
	cache()[id] = v
	return v, nil
}

// findFile resolves an id to a file under kind, trying each content extension.
func (m *Manager) findFile(kind, id string) (string, error) {
	if id == "" || id == "." || strings.Contains(id, "..") {
		return "", fmt.Errorf("%w: %s/%q", ErrConfigNotFound, kind, id)
	}
	for _, ext := range engine.ContentExtensions {
		path := filepath.Join(m.contentDir, kind, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s/%s", ErrConfigNotFound, kind, id)
}

// contentFiles lists the content files of kind, sorted by name.
func (m *Manager) contentFiles(kind string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(m.contentDir, kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s directory: %w", kind, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isContentFile(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

func isContentFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range engine.ContentExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ListLevels returns information about all loadable levels
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	files, err := m.contentFiles(LevelsDir)
	if err != nil {
		return nil, err
	}

	var levels []*service.LevelInfo
	for _, name := range files {
		id := engine.ContentID(name)
		level, err := m.Level(id)
		if err != nil {
			// Skip invalid levels
			continue
		}
		levels = append(levels, &service.LevelInfo{
			Filename:    name,
			LevelID:     id,
			Name:        level.Name,
			Description: level.Description,
			Rows:        level.Grid.Rows,
			Columns:     level.Grid.Columns,
			Units:       len(level.Units),
			CardHexes:   len(level.CardDrawingHexes),
		})
	}
	return levels, nil
}

// ListCards returns information about all loadable cards
func (m *Manager) ListCards() ([]*service.CardInfo, error) {
	files, err := m.contentFiles(CardsDir)
	if err != nil {
		return nil, err
	}

	var cards []*service.CardInfo
	for _, name := range files {
		id := engine.ContentID(name)
		card, err := m.Card(id)
		if err != nil {
			continue
		}
		cardName, _ := card.Data[engine.FieldName].(string)
		cards = append(cards, &service.CardInfo{
			Filename: name,
			CardID:   id,
			Name:     cardName,
			CardType: card.CardType,
			States:   card.States,
		})
	}
	return cards, nil
}

// ListCampaigns returns information about all loadable campaigns
func (m *Manager) ListCampaigns() ([]*service.CampaignInfo, error) {
	files, err := m.contentFiles(CampaignsDir)
	if err != nil {
		return nil, err
	}

	var campaigns []*service.CampaignInfo
	for _, name := range files {
		id := engine.ContentID(name)
		c, err := m.Campaign(id)
		if err != nil {
			continue
		}
		info := &service.CampaignInfo{Filename: name, CampaignID: id, Name: c.Name}
		for _, l := range c.Levels {
			info.Levels = append(info.Levels, engine.ContentID(l.LevelFile))
		}
		campaigns = append(campaigns, info)
	}
	return campaigns, nil
}

// DefaultLevel returns the id of the default level. Empty means the built-in
// arena.
func (m *Manager) DefaultLevel() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLevel
}

// SetDefault sets the default level by id
func (m *Manager) SetDefault(id string) error {
	if _, err := m.Level(id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLevel = engine.ContentID(id)
	return nil
}

// RefreshCache drops every cached file so the next access rereads the disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.clear()
	m.mu.Unlock()

	def := m.findDefaultLevel()

	m.mu.Lock()
	m.defaultLevel = def
	m.mu.Unlock()
}

// findDefaultLevel prefers DefaultLevelID, then the first valid level.
func (m *Manager) findDefaultLevel() string {
	if _, err := m.Level(DefaultLevelID); err == nil {
		return DefaultLevelID
	}
	levels, err := m.ListLevels()
	if err != nil || len(levels) == 0 {
		return ""
	}
	return levels[0].LevelID
}

// SaveLevel validates a level and writes it to disk. An id ending in .yaml or
// .yml is written as YAML, anything else as JSON.
func (m *Manager) SaveLevel(id string, level *engine.LevelConfig) error {
	if err := engine.ValidateLevel(level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	key := engine.ContentID(id)
	if key == "" || strings.Contains(key, "..") {
		return fmt.Errorf("%w: bad level id %q", ErrInvalidConfig, id)
	}

	var (
		data []byte
		err  error
		ext  = strings.ToLower(filepath.Ext(id))
	)
	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(level)
	default:
		ext = ".json"
		data, err = json.MarshalIndent(level, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}

	dir := filepath.Join(m.contentDir, LevelsDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create levels directory: %w", err)
	}
	// Drop other encodings of the same id so lookups stay unambiguous
	for _, other := range engine.ContentExtensions {
		if other != ext {
			os.Remove(filepath.Join(dir, key+other))
		}
	}
	if err := os.WriteFile(filepath.Join(dir, key+ext), data, 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.levels[key] = level
	m.mu.Unlock()

	return nil
}

// Check loads every content file and returns the failures keyed by path.
func (m *Manager) Check() map[string]error {
	problems := make(map[string]error)
	kinds := []struct {
		dir  string
		load func(string) error
	}{
		{CardsDir, func(id string) error { _, err := m.Card(id); return err }},
		{DecksDir, func(id string) error { return m.checkDeck(id) }},
		{LevelsDir, func(id string) error { return m.checkLevel(id) }},
		{CampaignsDir, func(id string) error { return m.checkCampaign(id) }},
	}
	for _, k := range kinds {
		files, err := m.contentFiles(k.dir)
		if err != nil {
			problems[k.dir] = err
			continue
		}
		for _, name := range files {
			if err := k.load(engine.ContentID(name)); err != nil {
				problems[filepath.Join(k.dir, name)] = err
			}
		}
	}
	return problems
}

func (m *Manager) checkDeck(id string) error {
	deck, err := m.Deck(id)
	if err != nil {
		return err
	}
	if len(deck.Cards) == 0 {
		return fmt.Errorf("%w: deck %s is empty", ErrInvalidConfig, id)
	}
	for _, c := range deck.Cards {
		if _, err := m.Card(c); err != nil {
			return fmt.Errorf("deck %s: card %s: %w", id, c, err)
		}
	}
	return nil
}

func (m *Manager) checkLevel(id string) error {
	level, err := m.Level(id)
	if err != nil {
		return err
	}
	for _, u := range level.Units {
		card, err := m.Card(u.CardID)
		if err != nil {
			return fmt.Errorf("level %s: unit %s: %w", id, u.CardID, err)
		}
		if !card.CardType.UnitCard() {
			return fmt.Errorf("%w: level %s: card %s is a %s", ErrInvalidConfig, id, u.CardID, card.CardType)
		}
	}
	for _, h := range level.CardDrawingHexes {
		switch {
		case h.LinkedLevel != "":
			if _, err := m.findFile(LevelsDir, engine.ContentID(h.LinkedLevel)); err != nil {
				return fmt.Errorf("level %s: linked level: %w", id, err)
			}
		case h.CardID != "":
			if _, err := m.Card(h.CardID); err != nil {
				return fmt.Errorf("level %s: drawing hex card: %w", id, err)
			}
		default:
			if _, err := m.Deck(h.DeckFile); err != nil {
				return fmt.Errorf("level %s: drawing hex deck: %w", id, err)
			}
		}
	}
	return nil
}

func (m *Manager) checkCampaign(id string) error {
	c, err := m.Campaign(id)
	if err != nil {
		return err
	}
	for i, l := range c.Levels {
		if _, err := m.Level(l.LevelFile); err != nil {
			return fmt.Errorf("campaign %s level %d: %w", id, i+1, err)
		}
	}
	return nil
}

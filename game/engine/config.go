package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/hextactics/game/turn"
)

// ContentExtensions lists the file formats content can be written in.
var ContentExtensions = []string{".json", ".yaml", ".yml"}

// ContentID strips the directory and extension from a content file name.
func ContentID(name string) string {
	base := filepath.Base(filepath.ToSlash(name))
	for _, ext := range ContentExtensions {
		if strings.EqualFold(filepath.Ext(base), ext) {
			return strings.TrimSuffix(base, filepath.Ext(base))
		}
	}
	return base
}

// DecodeContent parses JSON or YAML content according to the file extension.
func DecodeContent(filename string, data []byte, v interface{}) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filename, err)
		}
	default:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filename, err)
		}
	}
	return nil
}

func loadContent(filename string, v interface{}) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, filename)
		}
		return err
	}
	return DecodeContent(filename, data, v)
}

// LoadCardFile loads and validates a card. A card without an id takes the file name.
func LoadCardFile(filename string) (*CardDefinition, error) {
	var card CardDefinition
	if err := loadContent(filename, &card); err != nil {
		return nil, err
	}
	if card.ID == "" {
		card.ID = ContentID(filename)
	}
	card.Data = normalizeData(card.Data)
	if err := ValidateCard(&card); err != nil {
		return nil, err
	}
	return &card, nil
}

// LoadDeckFile loads a deck.
func LoadDeckFile(filename string) (*DeckConfig, error) {
	var deck DeckConfig
	if err := loadContent(filename, &deck); err != nil {
		return nil, err
	}
	if deck.Name == "" {
		deck.Name = ContentID(filename)
	}
	return &deck, nil
}

// LoadLevelFile loads and validates a level layout.
func LoadLevelFile(filename string) (*LevelConfig, error) {
	var level LevelConfig
	if err := loadContent(filename, &level); err != nil {
		return nil, err
	}
	if level.Name == "" {
		level.Name = ContentID(filename)
	}
	if err := ValidateLevel(&level); err != nil {
		return nil, fmt.Errorf("invalid level '%s': %w", filename, err)
	}
	return &level, nil
}

// LoadCampaignFile loads a campaign and checks its transitions parse.
func LoadCampaignFile(filename string) (*CampaignConfig, error) {
	var campaign CampaignConfig
	if err := loadContent(filename, &campaign); err != nil {
		return nil, err
	}
	if campaign.Name == "" {
		campaign.Name = ContentID(filename)
	}
	if err := ValidateCampaign(&campaign); err != nil {
		return nil, fmt.Errorf("invalid campaign '%s': %w", filename, err)
	}
	return &campaign, nil
}

// ValidateCampaign requires at least one level and known transitions.
func ValidateCampaign(c *CampaignConfig) error {
	if c == nil || len(c.Levels) == 0 {
		return fmt.Errorf("%w: campaign has no levels", ErrInvalidLevel)
	}
	for i, l := range c.Levels {
		if l.LevelFile == "" {
			return fmt.Errorf("%w: campaign level %d has no level_file", ErrInvalidLevel, i+1)
		}
		if _, err := turn.ParseTransition(l.TransitionToNext); err != nil {
			return fmt.Errorf("%w: campaign level %d: %v", ErrInvalidLevel, i+1, err)
		}
	}
	return nil
}

// normalizeData converts YAML's nested map types so card data marshals back
// to JSON.
func normalizeData(data map[string]interface{}) map[string]interface{} {
	for k, v := range data {
		data[k] = normalizeValue(v)
	}
	return data
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, vv := range t {
			m[fmt.Sprint(k)] = normalizeValue(vv)
		}
		return m
	case map[string]interface{}:
		return normalizeData(t)
	case []interface{}:
		for i := range t {
			t[i] = normalizeValue(t[i])
		}
		return t
	default:
		return v
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/hextactics/game/engine"
	"github.com/wricardo/hextactics/game/hex"
)

const goblinCard = `{
	"id": "goblin",
	"card_type": "Enemy Card",
	"states": 1,
	"data": {"Name": "Goblin", "Health": 6, "Movement": 3, "Melee Damage": 2}
}`

// writeContent lays out a content directory from path -> body pairs.
func writeContent(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func findResult(results []ValidationResult, file string) *ValidationResult {
	for i := range results {
		if results[i].File == file {
			return &results[i]
		}
	}
	return nil
}

func TestValidateContent_Valid(t *testing.T) {
	dir := writeContent(t, map[string]string{
		"cards/goblin.json": goblinCard,
		"levels/field.yaml": `
name: Field
grid: {rows: 5, columns: 5}
player_start: {row: 2, column: 2}
inaccessible_hexes:
  - {row: 0, column: 0}
units:
  - card_id: goblin
    position: {row: 4, column: 4}
`,
	})

	results, err := validateContent(dir)
	if err != nil {
		t.Fatalf("validateContent failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d: %+v", len(results), results)
	}

	r := results[0]
	if r.File != filepath.Join("levels", "field.yaml") || !r.Valid {
		t.Fatalf("Expected a valid level, got %+v", r)
	}
	info := strings.Join(r.Info, "\n")
	for _, want := range []string{"✓ Name: Field", "✓ Units: 1", "✓ Connectivity: all 1 targets reachable", "✓ Open cells reachable: 24"} {
		if !strings.Contains(info, want) {
			t.Errorf("Expected %q in info:\n%s", want, info)
		}
	}
}

func TestValidateContent_Unreachable(t *testing.T) {
	// the goblin at (0,0) is walled in by both of its in-bounds neighbours
	// on an even column: (1,0) and (0,1)
	dir := writeContent(t, map[string]string{
		"cards/goblin.json": goblinCard,
		"levels/walled.json": `{
			"name": "Walled",
			"grid": {"rows": 4, "columns": 4},
			"player_start": {"row": 3, "column": 3},
			"inaccessible_hexes": [{"row": 1, "column": 0}, {"row": 0, "column": 1}],
			"units": [{"card_id": "goblin", "position": {"row": 0, "column": 0}}]
		}`,
	})

	results, err := validateContent(dir)
	if err != nil {
		t.Fatalf("validateContent failed: %v", err)
	}
	r := findResult(results, filepath.Join("levels", "walled.json"))
	if r == nil || r.Valid {
		t.Fatalf("Expected an invalid level, got %+v", results)
	}
	if !strings.Contains(r.Errors[0], "1/1 targets unreachable") {
		t.Errorf("Unexpected connectivity error %q", r.Errors[0])
	}
	if !strings.Contains(r.Errors[1], "Unit goblin at (0, 0)") {
		t.Errorf("Unexpected unreachable entry %q", r.Errors[1])
	}
}

func TestValidateContent_BrokenFiles(t *testing.T) {
	dir := writeContent(t, map[string]string{
		"cards/goblin.json":  goblinCard,
		"cards/broken.json":  `{"id": "broken", "card_type": "Enemy Card", "data": {"Name": "Broken"}}`,
		"decks/empty.json":   `{"name": "Empty", "cards": []}`,
		"levels/ghosts.json": `{"name": "Ghosts", "grid": {"rows": 4, "columns": 4}, "units": [{"card_id": "ghost", "position": {"row": 0, "column": 0}}]}`,
		"levels/notes.txt":   "not content",
	})

	results, err := validateContent(dir)
	if err != nil {
		t.Fatalf("validateContent failed: %v", err)
	}

	for _, file := range []string{
		filepath.Join("cards", "broken.json"),
		filepath.Join("decks", "empty.json"),
		filepath.Join("levels", "ghosts.json"),
	} {
		r := findResult(results, file)
		if r == nil {
			t.Errorf("Missing result for %s", file)
			continue
		}
		if r.Valid || len(r.Errors) == 0 {
			t.Errorf("Expected %s to be invalid, got %+v", file, r)
		}
	}
	if findResult(results, filepath.Join("levels", "notes.txt")) != nil {
		t.Error("Non-content files should be skipped")
	}
	if findResult(results, filepath.Join("cards", "goblin.json")) != nil {
		t.Error("Valid cards are not reported individually")
	}
}

func TestValidateContent_MissingDir(t *testing.T) {
	if _, err := validateContent("/non/existent/content"); err == nil {
		t.Error("Expected error for a missing content directory")
	}
}

func TestValidateContent_BundledContent(t *testing.T) {
	results, err := validateContent("../content")
	if err != nil {
		t.Fatalf("validateContent failed: %v", err)
	}
	levels := 0
	for _, r := range results {
		if strings.HasPrefix(r.File, "levels") {
			levels++
		}
	}
	if levels == 0 {
		t.Error("Expected the bundled levels to be reported")
	}
}

func TestValidateLevel_InvalidDimensions(t *testing.T) {
	result := ValidationResult{Valid: true}
	validateLevel(&engine.LevelConfig{Grid: engine.GridSize{Rows: 0, Columns: 5}}, &result)
	if result.Valid {
		t.Error("Expected a zero-row level to be invalid")
	}
}

func TestValidateLevel_CardHexes(t *testing.T) {
	level := &engine.LevelConfig{
		Name: "Hexes",
		Grid: engine.GridSize{Rows: 3, Columns: 3},
		CardDrawingHexes: []engine.CardDrawingHex{
			{Row: 0, Column: 0, DeckFile: "junk"},
		},
		PlayerStart: &hex.Coord{Row: 2, Col: 2},
	}

	result := ValidationResult{Valid: true}
	validateLevel(level, &result)
	if !result.Valid {
		t.Fatalf("Expected valid level, got %v", result.Errors)
	}

	level.InaccessibleHexes = []hex.Coord{{Row: 1, Col: 0}, {Row: 0, Col: 1}}
	result = ValidationResult{Valid: true}
	validateLevel(level, &result)
	if result.Valid {
		t.Fatal("Expected the walled-in card hex to be unreachable")
	}
	if !strings.Contains(strings.Join(result.Errors, "\n"), "Card-drawing hex at (0, 0)") {
		t.Errorf("Unexpected errors %v", result.Errors)
	}
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	ok := report(&buf, []ValidationResult{
		{File: "levels/a.json", Valid: true, Info: []string{"✓ Name: A"}},
	})
	if !ok || !strings.Contains(buf.String(), "✅ All content is valid!") || !strings.Contains(buf.String(), "✓ Name: A") {
		t.Errorf("Unexpected report:\n%s", buf.String())
	}

	buf.Reset()
	ok = report(&buf, []ValidationResult{
		{File: "levels/a.json", Valid: true},
		{File: "cards/b.json", Valid: false, Errors: []string{"bad card"}},
	})
	if ok {
		t.Error("Expected report to flag invalid content")
	}
	if !strings.Contains(buf.String(), "❌ bad card") || !strings.Contains(buf.String(), "❌ Some content has errors") {
		t.Errorf("Unexpected report:\n%s", buf.String())
	}
}

// Command validate checks every content file under a content directory. It
// reports:
//   - Files that fail to parse or violate card, deck, level or campaign rules
//   - Dangling references (unknown cards, decks, linked levels)
//   - Connectivity: every unit and card-drawing hex of a level must be
//     reachable from the player start over accessible cells
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/hextactics/game/config"
	"github.com/wricardo/hextactics/game/engine"
	"github.com/wricardo/hextactics/game/grid"
)

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateContent runs the content manager's checks and adds a connectivity
// report for every level that loads.
func validateContent(contentDir string) ([]ValidationResult, error) {
	mgr, err := config.NewManager(contentDir)
	if err != nil {
		return nil, err
	}

	problems := mgr.Check()
	var results []ValidationResult

	levelFiles, err := filepath.Glob(filepath.Join(contentDir, config.LevelsDir, "*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(levelFiles)
	for _, path := range levelFiles {
		name := filepath.Base(path)
		key := filepath.Join(config.LevelsDir, name)
		if !isContent(name) {
			continue
		}

		result := ValidationResult{File: key, Valid: true}
		if err, bad := problems[key]; bad {
			result.fail("%v", err)
			delete(problems, key)
			results = append(results, result)
			continue
		}

		level, err := mgr.Level(engine.ContentID(name))
		if err != nil {
			result.fail("%v", err)
		} else {
			validateLevel(level, &result)
		}
		results = append(results, result)
	}

	keys := make([]string, 0, len(problems))
	for k := range problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		result := ValidationResult{File: k, Valid: true}
		result.fail("%v", problems[k])
		results = append(results, result)
	}

	return results, nil
}

func isContent(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range engine.ContentExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// terrainGrid builds the level's grid without units so reachability only
// depends on inaccessible cells.
func terrainGrid(level *engine.LevelConfig) (*grid.Grid, error) {
	g, err := grid.New(level.Grid.Rows, level.Grid.Columns)
	if err != nil {
		return nil, err
	}
	for _, c := range level.InaccessibleHexes {
		g.SetAccessible(c, false)
	}
	return g, nil
}

// validateLevel checks that every unit and card-drawing hex can be reached
// from the player start.
func validateLevel(level *engine.LevelConfig, result *ValidationResult) {
	if err := engine.ValidateLevel(level); err != nil {
		result.fail("%v", err)
		return
	}
	g, err := terrainGrid(level)
	if err != nil {
		result.fail("%v", err)
		return
	}

	start := level.Start()
	var unreachable []string
	for _, u := range level.Units {
		if _, ok := g.FindPath(start, u.Position); !ok {
			unreachable = append(unreachable, fmt.Sprintf("Unit %s at %s", u.CardID, u.Position))
		}
	}
	for _, h := range level.CardDrawingHexes {
		if _, ok := g.FindPath(start, h.Coord()); !ok {
			unreachable = append(unreachable, fmt.Sprintf("Card-drawing hex at %s", h.Coord()))
		}
	}

	targets := len(level.Units) + len(level.CardDrawingHexes)
	if len(unreachable) > 0 {
		result.fail("Connectivity failure: %d/%d targets unreachable from start %s", len(unreachable), targets, start)
		for _, u := range unreachable {
			result.fail("Unreachable: %s", u)
		}
		return
	}

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", level.Name),
		fmt.Sprintf("✓ Grid: %dx%d, %d inaccessible", level.Grid.Rows, level.Grid.Columns, len(level.InaccessibleHexes)),
		fmt.Sprintf("✓ Start: %s", start),
		fmt.Sprintf("✓ Units: %d", len(level.Units)),
		fmt.Sprintf("✓ Card-drawing hexes: %d", len(level.CardDrawingHexes)),
		fmt.Sprintf("✓ Connectivity: all %d targets reachable from start", targets),
		fmt.Sprintf("✓ Open cells reachable: %d", g.ReachableWithin(start, level.Grid.Rows*level.Grid.Columns).Size()),
	)
}

// report prints the results and returns whether every file is valid.
func report(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
			continue
		}

		fmt.Fprintln(w, "❌ INVALID")
		allValid = false
		for _, err := range result.Errors {
			fmt.Fprintln(w, "  ❌ "+err)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All content is valid!")
	} else {
		fmt.Fprintln(w, "❌ Some content has errors")
	}
	return allValid
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate cards, decks, levels and campaigns",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "content-dir", Value: "../content", Usage: "Content directory", Sources: cli.EnvVars("CONTENT_DIR")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			results, err := validateContent(cmd.String("content-dir"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("Error loading content: %v", err), 1)
			}
			if !report(cmd.Root().Writer, results) {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

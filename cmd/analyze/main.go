// Command analyze prints quick, human-readable heuristics about the levels in
// a content directory. It summarizes dimensions and unit counts, the threat
// the player faces at the start, and the outcome of self-played matches
// across several seeds.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/hextactics/game/config"
	"github.com/wricardo/hextactics/game/engine"
	"github.com/wricardo/hextactics/game/unit"
)

// LevelAnalysis is the summary of one level.
type LevelAnalysis struct {
	LevelID      string
	Name         string
	Rows, Cols   int
	Inaccessible int
	Units        map[unit.Allegiance]int
	// Reachers counts the units with a path to the player start.
	Reachers   int
	Threat     string
	Runs       int
	Wins       int
	Losses     int
	Unfinished int
	TotalTurns int
}

// AvgTurns is the mean number of player turns per self-played match.
func (a *LevelAnalysis) AvgTurns() float64 {
	if a.Runs == 0 {
		return 0
	}
	return float64(a.TotalTurns) / float64(a.Runs)
}

// analyzeLevel inspects a level and self-plays it once per seed.
func analyzeLevel(lib engine.Library, id string, class unit.Class, seeds, maxTurns int, logger *zap.Logger) (*LevelAnalysis, error) {
	level, err := lib.Level(id)
	if err != nil {
		return nil, err
	}

	a := &LevelAnalysis{
		LevelID:      id,
		Name:         level.Name,
		Rows:         level.Grid.Rows,
		Cols:         level.Grid.Columns,
		Inaccessible: len(level.InaccessibleHexes),
	}

	for seed := 1; seed <= seeds; seed++ {
		e, err := engine.New(engine.Options{Library: lib, Class: class, Seed: int64(seed), Logger: logger})
		if err != nil {
			return nil, err
		}
		if err := e.StartLevel(id); err != nil {
			return nil, err
		}

		if seed == 1 {
			g := e.Grid()
			a.Units = engine.CountUnits(g)
			a.Reachers = len(engine.UnitsThatCanReach(g, e.Player().Position()))
			a.Threat = engine.AssessThreat(g, e.Player())
		}

		a.TotalTurns += e.PlayUntilDone(maxTurns)
		a.Runs++
		switch {
		case e.IsVictory():
			a.Wins++
		case e.IsGameOver():
			a.Losses++
		default:
			a.Unfinished++
		}
	}
	return a, nil
}

func printAnalysis(w io.Writer, a *LevelAnalysis) {
	fmt.Fprintf(w, "\n=== Analyzing %s ===\n", a.LevelID)
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d (%d inaccessible)\n", a.Rows, a.Cols, a.Inaccessible)

	kinds := make([]string, 0, len(a.Units))
	for k := range a.Units {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "%s units: %d\n", k, a.Units[unit.Allegiance(k)])
	}

	fmt.Fprintf(w, "Units with a path to the player: %d\n", a.Reachers)
	switch a.Threat {
	case "HIGH":
		fmt.Fprintf(w, "⚠️  Threat at start: %s\n", a.Threat)
	default:
		fmt.Fprintf(w, "Threat at start: %s\n", a.Threat)
	}

	fmt.Fprintf(w, "Self-play over %d seeds: %d won, %d lost, %d unfinished (avg %.1f turns)\n",
		a.Runs, a.Wins, a.Losses, a.Unfinished, a.AvgTurns())
	if a.Runs > 0 && a.Wins == 0 {
		fmt.Fprintf(w, "⚠️  WARNING: automatic play never clears this level\n")
	} else if a.Wins == a.Runs && a.Runs > 0 {
		fmt.Fprintf(w, "✅ Automatic play clears this level on every seed\n")
	}
}

// levelIDs returns the requested ids, or every loadable level.
func levelIDs(mgr *config.Manager, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	levels, err := mgr.ListLevels()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(levels))
	for i, l := range levels {
		ids[i] = l.LevelID
	}
	return ids, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	mgr, err := config.NewManager(cmd.String("content-dir"))
	if err != nil {
		return err
	}
	ids, err := levelIDs(mgr, cmd.Args().Slice())
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if cmd.Bool("verbose") {
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}

	w := cmd.Root().Writer
	for _, id := range ids {
		a, err := analyzeLevel(mgr, id, unit.Class(cmd.String("class")), cmd.Int("seeds"), cmd.Int("max-turns"), logger)
		if err != nil {
			fmt.Fprintf(w, "\n=== Analyzing %s ===\nError: %v\n", id, err)
			continue
		}
		printAnalysis(w, a)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "Summarize levels and self-play them",
		ArgsUsage: "[level ids...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "content-dir", Value: "content", Usage: "Content directory", Sources: cli.EnvVars("CONTENT_DIR")},
			&cli.StringFlag{Name: "class", Value: string(unit.Warrior), Usage: "Player class"},
			&cli.IntFlag{Name: "seeds", Value: 10, Usage: "Self-played matches per level"},
			&cli.IntFlag{Name: "max-turns", Value: 50, Usage: "Turn limit per match"},
			&cli.BoolFlag{Name: "verbose", Usage: "Log every turn"},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

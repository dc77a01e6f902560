package turn

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wricardo/hextactics/game/grid"
	"github.com/wricardo/hextactics/game/unit"
)

// Condition decides whether a level is complete. It is checked after every
// hostile phase.
type Condition interface {
	Satisfied(g *grid.Grid, p *unit.Player) bool
	String() string
}

// NoHostilesRemain is satisfied once every hostile unit is gone.
type NoHostilesRemain struct{}

func (NoHostilesRemain) Satisfied(g *grid.Grid, _ *unit.Player) bool {
	return len(g.UnitsOf(unit.Hostile)) == 0
}

func (NoHostilesRemain) String() string { return "" }

// DefeatNamed is satisfied when no unit carrying the given name in either of
// its states is left on the grid. A boss that switches state is still alive.
type DefeatNamed struct {
	Name string
}

func (c DefeatNamed) Satisfied(g *grid.Grid, _ *unit.Player) bool {
	for _, u := range g.Units() {
		if u.Named(c.Name) {
			return false
		}
	}
	return true
}

func (c DefeatNamed) String() string { return fmt.Sprintf("Defeat Boss '%s'", c.Name) }

// CollectItem is satisfied once the player carries an item with the given name.
type CollectItem struct {
	Name string
}

func (c CollectItem) Satisfied(_ *grid.Grid, p *unit.Player) bool {
	return p != nil && p.HasItem(c.Name)
}

func (c CollectItem) String() string { return fmt.Sprintf("Collect '%s'", c.Name) }

var (
	defeatPattern  = regexp.MustCompile(`^Defeat Boss '(.+)'$`)
	collectPattern = regexp.MustCompile(`^Collect '(.+)'$`)
)

// ParseTransition reads a campaign transition string. Empty means
// NoHostilesRemain.
func ParseTransition(s string) (Condition, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoHostilesRemain{}, nil
	}
	if m := defeatPattern.FindStringSubmatch(s); m != nil {
		return DefeatNamed{Name: m[1]}, nil
	}
	if m := collectPattern.FindStringSubmatch(s); m != nil {
		return CollectItem{Name: m[1]}, nil
	}
	return nil, fmt.Errorf("unknown transition %q", s)
}

package grid

import (
	"errors"
	"fmt"

	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/unit"
)

// ErrInvalidDimensions is returned when a grid is created with fewer than one row or column.
var ErrInvalidDimensions = errors.New("grid dimensions must be positive")

// Cell is one hex of the board.
type Cell struct {
	Accessible bool
	Occupant   *unit.Unit
}

// Grid is a rows x cols hex board. It owns the occupancy of every cell and the
// list of living non-player units in placement order.
type Grid struct {
	rows, cols int
	cells      [][]Cell
	units      []*unit.Unit
	player     *unit.Player
}

// New creates a grid with every cell accessible and empty.
func New(rows, cols int) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}

	cells := make([][]Cell, rows)
	for r := range cells {
		cells[r] = make([]Cell, cols)
		for c := range cells[r] {
			cells[r][c].Accessible = true
		}
	}
	return &Grid{rows: rows, cols: cols, cells: cells}, nil
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether c addresses a cell of this grid.
func (g *Grid) InBounds(c hex.Coord) bool {
	return c.Row >= 0 && c.Row < g.rows && c.Col >= 0 && c.Col < g.cols
}

// Cell returns a copy of the cell at c.
func (g *Grid) Cell(c hex.Coord) (Cell, bool) {
	if !g.InBounds(c) {
		return Cell{}, false
	}
	return g.cells[c.Row][c.Col], true
}

// IsAccessible reports whether c is in bounds and walkable.
func (g *Grid) IsAccessible(c hex.Coord) bool {
	return g.InBounds(c) && g.cells[c.Row][c.Col].Accessible
}

// SetAccessible toggles walkability. Occupied cells cannot be blocked.
func (g *Grid) SetAccessible(c hex.Coord, accessible bool) bool {
	if !g.InBounds(c) {
		return false
	}
	cell := &g.cells[c.Row][c.Col]
	if !accessible && cell.Occupant != nil {
		return false
	}
	cell.Accessible = accessible
	return true
}

// OccupantAt returns the unit standing on c, if any.
func (g *Grid) OccupantAt(c hex.Coord) (*unit.Unit, bool) {
	if !g.InBounds(c) {
		return nil, false
	}
	u := g.cells[c.Row][c.Col].Occupant
	return u, u != nil
}

// IsEmpty reports whether c is in bounds, accessible and unoccupied.
func (g *Grid) IsEmpty(c hex.Coord) bool {
	return g.IsAccessible(c) && g.cells[c.Row][c.Col].Occupant == nil
}

// Player returns the player, or nil when none is placed.
func (g *Grid) Player() *unit.Player { return g.player }

// Units returns the living non-player units in placement order. The slice is a
// copy; mutating the grid does not affect it.
func (g *Grid) Units() []*unit.Unit {
	out := make([]*unit.Unit, len(g.units))
	copy(out, g.units)
	return out
}

// UnitsOf returns the living units of one allegiance in placement order.
func (g *Grid) UnitsOf(a unit.Allegiance) []*unit.Unit {
	var out []*unit.Unit
	for _, u := range g.units {
		if u.Allegiance() == a {
			out = append(out, u)
		}
	}
	return out
}

// Contains reports whether u currently occupies a cell of this grid.
func (g *Grid) Contains(u *unit.Unit) bool {
	if u == nil || !u.Placed() {
		return false
	}
	occ, ok := g.OccupantAt(u.Position())
	return ok && occ == u
}

// Place puts an off-grid unit on an empty accessible cell.
func (g *Grid) Place(u *unit.Unit, c hex.Coord) bool {
	if u == nil || u.Placed() || !g.IsEmpty(c) {
		return false
	}
	g.cells[c.Row][c.Col].Occupant = u
	u.SetPosition(c)
	g.units = append(g.units, u)
	return true
}

// PlacePlayer puts the player on an empty accessible cell. A grid holds at most
// one player.
func (g *Grid) PlacePlayer(p *unit.Player, c hex.Coord) bool {
	if p == nil || g.player != nil || p.Placed() || !g.IsEmpty(c) {
		return false
	}
	g.cells[c.Row][c.Col].Occupant = p.Unit
	p.SetPosition(c)
	g.player = p
	return true
}

// Move relocates a placed unit and starts its move animation. The logical
// position changes immediately.
func (g *Grid) Move(u *unit.Unit, c hex.Coord) bool {
	from, ok := g.relocate(u, c)
	if !ok {
		return false
	}
	u.Anim.StartMove(from, c)
	return true
}

// Teleport relocates a placed unit without animating it.
func (g *Grid) Teleport(u *unit.Unit, c hex.Coord) bool {
	_, ok := g.relocate(u, c)
	return ok
}

func (g *Grid) relocate(u *unit.Unit, c hex.Coord) (hex.Coord, bool) {
	if !g.Contains(u) || !g.IsEmpty(c) {
		return hex.Coord{}, false
	}
	from := u.Position()
	g.cells[from.Row][from.Col].Occupant = nil
	g.cells[c.Row][c.Col].Occupant = u
	u.SetPosition(c)
	return from, true
}

// Remove takes a unit off the board. Removing the player clears the player slot.
func (g *Grid) Remove(u *unit.Unit) bool {
	if !g.Contains(u) {
		return false
	}
	pos := u.Position()
	g.cells[pos.Row][pos.Col].Occupant = nil
	u.ClearPosition()

	if g.player != nil && g.player.Unit == u {
		g.player = nil
		return true
	}
	for i, other := range g.units {
		if other == u {
			g.units = append(g.units[:i], g.units[i+1:]...)
			break
		}
	}
	return true
}

// Neighbors returns the in-bounds neighbors of c.
func (g *Grid) Neighbors(c hex.Coord) []hex.Coord {
	var out []hex.Coord
	for _, n := range hex.Neighbors(c) {
		if g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// NeighborsExcludingOccupied returns accessible neighbors of c that are empty.
// When goal is non-nil it is returned even if occupied.
func (g *Grid) NeighborsExcludingOccupied(c hex.Coord, goal *hex.Coord) []hex.Coord {
	var out []hex.Coord
	for _, n := range hex.Neighbors(c) {
		if !g.IsAccessible(n) {
			continue
		}
		if g.cells[n.Row][n.Col].Occupant != nil && (goal == nil || *goal != n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// EmptyNeighbors returns the accessible unoccupied neighbors of c.
func (g *Grid) EmptyNeighbors(c hex.Coord) []hex.Coord {
	return g.NeighborsExcludingOccupied(c, nil)
}

// Blocked lists every inaccessible cell in row-major order.
func (g *Grid) Blocked() []hex.Coord {
	var out []hex.Coord
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if !g.cells[r][c].Accessible {
				out = append(out, hex.Coord{Row: r, Col: c})
			}
		}
	}
	return out
}

// Center returns the middle cell.
func (g *Grid) Center() hex.Coord {
	return hex.Coord{Row: g.rows / 2, Col: g.cols / 2}
}

// MovedMessage is the log line for a unit that changed cells.
func MovedMessage(name string, c hex.Coord) string {
	return fmt.Sprintf("%s moved to %s", name, c)
}

// PlacedMessage is the log line for a unit put on the board.
func PlacedMessage(name string, c hex.Coord) string {
	return fmt.Sprintf("%s placed at %s", name, c)
}

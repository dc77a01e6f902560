package hex

import "fmt"

// Coord is a cell address in offset (row, column) form.
type Coord struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"column" yaml:"column"`
}

// Cube is a cell address in cube form. X+Y+Z is always 0.
type Cube struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Directions are the six cube unit vectors used for rays and alignment checks.
var Directions = [6]Cube{
	{X: 1, Y: 0, Z: -1},
	{X: 1, Y: -1, Z: 0},
	{X: 0, Y: -1, Z: 1},
	{X: -1, Y: 0, Z: 1},
	{X: -1, Y: 1, Z: 0},
	{X: 0, Y: 1, Z: -1},
}

// Offsets as (dRow, dCol), selected by column parity.
var (
	evenColumnOffsets = [6]Coord{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {-1, -1}, {-1, 1}}
	oddColumnOffsets  = [6]Coord{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {1, -1}, {1, 1}}
)

// String renders the coordinate the way turn log messages print it.
func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d)", c.Row, c.Col)
}

// Cube converts the coordinate to cube form.
func (c Coord) Cube() Cube {
	return ToCube(c)
}

// ToCube converts an offset coordinate to cube form.
func ToCube(c Coord) Cube {
	x := c.Col
	z := c.Row - floorDiv(c.Col, 2)
	return Cube{X: x, Y: -x - z, Z: z}
}

// FromCube converts a cube coordinate back to offset form.
func FromCube(cu Cube) Coord {
	return Coord{Row: cu.Z + floorDiv(cu.X, 2), Col: cu.X}
}

// Add returns the component-wise sum.
func (cu Cube) Add(other Cube) Cube {
	return Cube{X: cu.X + other.X, Y: cu.Y + other.Y, Z: cu.Z + other.Z}
}

// Scale multiplies every component by k.
func (cu Cube) Scale(k int) Cube {
	return Cube{X: cu.X * k, Y: cu.Y * k, Z: cu.Z * k}
}

// Distance returns the number of neighbor steps between a and b.
func Distance(a, b Coord) int {
	ca, cb := ToCube(a), ToCube(b)
	return max(abs(ca.X-cb.X), abs(ca.Y-cb.Y), abs(ca.Z-cb.Z))
}

// Neighbors returns the six cells adjacent to c. Results are not bounds checked.
func Neighbors(c Coord) []Coord {
	offsets := evenColumnOffsets
	if c.Col&1 == 1 {
		offsets = oddColumnOffsets
	}

	result := make([]Coord, 0, len(offsets))
	for _, o := range offsets {
		result = append(result, Coord{Row: c.Row + o.Row, Col: c.Col + o.Col})
	}
	return result
}

// Step moves k hexes from c along direction dir.
func Step(c Coord, dir Cube, k int) Coord {
	return FromCube(ToCube(c).Add(dir.Scale(k)))
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Package hex implements the coordinate math for a flat-topped, odd-column
// offset hex layout.
//
// Cells are stored and addressed as offset coordinates (row, column). Distance,
// rays and alignment are computed in cube coordinates, where every cell is a
// triple (x, y, z) with x+y+z = 0:
//
//	x = col
//	z = row - floor(col / 2)
//	y = -x - z
//
// Neighbor offsets depend on column parity. Even columns reach up-left and
// up-right, odd columns reach down-left and down-right. Floor division is used
// everywhere so that coordinates outside the grid (produced while casting rays)
// round-trip correctly.
package hex

// Package grid holds the hex board: cell accessibility, occupancy, pathfinding
// and the range and line-of-sight queries built on top of them.
//
// The grid is the only writer of unit positions. Place, PlacePlayer, Move,
// Teleport and Remove update the cell occupant and the unit's position
// together, so a unit's Position and OccupantAt always agree.
//
// Range queries return mapset.Set values; callers that need stable output use
// SetToSlice or ValidMoves, which sort row-major.
package grid

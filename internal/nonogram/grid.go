// Package nonogram holds the grid model, solution parsing, clue
// derivation, and the solve check shared by the whole game.
package nonogram

import "fmt"

// Cell is one square of the player's grid.
type Cell uint8

const (
	CellEmpty Cell = iota
	CellFilled
	CellMarked // player's "definitely blank" annotation
)

// Valid reports whether the cell carries one of the known values.
// Persisted grids are validated with this before they reach gameplay.
func (c Cell) Valid() bool { return c <= CellMarked }

// Grid is the player's current N x N state. The zero value of each
// cell is CellEmpty, so NewGrid(n) is a fresh, untouched board.
type Grid [][]Cell

func NewGrid(size int) Grid {
	g := make(Grid, size)
	for i := range g {
		g[i] = make([]Cell, size)
	}
	return g
}

func (g Grid) Size() int { return len(g) }

// Clone returns a deep copy. Undo/redo snapshots rely on this.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]Cell(nil), row...)
	}
	return out
}

func (g Grid) Equal(other Grid) bool {
	if len(g) != len(other) {
		return false
	}
	for i := range g {
		if len(g[i]) != len(other[i]) {
			return false
		}
		for j := range g[i] {
			if g[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}

// Set writes a cell value, rejecting out-of-range coordinates.
func (g Grid) Set(row, col int, c Cell) error {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g) {
		return fmt.Errorf("cell (%d,%d) out of range for %dx%d grid", row, col, len(g), len(g))
	}
	if !c.Valid() {
		return fmt.Errorf("invalid cell value %d", c)
	}
	g[row][col] = c
	return nil
}

// Validate checks that a grid (typically one deserialized from
// storage) is square with the expected size and holds only known
// cell values.
func (g Grid) Validate(size int) error {
	if len(g) != size {
		return fmt.Errorf("grid has %d rows, want %d", len(g), size)
	}
	for i, row := range g {
		if len(row) != size {
			return fmt.Errorf("grid row %d has %d cells, want %d", i, len(row), size)
		}
		for j, c := range row {
			if !c.Valid() {
				return fmt.Errorf("grid cell (%d,%d) has invalid value %d", i, j, c)
			}
		}
	}
	return nil
}

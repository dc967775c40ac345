package nonogram

import "fmt"

// Solution is the authored answer for one puzzle: true means filled.
type Solution [][]bool

// ParseSolution decodes the pack file representation of a solution,
// one string per row, '#' for filled and '.' for blank.
func ParseSolution(rows []string) (Solution, error) {
	size := len(rows)
	if size == 0 {
		return nil, fmt.Errorf("solution has no rows")
	}
	out := make(Solution, size)
	for i, row := range rows {
		if len(row) != size {
			return nil, fmt.Errorf("solution row %d has %d cells, want %d", i, len(row), size)
		}
		out[i] = make([]bool, size)
		for j, ch := range row {
			switch ch {
			case '#':
				out[i][j] = true
			case '.':
			default:
				return nil, fmt.Errorf("solution row %d: unexpected character %q", i, ch)
			}
		}
	}
	return out, nil
}

func (s Solution) Size() int { return len(s) }

// Solved reports whether the player's grid matches the solution.
// Marked and empty cells are interchangeable: only the filled cells
// have to agree. Pure and cheap, safe to re-run on every edit.
func Solved(g Grid, s Solution) bool {
	if len(g) != len(s) {
		return false
	}
	for i := range s {
		if len(g[i]) != len(s[i]) {
			return false
		}
		for j := range s[i] {
			if s[i][j] != (g[i][j] == CellFilled) {
				return false
			}
		}
	}
	return true
}

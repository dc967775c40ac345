package nonogram

// Clues are the numeric run lengths shown beside the grid.
type Clues struct {
	Rows [][]int
	Cols [][]int
}

// LineClues derives the run lengths of one row or column. A line
// with no filled cells yields [0], matching how nonograms are
// conventionally printed.
func LineClues(line []bool) []int {
	var out []int
	run := 0
	for _, filled := range line {
		if filled {
			run++
			continue
		}
		if run > 0 {
			out = append(out, run)
			run = 0
		}
	}
	if run > 0 {
		out = append(out, run)
	}
	if len(out) == 0 {
		out = []int{0}
	}
	return out
}

// DeriveClues computes row and column clues for a solution.
func DeriveClues(s Solution) Clues {
	size := s.Size()
	clues := Clues{
		Rows: make([][]int, size),
		Cols: make([][]int, size),
	}
	col := make([]bool, size)
	for i := 0; i < size; i++ {
		clues.Rows[i] = LineClues(s[i])
		for j := 0; j < size; j++ {
			col[j] = s[j][i]
		}
		clues.Cols[i] = LineClues(col)
	}
	return clues
}

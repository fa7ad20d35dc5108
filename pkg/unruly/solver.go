package unruly

import "github.com/gitrdm/gridlogic/pkg/puzzle"

// solver is the per-solve scratch state: the working grid plus running
// digit counts per row and column. It is freshly built for each
// top-level Solve and never shared.
type solver struct {
	w, h         int
	unique       bool
	grid         []cell
	rowN         [2][]int // rowN[v][y]: count of digit v in row y
	colN         [2][]int
	inconsistent bool
	logf         puzzle.Logf
}

func newSolver(st *GameState, logf puzzle.Logf) *solver {
	s := &solver{
		w:      st.w,
		h:      st.h,
		unique: st.unique,
		grid:   append([]cell(nil), st.grid...),
		logf:   logf,
	}
	for v := 0; v < 2; v++ {
		s.rowN[v] = make([]int, s.h)
		s.colN[v] = make([]int, s.w)
	}
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			if c := s.at(x, y); c != cellEmpty {
				s.rowN[c][y]++
				s.colN[c][x]++
			}
		}
	}
	return s
}

func (s *solver) at(x, y int) cell { return s.grid[y*s.w+x] }

func (s *solver) debugf(format string, args ...any) {
	if s.logf != nil {
		s.logf(format, args...)
	}
}

// set places digit v at (x, y). Setting a cell that already holds the
// opposite digit marks the state inconsistent. Returns true on change.
func (s *solver) set(x, y int, v cell) bool {
	cur := s.at(x, y)
	if cur == v {
		return false
	}
	if cur != cellEmpty {
		s.debugf("contradiction at (%d,%d): %d vs %d", x, y, cur, v)
		s.inconsistent = true
		return false
	}
	s.grid[y*s.w+x] = v
	s.rowN[v][y]++
	s.colN[v][x]++
	if s.rowN[v][y] > s.w/2 || s.colN[v][x] > s.h/2 {
		s.inconsistent = true
	}
	return true
}

// checkThrees forbids three equal digits in a row: in every window of
// three cells, two equal digits force the third to the opposite, and
// three equal digits are a contradiction. Tier: Trivial.
func (s *solver) checkThrees() bool {
	progress := false
	window := func(x0, y0, x1, y1, x2, y2 int) {
		a, b, c := s.at(x0, y0), s.at(x1, y1), s.at(x2, y2)
		switch {
		case a != cellEmpty && a == b && b == c:
			s.inconsistent = true
		case a != cellEmpty && a == b && c == cellEmpty:
			progress = s.set(x2, y2, a.opposite()) || progress
		case b != cellEmpty && b == c && a == cellEmpty:
			progress = s.set(x0, y0, b.opposite()) || progress
		case a != cellEmpty && a == c && b == cellEmpty:
			progress = s.set(x1, y1, a.opposite()) || progress
		}
	}
	for y := 0; y < s.h; y++ {
		for x := 0; x+2 < s.w; x++ {
			window(x, y, x+1, y, x+2, y)
			if s.inconsistent {
				return progress
			}
		}
	}
	for x := 0; x < s.w; x++ {
		for y := 0; y+2 < s.h; y++ {
			window(x, y, x, y+1, x, y+2)
			if s.inconsistent {
				return progress
			}
		}
	}
	return progress
}

// checkCompleteNums saturates counts: a line holding its full quota of
// one digit forces every remaining cell to the other digit.
// Tier: Easy.
func (s *solver) checkCompleteNums() bool {
	progress := false
	for y := 0; y < s.h; y++ {
		for v := cellZero; v <= cellOne; v++ {
			if s.rowN[v][y] != s.w/2 {
				continue
			}
			for x := 0; x < s.w; x++ {
				if s.at(x, y) == cellEmpty {
					progress = s.set(x, y, v.opposite()) || progress
				}
			}
		}
	}
	for x := 0; x < s.w; x++ {
		for v := cellZero; v <= cellOne; v++ {
			if s.colN[v][x] != s.h/2 {
				continue
			}
			for y := 0; y < s.h; y++ {
				if s.at(x, y) == cellEmpty {
					progress = s.set(x, y, v.opposite()) || progress
				}
			}
		}
	}
	return progress
}

// checkUniques applies the unique-lines variant rule: if line A is
// complete and line B agrees with A everywhere B is filled, B's last
// empty cell must differ from A there. Tier: Easy, unique mode only.
func (s *solver) checkUniques() bool {
	if !s.unique {
		return false
	}
	progress := false

	for a := 0; a < s.h; a++ {
		if s.rowN[0][a]+s.rowN[1][a] != s.w {
			continue
		}
		for b := 0; b < s.h; b++ {
			if b == a {
				continue
			}
			empties := s.w - s.rowN[0][b] - s.rowN[1][b]
			if empties != 1 {
				continue
			}
			match, gap := true, -1
			for x := 0; x < s.w; x++ {
				switch s.at(x, b) {
				case cellEmpty:
					gap = x
				case s.at(x, a):
				default:
					match = false
				}
				if !match {
					break
				}
			}
			if match {
				progress = s.set(gap, b, s.at(gap, a).opposite()) || progress
			}
		}
	}

	for a := 0; a < s.w; a++ {
		if s.colN[0][a]+s.colN[1][a] != s.h {
			continue
		}
		for b := 0; b < s.w; b++ {
			if b == a {
				continue
			}
			empties := s.h - s.colN[0][b] - s.colN[1][b]
			if empties != 1 {
				continue
			}
			match, gap := true, -1
			for y := 0; y < s.h; y++ {
				switch s.at(b, y) {
				case cellEmpty:
					gap = y
				case s.at(a, y):
				default:
					match = false
				}
				if !match {
					break
				}
			}
			if match {
				progress = s.set(b, gap, s.at(a, gap).opposite()) || progress
			}
		}
	}
	return progress
}

// checkNearComplete handles lines one digit short of quota: the final
// copy of that digit must land inside any window of three cells
// containing none of it, otherwise the window would become three of
// the opposite digit. Every empty cell outside such a window takes the
// opposite digit. Tier: Normal.
func (s *solver) checkNearComplete() bool {
	progress := false

	for y := 0; y < s.h; y++ {
		for v := cellZero; v <= cellOne; v++ {
			if s.rowN[v][y] != s.w/2-1 {
				continue
			}
			for x0 := 0; x0+2 < s.w; x0++ {
				hasV, hasEmpty := false, false
				for i := 0; i < 3; i++ {
					switch s.at(x0+i, y) {
					case v:
						hasV = true
					case cellEmpty:
						hasEmpty = true
					}
				}
				if hasV {
					continue
				}
				if !hasEmpty {
					s.inconsistent = true
					return progress
				}
				for x := 0; x < s.w; x++ {
					if (x < x0 || x > x0+2) && s.at(x, y) == cellEmpty {
						progress = s.set(x, y, v.opposite()) || progress
					}
				}
			}
		}
	}

	for x := 0; x < s.w; x++ {
		for v := cellZero; v <= cellOne; v++ {
			if s.colN[v][x] != s.h/2-1 {
				continue
			}
			for y0 := 0; y0+2 < s.h; y0++ {
				hasV, hasEmpty := false, false
				for i := 0; i < 3; i++ {
					switch s.at(x, y0+i) {
					case v:
						hasV = true
					case cellEmpty:
						hasEmpty = true
					}
				}
				if hasV {
					continue
				}
				if !hasEmpty {
					s.inconsistent = true
					return progress
				}
				for y := 0; y < s.h; y++ {
					if (y < y0 || y > y0+2) && s.at(x, y) == cellEmpty {
						progress = s.set(x, y, v.opposite()) || progress
					}
				}
			}
		}
	}
	return progress
}

// rule is one deduction pass with the tier it belongs to.
type rule struct {
	diff  puzzle.Difficulty
	apply func(*solver) bool
}

var rules = []rule{
	{puzzle.Trivial, (*solver).checkThrees},
	{puzzle.Easy, (*solver).checkCompleteNums},
	{puzzle.Easy, (*solver).checkUniques},
	{puzzle.Normal, (*solver).checkNearComplete},
}

// run iterates the rule list to a fixed point, restarting from the
// cheapest rule after any progress. Returns the highest tier that
// contributed a deduction.
func (s *solver) run(maxDiff puzzle.Difficulty) puzzle.Difficulty {
	used := puzzle.Trivial
	for !s.inconsistent {
		progressed := false
		for _, r := range rules {
			if r.diff > maxDiff {
				continue
			}
			if r.apply(s) {
				if r.diff > used {
					used = r.diff
				}
				progressed = true
				break
			}
			if s.inconsistent {
				return used
			}
		}
		if !progressed {
			break
		}
	}
	return used
}

func (s *solver) full() bool {
	for _, c := range s.grid {
		if c == cellEmpty {
			return false
		}
	}
	return true
}

// Solve runs constraint propagation up to maxDiff on a copy of the
// state's grid and classifies the outcome. The input state is not
// modified.
func Solve(st *GameState, maxDiff puzzle.Difficulty, logf puzzle.Logf) puzzle.Status {
	status, _ := solveGrid(st, maxDiff, logf)
	return status
}

// solveGrid is Solve plus the solved grid, for internal callers that
// need the filled-in solution.
func solveGrid(st *GameState, maxDiff puzzle.Difficulty, logf puzzle.Logf) (puzzle.Status, []cell) {
	s := newSolver(st, logf)
	s.run(maxDiff)
	switch {
	case s.inconsistent:
		return puzzle.Inconsistent, nil
	case s.full():
		return puzzle.Solved, s.grid
	default:
		return puzzle.Incomplete, nil
	}
}

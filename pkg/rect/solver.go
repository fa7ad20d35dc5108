package rect

import (
	"fmt"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

type point struct {
	x, y int
}

type rectangle struct {
	x, y, w, h int
}

func (r rectangle) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// numberData describes one clue: its area and the candidate cells it
// might occupy. When solving a real game each clue has exactly one
// point; the generator instead passes every cell of the intended
// rectangle and lets the solver winnow the list until the puzzle is
// forced.
type numberData struct {
	area   int
	points []point
}

// solverState tracks, for each clue, the surviving rectangle
// placements, plus two derived views: overlaps counts how many of
// clue i's placements cover each cell (with -1 marking a cell known
// to belong to another clue and -2 known to belong to clue i), and
// rectByPlace maps each cell to the clue that might sit there.
type solverState struct {
	w, h        int
	numbers     []numberData
	placements  [][]rectangle
	overlaps    []int // indexed (clue*h + y)*w + x
	rectByPlace []int
}

func newSolverState(w, h int, numbers []numberData) *solverState {
	s := &solverState{
		w:           w,
		h:           h,
		numbers:     numbers,
		placements:  make([][]rectangle, len(numbers)),
		overlaps:    make([]int, len(numbers)*w*h),
		rectByPlace: make([]int, w*h),
	}

	for i, nd := range numbers {
		minx, miny, maxx, maxy := w, h, -1, -1
		for _, pt := range nd.points {
			if pt.x < minx {
				minx = pt.x
			}
			if pt.y < miny {
				miny = pt.y
			}
			if pt.x > maxx {
				maxx = pt.x
			}
			if pt.y > maxy {
				maxy = pt.y
			}
		}

		// Enumerate every placement of a rectangle of the clue's
		// area that covers at least one candidate clue cell.
		for rw := 1; rw <= nd.area && rw <= w; rw++ {
			if nd.area%rw != 0 {
				continue
			}
			rh := nd.area / rw
			if rh > h {
				continue
			}
			for y := miny - rh + 1; y <= maxy; y++ {
				if y < 0 || y+rh > h {
					continue
				}
				for x := minx - rw + 1; x <= maxx; x++ {
					if x < 0 || x+rw > w {
						continue
					}
					r := rectangle{x: x, y: y, w: rw, h: rh}
					for _, pt := range nd.points {
						if r.contains(pt.x, pt.y) {
							s.placements[i] = append(s.placements[i], r)
							break
						}
					}
				}
			}
		}

		for _, r := range s.placements[i] {
			for yy := r.y; yy < r.y+r.h; yy++ {
				for xx := r.x; xx < r.x+r.w; xx++ {
					s.overlaps[(i*h+yy)*w+xx]++
				}
			}
		}
	}

	for i := range s.rectByPlace {
		s.rectByPlace[i] = -1
	}
	for i, nd := range numbers {
		for _, pt := range nd.points {
			s.rectByPlace[pt.y*w+pt.x] = i
		}
	}

	return s
}

// removePlacement discards placement j of clue i, keeping the overlap
// counts consistent.
func (s *solverState) removePlacement(i, j int) {
	r := s.placements[i][j]
	for yy := r.y; yy < r.y+r.h; yy++ {
		for xx := r.x; xx < r.x+r.w; xx++ {
			if s.overlaps[(i*s.h+yy)*s.w+xx] > 0 {
				s.overlaps[(i*s.h+yy)*s.w+xx]--
			}
		}
	}
	last := len(s.placements[i]) - 1
	s.placements[i][j] = s.placements[i][last]
	s.placements[i] = s.placements[i][:last]
}

// removePoint discards candidate clue cell m of clue k.
func (s *solverState) removePoint(k, m int) {
	pt := s.numbers[k].points[m]
	s.rectByPlace[pt.y*s.w+pt.x] = -1
	pts := s.numbers[k].points
	last := len(pts) - 1
	pts[m] = pts[last]
	s.numbers[k].points = pts[:last]
}

// markKnown records that cell (x,y) definitely belongs to clue
// owner's rectangle. It reports false on contradiction: the cell was
// already claimed by another clue, or no surviving placement of the
// owner covers it.
func (s *solverState) markKnown(x, y, owner int) bool {
	v := s.overlaps[(owner*s.h+y)*s.w+x]
	if v == -2 {
		return true // already marked
	}
	if v <= 0 {
		return false
	}
	for j := range s.placements {
		s.overlaps[(j*s.h+y)*s.w+x] = -1
	}
	s.overlaps[(owner*s.h+y)*s.w+x] = -2
	return true
}

// run performs the deduction loop. With a non-nil rng it additionally
// winnows candidate clue cells whenever pure deduction stalls, which
// is how the generator forces its layouts to be uniquely solvable.
// It returns Solved when every clue has exactly one placement left,
// Inconsistent on contradiction, and Ambiguous otherwise.
func (s *solverState) run(rng *puzzle.Random) puzzle.Status {
	workspace := make([]int, len(s.numbers))

	for {
		didSomething := false

		// A clue whose position is pinned down to a single cell
		// claims that cell outright.
		for i := range s.numbers {
			if len(s.numbers[i].points) == 1 {
				pt := s.numbers[i].points[0]
				if !s.markKnown(pt.x, pt.y, i) {
					return puzzle.Inconsistent
				}
			}
		}

		// Cells covered by every surviving placement of a clue are
		// certainly part of that clue's rectangle.
		for i := range s.placements {
			if len(s.placements[i]) == 0 {
				return puzzle.Inconsistent
			}
			minx, miny, maxx, maxy := 0, 0, s.w, s.h
			for _, r := range s.placements[i] {
				if minx < r.x {
					minx = r.x
				}
				if miny < r.y {
					miny = r.y
				}
				if maxx > r.x+r.w {
					maxx = r.x + r.w
				}
				if maxy > r.y+r.h {
					maxy = r.y + r.h
				}
			}
			for yy := miny; yy < maxy; yy++ {
				for xx := minx; xx < maxx; xx++ {
					if !s.markKnown(xx, yy, i) {
						return puzzle.Inconsistent
					}
				}
			}
		}

		// Placement-focused elimination: a placement dies if it
		// covers a cell known to belong to another clue, if it
		// swallows every candidate cell of another clue, or if it no
		// longer covers any candidate cell of its own clue.
		for i := range s.placements {
			for j := 0; j < len(s.placements[i]); j++ {
				r := s.placements[i][j]
				del := false

				for k := range workspace {
					workspace[k] = 0
				}
				for yy := r.y; yy < r.y+r.h; yy++ {
					for xx := r.x; xx < r.x+r.w; xx++ {
						if s.overlaps[(i*s.h+yy)*s.w+xx] == -1 {
							del = true
						}
						if k := s.rectByPlace[yy*s.w+xx]; k != -1 {
							workspace[k]++
						}
					}
				}

				if !del {
					for k := range s.numbers {
						if k != i && workspace[k] == len(s.numbers[k].points) {
							del = true
							break
						}
					}
					if !del && workspace[i] == 0 {
						del = true
					}
				}

				if del {
					s.removePlacement(i, j)
					j--
					didSomething = true
				}
			}
		}

		// Square-focused elimination: a cell coverable by only one
		// clue restricts that clue to placements covering it.
		for y := 0; y < s.h; y++ {
			for x := 0; x < s.w; x++ {
				// Known cells are negative in every layer.
				if s.overlaps[y*s.w+x] < 0 {
					continue
				}
				n, owner := 0, -1
				for i := range s.placements {
					if s.overlaps[(i*s.h+y)*s.w+x] > 0 {
						n++
						owner = i
					}
				}
				if n != 1 {
					continue
				}
				for j := 0; j < len(s.placements[owner]); j++ {
					if s.placements[owner][j].contains(x, y) {
						continue
					}
					s.removePlacement(owner, j)
					j--
					didSomething = true
				}
			}
		}

		if didSomething {
			continue
		}

		// Deduction has stalled. When generating, narrow the clue
		// positions: find placements overlapping another clue's
		// candidate cells, pick one at random, and discard every
		// candidate cell of that clue falling outside it. The next
		// placement-focused pass then eliminates the placement.
		if rng != nil {
			type winnow struct {
				rect, placement, number int
			}
			var choices []winnow
			for i := range s.placements {
				for j, r := range s.placements[i] {
					for yy := r.y; yy < r.y+r.h; yy++ {
						for xx := r.x; xx < r.x+r.w; xx++ {
							if k := s.rectByPlace[yy*s.w+xx]; k >= 0 && k != i {
								choices = append(choices, winnow{i, j, k})
							}
						}
					}
				}
			}
			if len(choices) > 0 {
				c := choices[rng.UpTo(len(choices))]
				r := s.placements[c.rect][c.placement]
				for m := 0; m < len(s.numbers[c.number].points); m++ {
					pt := s.numbers[c.number].points[m]
					if !r.contains(pt.x, pt.y) {
						s.removePoint(c.number, m)
						m--
						didSomething = true
					}
				}
			}
		}

		if !didSomething {
			break
		}
	}

	for i := range s.placements {
		switch len(s.placements[i]) {
		case 0:
			return puzzle.Inconsistent
		case 1:
		default:
			return puzzle.Ambiguous
		}
	}
	return puzzle.Solved
}

// writeEdges draws the perimeter of every uniquely placed rectangle
// into the given state.
func (s *solverState) writeEdges(st *GameState) {
	for i := range s.placements {
		if len(s.placements[i]) != 1 {
			continue
		}
		r := s.placements[i][0]
		for y := r.y; y < r.y+r.h; y++ {
			if r.x > 0 {
				st.vedge[y*st.w+r.x] = 1
			}
			if r.x+r.w < st.w {
				st.vedge[y*st.w+r.x+r.w] = 1
			}
		}
		for x := r.x; x < r.x+r.w; x++ {
			if r.y > 0 {
				st.hedge[r.y*st.w+x] = 1
			}
			if r.y+r.h < st.h {
				st.hedge[(r.y+r.h)*st.w+x] = 1
			}
		}
	}
}

func clueNumbers(st *GameState) []numberData {
	var numbers []numberData
	for i, n := range st.grid {
		if n != 0 {
			numbers = append(numbers, numberData{
				area:   n,
				points: []point{{x: i % st.w, y: i / st.w}},
			})
		}
	}
	return numbers
}

// Solve runs the deduction engine against the clue set and reports
// whether the dissection is forced, ambiguous, or impossible. It
// never guesses.
func Solve(st *GameState) puzzle.Status {
	total := 0
	for _, n := range st.grid {
		total += n
	}
	if total != st.w*st.h {
		return puzzle.Inconsistent
	}
	return newSolverState(st.w, st.h, clueNumbers(st)).run(nil)
}

// SolveGame returns a move string producing a solved position. A
// valid aux string (recorded at generation time) is returned
// directly; otherwise the deduction engine must fully determine the
// dissection.
func SolveGame(st *GameState, aux string) (string, error) {
	area := st.w * st.h
	if len(aux) == 1+2*area && aux[0] == 'S' {
		return aux, nil
	}
	total := 0
	for _, n := range st.grid {
		total += n
	}
	s := newSolverState(st.w, st.h, clueNumbers(st))
	if total != st.w*st.h || s.run(nil) != puzzle.Solved {
		return "", fmt.Errorf("%w: puzzle is not solvable by deduction", puzzle.ErrMove)
	}
	tmp := &GameState{
		w:     st.w,
		h:     st.h,
		hedge: make([]uint8, area),
		vedge: make([]uint8, area),
	}
	s.writeEdges(tmp)
	return solveMoveString(st.w, st.h, tmp.hedge, tmp.vedge), nil
}

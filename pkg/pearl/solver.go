package pearl

import (
	"fmt"

	"github.com/gitrdm/gridlogic/pkg/dsf"
	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// The solver workspace is a (2w+1) x (2h+1) lattice. Odd-odd entries
// hold the candidate-shape set of a cell; odd-even and even-odd
// entries hold edge knowledge between cells: connected, disconnected
// or unknown. Border edges start disconnected, everything else
// unknown.
const (
	edgeYes     uint16 = 1
	edgeNo      uint16 = 2
	edgeUnknown uint16 = 3
)

type solver struct {
	w, h  int
	sW    int // workspace width, 2w+1
	clues []Clue
	ws    []uint16
}

func newSolver(w, h int, clues []Clue) *solver {
	s := &solver{w: w, h: h, sW: 2*w + 1, clues: clues}
	s.ws = make([]uint16, s.sW*(2*h+1))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch clues[y*w+x] {
			case Corner:
				s.ws[s.sq(x, y)] = maskCorners
			case Straight:
				s.ws[s.sq(x, y)] = maskStraights
			default:
				s.ws[s.sq(x, y)] = maskCorners | maskStraights | maskBlank
			}
		}
	}
	for y := 0; y <= h; y++ {
		for x := 0; x < w; x++ {
			v := edgeUnknown
			if y == 0 || y == h {
				v = edgeNo
			}
			s.ws[(2*y)*s.sW+2*x+1] = v
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x <= w; x++ {
			v := edgeUnknown
			if x == 0 || x == w {
				v = edgeNo
			}
			s.ws[(2*y+1)*s.sW+2*x] = v
		}
	}
	return s
}

// sq is the workspace index of cell (x,y)'s shape set.
func (s *solver) sq(x, y int) int { return (2*y+1)*s.sW + 2*x + 1 }

// sqAt reads a shape set by workspace coordinates, treating off-grid
// cells as having no possible shape.
func (s *solver) sqAt(wx, wy int) uint16 {
	if wx < 1 || wx >= s.sW-1 || wy < 1 || wy >= 2*s.h {
		return 0
	}
	return s.ws[wy*s.sW+wx]
}

// pruneStatesByEdges discards cell shapes contradicted by a known
// edge. It reports false when some cell has no shape left.
func (s *solver) pruneStatesByEdges(progress *bool) bool {
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			i := s.sq(x, y)
			for b := 0; b <= maxShape; b++ {
				if s.ws[i]&(1<<b) == 0 {
					continue
				}
				for d := dirR; d <= dirD; d <<= 1 {
					e := (2*y+1+dy(d))*s.sW + 2*x + 1 + dx(d)
					want := edgeYes
					if uint8(b)&d != 0 {
						want = edgeNo
					}
					if s.ws[e] == want {
						s.ws[i] &^= 1 << b
						*progress = true
						break
					}
				}
			}
			if s.ws[i] == 0 {
				return false
			}
		}
	}
	return true
}

// forceEdgesByStates nails down any edge that every remaining shape
// of an adjacent cell agrees on. It reports false on contradiction.
func (s *solver) forceEdgesByStates(progress *bool) bool {
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			var edgeOr, edgeAnd uint8 = 0, 15
			for b := 0; b <= maxShape; b++ {
				if s.ws[s.sq(x, y)]&(1<<b) != 0 {
					edgeOr |= uint8(b)
					edgeAnd &= uint8(b)
				}
			}
			if edgeAnd&^edgeOr != 0 {
				return false
			}
			for d := dirR; d <= dirD; d <<= 1 {
				e := (2*y+1+dy(d))*s.sW + 2*x + 1 + dx(d)
				if s.ws[e] != edgeUnknown {
					continue
				}
				if edgeOr&d == 0 {
					s.ws[e] = edgeNo
					*progress = true
				} else if edgeAnd&d != 0 {
					s.ws[e] = edgeYes
					*progress = true
				}
			}
		}
	}
	return true
}

// clueDeductions applies the longer-range clue rules: a corner clue
// connects only to straights, and a straight clue must touch at least
// one corner.
func (s *solver) clueDeductions(progress *bool) {
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			switch s.clues[y*s.w+x] {
			case Corner:
				for d := dirR; d <= dirD; d <<= 1 {
					ex, ey := 2*x+1+dx(d), 2*y+1+dy(d)
					typ := d | flip(d)
					switch s.ws[ey*s.sW+ex] {
					case edgeYes:
						// Connected on this side: the next cell is a
						// straight running the same way.
						f := (ey+dy(d))*s.sW + ex + dx(d)
						if s.ws[f] != 1<<typ {
							s.ws[f] = 1 << typ
							*progress = true
						}
					case edgeUnknown:
						// The next cell cannot be that straight, so
						// the loop cannot come this way.
						if s.sqAt(ex+dx(d), ey+dy(d))&(1<<typ) == 0 {
							s.ws[ey*s.sW+ex] = edgeNo
							*progress = true
						}
					}
				}
			case Straight:
				// A straight clue whose two neighbours along an axis
				// can neither corner onto it cannot run on that axis.
				for _, d := range [2]uint8{dirR, dirU} {
					typ := d | flip(d)
					if s.ws[s.sq(x, y)]&(1<<typ) == 0 {
						continue
					}
					fCorners := uint16(1<<(flip(d)|acw(d)) | 1<<(flip(d)|cw(d)))
					gCorners := uint16(1<<(d|acw(d)) | 1<<(d|cw(d)))
					if s.sqAt(2*x+1+2*dx(d), 2*y+1+2*dy(d))&fCorners == 0 &&
						s.sqAt(2*x+1-2*dx(d), 2*y+1-2*dy(d))&gCorners == 0 {
						s.ws[s.sq(x, y)] &^= 1 << typ
						*progress = true
					}
				}
				// A determined straight connected to a straight on
				// one side must corner on the other.
				for d := dirR; d <= dirD; d <<= 1 {
					typ := d | flip(d)
					if s.ws[s.sq(x, y)] != 1<<typ {
						continue
					}
					fx, fy := x+dx(d), y+dy(d)
					gx, gy := x-dx(d), y-dy(d)
					if !s.inGrid(fx, fy) || !s.inGrid(gx, gy) {
						continue
					}
					if s.ws[s.sq(fx, fy)]&^maskStraights == 0 &&
						s.ws[s.sq(gx, gy)]&^maskCorners != 0 {
						s.ws[s.sq(gx, gy)] &= maskCorners
						*progress = true
					}
				}
			}
		}
	}
}

func (s *solver) inGrid(x, y int) bool {
	return x >= 0 && x < s.w && y >= 0 && y < s.h
}

// loopAnalysis maintains a DSF of cells connected by known edges. A
// closed loop either settles the puzzle (everything else is blanked)
// or reveals a contradiction. At Tricky, any edge or cell shape that
// would close a loop excluding known-non-blank cells is ruled out.
func (s *solver) loopAnalysis(diff puzzle.Difficulty, progress *bool) (puzzle.Status, bool) {
	w, h := s.w, s.h
	W, H := s.sW, 2*h+1
	cells := dsf.New(w * h)

	nonblanks := 0
	loopClass := -1
	for y := 1; y < H-1; y++ {
		for x := 1; x < W-1; x++ {
			switch {
			case (y^x)&1 == 1:
				if s.ws[y*W+x] != edgeYes {
					continue
				}
				ac := ((y-1)/2)*w + (x-1)/2
				bc := (y/2)*w + x/2
				if cells.Canonify(ac) == cells.Canonify(bc) {
					if loopClass != -1 {
						// Two separate loops.
						return puzzle.Inconsistent, true
					}
					loopClass = cells.Canonify(ac)
				} else {
					cells.Merge(ac, bc)
				}
			case y&x&1 == 1:
				if s.ws[y*W+x]&maskBlank == 0 {
					nonblanks++
				}
			}
		}
	}

	if loopClass != -1 {
		// A loop exists; every cell outside it must be blank.
		for c := 0; c < w*h; c++ {
			if cells.Canonify(c) == cells.Canonify(loopClass) {
				continue
			}
			i := s.sq(c%w, c/w)
			if s.ws[i]&maskBlank == 0 {
				return puzzle.Inconsistent, true
			}
			s.ws[i] = maskBlank
		}
		return puzzle.Solved, true
	}

	// Shortcut-loop prevention is a Tricky-tier rule.
	if diff < puzzle.Tricky {
		return 0, false
	}

	for y := 1; y < H-1; y++ {
		for x := 1; x < W-1; x++ {
			switch {
			case (y^x)&1 == 1:
				if s.ws[y*W+x] != edgeUnknown {
					continue
				}
				ac := ((y-1)/2)*w + (x-1)/2
				bc := (y/2)*w + x/2
				ae := cells.Canonify(ac)
				if ae == cells.Canonify(bc) && cells.Size(ae) < nonblanks {
					s.ws[y*W+x] = edgeNo
					*progress = true
				}
			case y&x&1 == 1:
				cx, cy := x/2, y/2
				ae := cells.Canonify(cy*w + cx)
				for b := 2; b <= maxShape; b++ {
					if s.ws[y*W+x]&(1<<b) == 0 {
						continue
					}
					// Which class would this shape tie together?
					e := -1
					for d := dirR; d <= dirD; d <<= 1 {
						if uint8(b)&d == 0 {
							continue
						}
						ee := cells.Canonify((cy+dy(d))*w + cx + dx(d))
						if e == -1 {
							e = ee
						} else if e != ee {
							e = -2
						}
					}
					if e < 0 {
						continue
					}
					loopSize := cells.Size(e)
					if e != ae {
						loopSize++
					}
					if loopSize < nonblanks {
						s.ws[y*W+x] &^= 1 << b
						*progress = true
					}
				}
			}
		}
	}
	return 0, false
}

func (s *solver) run(diff puzzle.Difficulty) puzzle.Status {
	for {
		progress := false
		if !s.pruneStatesByEdges(&progress) {
			return puzzle.Inconsistent
		}
		if !s.forceEdgesByStates(&progress) {
			return puzzle.Inconsistent
		}
		if progress {
			continue
		}
		s.clueDeductions(&progress)
		if progress {
			continue
		}
		if status, decided := s.loopAnalysis(diff, &progress); decided {
			return status
		}
		if progress {
			continue
		}
		// Nothing left to deduce: more than one completion remains
		// open as far as this tier can tell.
		return puzzle.Ambiguous
	}
}

// transcribe writes every fully determined cell shape into lines,
// leaving other cells as they were, then strips any segment whose
// neighbour does not reciprocate.
func (s *solver) transcribe(lines []uint8) {
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			for b := 0; b <= maxShape; b++ {
				if s.ws[s.sq(x, y)] == 1<<b {
					lines[y*s.w+x] = uint8(b)
					break
				}
			}
		}
	}
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			for d := dirR; d <= dirD; d <<= 1 {
				nx, ny := x+dx(d), y+dy(d)
				reciprocal := false
				if s.inGrid(nx, ny) {
					reciprocal = lines[ny*s.w+nx]&flip(d) != 0
				}
				if !reciprocal {
					lines[y*s.w+x] &^= d
				}
			}
		}
	}
}

// solveGrid runs the deduction solver from the clues alone. When it
// returns Solved, or when partial is set, the determined cells are
// written into lines (a partial solve leaves undetermined cells
// untouched, then removes unpaired segments).
func solveGrid(w, h int, clues []Clue, diff puzzle.Difficulty, partial bool, lines []uint8) puzzle.Status {
	s := newSolver(w, h, clues)
	status := s.run(diff)
	if status == puzzle.Solved || partial {
		s.transcribe(lines)
	}
	return status
}

// Solve reports how far deduction alone gets at the given tier.
func Solve(st *GameState, diff puzzle.Difficulty) puzzle.Status {
	return solveGrid(st.w, st.h, st.clues, diff, false, make([]uint8, st.w*st.h))
}

// SolveGame returns a solve move for the state. A non-empty aux
// string (the generator's recorded solution) short-circuits the
// solver.
func SolveGame(st *GameState, aux string) (string, error) {
	solved := make([]uint8, st.w*st.h)
	if aux != "" {
		if len(aux) != len(solved) {
			return "", fmt.Errorf("%w: solution record has wrong length", puzzle.ErrMove)
		}
		for i := 0; i < len(aux); i++ {
			switch c := aux[i]; {
			case c >= '0' && c <= '9':
				solved[i] = c - '0'
			case c >= 'A' && c <= 'F':
				solved[i] = c - 'A' + 10
			default:
				return "", fmt.Errorf("%w: bad character in solution record", puzzle.ErrMove)
			}
		}
	} else {
		status := solveGrid(st.w, st.h, st.clues, puzzle.Tricky, false, solved)
		if status != puzzle.Solved {
			return "", fmt.Errorf("%w: no solution found (%v)", puzzle.ErrMove, status)
		}
	}
	return solveMoveString(st.w, st.lines, solved), nil
}

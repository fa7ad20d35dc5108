package tracks

import (
	"github.com/gitrdm/gridlogic/pkg/dsf"
	"github.com/gitrdm/gridlogic/pkg/findloop"
	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// solver is the deduction engine's scratch state: a private copy of
// the board plus the shared targets.
type solver struct {
	board
	rowT, colT        []int
	entryRow, exitCol int
	logf              puzzle.Logf
	inconsistent      bool
	progress          bool
}

func newSolver(st *GameState, logf puzzle.Logf) *solver {
	return &solver{
		board:    board{w: st.w, h: st.h, sflags: append([]uint16(nil), st.sflags...)},
		rowT:     st.rowT,
		colT:     st.colT,
		entryRow: st.entryRow,
		exitCol:  st.exitCol,
		logf:     logf,
	}
}

// setEdgeTo records a deduced edge state, detecting contradictions
// with earlier deductions.
func (s *solver) setEdgeTo(x, y int, d dir, v int) {
	cur := s.edgeState(x, y, d)
	if cur == v {
		return
	}
	if cur != 0 {
		s.inconsistent = true
		return
	}
	s.setEdge(x, y, d, v)
	s.progress = true
	if s.logf != nil {
		s.logf("edge %s of (%d,%d) -> %+d", d, x, y, v)
	}
}

// markCell records a deduced square state.
func (s *solver) markCell(x, y int, track bool) {
	i := s.idx(x, y)
	want, clash := fTrack, fNoTrack
	if !track {
		want, clash = fNoTrack, fTrack
	}
	if s.sflags[i]&clash != 0 {
		s.inconsistent = true
		return
	}
	if s.sflags[i]&want != 0 {
		return
	}
	s.sflags[i] |= want
	s.progress = true
	if s.logf != nil {
		s.logf("square (%d,%d) -> track=%v", x, y, track)
	}
}

func (s *solver) rowCount(y int) (track, no int) {
	for x := 0; x < s.w; x++ {
		switch {
		case s.at(x, y)&fTrack != 0:
			track++
		case s.at(x, y)&fNoTrack != 0:
			no++
		}
	}
	return track, no
}

func (s *solver) colCount(x int) (track, no int) {
	for y := 0; y < s.h; y++ {
		switch {
		case s.at(x, y)&fTrack != 0:
			track++
		case s.at(x, y)&fNoTrack != 0:
			no++
		}
	}
	return track, no
}

// updateFlags propagates between a square's state and its edges: a
// track edge implies a track square, a no-track square forbids all
// four edges, a track square with only two possible edges uses both,
// and a square with fewer than two possible edges cannot carry track.
func (s *solver) updateFlags() {
	for y := 0; y < s.h && !s.inconsistent; y++ {
		for x := 0; x < s.w && !s.inconsistent; x++ {
			f := s.at(x, y)
			tr, no := s.edgeCounts(x, y)
			if tr > 2 {
				s.inconsistent = true
				return
			}
			if tr > 0 {
				s.markCell(x, y, true)
			}
			if f&fNoTrack != 0 {
				for _, d := range allDirs {
					s.setEdgeTo(x, y, d, -1)
				}
				continue
			}
			possible := 4 - no
			if f&fTrack != 0 {
				if possible < 2 {
					s.inconsistent = true
					return
				}
				switch {
				case tr == 2:
					for _, d := range allDirs {
						if s.edgeState(x, y, d) == 0 {
							s.setEdgeTo(x, y, d, -1)
						}
					}
				case possible == 2:
					for _, d := range allDirs {
						if s.edgeState(x, y, d) != -1 {
							s.setEdgeTo(x, y, d, 1)
						}
					}
				}
			} else if possible < 2 {
				s.markCell(x, y, false)
			}
		}
	}
}

// countClues applies row and column targets in both directions: a
// saturated line forbids its remaining squares, and a line whose
// undecided squares are all needed forces them.
func (s *solver) countClues() {
	for y := 0; y < s.h && !s.inconsistent; y++ {
		track, no := s.rowCount(y)
		switch {
		case track > s.rowT[y] || s.w-no < s.rowT[y]:
			s.inconsistent = true
		case track == s.rowT[y]:
			for x := 0; x < s.w; x++ {
				if s.at(x, y)&(fTrack|fNoTrack) == 0 {
					s.markCell(x, y, false)
				}
			}
		case s.w-no == s.rowT[y]:
			for x := 0; x < s.w; x++ {
				if s.at(x, y)&(fTrack|fNoTrack) == 0 {
					s.markCell(x, y, true)
				}
			}
		}
	}
	for x := 0; x < s.w && !s.inconsistent; x++ {
		track, no := s.colCount(x)
		switch {
		case track > s.colT[x] || s.h-no < s.colT[x]:
			s.inconsistent = true
		case track == s.colT[x]:
			for y := 0; y < s.h; y++ {
				if s.at(x, y)&(fTrack|fNoTrack) == 0 {
					s.markCell(x, y, false)
				}
			}
		case s.h-no == s.colT[x]:
			for y := 0; y < s.h; y++ {
				if s.at(x, y)&(fTrack|fNoTrack) == 0 {
					s.markCell(x, y, true)
				}
			}
		}
	}
}

// checkLoop forbids undecided edges that would close a cycle among
// squares already joined by track, since the solution is a single
// open path.
func (s *solver) checkLoop() {
	cells := dsf.New(s.w * s.h)
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			for _, d := range [2]dir{dirR, dirD} {
				dx, dy := d.delta()
				if !s.inGrid(x+dx, y+dy) || s.edgeState(x, y, d) != 1 {
					continue
				}
				a, b := s.idx(x, y), s.idx(x+dx, y+dy)
				if cells.Equivalent(a, b) {
					s.inconsistent = true
					return
				}
				cells.Merge(a, b)
			}
		}
	}
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			for _, d := range [2]dir{dirR, dirD} {
				dx, dy := d.delta()
				if !s.inGrid(x+dx, y+dy) || s.edgeState(x, y, d) != 0 {
					continue
				}
				if cells.Equivalent(s.idx(x, y), s.idx(x+dx, y+dy)) {
					s.setEdgeTo(x, y, d, -1)
				}
			}
		}
	}
}

// checkSingle handles a square pinned to a straight pass-through: if
// its top and bottom edges are forbidden, laying track there drags
// both horizontal neighbours along, and when that overshoots what the
// row still needs the square must stay empty. Columns symmetrically.
func (s *solver) checkSingle() {
	for y := 0; y < s.h; y++ {
		track, _ := s.rowCount(y)
		remaining := s.rowT[y] - track
		if remaining < 1 {
			continue
		}
		for x := 0; x < s.w; x++ {
			if s.at(x, y)&(fTrack|fNoTrack) != 0 {
				continue
			}
			if s.edgeState(x, y, dirU) != -1 || s.edgeState(x, y, dirD) != -1 {
				continue
			}
			adds := 1
			for _, d := range [2]dir{dirL, dirR} {
				dx, _ := d.delta()
				if s.inGrid(x+dx, y) && s.at(x+dx, y)&fTrack == 0 {
					adds++
				}
			}
			if adds > remaining {
				s.markCell(x, y, false)
			}
		}
	}
	for x := 0; x < s.w; x++ {
		track, _ := s.colCount(x)
		remaining := s.colT[x] - track
		if remaining < 1 {
			continue
		}
		for y := 0; y < s.h; y++ {
			if s.at(x, y)&(fTrack|fNoTrack) != 0 {
				continue
			}
			if s.edgeState(x, y, dirL) != -1 || s.edgeState(x, y, dirR) != -1 {
				continue
			}
			adds := 1
			for _, d := range [2]dir{dirU, dirD} {
				_, dy := d.delta()
				if s.inGrid(x, y+dy) && s.at(x, y+dy)&fTrack == 0 {
					adds++
				}
			}
			if adds > remaining {
				s.markCell(x, y, false)
			}
		}
	}
}

// checkLooseEnds extends a track square with exactly one laid edge: a
// continuation into a forbidden square, or into a square whose row and
// column are already saturated, is impossible. One surviving candidate
// is forced; none is a contradiction.
func (s *solver) checkLooseEnds() {
	for y := 0; y < s.h && !s.inconsistent; y++ {
		for x := 0; x < s.w && !s.inconsistent; x++ {
			if s.at(x, y)&fTrack == 0 {
				continue
			}
			tr, _ := s.edgeCounts(x, y)
			if tr != 1 {
				continue
			}
			var cands []dir
			for _, d := range allDirs {
				if s.edgeState(x, y, d) != 0 {
					continue
				}
				dx, dy := d.delta()
				nx, ny := x+dx, y+dy
				if !s.inGrid(nx, ny) {
					continue
				}
				nf := s.at(nx, ny)
				if nf&fNoTrack != 0 {
					continue
				}
				if nf&fTrack == 0 {
					rt, _ := s.rowCount(ny)
					ct, _ := s.colCount(nx)
					if rt >= s.rowT[ny] || ct >= s.colT[nx] {
						continue
					}
				}
				cands = append(cands, d)
			}
			switch len(cands) {
			case 0:
				s.inconsistent = true
			case 1:
				s.setEdgeTo(x, y, cands[0], 1)
			}
		}
	}
}

// checkParity counts path crossings of each grid line. The path runs
// from outside the left border at the entry row to below the bottom
// border at the exit column, so it crosses the line between rows y and
// y+1 an odd number of times exactly when the entry row is at or above
// y, and the line between columns x and x+1 an odd number of times
// exactly when the exit column is right of x. A single undecided edge
// on a line is forced either way; none with wrong parity is a
// contradiction.
func (s *solver) checkParity() {
	for y := 0; y < s.h-1 && !s.inconsistent; y++ {
		want := 0
		if s.entryRow <= y {
			want = 1
		}
		tracks, undecided := 0, 0
		ux := -1
		for x := 0; x < s.w; x++ {
			switch s.edgeState(x, y, dirD) {
			case 1:
				tracks++
			case 0:
				undecided++
				ux = x
			}
		}
		switch undecided {
		case 0:
			if tracks%2 != want {
				s.inconsistent = true
			}
		case 1:
			if tracks%2 == want {
				s.setEdgeTo(ux, y, dirD, -1)
			} else {
				s.setEdgeTo(ux, y, dirD, 1)
			}
		}
	}
	for x := 0; x < s.w-1 && !s.inconsistent; x++ {
		want := 1
		if s.exitCol <= x {
			want = 0
		}
		tracks, undecided := 0, 0
		uy := -1
		for y := 0; y < s.h; y++ {
			switch s.edgeState(x, y, dirR) {
			case 1:
				tracks++
			case 0:
				undecided++
				uy = y
			}
		}
		switch undecided {
		case 0:
			if tracks%2 != want {
				s.inconsistent = true
			}
		case 1:
			if tracks%2 == want {
				s.setEdgeTo(x, uy, dirR, -1)
			} else {
				s.setEdgeTo(x, uy, dirR, 1)
			}
		}
	}
}

// checkBridges forces undecided cut edges. In the graph of squares not
// yet ruled out, joined by edges not yet forbidden, the finished path
// must connect the entry square to the exit square; an undecided
// bridge whose removal would separate them therefore carries track.
func (s *solver) checkBridges() {
	possible := func(x, y int) bool { return s.at(x, y)&fNoTrack == 0 }
	neighbour := func(v int) []int {
		x, y := v%s.w, v/s.w
		if !possible(x, y) {
			return nil
		}
		var out []int
		for _, d := range allDirs {
			dx, dy := d.delta()
			nx, ny := x+dx, y+dy
			if s.inGrid(nx, ny) && possible(nx, ny) && s.edgeState(x, y, d) != -1 {
				out = append(out, s.idx(nx, ny))
			}
		}
		return out
	}

	entry := s.idx(0, s.entryRow)
	exit := s.idx(s.exitCol, s.h-1)
	conn := dsf.New(s.w * s.h)
	for v := 0; v < s.w*s.h; v++ {
		for _, u := range neighbour(v) {
			conn.Merge(v, u)
		}
	}
	if !conn.Equivalent(entry, exit) {
		s.inconsistent = true
		return
	}

	fl := findloop.New(s.w * s.h)
	fl.Run(neighbour)
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			if !possible(x, y) {
				continue
			}
			for _, d := range [2]dir{dirR, dirD} {
				dx, dy := d.delta()
				nx, ny := x+dx, y+dy
				if !s.inGrid(nx, ny) || !possible(nx, ny) || s.edgeState(x, y, d) != 0 {
					continue
				}
				if fl.Separates(s.idx(x, y), s.idx(nx, ny), entry, exit) {
					s.setEdgeTo(x, y, d, 1)
				}
			}
		}
	}
}

type rule struct {
	diff  puzzle.Difficulty
	apply func(*solver)
}

var rules = []rule{
	{puzzle.Easy, (*solver).updateFlags},
	{puzzle.Easy, (*solver).countClues},
	{puzzle.Easy, (*solver).checkLoop},
	{puzzle.Tricky, (*solver).checkSingle},
	{puzzle.Tricky, (*solver).checkLooseEnds},
	{puzzle.Hard, (*solver).checkParity},
	{puzzle.Hard, (*solver).checkBridges},
}

// run applies every rule at or below maxDiff to a fixed point,
// restarting from the cheapest rule whenever one makes progress.
func (s *solver) run(maxDiff puzzle.Difficulty) {
	for !s.inconsistent {
		advanced := false
		for _, r := range rules {
			if r.diff > maxDiff {
				break
			}
			s.progress = false
			r.apply(s)
			if s.inconsistent {
				return
			}
			if s.progress {
				advanced = true
				break
			}
		}
		if !advanced {
			return
		}
	}
}

// solved reports whether the scratch grid is a finished, valid layout.
func (s *solver) solved() bool {
	for i, f := range s.sflags {
		if f&(fTrack|fNoTrack) == 0 {
			return false
		}
		if f&fTrack != 0 {
			x, y := i%s.w, i/s.w
			if tr, _ := s.edgeCounts(x, y); tr != 2 {
				return false
			}
		}
	}
	return pathComplete(&s.board, s.rowT, s.colT, s.entryRow, s.exitCol)
}

// shapes returns the per-square laid edge masks, zero for empty squares.
func (s *solver) shapes() []dir {
	out := make([]dir, s.w*s.h)
	for i, f := range s.sflags {
		if f&fTrack == 0 {
			continue
		}
		x, y := i%s.w, i/s.w
		var m dir
		for _, d := range allDirs {
			if s.edgeState(x, y, d) == 1 {
				m |= d
			}
		}
		out[i] = m
	}
	return out
}

// Solve runs the deduction engine on a state using rules up to
// maxDiff. The state itself is not modified. logf may be nil.
func Solve(st *GameState, maxDiff puzzle.Difficulty, logf puzzle.Logf) puzzle.Status {
	s := newSolver(st, logf)
	s.run(maxDiff)
	switch {
	case s.inconsistent:
		return puzzle.Inconsistent
	case s.solved():
		return puzzle.Solved
	}
	return puzzle.Incomplete
}

// solveGrid runs the engine and also returns the solved layout when
// it reaches one.
func solveGrid(st *GameState, maxDiff puzzle.Difficulty) (puzzle.Status, []dir) {
	s := newSolver(st, nil)
	s.run(maxDiff)
	switch {
	case s.inconsistent:
		return puzzle.Inconsistent, nil
	case s.solved():
		return puzzle.Solved, s.shapes()
	}
	return puzzle.Incomplete, nil
}

package pearl

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/gitrdm/gridlogic/pkg/dsf"
	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// errClue flags a cell whose clue is contradicted; the low four bits
// of an error word flag individual line segments.
const errClue uint8 = 1 << 4

// GameState is one position in a game's history. The clue array is
// shared between a state and its descendants.
type GameState struct {
	w, h      int
	clues     []Clue
	lines     []uint8
	marks     []uint8
	errs      []uint8
	completed bool
	cheated   bool
}

func (st *GameState) inGrid(x, y int) bool {
	return x >= 0 && x < st.w && y >= 0 && y < st.h
}

// ValidateDesc checks a descriptor without building a state.
func ValidateDesc(p Params, desc string) error {
	_, err := decodeDesc(p, desc)
	return err
}

func decodeDesc(p Params, desc string) ([]Clue, error) {
	sz := p.W * p.H
	clues := make([]Clue, sz)
	pos := 0
	for i := 0; i < len(desc); i++ {
		c := desc[i]
		if n := puzzle.EmptyRunLen(c); n > 0 {
			pos += n
			if pos > sz {
				return nil, fmt.Errorf("%w: clue data past end", puzzle.ErrDescriptor)
			}
			continue
		}
		if pos >= sz {
			return nil, fmt.Errorf("%w: clue data past end", puzzle.ErrDescriptor)
		}
		switch c {
		case 'B':
			clues[pos] = Corner
		case 'W':
			clues[pos] = Straight
		default:
			return nil, fmt.Errorf("%w: illegal character %q", puzzle.ErrDescriptor, c)
		}
		pos++
	}
	if pos != sz {
		return nil, fmt.Errorf("%w: clue data decodes to %d cells, want %d", puzzle.ErrDescriptor, pos, sz)
	}
	return clues, nil
}

func encodeDesc(clues []Clue) string {
	var out []byte
	run := 0
	for _, c := range clues {
		if c == NoClue {
			run++
			continue
		}
		out = puzzle.AppendEmptyRun(out, run)
		run = 0
		if c == Corner {
			out = append(out, 'B')
		} else {
			out = append(out, 'W')
		}
	}
	out = puzzle.AppendEmptyRun(out, run)
	return string(out)
}

// NewGame builds the initial state for a descriptor.
func NewGame(p Params, desc string) (*GameState, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	clues, err := decodeDesc(p, desc)
	if err != nil {
		return nil, err
	}
	sz := p.W * p.H
	return &GameState{
		w:     p.W,
		h:     p.H,
		clues: clues,
		lines: make([]uint8, sz),
		marks: make([]uint8, sz),
		errs:  make([]uint8, sz),
	}, nil
}

// DupGame clones a state; clues are shared.
func (st *GameState) DupGame() *GameState {
	return &GameState{
		w:         st.w,
		h:         st.h,
		clues:     st.clues,
		lines:     append([]uint8(nil), st.lines...),
		marks:     append([]uint8(nil), st.marks...),
		errs:      append([]uint8(nil), st.errs...),
		completed: st.completed,
		cheated:   st.cheated,
	}
}

// Completed reports whether this state has ever been a winning
// position; the flag is sticky.
func (st *GameState) Completed() bool { return st.completed }

// CellError reports whether the validator flagged anything in a cell.
func (st *GameState) CellError(x, y int) bool { return st.errs[y*st.w+x] != 0 }

// ExecuteMove applies a move string and returns the new state. A move
// is a semicolon-separated list of commands: "S" claims an
// authoritative solution; "L<d>,<x>,<y>" lays line segments,
// "N<d>,<x>,<y>" removes them, "R<d>,<x>,<y>" replaces the cell,
// "F<d>,<x>,<y>" toggles segments, "M<d>,<x>,<y>" toggles no-line
// marks; "H" fills in every line the solver can still deduce.
func (st *GameState) ExecuteMove(move string) (*GameState, error) {
	ret := st.DupGame()
	for len(move) > 0 {
		c := move[0]
		switch c {
		case 'S':
			ret.cheated = true
			move = move[1:]
		case 'L', 'N', 'R', 'F', 'M':
			l, x, y, n, ok := parseTriple(move[1:])
			if !ok {
				return nil, fmt.Errorf("%w: bad command %q", puzzle.ErrMove, move)
			}
			if !ret.inGrid(x, y) {
				return nil, fmt.Errorf("%w: cell (%d,%d) outside grid", puzzle.ErrMove, x, y)
			}
			if l < 0 || l > 15 {
				return nil, fmt.Errorf("%w: bad segment set %d", puzzle.ErrMove, l)
			}
			i := y*ret.w + x
			switch c {
			case 'L':
				ret.lines[i] |= uint8(l)
			case 'N':
				ret.lines[i] &^= uint8(l)
			case 'R':
				ret.lines[i] = uint8(l)
				ret.marks[i] &^= uint8(l)
			case 'F':
				ret.lines[i] ^= uint8(l)
			case 'M':
				ret.marks[i] ^= uint8(l)
			}
			if ret.lines[i]&ret.marks[i] != 0 {
				return nil, fmt.Errorf("%w: line laid over a mark at (%d,%d)", puzzle.ErrMove, x, y)
			}
			move = move[1+n:]
		case 'H':
			solveGrid(ret.w, ret.h, ret.clues, puzzle.Tricky, true, ret.lines)
			for i := range ret.marks {
				ret.marks[i] &^= ret.lines[i]
			}
			move = move[1:]
		default:
			return nil, fmt.Errorf("%w: unknown command %q", puzzle.ErrMove, move)
		}
		if len(move) > 0 {
			if move[0] != ';' {
				return nil, fmt.Errorf("%w: missing separator at %q", puzzle.ErrMove, move)
			}
			move = move[1:]
		}
	}
	if !ret.checkCompletion(true) {
		return nil, fmt.Errorf("%w: move leaves an unpaired line segment", puzzle.ErrMove)
	}
	return ret, nil
}

// parseTriple reads "<l>,<x>,<y>" off the front of s and reports how
// many bytes it consumed.
func parseTriple(s string) (l, x, y, n int, ok bool) {
	read := func() (int, bool) {
		start := n
		for n < len(s) && s[n] >= '0' && s[n] <= '9' {
			n++
		}
		if n == start {
			return 0, false
		}
		v := 0
		for _, c := range s[start:n] {
			v = v*10 + int(c-'0')
		}
		return v, true
	}
	comma := func() bool {
		if n < len(s) && s[n] == ',' {
			n++
			return true
		}
		return false
	}
	if l, ok = read(); !ok {
		return
	}
	if ok = comma(); !ok {
		return
	}
	if x, ok = read(); !ok {
		return
	}
	if ok = comma(); !ok {
		return
	}
	y, ok = read()
	return
}

func degree(l uint8) int {
	if l > 15 {
		return 4
	}
	return bits.OnesCount8(l)
}

// mergeLink folds the link from (x,y) in direction d into the cell
// DSF; it reports false when the link is unpaired or leaves the grid.
func (st *GameState) mergeLink(cells *dsf.DSF, x, y int, d uint8) bool {
	ac := y*st.w + x
	if st.lines[ac]&d == 0 {
		return true
	}
	bx, by := x+dx(d), y+dy(d)
	if !st.inGrid(bx, by) {
		return false
	}
	bc := by*st.w + bx
	if st.lines[bc]&flip(d) == 0 {
		return false
	}
	cells.Merge(ac, bc)
	return true
}

// checkCompletion classifies the line components, sets error flags
// when mark is true, and latches the completion flag on a win. It
// reports false for structurally invalid states, i.e. a segment with
// no reciprocal partner; moves building such a state are rejected.
func (st *GameState) checkCompletion(mark bool) bool {
	w, h := st.w, st.h
	if mark {
		for i := range st.errs {
			st.errs[i] = 0
		}
	}
	hadError := false
	flag := func(x, y int, e uint8) {
		hadError = true
		if mark {
			st.errs[y*w+x] |= e
		}
	}

	cells := dsf.New(w * h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !st.mergeLink(cells, x, y, dirR) || !st.mergeLink(cells, x, y, dirD) {
				return false
			}
		}
	}

	const (
		compLoop = iota
		compPath
		compSilly
		compEmpty
	)
	comp := make([]int, w*h)
	for i := range comp {
		comp[i] = compLoop
	}
	for i, l := range st.lines {
		c := cells.Canonify(i)
		switch deg := degree(l); {
		case deg > 2:
			flag(i%w, i/w, l)
			comp[c] = compSilly
		case deg == 0:
			comp[c] = compEmpty
		case deg == 1:
			if comp[c] != compSilly {
				comp[c] = compPath
			}
		}
	}

	nsilly, nloop, npath, pathSize := 0, 0, 0, 0
	largestComp, largestSize := -1, -1
	for i := range comp {
		if cells.Canonify(i) != i {
			continue
		}
		switch comp[i] {
		case compSilly:
			nsilly++
		case compPath:
			pathSize += cells.Size(i)
			npath = 1
		case compLoop:
			nloop++
			if sz := cells.Size(i); sz > largestSize {
				largestComp, largestSize = i, sz
			}
		}
	}
	if largestSize < pathSize {
		largestComp, largestSize = -1, pathSize
	}

	// With several sensible components and at least one loop, flag
	// everything outside the largest.
	if nloop > 0 && nloop+npath > 1 {
		for i := range st.lines {
			c := cells.Canonify(i)
			if (comp[c] == compPath && largestComp != -1) ||
				(comp[c] == compLoop && c != largestComp) {
				flag(i%w, i/w, st.lines[i])
			}
		}
	}

	// Clue contradictions.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l := st.lines[y*w+x]
			switch st.clues[y*w+x] {
			case Corner:
				if maskStraights&(1<<l) != 0 {
					flag(x, y, errClue)
				}
				for d := dirR; d <= dirD; d <<= 1 {
					if l&d == 0 {
						continue
					}
					xx, yy := x+dx(d), y+dy(d)
					if !st.inGrid(xx, yy) {
						flag(x, y, d)
					} else if maskCorners&(1<<st.lines[yy*w+xx]) != 0 {
						flag(x, y, errClue)
					}
				}
			case Straight:
				if maskCorners&(1<<l) != 0 {
					flag(x, y, errClue)
				}
				straights := 0
				for d := dirR; d <= dirD; d <<= 1 {
					if l&d == 0 {
						continue
					}
					xx, yy := x+dx(d), y+dy(d)
					if !st.inGrid(xx, yy) {
						flag(x, y, d)
					} else if maskStraights&(1<<st.lines[yy*w+xx]) != 0 {
						straights++
					}
				}
				if straights >= 2 && degree(l) >= 2 {
					flag(x, y, errClue)
				}
			}
		}
	}

	if nloop == 1 && nsilly == 0 && npath == 0 {
		// One loop and nothing else: the loop must visit every clue.
		for i, l := range st.lines {
			if l == blank && st.clues[i] != NoClue {
				flag(i%w, i/w, errClue)
			}
		}
		if !hadError {
			st.completed = true
		}
	}
	return true
}

// GameText renders the board as ASCII art: clue glyphs at cell
// centres, dashes and pipes for lines, x for no-line marks.
func (st *GameState) GameText() string {
	w, h := st.w, st.h
	const cw, ch = 4, 2
	gw, gh := cw*(w-1)+2, ch*(h-1)+1
	board := make([]byte, gw*gh)
	for i := range board {
		board[i] = ' '
	}

	glyph := map[Clue]byte{NoClue: '+', Corner: 'B', Straight: 'W'}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			cell := y*ch*gw + x*cw
			board[cell] = glyph[st.clues[i]]
			if x < w-1 && (st.lines[i]&dirR != 0 || st.lines[i+1]&dirL != 0) {
				for j := 1; j < cw; j++ {
					board[cell+j] = '-'
				}
			}
			if y < h-1 && (st.lines[i]&dirD != 0 || st.lines[i+w]&dirU != 0) {
				for j := 1; j < ch; j++ {
					board[cell+j*gw] = '|'
				}
			}
			if x < w-1 && (st.marks[i]&dirR != 0 || st.marks[i+1]&dirL != 0) {
				board[cell+cw/2] = 'x'
			}
			if y < h-1 && (st.marks[i]&dirD != 0 || st.marks[i+w]&dirU != 0) {
				board[cell+(ch/2)*gw] = 'x'
			}
		}
		rows := ch
		if y == h-1 {
			rows = 1
		}
		for j := 0; j < rows; j++ {
			board[y*ch*gw+gw-1+j*gw] = '\n'
		}
	}
	return string(board)
}

// solveMoveString encodes the difference between two line grids as an
// authoritative solve move.
func solveMoveString(w int, old, solved []uint8) string {
	var sb strings.Builder
	sb.WriteByte('S')
	for i := range solved {
		if old[i] != solved[i] {
			fmt.Fprintf(&sb, ";R%d,%d,%d", solved[i], i%w, i/w)
		}
	}
	return sb.String()
}

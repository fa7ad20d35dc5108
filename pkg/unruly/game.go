package unruly

import (
	"fmt"
	"strings"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// cell is a single grid square: empty, or holding a binary digit.
type cell int8

const (
	cellEmpty cell = -1
	cellZero  cell = 0
	cellOne   cell = 1
)

func (c cell) opposite() cell { return 1 - c }

// GameState is one position in a game's history. States are immutable
// once handed out: ExecuteMove returns a fresh state. The clue layout
// (immutable flags) is shared by all states of one game.
type GameState struct {
	w, h      int
	unique    bool
	grid      []cell
	immutable []bool // shared, never written after NewGame
	errs      []bool // validator output, per cell
	completed bool
	cheated   bool
}

// The descriptor walks the grid in reading order: lowercase letters
// encode runs of empty cells (puzzle.EmptyRunLen), and the digits '0'
// and '1' place clues in place.

// ValidateDesc checks a descriptor against the parameters without
// building a state.
func ValidateDesc(p Params, desc string) error {
	wh := p.W * p.H
	pos := 0
	for i := 0; i < len(desc); i++ {
		c := desc[i]
		switch {
		case c == '0' || c == '1':
			pos++
		case puzzle.EmptyRunLen(c) > 0:
			pos += puzzle.EmptyRunLen(c)
		default:
			return fmt.Errorf("%w: illegal character %q", puzzle.ErrDescriptor, c)
		}
		if pos > wh {
			return fmt.Errorf("%w: data past end of grid", puzzle.ErrDescriptor)
		}
	}
	if pos != wh {
		return fmt.Errorf("%w: decodes to %d cells, want %d", puzzle.ErrDescriptor, pos, wh)
	}
	return nil
}

// NewGame builds the initial state for a descriptor.
func NewGame(p Params, desc string) (*GameState, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateDesc(p, desc); err != nil {
		return nil, err
	}
	wh := p.W * p.H
	st := &GameState{
		w:         p.W,
		h:         p.H,
		unique:    p.Unique,
		grid:      make([]cell, wh),
		immutable: make([]bool, wh),
		errs:      make([]bool, wh),
	}
	for i := range st.grid {
		st.grid[i] = cellEmpty
	}
	pos := 0
	for i := 0; i < len(desc); i++ {
		c := desc[i]
		switch c {
		case '0', '1':
			st.grid[pos] = cell(c - '0')
			st.immutable[pos] = true
			pos++
		default:
			pos += puzzle.EmptyRunLen(c)
		}
	}
	st.updateErrors()
	return st, nil
}

// encodeDesc writes the descriptor for a clue grid (empty cells are
// cellEmpty).
func encodeDesc(grid []cell) string {
	var out []byte
	run := 0
	for _, c := range grid {
		if c == cellEmpty {
			run++
			continue
		}
		out = puzzle.AppendEmptyRun(out, run)
		run = 0
		out = append(out, byte('0'+c))
	}
	out = puzzle.AppendEmptyRun(out, run)
	return string(out)
}

// DupGame clones a state. Completion and cheat flags carry over; the
// immutable clue layout is shared.
func (st *GameState) DupGame() *GameState {
	dup := &GameState{
		w:         st.w,
		h:         st.h,
		unique:    st.unique,
		grid:      append([]cell(nil), st.grid...),
		immutable: st.immutable,
		errs:      append([]bool(nil), st.errs...),
		completed: st.completed,
		cheated:   st.cheated,
	}
	return dup
}

// Completed reports whether this state has ever been a winning
// position. The flag is sticky across moves and dups.
func (st *GameState) Completed() bool { return st.completed }

func (st *GameState) at(x, y int) cell { return st.grid[y*st.w+x] }
func (st *GameState) idx(x, y int) int { return y*st.w + x }
func (st *GameState) inGrid(x, y int) bool {
	return x >= 0 && x < st.w && y >= 0 && y < st.h
}

// CellError reports the validator's error flag for a cell; used by
// front ends for highlighting.
func (st *GameState) CellError(x, y int) bool { return st.errs[st.idx(x, y)] }

// ExecuteMove applies a move string and returns the resulting state.
// Moves are ';'-separated commands: "S<digits>" replaces the whole
// grid (a solve move), "P<c>,<x>,<y>" sets one cell to '0', '1' or
// clears it with '-'. A malformed move, or one touching a clue cell,
// returns ErrMove and leaves the receiver untouched.
func (st *GameState) ExecuteMove(move string) (*GameState, error) {
	dup := st.DupGame()
	for _, cmd := range strings.Split(move, ";") {
		if cmd == "" {
			continue
		}
		switch cmd[0] {
		case 'S':
			body := cmd[1:]
			if len(body) != st.w*st.h {
				return nil, fmt.Errorf("%w: solve move has %d cells, want %d", puzzle.ErrMove, len(body), st.w*st.h)
			}
			for i := 0; i < len(body); i++ {
				var v cell
				switch body[i] {
				case '0':
					v = cellZero
				case '1':
					v = cellOne
				default:
					return nil, fmt.Errorf("%w: illegal solve digit %q", puzzle.ErrMove, body[i])
				}
				if dup.immutable[i] && dup.grid[i] != v {
					return nil, fmt.Errorf("%w: solution contradicts clue at cell %d", puzzle.ErrMove, i)
				}
				dup.grid[i] = v
			}
			dup.cheated = true
		case 'P':
			var vc byte
			var x, y int
			if n, err := fmt.Sscanf(cmd, "P%c,%d,%d", &vc, &x, &y); n != 3 || err != nil {
				return nil, fmt.Errorf("%w: cannot parse %q", puzzle.ErrMove, cmd)
			}
			if !dup.inGrid(x, y) {
				return nil, fmt.Errorf("%w: cell (%d,%d) outside grid", puzzle.ErrMove, x, y)
			}
			var v cell
			switch vc {
			case '0':
				v = cellZero
			case '1':
				v = cellOne
			case '-':
				v = cellEmpty
			default:
				return nil, fmt.Errorf("%w: illegal mark %q", puzzle.ErrMove, vc)
			}
			i := dup.idx(x, y)
			if dup.immutable[i] {
				return nil, fmt.Errorf("%w: cell (%d,%d) is a clue", puzzle.ErrMove, x, y)
			}
			dup.grid[i] = v
		default:
			return nil, fmt.Errorf("%w: unknown command %q", puzzle.ErrMove, cmd)
		}
	}
	dup.updateErrors()
	return dup, nil
}

// updateErrors recomputes per-cell error flags and the completion
// flag. Completion, once reached, stays set.
func (st *GameState) updateErrors() {
	for i := range st.errs {
		st.errs[i] = false
	}
	valid := true
	full := true

	// Three-in-a-row violations.
	for y := 0; y < st.h; y++ {
		for x := 0; x < st.w; x++ {
			c := st.at(x, y)
			if c == cellEmpty {
				full = false
				continue
			}
			if x+2 < st.w && st.at(x+1, y) == c && st.at(x+2, y) == c {
				st.errs[st.idx(x, y)] = true
				st.errs[st.idx(x+1, y)] = true
				st.errs[st.idx(x+2, y)] = true
				valid = false
			}
			if y+2 < st.h && st.at(x, y+1) == c && st.at(x, y+2) == c {
				st.errs[st.idx(x, y)] = true
				st.errs[st.idx(x, y+1)] = true
				st.errs[st.idx(x, y+2)] = true
				valid = false
			}
		}
	}

	// Row/column count violations.
	for y := 0; y < st.h; y++ {
		if n0, n1 := st.rowCounts(y); n0 > st.w/2 || n1 > st.w/2 {
			for x := 0; x < st.w; x++ {
				st.errs[st.idx(x, y)] = true
			}
			valid = false
		}
	}
	for x := 0; x < st.w; x++ {
		if n0, n1 := st.colCounts(x); n0 > st.h/2 || n1 > st.h/2 {
			for y := 0; y < st.h; y++ {
				st.errs[st.idx(x, y)] = true
			}
			valid = false
		}
	}

	if st.unique && full {
		if st.duplicateLine() {
			valid = false
		}
	}

	if full && valid {
		st.completed = true
	}
}

func (st *GameState) rowCounts(y int) (zeros, ones int) {
	for x := 0; x < st.w; x++ {
		switch st.at(x, y) {
		case cellZero:
			zeros++
		case cellOne:
			ones++
		}
	}
	return zeros, ones
}

func (st *GameState) colCounts(x int) (zeros, ones int) {
	for y := 0; y < st.h; y++ {
		switch st.at(x, y) {
		case cellZero:
			zeros++
		case cellOne:
			ones++
		}
	}
	return zeros, ones
}

// duplicateLine reports whether two identical rows or two identical
// columns exist (unique mode; grid assumed full). Duplicated lines are
// flagged as errors.
func (st *GameState) duplicateLine() bool {
	dup := false
	for a := 0; a < st.h; a++ {
		for b := a + 1; b < st.h; b++ {
			same := true
			for x := 0; x < st.w; x++ {
				if st.at(x, a) != st.at(x, b) {
					same = false
					break
				}
			}
			if same {
				dup = true
				for x := 0; x < st.w; x++ {
					st.errs[st.idx(x, a)] = true
					st.errs[st.idx(x, b)] = true
				}
			}
		}
	}
	for a := 0; a < st.w; a++ {
		for b := a + 1; b < st.w; b++ {
			same := true
			for y := 0; y < st.h; y++ {
				if st.at(a, y) != st.at(b, y) {
					same = false
					break
				}
			}
			if same {
				dup = true
				for y := 0; y < st.h; y++ {
					st.errs[st.idx(a, y)] = true
					st.errs[st.idx(b, y)] = true
				}
			}
		}
	}
	return dup
}

// GameText renders the grid for diagnostics: '0', '1' and '.' rows.
func (st *GameState) GameText() string {
	var sb strings.Builder
	for y := 0; y < st.h; y++ {
		for x := 0; x < st.w; x++ {
			switch st.at(x, y) {
			case cellZero:
				sb.WriteByte('0')
			case cellOne:
				sb.WriteByte('1')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// solveMove encodes a full grid as an authoritative solve move.
func solveMove(grid []cell) string {
	var sb strings.Builder
	sb.WriteByte('S')
	for _, c := range grid {
		sb.WriteByte(byte('0' + c))
	}
	return sb.String()
}

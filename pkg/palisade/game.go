package palisade

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/gitrdm/gridlogic/pkg/dsf"
	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

const noClue int8 = -1

// Error flag bits: one per border direction, plus a clue violation.
const errClue uint8 = 1 << 4

// GameState is one position in a game. Clues are shared between
// states derived from the same descriptor; the borders are per-state.
type GameState struct {
	w, h, k int
	clues   []int8
	borders []uint8
	errs    []uint8

	completed, cheated bool
}

func (st *GameState) inGrid(x, y int) bool {
	return x >= 0 && x < st.w && y >= 0 && y < st.h
}

// ValidateDesc checks a descriptor against the parameters.
func ValidateDesc(p Params, desc string) error {
	_, err := decodeDesc(p, desc)
	return err
}

func decodeDesc(p Params, desc string) ([]int8, error) {
	sz := p.W * p.H
	clues := make([]int8, sz)
	for i := range clues {
		clues[i] = noClue
	}
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
		if c < '0' || c > '4' {
			return nil, fmt.Errorf("%w: illegal character %q", puzzle.ErrDescriptor, c)
		}
		if pos >= sz {
			return nil, fmt.Errorf("%w: clue data past end", puzzle.ErrDescriptor)
		}
		clues[pos] = int8(c - '0')
		pos++
	}
	if pos != sz {
		return nil, fmt.Errorf("%w: clue data decodes to %d cells, want %d", puzzle.ErrDescriptor, pos, sz)
	}
	return clues, nil
}

func encodeDesc(clues []int8) string {
	var out []byte
	run := 0
	for _, c := range clues {
		if c == noClue {
			run++
			continue
		}
		out = puzzle.AppendEmptyRun(out, run)
		run = 0
		out = append(out, '0'+byte(c))
	}
	out = puzzle.AppendEmptyRun(out, run)
	return string(out)
}

// initBorders returns a border grid with the rim drawn in.
func initBorders(w, h int) []uint8 {
	borders := make([]uint8, w*h)
	for x := 0; x < w; x++ {
		borders[x] |= borderU
		borders[w*h-1-x] |= borderD
	}
	for y := 0; y < h; y++ {
		borders[y*w] |= borderL
		borders[w*h-1-y*w] |= borderR
	}
	return borders
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
	st := &GameState{
		w:       p.W,
		h:       p.H,
		k:       p.K,
		clues:   clues,
		borders: initBorders(p.W, p.H),
		errs:    make([]uint8, p.W*p.H),
	}
	st.updateErrors()
	return st, nil
}

// DupGame deep-copies the per-state data; clues stay shared.
func (st *GameState) DupGame() *GameState {
	ret := &GameState{
		w: st.w, h: st.h, k: st.k,
		clues:     st.clues,
		borders:   append([]uint8(nil), st.borders...),
		errs:      append([]uint8(nil), st.errs...),
		completed: st.completed,
		cheated:   st.cheated,
	}
	return ret
}

// Completed reports whether a winning division has been reached at
// some point in this state's history.
func (st *GameState) Completed() bool { return st.completed }

// CellError reports whether the cell currently violates a constraint:
// its clue is unsatisfiable or one of its borders is provably wrong.
func (st *GameState) CellError(x, y int) bool { return st.errs[y*st.w+x] != 0 }

// ExecuteMove applies a move string and returns the new state. A move
// is either "S" followed by one byte per cell giving the full border
// grid ('@' ORed with the border nybble), or a run of commands
// "F<x>,<y>,<flag>" each toggling border and no-border bits on one
// cell. Toggling the grid rim is not allowed.
func (st *GameState) ExecuteMove(move string) (*GameState, error) {
	ret := st.DupGame()
	wh := ret.w * ret.h

	if strings.HasPrefix(move, "S") {
		rest := move[1:]
		if len(rest) != wh {
			return nil, fmt.Errorf("%w: solution grid has wrong length", puzzle.ErrMove)
		}
		for i := 0; i < wh; i++ {
			b := uint8(rest[i]) & borderMask
			ret.borders[i] = b | disabled(^b&borderMask)
		}
		ret.cheated = true
		ret.completed = true
		ret.updateErrors()
		return ret, nil
	}

	for len(move) > 0 {
		if move[0] != 'F' {
			return nil, fmt.Errorf("%w: unknown command %q", puzzle.ErrMove, move)
		}
		x, y, flag, n, ok := parseTriple(move[1:])
		if !ok || !ret.inGrid(x, y) || flag > 0xFF {
			return nil, fmt.Errorf("%w: bad command %q", puzzle.ErrMove, move)
		}
		for dir := 0; dir < 4; dir++ {
			if uint8(flag)&borderBit(dir) != 0 &&
				!ret.inGrid(x+dirDX[dir], y+dirDY[dir]) {
				return nil, fmt.Errorf("%w: cannot toggle the grid rim", puzzle.ErrMove)
			}
		}
		ret.borders[y*ret.w+x] ^= uint8(flag)
		move = move[1+n:]
	}

	if !ret.completed {
		ret.completed = ret.isSolved()
	}
	ret.updateErrors()
	return ret, nil
}

// parseTriple reads "<x>,<y>,<flag>" off the front of s and reports
// how many bytes it consumed.
func parseTriple(s string) (x, y, flag, n int, ok bool) {
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
	if x, ok = read(); !ok {
		return
	}
	if ok = comma(); !ok {
		return
	}
	if y, ok = read(); !ok {
		return
	}
	if ok = comma(); !ok {
		return
	}
	flag, ok = read()
	return
}

// buildRegions returns the cell DSF induced by the border grid: with
// black set, cells merge across edges carrying no drawn border; with
// black clear, they merge only across edges marked border-free.
func buildRegions(w, h int, borders []uint8, black bool) *dsf.DSF {
	d := dsf.New(w * h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if x+1 < w {
				if black && borders[i]&borderR == 0 ||
					!black && borders[i]&disabled(borderR) != 0 {
					d.Merge(i, i+1)
				}
			}
			if y+1 < h {
				if black && borders[i]&borderD == 0 ||
					!black && borders[i]&disabled(borderD) != 0 {
					d.Merge(i, i+w)
				}
			}
		}
	}
	return d
}

// isSolved checks the three winning conditions: every cell in a
// region of exactly k, every clue matched by its border count, and no
// stray border inside a region.
func (st *GameState) isSolved() bool {
	w, h, k := st.w, st.h, st.k
	regions := buildRegions(w, h, st.borders, true)

	for i := 0; i < w*h; i++ {
		if regions.Size(i) != k {
			return false
		}
		if st.clues[i] == noClue {
			continue
		}
		if int(st.clues[i]) != bits.OnesCount8(st.borders[i]&borderMask) {
			return false
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if x+1 < w && st.borders[i]&borderR != 0 &&
				regions.Canonify(i) == regions.Canonify(i+1) {
				return false
			}
			if y+1 < h && st.borders[i]&borderD != 0 &&
				regions.Canonify(i) == regions.Canonify(i+w) {
				return false
			}
		}
	}
	return true
}

// updateErrors recomputes the per-cell error flags: clues that can no
// longer be met, borders around regions provably too large or too
// small, and borders stranded inside a single region.
func (st *GameState) updateErrors() {
	w, h, k := st.w, st.h, st.k
	black := buildRegions(w, h, st.borders, true)
	marked := buildRegions(w, h, st.borders, false)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			var e uint8

			on := bits.OnesCount8(st.borders[i] & borderMask)
			off := bits.OnesCount8(st.borders[i] >> 4 & borderMask)
			if c := st.clues[i]; c != noClue && (on > int(c) || int(c) > 4-off) {
				e |= errClue
			}

			for dir := 0; dir < 4; dir++ {
				nx, ny := x+dirDX[dir], y+dirDY[dir]
				if !st.inGrid(nx, ny) {
					continue
				}
				ii := ny*w + nx

				tooLarge := (marked.Size(i) > k || marked.Size(ii) > k) &&
					marked.Canonify(i) != marked.Canonify(ii)
				tooSmall := (black.Size(i) < k || black.Size(ii) < k) &&
					black.Canonify(i) != black.Canonify(ii)
				stray := st.borders[i]&borderBit(dir) != 0 &&
					(marked.Canonify(i) == marked.Canonify(ii) ||
						(black.Size(i) <= k &&
							black.Canonify(i) == black.Canonify(ii)))

				if tooLarge || tooSmall || stray {
					e |= borderBit(dir)
				}
			}
			st.errs[i] = e
		}
	}
}

// GameText renders the board as ASCII art: clue digits at cell
// centres, dashes and pipes for borders, x for no-border marks.
func (st *GameState) GameText() string {
	w, h := st.w, st.h
	const cw, ch = 4, 2
	gw, gh := cw*w+2, ch*h+1
	board := make([]byte, gw*gh)
	for i := range board {
		board[i] = ' '
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			cell := y*ch*gw + x*cw
			centre := cell + gw*ch/2 + cw/2

			if st.clues[i] != noClue {
				board[centre] = '0' + byte(st.clues[i])
			}
			board[cell] = '+'

			switch {
			case st.borders[i]&borderU != 0:
				for j := 1; j < cw; j++ {
					board[cell+j] = '-'
				}
			case st.borders[i]&disabled(borderU) != 0:
				board[cell+cw/2] = 'x'
			}

			switch {
			case st.borders[i]&borderL != 0:
				board[cell+gw] = '|'
			case st.borders[i]&disabled(borderL) != 0:
				board[cell+gw] = 'x'
			}
		}
		for j := 0; j < ch; j++ {
			if j == 0 {
				board[(y*ch+j)*gw+gw-2] = '+'
			} else {
				board[(y*ch+j)*gw+gw-2] = '|'
			}
			board[(y*ch+j)*gw+gw-1] = '\n'
		}
	}
	copy(board[len(board)-gw:], board[:gw])
	return string(board)
}

// solveMoveString encodes a full border grid as an authoritative
// solve move, one printable byte per cell.
func solveMoveString(borders []uint8) string {
	out := make([]byte, 1+len(borders))
	out[0] = 'S'
	for i, b := range borders {
		out[1+i] = '@' | b&borderMask
	}
	return string(out)
}

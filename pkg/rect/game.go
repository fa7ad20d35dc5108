package rect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// GameState holds a rectangle dissection position: the fixed clue
// grid plus the edges the player has drawn so far. Edge arrays are
// cell-indexed; hedge(x,y) is the edge above cell (x,y) and is
// meaningful for y in [1,h), vedge(x,y) is the edge left of cell
// (x,y) and is meaningful for x in [1,w). The grid border is implicit
// and always present.
type GameState struct {
	w, h  int
	grid  []int // clue numbers, 0 where there is no clue
	hedge []uint8
	vedge []uint8

	correct   []bool
	completed bool
	cheated   bool
}

func (st *GameState) hrange(x, y int) bool {
	return x >= 0 && x < st.w && y >= 1 && y < st.h
}

func (st *GameState) vrange(x, y int) bool {
	return x >= 1 && x < st.w && y >= 0 && y < st.h
}

// Descriptor format: clue numbers in reading order, written in
// decimal, with runs of clueless cells compressed to letters ('a'=1
// .. 'z'=26) and '_' separating two adjacent clues.

// ValidateDesc checks a descriptor against the parameters without
// building a game state.
func ValidateDesc(p Params, desc string) error {
	_, err := decodeDesc(p, desc)
	return err
}

func decodeDesc(p Params, desc string) ([]int, error) {
	area := p.W * p.H
	grid := make([]int, 0, area)
	for i := 0; i < len(desc); i++ {
		c := desc[i]
		switch {
		case c >= 'a' && c <= 'z':
			run := int(c-'a') + 1
			if len(grid)+run > area {
				return nil, fmt.Errorf("%w: too much data to fit in grid", puzzle.ErrDescriptor)
			}
			for ; run > 0; run-- {
				grid = append(grid, 0)
			}
		case c == '_':
			// separator only
		case c >= '1' && c <= '9':
			j := i
			for j+1 < len(desc) && desc[j+1] >= '0' && desc[j+1] <= '9' {
				j++
			}
			n, err := strconv.Atoi(desc[i : j+1])
			if err != nil || len(grid) >= area {
				return nil, fmt.Errorf("%w: too much data to fit in grid", puzzle.ErrDescriptor)
			}
			grid = append(grid, n)
			i = j
		default:
			return nil, fmt.Errorf("%w: invalid character %q", puzzle.ErrDescriptor, c)
		}
	}
	if len(grid) < area {
		return nil, fmt.Errorf("%w: not enough data to fill grid", puzzle.ErrDescriptor)
	}
	return grid, nil
}

func encodeDesc(w, h int, grid []int) string {
	var b []byte
	run := 0
	for i := 0; i <= w*h; i++ {
		n := -1
		if i < w*h {
			n = grid[i]
		}
		if n == 0 {
			run++
			continue
		}
		if run > 0 {
			for run > 0 {
				c := run
				if c > 26 {
					c = 26
				}
				b = append(b, byte('a'-1+c))
				run -= c
			}
		} else if len(b) > 0 && n > 0 {
			b = append(b, '_')
		}
		if n > 0 {
			b = strconv.AppendInt(b, int64(n), 10)
		}
	}
	return string(b)
}

// NewGame builds the initial state for a descriptor: all clues in
// place and no edges drawn.
func NewGame(p Params, desc string) (*GameState, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	grid, err := decodeDesc(p, desc)
	if err != nil {
		return nil, err
	}
	st := &GameState{
		w:     p.W,
		h:     p.H,
		grid:  grid,
		hedge: make([]uint8, p.W*p.H),
		vedge: make([]uint8, p.W*p.H),
	}
	st.correct = st.correctCells()
	return st, nil
}

// DupGame returns an independent copy. The clue grid is immutable and
// shared.
func (st *GameState) DupGame() *GameState {
	ret := &GameState{
		w:         st.w,
		h:         st.h,
		grid:      st.grid,
		hedge:     append([]uint8(nil), st.hedge...),
		vedge:     append([]uint8(nil), st.vedge...),
		correct:   append([]bool(nil), st.correct...),
		completed: st.completed,
		cheated:   st.cheated,
	}
	return ret
}

// Completed reports whether the grid has been fully dissected into
// valid rectangles. Once true it stays true.
func (st *GameState) Completed() bool { return st.completed }

// CellDone reports whether cell (x,y) currently lies inside a
// finished rectangle: one with clean borders, no internal edges, and
// exactly one clue matching its area.
func (st *GameState) CellDone(x, y int) bool {
	return st.correct[y*st.w+x]
}

// drawRect replaces all edges touching the rectangle at (x,y) of size
// rw x rh: its perimeter is drawn and its interior is cleared.
func (st *GameState) drawRect(x, y, rw, rh int) {
	for xx := x; xx < x+rw; xx++ {
		for yy := y; yy <= y+rh; yy++ {
			if st.hrange(xx, yy) {
				var v uint8
				if yy == y || yy == y+rh {
					v = 1
				}
				st.hedge[yy*st.w+xx] = v
			}
		}
	}
	for yy := y; yy < y+rh; yy++ {
		for xx := x; xx <= x+rw; xx++ {
			if st.vrange(xx, yy) {
				var v uint8
				if xx == x || xx == x+rw {
					v = 1
				}
				st.vedge[yy*st.w+xx] = v
			}
		}
	}
}

// solveMoveString encodes a full edge assignment as a solve move.
func solveMoveString(w, h int, hedge, vedge []uint8) string {
	b := make([]byte, 0, 1+2*w*h)
	b = append(b, 'S')
	for _, e := range hedge {
		b = append(b, '0'+e)
	}
	for _, e := range vedge {
		b = append(b, '0'+e)
	}
	return string(b)
}

// ExecuteMove applies a move string and returns the resulting state.
// Moves are ';'-separated tokens: "Rx,y,w,h" lays down a rectangle
// (perimeter drawn, interior cleared), "Hx,y" toggles the edge above
// cell (x,y), "Vx,y" toggles the edge to its left. A move of 'S'
// followed by w*h horizontal then w*h vertical edge digits replaces
// the whole edge set.
func (st *GameState) ExecuteMove(move string) (*GameState, error) {
	badmove := func(format string, args ...interface{}) (*GameState, error) {
		return nil, fmt.Errorf("%w: "+format, append([]interface{}{puzzle.ErrMove}, args...)...)
	}

	area := st.w * st.h
	ret := st.DupGame()

	if strings.HasPrefix(move, "S") {
		if len(move) != 1+2*area {
			return badmove("solution has wrong length")
		}
		for i := 0; i < area; i++ {
			if move[1+i] != '0' && move[1+i] != '1' {
				return badmove("bad edge digit %q", move[1+i])
			}
			if move[1+area+i] != '0' && move[1+area+i] != '1' {
				return badmove("bad edge digit %q", move[1+area+i])
			}
			x, y := i%st.w, i/st.w
			if ret.hrange(x, y) {
				ret.hedge[i] = move[1+i] - '0'
			}
			if ret.vrange(x, y) {
				ret.vedge[i] = move[1+area+i] - '0'
			}
		}
		ret.cheated = true
	} else {
		for _, tok := range strings.Split(move, ";") {
			if tok == "" {
				return badmove("empty token")
			}
			nums, err := parseNums(tok[1:])
			if err != nil {
				return nil, err
			}
			switch tok[0] {
			case 'R':
				if len(nums) != 4 {
					return badmove("rectangle needs four coordinates")
				}
				x, y, rw, rh := nums[0], nums[1], nums[2], nums[3]
				if rw < 1 || rh < 1 || x < 0 || y < 0 || x+rw > st.w || y+rh > st.h {
					return badmove("rectangle %d,%d %dx%d out of range", x, y, rw, rh)
				}
				ret.drawRect(x, y, rw, rh)
			case 'H':
				if len(nums) != 2 || !st.hrange(nums[0], nums[1]) {
					return badmove("edge out of range in %q", tok)
				}
				ret.hedge[nums[1]*st.w+nums[0]] ^= 1
			case 'V':
				if len(nums) != 2 || !st.vrange(nums[0], nums[1]) {
					return badmove("edge out of range in %q", tok)
				}
				ret.vedge[nums[1]*st.w+nums[0]] ^= 1
			default:
				return badmove("unknown move %q", tok)
			}
		}
	}

	ret.correct = ret.correctCells()
	if !ret.completed {
		done := true
		for _, ok := range ret.correct {
			if !ok {
				done = false
				break
			}
		}
		ret.completed = done
	}
	return ret, nil
}

func parseNums(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	nums := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: bad coordinate %q", puzzle.ErrMove, p)
		}
		nums[i] = v
	}
	return nums, nil
}

// correctCells scans the grid for finished rectangles and returns a
// per-cell flag: true for every cell inside a rectangle with a clean
// perimeter, an empty interior, and a single clue equal to its area.
func (st *GameState) correctCells() []bool {
	const unseen = -1
	mark := make([]int, st.w*st.h)
	for i := range mark {
		mark[i] = unseen
	}

	for y := 0; y < st.h; y++ {
		for x := 0; x < st.w; x++ {
			if mark[y*st.w+x] != unseen {
				continue
			}

			rw := 1
			for x+rw < st.w && st.vedge[y*st.w+x+rw] == 0 {
				rw++
			}
			rh := 1
			for y+rh < st.h && st.hedge[(y+rh)*st.w+x] == 0 {
				rh++
			}

			// The dimensions are now fixed; verify that exactly the
			// perimeter edges are present.
			valid := true
			for xx := x; xx < x+rw; xx++ {
				for yy := y; yy <= y+rh; yy++ {
					e := !st.hrange(xx, yy) || st.hedge[yy*st.w+xx] != 0
					want := yy == y || yy == y+rh
					if e != want {
						valid = false
					}
				}
			}
			for yy := y; yy < y+rh; yy++ {
				for xx := x; xx <= x+rw; xx++ {
					e := !st.vrange(xx, yy) || st.vedge[yy*st.w+xx] != 0
					want := xx == x || xx == x+rw
					if e != want {
						valid = false
					}
				}
			}

			if !valid {
				mark[y*st.w+x] = 0
				continue
			}

			num, cells := 0, 0
			for xx := x; xx < x+rw; xx++ {
				for yy := y; yy < y+rh; yy++ {
					cells++
					if n := st.grid[yy*st.w+xx]; n != 0 {
						if num > 0 {
							valid = false
						}
						num = n
					}
				}
			}
			if num != cells {
				valid = false
			}

			v := 0
			if valid {
				v = 1
			}
			for xx := x; xx < x+rw; xx++ {
				for yy := y; yy < y+rh; yy++ {
					mark[yy*st.w+xx] = v
				}
			}
		}
	}

	correct := make([]bool, st.w*st.h)
	for i, v := range mark {
		correct[i] = v == 1
	}
	return correct
}

// GameText renders the position as ASCII art: clue numbers in cell
// centres, '-' and '|' for drawn edges, '+' at meeting points.
func (st *GameState) GameText() string {
	col := 2
	for _, n := range st.grid {
		if w := len(strconv.Itoa(n)); w > col {
			col = w
		}
	}

	hed := func(x, y int) bool {
		if y == 0 || y == st.h {
			return true
		}
		return st.hrange(x, y) && st.hedge[y*st.w+x] != 0
	}
	ved := func(x, y int) bool {
		if x == 0 || x == st.w {
			return true
		}
		return st.vrange(x, y) && st.vedge[y*st.w+x] != 0
	}

	var b strings.Builder
	for y := 0; y <= 2*st.h; y++ {
		for x := 0; x <= 2*st.w; x++ {
			switch {
			case x&y&1 == 1:
				if v := st.grid[(y/2)*st.w+x/2]; v != 0 {
					fmt.Fprintf(&b, "%*d", col, v)
				} else {
					b.WriteString(strings.Repeat(" ", col))
				}
			case x&1 == 1:
				c := " "
				if hed(x/2, y/2) {
					c = "-"
				}
				b.WriteString(strings.Repeat(c, col))
			case y&1 == 1:
				if ved(x/2, y/2) {
					b.WriteByte('|')
				} else {
					b.WriteByte(' ')
				}
			default:
				hl := hed((x-1)/2, y/2)
				hr := hed((x+1)/2, y/2)
				vu := ved(x/2, (y-1)/2)
				vd := ved(x/2, (y+1)/2)
				switch {
				case !hl && !hr && !vu && !vd:
					b.WriteByte(' ')
				case hl && hr && !vu && !vd:
					b.WriteByte('-')
				case !hl && !hr && vu && vd:
					b.WriteByte('|')
				default:
					b.WriteByte('+')
				}
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

package tracks

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/gitrdm/gridlogic/pkg/dsf"
	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// board is the cell/edge representation shared by game states and
// solver scratch: a flag word per cell with symmetric per-edge bits.
type board struct {
	w, h   int
	sflags []uint16
}

func (b *board) idx(x, y int) int     { return y*b.w + x }
func (b *board) at(x, y int) uint16   { return b.sflags[y*b.w+x] }
func (b *board) inGrid(x, y int) bool { return x >= 0 && x < b.w && y >= 0 && y < b.h }

// edgeState returns +1 (track), -1 (no track) or 0 (undecided) for an
// edge of cell (x, y). Border edges are stored on the inside cell
// only.
func (b *board) edgeState(x, y int, d dir) int {
	f := b.at(x, y)
	switch {
	case f&edgeTrackBit(d) != 0:
		return 1
	case f&edgeNoBit(d) != 0:
		return -1
	}
	return 0
}

// setEdge makes an edge track (+1), no-track (-1) or undecided (0),
// updating both incident cells.
func (b *board) setEdge(x, y int, d dir, v int) {
	apply := func(cx, cy int, cd dir) {
		i := b.idx(cx, cy)
		b.sflags[i] &^= edgeTrackBit(cd) | edgeNoBit(cd)
		switch v {
		case 1:
			b.sflags[i] |= edgeTrackBit(cd)
		case -1:
			b.sflags[i] |= edgeNoBit(cd)
		}
	}
	apply(x, y, d)
	dx, dy := d.delta()
	if b.inGrid(x+dx, y+dy) {
		apply(x+dx, y+dy, d.opposite())
	}
}

// edgeCounts returns the number of track and no-track edges of a cell.
func (b *board) edgeCounts(x, y int) (track, no int) {
	f := b.at(x, y)
	track = bits.OnesCount16(f >> edgeTrackShift & edgeMask)
	no = bits.OnesCount16(f >> edgeNoShift & edgeMask)
	return track, no
}

// GameState is one position in a game's history. The target arrays
// are shared between a state and its descendants; everything else is
// copied by DupGame.
type GameState struct {
	board
	rowT, colT         []int
	entryRow, exitCol  int
	cellErr            []bool
	rowErr, colErr     []bool
	completed, cheated bool
}

// shapeChar encodes a clue cell's two track directions as an
// uppercase hex digit of its dir bitmask.
func shapeChar(m dir) byte {
	const hex = "0123456789ABCDEF"
	return hex[m&0xf]
}

func parseShape(c byte) (dir, bool) {
	var v int
	switch {
	case c >= '0' && c <= '9':
		v = int(c - '0')
	case c >= 'A' && c <= 'F':
		v = int(c-'A') + 10
	default:
		return 0, false
	}
	if bits.OnesCount(uint(v)) != 2 {
		return 0, false
	}
	return dir(v), true
}

// ValidateDesc checks a descriptor without building a state.
func ValidateDesc(p Params, desc string) error {
	_, err := decodeDesc(p, desc)
	return err
}

type descData struct {
	shapes   []dir // per cell; 0 = no clue
	colT     []int
	rowT     []int
	entryRow int
	exitCol  int
}

// The descriptor is "<grid>,<w column targets>,<h row targets>". The
// grid part walks cells in reading order with lowercase run letters
// for clueless stretches and an uppercase hex digit for each clue
// square's edge-pair shape. The exit column's target and the entry
// row's target carry an 'S' prefix.
func decodeDesc(p Params, desc string) (*descData, error) {
	ci := strings.IndexByte(desc, ',')
	if ci < 0 {
		return nil, fmt.Errorf("%w: missing target section", puzzle.ErrDescriptor)
	}
	gridPart, targetPart := desc[:ci], desc[ci+1:]
	wh := p.W * p.H

	d := &descData{
		shapes:   make([]dir, wh),
		colT:     make([]int, p.W),
		rowT:     make([]int, p.H),
		entryRow: -1,
		exitCol:  -1,
	}

	pos := 0
	for i := 0; i < len(gridPart); i++ {
		c := gridPart[i]
		if n := puzzle.EmptyRunLen(c); n > 0 {
			pos += n
			if pos > wh {
				return nil, fmt.Errorf("%w: grid data past end", puzzle.ErrDescriptor)
			}
			continue
		}
		shape, ok := parseShape(c)
		if !ok {
			return nil, fmt.Errorf("%w: illegal grid character %q", puzzle.ErrDescriptor, c)
		}
		if pos >= wh {
			return nil, fmt.Errorf("%w: grid data past end", puzzle.ErrDescriptor)
		}
		d.shapes[pos] = shape
		pos++
	}
	if pos != wh {
		return nil, fmt.Errorf("%w: grid decodes to %d cells, want %d", puzzle.ErrDescriptor, pos, wh)
	}

	fields := strings.Split(targetPart, ",")
	if len(fields) != p.W+p.H {
		return nil, fmt.Errorf("%w: %d targets, want %d", puzzle.ErrDescriptor, len(fields), p.W+p.H)
	}
	for i, f := range fields {
		marked := false
		if strings.HasPrefix(f, "S") {
			marked = true
			f = f[1:]
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad target %q", puzzle.ErrDescriptor, fields[i])
		}
		if i < p.W {
			d.colT[i] = n
			if marked {
				if d.exitCol >= 0 {
					return nil, fmt.Errorf("%w: two exit columns", puzzle.ErrDescriptor)
				}
				d.exitCol = i
			}
			if n > p.H {
				return nil, fmt.Errorf("%w: column target %d exceeds height", puzzle.ErrDescriptor, n)
			}
		} else {
			y := i - p.W
			d.rowT[y] = n
			if marked {
				if d.entryRow >= 0 {
					return nil, fmt.Errorf("%w: two entry rows", puzzle.ErrDescriptor)
				}
				d.entryRow = y
			}
			if n > p.W {
				return nil, fmt.Errorf("%w: row target %d exceeds width", puzzle.ErrDescriptor, n)
			}
		}
	}
	if d.entryRow < 0 || d.exitCol < 0 {
		return nil, fmt.Errorf("%w: entry row and exit column must be marked", puzzle.ErrDescriptor)
	}
	if d.rowT[d.entryRow] < 1 || d.colT[d.exitCol] < 1 {
		return nil, fmt.Errorf("%w: entry/exit lines need at least one track", puzzle.ErrDescriptor)
	}

	// A clue's track may only leave the grid through the entry or exit
	// edge.
	for i, s := range d.shapes {
		if s == 0 {
			continue
		}
		x, y := i%p.W, i/p.W
		for _, e := range allDirs {
			if s&e == 0 {
				continue
			}
			dx, dy := e.delta()
			if x+dx >= 0 && x+dx < p.W && y+dy >= 0 && y+dy < p.H {
				continue
			}
			if e == dirL && x == 0 && y == d.entryRow {
				continue
			}
			if e == dirD && y == p.H-1 && x == d.exitCol {
				continue
			}
			return nil, fmt.Errorf("%w: clue at (%d,%d) runs off the grid", puzzle.ErrDescriptor, x, y)
		}
	}
	return d, nil
}

// encodeDesc builds the descriptor from a clue layout.
func encodeDesc(p Params, shapes []dir, colT, rowT []int, entryRow, exitCol int) string {
	var out []byte
	run := 0
	for _, s := range shapes {
		if s == 0 {
			run++
			continue
		}
		out = puzzle.AppendEmptyRun(out, run)
		run = 0
		out = append(out, shapeChar(s))
	}
	out = puzzle.AppendEmptyRun(out, run)

	var sb strings.Builder
	sb.Write(out)
	for x, n := range colT {
		sb.WriteByte(',')
		if x == exitCol {
			sb.WriteByte('S')
		}
		sb.WriteString(strconv.Itoa(n))
	}
	for y, n := range rowT {
		sb.WriteByte(',')
		if y == entryRow {
			sb.WriteByte('S')
		}
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}

// NewGame builds the initial state for a descriptor.
func NewGame(p Params, desc string) (*GameState, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	d, err := decodeDesc(p, desc)
	if err != nil {
		return nil, err
	}
	st := &GameState{
		board:    board{w: p.W, h: p.H, sflags: make([]uint16, p.W*p.H)},
		rowT:     d.rowT,
		colT:     d.colT,
		entryRow: d.entryRow,
		exitCol:  d.exitCol,
		cellErr:  make([]bool, p.W*p.H),
		rowErr:   make([]bool, p.H),
		colErr:   make([]bool, p.W),
	}

	// The path may only cross the border at the entry and exit edges.
	for x := 0; x < p.W; x++ {
		st.setEdge(x, 0, dirU, -1)
		if x != d.exitCol {
			st.setEdge(x, p.H-1, dirD, -1)
		}
	}
	for y := 0; y < p.H; y++ {
		st.setEdge(p.W-1, y, dirR, -1)
		if y != d.entryRow {
			st.setEdge(0, y, dirL, -1)
		}
	}
	st.setEdge(0, d.entryRow, dirL, 1)
	st.setEdge(d.exitCol, p.H-1, dirD, 1)
	st.sflags[st.idx(0, d.entryRow)] |= fTrack
	st.sflags[st.idx(d.exitCol, p.H-1)] |= fTrack

	for i, s := range d.shapes {
		if s == 0 {
			continue
		}
		x, y := i%p.W, i/p.W
		st.sflags[i] |= fTrack | fClue
		for _, e := range allDirs {
			if s&e != 0 {
				st.setEdge(x, y, e, 1)
			} else {
				st.setEdge(x, y, e, -1)
			}
		}
	}
	st.updateErrors()
	return st, nil
}

// DupGame clones a state; targets are shared.
func (st *GameState) DupGame() *GameState {
	return &GameState{
		board:     board{w: st.w, h: st.h, sflags: append([]uint16(nil), st.sflags...)},
		rowT:      st.rowT,
		colT:      st.colT,
		entryRow:  st.entryRow,
		exitCol:   st.exitCol,
		cellErr:   append([]bool(nil), st.cellErr...),
		rowErr:    append([]bool(nil), st.rowErr...),
		colErr:    append([]bool(nil), st.colErr...),
		completed: st.completed,
		cheated:   st.cheated,
	}
}

// Completed reports whether this state has ever been a winning
// position; the flag is sticky.
func (st *GameState) Completed() bool { return st.completed }

// CellError reports the validator's error flag for a cell.
func (st *GameState) CellError(x, y int) bool { return st.cellErr[st.idx(x, y)] }

// RowError and ColError report count violations on a whole line.
func (st *GameState) RowError(y int) bool { return st.rowErr[y] }
func (st *GameState) ColError(x int) bool { return st.colErr[x] }

// clueAdjacent reports whether an edge touches a clue square, whose
// shape is immutable.
func (st *GameState) clueAdjacent(x, y int, d dir) bool {
	if st.at(x, y)&fClue != 0 {
		return true
	}
	dx, dy := d.delta()
	return st.inGrid(x+dx, y+dy) && st.at(x+dx, y+dy)&fClue != 0
}

// ExecuteMove applies a ';'-separated move string and returns the new
// state. Commands are "<T|t|N|n><U|D|L|R|S><x>,<y>" — uppercase sets,
// lowercase clears; the second character selects an edge or 'S' for
// the square itself — or "S<hex...>", an authoritative solve move of
// one shape digit per cell.
func (st *GameState) ExecuteMove(move string) (*GameState, error) {
	dup := st.DupGame()
	for _, cmd := range strings.Split(move, ";") {
		if cmd == "" {
			continue
		}
		if cmd[0] == 'S' {
			if err := dup.applySolve(cmd[1:]); err != nil {
				return nil, err
			}
			continue
		}
		if err := dup.applyCommand(cmd); err != nil {
			return nil, err
		}
	}
	dup.updateErrors()
	return dup, nil
}

func (st *GameState) applyCommand(cmd string) error {
	if len(cmd) < 4 {
		return fmt.Errorf("%w: short command %q", puzzle.ErrMove, cmd)
	}
	op := cmd[0]
	var x, y int
	if n, err := fmt.Sscanf(cmd[2:], "%d,%d", &x, &y); n != 2 || err != nil {
		return fmt.Errorf("%w: bad coordinates in %q", puzzle.ErrMove, cmd)
	}
	if !st.inGrid(x, y) {
		return fmt.Errorf("%w: cell (%d,%d) outside grid", puzzle.ErrMove, x, y)
	}

	if cmd[1] == 'S' {
		i := st.idx(x, y)
		if st.sflags[i]&fClue != 0 {
			return fmt.Errorf("%w: square (%d,%d) is a clue", puzzle.ErrMove, x, y)
		}
		switch op {
		case 'T':
			st.sflags[i] = st.sflags[i]&^fNoTrack | fTrack
		case 't':
			st.sflags[i] &^= fTrack
		case 'N':
			st.sflags[i] = st.sflags[i]&^fTrack | fNoTrack
		case 'n':
			st.sflags[i] &^= fNoTrack
		default:
			return fmt.Errorf("%w: unknown op %q", puzzle.ErrMove, op)
		}
		return nil
	}

	d, ok := parseDir(cmd[1])
	if !ok {
		return fmt.Errorf("%w: bad direction %q", puzzle.ErrMove, cmd[1])
	}
	if st.clueAdjacent(x, y, d) {
		return fmt.Errorf("%w: edge %s of (%d,%d) belongs to a clue", puzzle.ErrMove, d, x, y)
	}
	dx, dy := d.delta()
	if !st.inGrid(x+dx, y+dy) {
		// Border edges are fixed by the entry/exit layout.
		return fmt.Errorf("%w: edge %s of (%d,%d) is a border edge", puzzle.ErrMove, d, x, y)
	}
	switch op {
	case 'T':
		st.setEdge(x, y, d, 1)
	case 't':
		if st.edgeState(x, y, d) == 1 {
			st.setEdge(x, y, d, 0)
		}
	case 'N':
		st.setEdge(x, y, d, -1)
	case 'n':
		if st.edgeState(x, y, d) == -1 {
			st.setEdge(x, y, d, 0)
		}
	default:
		return fmt.Errorf("%w: unknown op %q", puzzle.ErrMove, op)
	}
	return nil
}

// applySolve replaces the whole grid with the shape digits of a solve
// move.
func (st *GameState) applySolve(body string) error {
	if len(body) != st.w*st.h {
		return fmt.Errorf("%w: solve move has %d cells, want %d", puzzle.ErrMove, len(body), st.w*st.h)
	}
	for i := 0; i < len(body); i++ {
		x, y := i%st.w, i/st.w
		c := body[i]
		if c == '0' {
			if st.sflags[i]&fClue != 0 {
				return fmt.Errorf("%w: solution clears clue at (%d,%d)", puzzle.ErrMove, x, y)
			}
			st.sflags[i] = st.sflags[i] &^ fTrack
			st.sflags[i] |= fNoTrack
			for _, d := range allDirs {
				dx, dy := d.delta()
				if st.inGrid(x+dx, y+dy) {
					st.setEdge(x, y, d, -1)
				}
			}
			continue
		}
		shape, ok := parseShape(c)
		if !ok {
			return fmt.Errorf("%w: bad shape digit %q", puzzle.ErrMove, c)
		}
		if st.sflags[i]&fClue != 0 {
			continue // clue shapes are already laid
		}
		st.sflags[i] = st.sflags[i]&^fNoTrack | fTrack
		for _, d := range allDirs {
			dx, dy := d.delta()
			inside := st.inGrid(x+dx, y+dy)
			v := -1
			if shape&d != 0 {
				v = 1
			}
			if inside || v == 1 {
				st.setEdge(x, y, d, v)
			}
		}
	}
	st.cheated = true
	return nil
}

// updateErrors recomputes error flags and the (sticky) completion
// flag.
func (st *GameState) updateErrors() {
	for i := range st.cellErr {
		st.cellErr[i] = false
	}

	// Line counts. A line errs when its track count exceeds the
	// target, or every square is decided and the count falls short.
	for y := 0; y < st.h; y++ {
		count, decided := 0, 0
		for x := 0; x < st.w; x++ {
			f := st.at(x, y)
			if f&fTrack != 0 {
				count++
			}
			if f&(fTrack|fNoTrack) != 0 {
				decided++
			}
		}
		st.rowErr[y] = count > st.rowT[y] || (decided == st.w && count != st.rowT[y])
	}
	for x := 0; x < st.w; x++ {
		count, decided := 0, 0
		for y := 0; y < st.h; y++ {
			f := st.at(x, y)
			if f&fTrack != 0 {
				count++
			}
			if f&(fTrack|fNoTrack) != 0 {
				decided++
			}
		}
		st.colErr[x] = count > st.colT[x] || (decided == st.h && count != st.colT[x])
	}

	// Over-connected squares.
	for y := 0; y < st.h; y++ {
		for x := 0; x < st.w; x++ {
			if tr, _ := st.edgeCounts(x, y); tr > 2 {
				st.cellErr[st.idx(x, y)] = true
			}
		}
	}

	// Closed loops are never legal: the solution is an open path. A
	// track edge joining two already-connected squares closes a loop;
	// every square of the offending component is flagged.
	cells := dsf.New(st.w * st.h)
	var looped []int
	for y := 0; y < st.h; y++ {
		for x := 0; x < st.w; x++ {
			for _, d := range [2]dir{dirR, dirD} {
				dx, dy := d.delta()
				if !st.inGrid(x+dx, y+dy) || st.edgeState(x, y, d) != 1 {
					continue
				}
				a, b := st.idx(x, y), st.idx(x+dx, y+dy)
				if cells.Equivalent(a, b) {
					looped = append(looped, a)
				} else {
					cells.Merge(a, b)
				}
			}
		}
	}
	for _, l := range looped {
		for i := range st.cellErr {
			x, y := i%st.w, i/st.w
			if tr, _ := st.edgeCounts(x, y); tr > 0 && cells.Equivalent(i, l) {
				st.cellErr[i] = true
			}
		}
	}

	if st.isCompletePath() {
		st.completed = true
	}
}

// isCompletePath reports whether the laid track is a winning layout.
func (st *GameState) isCompletePath() bool {
	return pathComplete(&st.board, st.rowT, st.colT, st.entryRow, st.exitCol)
}

// pathComplete walks the track from the entry edge and checks that it
// visits every track square exactly once, satisfies every line
// target, and leaves through the exit edge.
func pathComplete(b *board, rowT, colT []int, entryRow, exitCol int) bool {
	for y := 0; y < b.h; y++ {
		n := 0
		for x := 0; x < b.w; x++ {
			if b.at(x, y)&fTrack != 0 {
				n++
			}
		}
		if n != rowT[y] {
			return false
		}
	}
	total := 0
	for x := 0; x < b.w; x++ {
		n := 0
		for y := 0; y < b.h; y++ {
			if b.at(x, y)&fTrack != 0 {
				n++
			}
		}
		if n != colT[x] {
			return false
		}
		total += n
	}

	x, y := 0, entryRow
	from := dirL
	visited := 0
	for {
		if b.at(x, y)&fTrack == 0 {
			return false
		}
		tr, _ := b.edgeCounts(x, y)
		if tr != 2 {
			return false
		}
		visited++
		var out dir
		found := false
		for _, d := range allDirs {
			if d != from && b.edgeState(x, y, d) == 1 {
				out = d
				found = true
				break
			}
		}
		if !found {
			return false
		}
		dx, dy := out.delta()
		nx, ny := x+dx, y+dy
		if !b.inGrid(nx, ny) {
			return nx == x && ny == b.h && x == exitCol && visited == total
		}
		x, y, from = nx, ny, out.opposite()
		if visited > total {
			return false
		}
	}
}

// GameText renders the grid for diagnostics: one character per cell
// describing its laid track shape.
func (st *GameState) GameText() string {
	shape := map[dir]byte{
		dirU | dirD: '|',
		dirL | dirR: '-',
		dirU | dirL: 'J',
		dirU | dirR: 'L',
		dirD | dirL: '7',
		dirD | dirR: 'r',
	}
	var sb strings.Builder
	for y := 0; y < st.h; y++ {
		for x := 0; x < st.w; x++ {
			f := st.at(x, y)
			var m dir
			for _, d := range allDirs {
				if st.edgeState(x, y, d) == 1 {
					m |= d
				}
			}
			switch {
			case shape[m] != 0:
				sb.WriteByte(shape[m])
			case f&fTrack != 0:
				sb.WriteByte('*')
			case f&fNoTrack != 0:
				sb.WriteByte('x')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// solveMoveString encodes a full solution grid as a solve move.
func solveMoveString(shapes []dir) string {
	var sb strings.Builder
	sb.WriteByte('S')
	for _, s := range shapes {
		sb.WriteByte(shapeChar(s))
	}
	return sb.String()
}

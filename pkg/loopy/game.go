package loopy

import (
	"fmt"
	"strings"

	"github.com/gitrdm/gridlogic/pkg/dsf"
	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// line is the tri-state of one grid edge.
type line int8

const (
	lineUnknown line = iota
	lineYes
	lineNo
)

// opp flips YES and NO; it must not be called on lineUnknown.
func opp(l line) line { return 3 - l }

const noClue = int8(-1)

// GameState is one position in a game's history. The clue array is
// shared between a state and its descendants.
type GameState struct {
	geom
	clues     []int8
	lines     []line
	lineErr   []bool
	faceErr   []bool
	completed bool
	cheated   bool
}

// ValidateDesc checks a descriptor without building a state.
func ValidateDesc(p Params, desc string) error {
	_, err := decodeDesc(p, desc)
	return err
}

func decodeDesc(p Params, desc string) ([]int8, error) {
	nf := p.W * p.H
	clues := make([]int8, nf)
	for i := range clues {
		clues[i] = noClue
	}
	pos := 0
	for i := 0; i < len(desc); i++ {
		c := desc[i]
		if n := puzzle.EmptyRunLen(c); n > 0 {
			pos += n
			if pos > nf {
				return nil, fmt.Errorf("%w: clue data past end", puzzle.ErrDescriptor)
			}
			continue
		}
		if c < '0' || c > '4' {
			return nil, fmt.Errorf("%w: illegal character %q", puzzle.ErrDescriptor, c)
		}
		if pos >= nf {
			return nil, fmt.Errorf("%w: clue data past end", puzzle.ErrDescriptor)
		}
		clues[pos] = int8(c - '0')
		pos++
	}
	if pos != nf {
		return nil, fmt.Errorf("%w: clue data decodes to %d faces, want %d", puzzle.ErrDescriptor, pos, nf)
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
		out = append(out, byte('0'+c))
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
	g := geom{w: p.W, h: p.H}
	st := &GameState{
		geom:    g,
		clues:   clues,
		lines:   make([]line, g.numEdges()),
		lineErr: make([]bool, g.numEdges()),
		faceErr: make([]bool, g.numFaces()),
	}
	return st, nil
}

// DupGame clones a state; clues are shared.
func (st *GameState) DupGame() *GameState {
	return &GameState{
		geom:      st.geom,
		clues:     st.clues,
		lines:     append([]line(nil), st.lines...),
		lineErr:   append([]bool(nil), st.lineErr...),
		faceErr:   append([]bool(nil), st.faceErr...),
		completed: st.completed,
		cheated:   st.cheated,
	}
}

// Completed reports whether this state has ever been a winning
// position; the flag is sticky.
func (st *GameState) Completed() bool { return st.completed }

// LineError reports the validator's error flag for an edge.
func (st *GameState) LineError(e int) bool { return st.lineErr[e] }

// FaceError reports whether a face's clue is currently violated.
func (st *GameState) FaceError(x, y int) bool { return st.faceErr[y*st.w+x] }

// ExecuteMove applies a move string and returns the new state. The
// move is a concatenation of "<edge><mark>" commands where mark is
// 'y', 'n' or 'u'; a leading 'S' marks the whole string as an
// authoritative solution.
func (st *GameState) ExecuteMove(move string) (*GameState, error) {
	dup := st.DupGame()
	i := 0
	if i < len(move) && move[i] == 'S' {
		dup.cheated = true
		i++
	}
	for i < len(move) {
		start := i
		for i < len(move) && move[i] >= '0' && move[i] <= '9' {
			i++
		}
		if i == start || i == len(move) {
			return nil, fmt.Errorf("%w: truncated command at %q", puzzle.ErrMove, move[start:])
		}
		e := 0
		for _, c := range move[start:i] {
			e = e*10 + int(c-'0')
		}
		if e >= st.numEdges() {
			return nil, fmt.Errorf("%w: edge %d outside grid", puzzle.ErrMove, e)
		}
		switch move[i] {
		case 'y':
			dup.lines[e] = lineYes
		case 'n':
			dup.lines[e] = lineNo
		case 'u':
			dup.lines[e] = lineUnknown
		default:
			return nil, fmt.Errorf("%w: unknown mark %q", puzzle.ErrMove, move[i])
		}
		i++
	}
	dup.updateErrors()
	return dup, nil
}

// updateErrors recomputes error flags and the (sticky) completion
// flag.
func (st *GameState) updateErrors() {
	for i := range st.lineErr {
		st.lineErr[i] = false
	}

	deg := make([]int, st.numDots())
	yesTotal := 0
	for e, l := range st.lines {
		if l != lineYes {
			continue
		}
		d1, d2 := st.edgeDots(e)
		deg[d1]++
		deg[d2]++
		yesTotal++
	}

	// Branching: more than two lines into a dot can never be part of
	// any loop.
	degsOK := true
	for e, l := range st.lines {
		if l != lineYes {
			continue
		}
		d1, d2 := st.edgeDots(e)
		if deg[d1] > 2 || deg[d2] > 2 {
			st.lineErr[e] = true
		}
		if deg[d1] != 2 || deg[d2] != 2 {
			degsOK = false
		}
	}

	// Clue satisfaction.
	cluesOK := true
	for f, c := range st.clues {
		yes, no := st.faceCounts(f)
		st.faceErr[f] = c >= 0 && (int(c) < yes || 4-int(c) < no)
		if c >= 0 && yes != int(c) {
			cluesOK = false
		}
	}

	// Group the laid lines into components and find the closed ones.
	dots := dsf.New(st.numDots())
	closed := make(map[int]bool)
	compEdges := make(map[int]int)
	for e, l := range st.lines {
		if l != lineYes {
			continue
		}
		d1, d2 := st.edgeDots(e)
		if dots.Equivalent(d1, d2) {
			closed[dots.Canonify(d1)] = true
		} else {
			dots.Merge(d1, d2)
		}
	}
	for e, l := range st.lines {
		if l != lineYes {
			continue
		}
		d1, _ := st.edgeDots(e)
		compEdges[dots.Canonify(d1)]++
	}

	oneLoop := len(compEdges) == 1 && degsOK && yesTotal > 0
	if oneLoop && cluesOK {
		st.completed = true
	}

	// A closed loop that is not the (unique, clue-satisfying) solution
	// is always a mistake worth flagging.
	if len(closed) > 0 && !(oneLoop && cluesOK) {
		for e, l := range st.lines {
			if l != lineYes {
				continue
			}
			d1, _ := st.edgeDots(e)
			if closed[dots.Canonify(d1)] {
				st.lineErr[e] = true
			}
		}
	}
}

// faceCounts returns the YES and NO edge counts around a face.
func (st *GameState) faceCounts(f int) (yes, no int) {
	for _, e := range st.faceEdges(f) {
		switch st.lines[e] {
		case lineYes:
			yes++
		case lineNo:
			no++
		}
	}
	return yes, no
}

// GameText renders the grid for diagnostics.
func (st *GameState) GameText() string {
	var sb strings.Builder
	for y := 0; y <= st.h; y++ {
		for x := 0; x < st.w; x++ {
			sb.WriteByte('+')
			switch st.lines[st.hEdge(x, y)] {
			case lineYes:
				sb.WriteByte('-')
			case lineNo:
				sb.WriteByte('x')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('+')
		sb.WriteByte('\n')
		if y == st.h {
			break
		}
		for x := 0; x <= st.w; x++ {
			switch st.lines[st.vEdge(x, y)] {
			case lineYes:
				sb.WriteByte('|')
			case lineNo:
				sb.WriteByte('x')
			default:
				sb.WriteByte(' ')
			}
			if x < st.w {
				if c := st.clues[y*st.w+x]; c >= 0 {
					sb.WriteByte(byte('0' + c))
				} else {
					sb.WriteByte(' ')
				}
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// solveMoveString encodes every determined edge of a line array as an
// authoritative solve move.
func solveMoveString(lines []line) string {
	var sb strings.Builder
	sb.WriteByte('S')
	for e, l := range lines {
		switch l {
		case lineYes:
			fmt.Fprintf(&sb, "%dy", e)
		case lineNo:
			fmt.Fprintf(&sb, "%dn", e)
		}
	}
	return sb.String()
}

// Package tracks implements the solver and generator for the train
// tracks puzzle: lay a single track path entering the grid on its left
// edge and leaving on its bottom edge, passing through every clue
// square, with row and column counts matching their targets.
//
// Cells carry a tri-state (track, no-track, undecided) and each of
// their four edges carries its own tri-state; an edge is shared with
// the neighbouring cell and every update is symmetric. The solver runs
// three tiers: Easy (local exhaustion, count saturation, loop
// prevention via a cell DSF), Tricky (through-direction consumption
// and loose-end lookahead) and Hard (boundary parity and bridge
// forcing via the findloop bridge detector).
package tracks

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// Params describes an instance family.
type Params struct {
	W, H int
	Diff puzzle.Difficulty
}

// DefaultParams returns the standard 8x8 Tricky preset.
func DefaultParams() Params {
	return Params{W: 8, H: 8, Diff: puzzle.Tricky}
}

// Validate rejects parameter sets this puzzle cannot realise.
func (p Params) Validate() error {
	if p.W < 4 || p.H < 4 {
		return fmt.Errorf("%w: width and height must be at least 4", puzzle.ErrParams)
	}
	switch p.Diff {
	case puzzle.Easy, puzzle.Tricky, puzzle.Hard:
		return nil
	}
	return fmt.Errorf("%w: difficulty must be Easy, Tricky or Hard", puzzle.ErrParams)
}

// String encodes the parameters as WxHd<code>.
func (p Params) String() string {
	return fmt.Sprintf("%dx%dd%c", p.W, p.H, p.Diff.Code())
}

// ParseParams decodes a WxH[d<code>] parameter string.
func ParseParams(s string) (Params, error) {
	p := DefaultParams()
	xi := strings.IndexByte(s, 'x')
	if xi < 0 {
		return p, fmt.Errorf("%w: missing 'x' in %q", puzzle.ErrParams, s)
	}
	w, err := strconv.Atoi(s[:xi])
	if err != nil {
		return p, fmt.Errorf("%w: bad width in %q", puzzle.ErrParams, s)
	}
	rest := s[xi+1:]
	hEnd := 0
	for hEnd < len(rest) && rest[hEnd] >= '0' && rest[hEnd] <= '9' {
		hEnd++
	}
	h, err := strconv.Atoi(rest[:hEnd])
	if err != nil {
		return p, fmt.Errorf("%w: bad height in %q", puzzle.ErrParams, s)
	}
	p.W, p.H = w, h
	rest = rest[hEnd:]
	if len(rest) > 0 {
		if rest[0] != 'd' || len(rest) != 2 {
			return p, fmt.Errorf("%w: trailing junk %q", puzzle.ErrParams, rest)
		}
		d, ok := puzzle.ParseDifficulty(rest[1])
		if !ok {
			return p, fmt.Errorf("%w: unknown difficulty %q", puzzle.ErrParams, rest[1])
		}
		p.Diff = d
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// dir is an edge direction bitmask; a cell's track shape is the union
// of the two directions its track leaves by.
type dir uint8

const (
	dirU dir = 1 << iota
	dirD
	dirL
	dirR
)

var allDirs = [4]dir{dirU, dirD, dirL, dirR}

func (d dir) opposite() dir {
	switch d {
	case dirU:
		return dirD
	case dirD:
		return dirU
	case dirL:
		return dirR
	default:
		return dirL
	}
}

func (d dir) delta() (dx, dy int) {
	switch d {
	case dirU:
		return 0, -1
	case dirD:
		return 0, 1
	case dirL:
		return -1, 0
	default:
		return 1, 0
	}
}

func (d dir) String() string {
	switch d {
	case dirU:
		return "U"
	case dirD:
		return "D"
	case dirL:
		return "L"
	default:
		return "R"
	}
}

func parseDir(c byte) (dir, bool) {
	switch c {
	case 'U':
		return dirU, true
	case 'D':
		return dirD, true
	case 'L':
		return dirL, true
	case 'R':
		return dirR, true
	}
	return 0, false
}

// Cell flag layout: square state in the low bits, per-edge track bits
// shifted by edgeTrackShift, per-edge no-track bits by edgeNoShift.
const (
	fTrack   uint16 = 1 << 0 // square certainly carries track
	fNoTrack uint16 = 1 << 1 // square certainly carries none
	fClue    uint16 = 1 << 2 // square fixed by the descriptor

	edgeTrackShift = 4
	edgeNoShift    = 8
	edgeMask       = 0xf
)

func edgeTrackBit(d dir) uint16 { return uint16(d) << edgeTrackShift }
func edgeNoBit(d dir) uint16    { return uint16(d) << edgeNoShift }

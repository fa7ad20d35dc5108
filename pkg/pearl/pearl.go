// Package pearl implements the solver and generator for the
// pearl-clue loop puzzle (masyu): draw a single closed loop through
// cell centres so that the loop turns in every corner-clue cell with
// straights on both sides, and runs straight through every
// straight-clue cell with a turn on at least one side.
//
// A cell's loop shape is a bitmask of the two directions the loop
// leaves it by; the solver works on a per-cell set of candidate
// shapes and narrows it by edge knowledge, clue reasoning and
// shortcut-loop prevention.
package pearl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// Direction bits. A cell's loop shape ORs exactly two of them; blank
// cells carry none.
const (
	dirR uint8 = 1 << iota
	dirU
	dirL
	dirD
)

const blank uint8 = 0

// flip reverses a direction set; cw and acw rotate it a quarter turn.
func flip(d uint8) uint8 { return ((d << 2) | (d >> 2)) & 0xF }
func cw(d uint8) uint8   { return ((d << 3) | (d >> 1)) & 0xF }
func acw(d uint8) uint8  { return ((d << 1) | (d >> 3)) & 0xF }

func dx(d uint8) int { return boolInt(d == dirR) - boolInt(d == dirL) }
func dy(d uint8) int { return boolInt(d == dirD) - boolInt(d == dirU) }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// State-set bits: bit (1<<shape) marks shape as still possible for a
// cell. maxShape bounds the shape values (L|D = 12).
const (
	maskStraights = 1<<(dirL|dirR) | 1<<(dirU|dirD)
	maskCorners   = 1<<(dirL|dirU) | 1<<(dirL|dirD) | 1<<(dirR|dirU) | 1<<(dirR|dirD)
	maskBlank     = 1 << blank
	maxShape      = int(dirL | dirD)
)

// Clue is the hint type carried by a cell.
type Clue int8

const (
	NoClue   Clue = iota
	Corner        // loop turns here, straights on both sides
	Straight      // loop runs straight here, corner on at least one side
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
	if p.W < 5 || p.H < 5 {
		return fmt.Errorf("%w: width and height must be at least 5", puzzle.ErrParams)
	}
	switch p.Diff {
	case puzzle.Easy, puzzle.Tricky:
	default:
		return fmt.Errorf("%w: difficulty must be Easy or Tricky", puzzle.ErrParams)
	}
	if p.Diff == puzzle.Tricky && p.W+p.H < 11 {
		return fmt.Errorf("%w: width or height must be at least 6 for Tricky", puzzle.ErrParams)
	}
	return nil
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

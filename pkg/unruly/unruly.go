// Package unruly implements the solver and generator for the binary
// grid puzzle: fill a W×H grid with 0s and 1s so that every row and
// column contains equally many of each and no three equal digits are
// adjacent. The optional "unique" variant additionally forbids two
// identical rows or two identical columns.
//
// The solver is a tiered constraint-propagation engine (Trivial, Easy,
// Normal); the generator seeds a full solution with solver assistance,
// then strips clues while the instance stays uniquely solvable at the
// target difficulty and rejects instances solvable one tier below it.
package unruly

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// Params describes an instance family: grid dimensions, the variant
// flag, and the target difficulty for generation.
type Params struct {
	W, H   int
	Unique bool
	Diff   puzzle.Difficulty
}

// DefaultParams returns the standard 8x8 Normal preset.
func DefaultParams() Params {
	return Params{W: 8, H: 8, Diff: puzzle.Normal}
}

// maxDistinctRows[n] is the number of distinct balanced binary rows of
// length 2n with no three adjacent equal digits (OEIS A177790). In
// unique mode a grid taller than this count of rows cannot exist.
func maxDistinctRows(halfLen int) int {
	if halfLen < 1 {
		return 1
	}
	a, b := 2, 4
	if halfLen == 1 {
		return a
	}
	for i := 2; i < halfLen; i++ {
		a, b = b, a+b
	}
	return b
}

// Validate rejects parameter sets this puzzle cannot realise.
func (p Params) Validate() error {
	if p.W < 6 || p.H < 6 {
		return fmt.Errorf("%w: width and height must be at least 6", puzzle.ErrParams)
	}
	if p.W%2 != 0 || p.H%2 != 0 {
		return fmt.Errorf("%w: width and height must be even", puzzle.ErrParams)
	}
	if p.Diff < puzzle.Trivial || p.Diff > puzzle.Normal {
		return fmt.Errorf("%w: difficulty must be Trivial, Easy or Normal", puzzle.ErrParams)
	}
	if p.Unique {
		if maxDistinctRows(p.W/2) < p.H || maxDistinctRows(p.H/2) < p.W {
			return fmt.Errorf("%w: grid too large for mutually distinct rows and columns", puzzle.ErrParams)
		}
	}
	return nil
}

// String encodes the parameters as WxH[u][d<code>].
func (p Params) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%dx%d", p.W, p.H)
	if p.Unique {
		sb.WriteByte('u')
	}
	sb.WriteByte('d')
	sb.WriteByte(p.Diff.Code())
	return sb.String()
}

// ParseParams decodes a WxH[u][d<code>] parameter string.
func ParseParams(s string) (Params, error) {
	p := DefaultParams()
	rest := s

	xi := strings.IndexByte(rest, 'x')
	if xi < 0 {
		return p, fmt.Errorf("%w: missing 'x' in %q", puzzle.ErrParams, s)
	}
	w, err := strconv.Atoi(rest[:xi])
	if err != nil {
		return p, fmt.Errorf("%w: bad width in %q", puzzle.ErrParams, s)
	}
	rest = rest[xi+1:]
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

	for len(rest) > 0 {
		switch rest[0] {
		case 'u':
			p.Unique = true
			rest = rest[1:]
		case 'd':
			if len(rest) < 2 {
				return p, fmt.Errorf("%w: missing difficulty code in %q", puzzle.ErrParams, s)
			}
			d, ok := puzzle.ParseDifficulty(rest[1])
			if !ok {
				return p, fmt.Errorf("%w: unknown difficulty %q", puzzle.ErrParams, rest[1])
			}
			p.Diff = d
			rest = rest[2:]
		default:
			return p, fmt.Errorf("%w: unexpected character %q in %q", puzzle.ErrParams, rest[0], s)
		}
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

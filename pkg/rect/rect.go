// Package rect implements the solver and generator for the rectangle
// dissection puzzle: partition the grid into rectangles so that each
// rectangle contains exactly one numeric clue, equal to its area.
package rect

import (
	"fmt"
	"strconv"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// Params describes an instance family. Expand stretches generated
// grids: the base layout is built on a grid smaller by a factor of
// 1+Expand and then inflated, which favours long thin rectangles.
// Unique makes the generator insist on a single solution.
type Params struct {
	W, H   int
	Expand float64
	Unique bool
}

// DefaultParams returns the classic 7x7 board.
func DefaultParams() Params {
	return Params{W: 7, H: 7, Unique: true}
}

// Validate rejects parameter sets this puzzle cannot realise.
func (p Params) Validate() error {
	if p.W < 1 || p.H < 1 {
		return fmt.Errorf("%w: width and height must be at least 1", puzzle.ErrParams)
	}
	if p.W*p.H < 2 {
		return fmt.Errorf("%w: grid area must be greater than one", puzzle.ErrParams)
	}
	if p.Expand < 0 {
		return fmt.Errorf("%w: expansion factor may not be negative", puzzle.ErrParams)
	}
	return nil
}

// String encodes the parameters as WxH, with eF appended for a
// nonzero expansion factor and a trailing 'a' when any solution is
// accepted.
func (p Params) String() string {
	s := fmt.Sprintf("%dx%d", p.W, p.H)
	if p.Expand != 0 {
		s += "e" + strconv.FormatFloat(p.Expand, 'g', -1, 64)
	}
	if !p.Unique {
		s += "a"
	}
	return s
}

// ParseParams decodes a parameter string. A lone number N means NxN;
// 'x' introduces the height, 'e' the expansion factor, and a final
// 'a' drops the uniqueness requirement.
func ParseParams(s string) (Params, error) {
	p := Params{Unique: true}
	num := func() (int, bool) {
		end := 0
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		v, err := strconv.Atoi(s[:end])
		s = s[end:]
		return v, err == nil
	}

	n, ok := num()
	if !ok {
		return p, fmt.Errorf("%w: missing width", puzzle.ErrParams)
	}
	p.W, p.H = n, n
	if len(s) > 0 && s[0] == 'x' {
		s = s[1:]
		if p.H, ok = num(); !ok {
			return p, fmt.Errorf("%w: bad height", puzzle.ErrParams)
		}
	}
	if len(s) > 0 && s[0] == 'e' {
		s = s[1:]
		end := 0
		for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
			end++
		}
		f, err := strconv.ParseFloat(s[:end], 64)
		if err != nil {
			return p, fmt.Errorf("%w: bad expansion factor", puzzle.ErrParams)
		}
		p.Expand = f
		s = s[end:]
	}
	if len(s) > 0 && s[0] == 'a' {
		s = s[1:]
		p.Unique = false
	}
	if len(s) > 0 {
		return p, fmt.Errorf("%w: trailing junk %q", puzzle.ErrParams, s)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

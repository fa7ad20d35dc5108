// Package palisade implements the solver and generator for the grid
// partition puzzle (Nikoli's Five Cells): draw borders dividing the
// grid into regions of exactly k cells each, where a clue gives the
// number of borders around its cell (grid edges included).
package palisade

import (
	"fmt"
	"strconv"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// Border bits. The low nybble of a cell's border flags holds drawn
// borders; the high nybble holds player marks for edges known to
// carry no border.
const (
	borderU uint8 = 1 << iota
	borderR
	borderD
	borderL
)

const borderMask uint8 = borderU | borderR | borderD | borderL

func borderBit(dir int) uint8 { return 1 << dir }
func disabled(b uint8) uint8  { return b << 4 }

// flipDir maps a direction index to its opposite (U<->D, R<->L).
func flipDir(dir int) int { return dir ^ 2 }

var (
	dirDX = [4]int{0, +1, 0, -1}
	dirDY = [4]int{-1, 0, +1, 0}
)

// Params describes an instance family: grid size and region size.
type Params struct {
	W, H, K int
}

// DefaultParams returns the classic 5x5 board with regions of five.
func DefaultParams() Params {
	return Params{W: 5, H: 5, K: 5}
}

// Validate rejects parameter sets this puzzle cannot realise.
func (p Params) Validate() error {
	if p.W < 1 || p.H < 1 {
		return fmt.Errorf("%w: width and height must be at least 1", puzzle.ErrParams)
	}
	if p.K < 1 {
		return fmt.Errorf("%w: region size must be at least 1", puzzle.ErrParams)
	}
	wh := p.W * p.H
	if wh%p.K != 0 {
		return fmt.Errorf("%w: region size must divide the grid area", puzzle.ErrParams)
	}
	if p.K == wh {
		return fmt.Errorf("%w: region size must be less than the grid area", puzzle.ErrParams)
	}
	// The only domino tiling deductions can distinguish are the
	// one-dimensional ones; see the ambiguous 2x2 pair of dominoes.
	if p.K == 2 && p.W != 1 && p.H != 1 {
		return fmt.Errorf("%w: region size 2 needs width or height 1", puzzle.ErrParams)
	}
	return nil
}

// String encodes the parameters as WxHnK.
func (p Params) String() string {
	return fmt.Sprintf("%dx%dn%d", p.W, p.H, p.K)
}

// ParseParams decodes a parameter string. A lone number N means
// NxNnN; 'x' introduces the height and 'n' the region size.
func ParseParams(s string) (Params, error) {
	var p Params
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
	p.W, p.H, p.K = n, n, n
	if len(s) > 0 && s[0] == 'x' {
		s = s[1:]
		if p.H, ok = num(); !ok {
			return p, fmt.Errorf("%w: bad height", puzzle.ErrParams)
		}
	}
	if len(s) > 0 && s[0] == 'n' {
		s = s[1:]
		if p.K, ok = num(); !ok {
			return p, fmt.Errorf("%w: bad region size", puzzle.ErrParams)
		}
	}
	if len(s) > 0 {
		return p, fmt.Errorf("%w: trailing junk %q", puzzle.ErrParams, s)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

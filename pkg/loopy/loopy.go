// Package loopy implements the solver and generator for the loop
// puzzle on a square grid: draw a single closed loop along grid edges
// so that every numbered face has exactly that many of its four edges
// on the loop.
//
// Faces, dots and edges are indexed flat. Horizontal edges come first
// (w per row, h+1 rows), then vertical edges (w+1 per row, h rows).
// The solver keeps per-face and per-dot YES/NO counts, a dot DSF for
// loop tracking, "dline" flags recording at-least-one/at-most-one
// knowledge about adjacent edge pairs, and an edge-signed DSF relating
// edges known to be identical or opposite.
package loopy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// Params describes an instance family. Depth is the recursion budget
// for the bifurcating solver; zero disables trial-and-error entirely,
// which matches what the generator requires of its instances.
type Params struct {
	W, H  int
	Diff  puzzle.Difficulty
	Depth int
}

// DefaultParams returns the standard 7x7 Easy preset.
func DefaultParams() Params {
	return Params{W: 7, H: 7, Diff: puzzle.Easy}
}

// Validate rejects parameter sets this puzzle cannot realise.
func (p Params) Validate() error {
	if p.W < 4 || p.H < 4 {
		return fmt.Errorf("%w: width and height must be at least 4", puzzle.ErrParams)
	}
	switch p.Diff {
	case puzzle.Easy, puzzle.Normal, puzzle.Tricky, puzzle.Hard:
	default:
		return fmt.Errorf("%w: difficulty must be Easy, Normal, Tricky or Hard", puzzle.ErrParams)
	}
	if p.Depth < 0 {
		return fmt.Errorf("%w: negative recursion depth", puzzle.ErrParams)
	}
	return nil
}

// String encodes the parameters as WxHd<code>[r<depth>].
func (p Params) String() string {
	s := fmt.Sprintf("%dx%dd%c", p.W, p.H, p.Diff.Code())
	if p.Depth > 0 {
		s += fmt.Sprintf("r%d", p.Depth)
	}
	return s
}

// ParseParams decodes a WxH[d<code>][r<depth>] parameter string.
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
	for len(rest) > 0 {
		switch rest[0] {
		case 'd':
			if len(rest) < 2 {
				return p, fmt.Errorf("%w: truncated difficulty", puzzle.ErrParams)
			}
			d, ok := puzzle.ParseDifficulty(rest[1])
			if !ok {
				return p, fmt.Errorf("%w: unknown difficulty %q", puzzle.ErrParams, rest[1])
			}
			p.Diff = d
			rest = rest[2:]
		case 'r':
			rest = rest[1:]
			end := 0
			for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
				end++
			}
			n, err := strconv.Atoi(rest[:end])
			if err != nil {
				return p, fmt.Errorf("%w: bad recursion depth", puzzle.ErrParams)
			}
			p.Depth = n
			rest = rest[end:]
		default:
			return p, fmt.Errorf("%w: trailing junk %q", puzzle.ErrParams, rest)
		}
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// geom carries the square-grid index arithmetic shared by game states
// and solver scratch.
type geom struct {
	w, h int
}

func (g geom) numFaces() int { return g.w * g.h }
func (g geom) numDots() int  { return (g.w + 1) * (g.h + 1) }
func (g geom) numEdges() int { return g.w*(g.h+1) + (g.w+1)*g.h }

// hEdge is the edge between dots (x,y) and (x+1,y); x in [0,w), y in
// [0,h].
func (g geom) hEdge(x, y int) int { return y*g.w + x }

// vEdge is the edge between dots (x,y) and (x,y+1); x in [0,w], y in
// [0,h).
func (g geom) vEdge(x, y int) int { return g.w*(g.h+1) + y*(g.w+1) + x }

func (g geom) isHEdge(e int) bool { return e < g.w*(g.h+1) }

func (g geom) dot(x, y int) int { return y*(g.w+1) + x }

// edgeDots returns the two endpoint dots of an edge.
func (g geom) edgeDots(e int) (int, int) {
	if g.isHEdge(e) {
		x, y := e%g.w, e/g.w
		return g.dot(x, y), g.dot(x+1, y)
	}
	e -= g.w * (g.h + 1)
	x, y := e%(g.w+1), e/(g.w+1)
	return g.dot(x, y), g.dot(x, y+1)
}

// edgeFaces returns the two faces an edge borders, -1 for the grid
// exterior.
func (g geom) edgeFaces(e int) (int, int) {
	if g.isHEdge(e) {
		x, y := e%g.w, e/g.w
		above, below := -1, -1
		if y > 0 {
			above = (y-1)*g.w + x
		}
		if y < g.h {
			below = y*g.w + x
		}
		return above, below
	}
	e -= g.w * (g.h + 1)
	x, y := e%(g.w+1), e/(g.w+1)
	left, right := -1, -1
	if x > 0 {
		left = y*g.w + (x - 1)
	}
	if x < g.w {
		right = y*g.w + x
	}
	return left, right
}

// faceEdges returns a face's four edges clockwise from the top.
func (g geom) faceEdges(f int) [4]int {
	x, y := f%g.w, f/g.w
	return [4]int{
		g.hEdge(x, y),   // top
		g.vEdge(x+1, y), // right
		g.hEdge(x, y+1), // bottom
		g.vEdge(x, y),   // left
	}
}

// faceDot returns the dot shared by face edges j and j+1 (clockwise).
func (g geom) faceDot(f, j int) int {
	x, y := f%g.w, f/g.w
	switch j & 3 {
	case 0: // top, right
		return g.dot(x+1, y)
	case 1: // right, bottom
		return g.dot(x+1, y+1)
	case 2: // bottom, left
		return g.dot(x, y+1)
	default: // left, top
		return g.dot(x, y)
	}
}

// dotEdges returns the edges meeting at a dot, cyclically ordered
// (up, right, down, left) with absent border edges skipped.
func (g geom) dotEdges(d int) []int {
	x, y := d%(g.w+1), d/(g.w+1)
	out := make([]int, 0, 4)
	if y > 0 {
		out = append(out, g.vEdge(x, y-1))
	}
	if x < g.w {
		out = append(out, g.hEdge(x, y))
	}
	if y < g.h {
		out = append(out, g.vEdge(x, y))
	}
	if x > 0 {
		out = append(out, g.hEdge(x-1, y))
	}
	return out
}

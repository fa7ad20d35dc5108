package palisade

import (
	"fmt"
	"math/bits"

	"github.com/gitrdm/gridlogic/pkg/dsf"
	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// The solver keeps two views of the board. Drawn borders live in the
// border grid; known connections live in a cell DSF, so "these cells
// share a region" propagates transitively for free. An edge with
// neither a border nor a connection is still open.
type solver struct {
	w, h, k int
	clues   []int8
	borders []uint8
	regions *dsf.DSF
}

func newSolverState(p Params, clues []int8, borders []uint8) *solver {
	return &solver{
		w: p.W, h: p.H, k: p.K,
		clues:   clues,
		borders: borders,
		regions: dsf.New(p.W * p.H),
	}
}

func (s *solver) connect(i, j int) {
	s.regions.Merge(i, j)
}

// connected must only be asked about in-grid neighbours.
func (s *solver) connected(i, j int) bool {
	return s.regions.Canonify(i) == s.regions.Canonify(j)
}

func (s *solver) disconnect(x, y, dir int) {
	s.borders[y*s.w+x] |= borderBit(dir)
	nx, ny := x+dirDX[dir], y+dirDY[dir]
	if nx >= 0 && nx < s.w && ny >= 0 && ny < s.h {
		s.borders[ny*s.w+nx] |= borderBit(flipDir(dir))
	}
}

func (s *solver) disconnected(x, y, dir int) bool {
	return s.borders[y*s.w+x]&borderBit(dir) != 0
}

// maybe reports whether the edge is still open. The rim is preset
// with borders, so a disconnected check covers off-grid directions
// before the DSF is consulted.
func (s *solver) maybe(x, y, dir int) bool {
	if s.disconnected(x, y, dir) {
		return false
	}
	i := y*s.w + x
	return !s.connected(i, i+dirDX[dir]+s.w*dirDY[dir])
}

// adjacentCluePairs is a one-shot rule: if cells i and j are adjacent
// clues without a border between them, their shared region holds at
// least (4-clue(i)) + (4-clue(j)) cells; and a pair of 3s caps it at
// two. Draw the border when either bound contradicts k.
func (s *solver) adjacentCluePairs() {
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			ci := s.clues[y*s.w+x]
			if ci == noClue {
				continue
			}
			for dir := 0; dir < 4; dir++ {
				if s.disconnected(x, y, dir) {
					continue
				}
				nx, ny := x+dirDX[dir], y+dirDY[dir]
				cj := s.clues[ny*s.w+nx]
				if cj == noClue {
					continue
				}
				if int(8-ci-cj) > s.k || (ci == 3 && cj == 3 && s.k != 2) {
					s.disconnect(x, y, dir)
				}
			}
		}
	}
}

// numberExhausted finishes off clue cells: a clue with all its
// borders drawn connects everywhere else, and a clue with enough
// connections gets its remaining edges drawn.
func (s *solver) numberExhausted() bool {
	changed := false
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			i := y*s.w + x
			ci := s.clues[i]
			if ci == noClue {
				continue
			}

			if bits.OnesCount8(s.borders[i]&borderMask) == int(ci) {
				for dir := 0; dir < 4; dir++ {
					if !s.maybe(x, y, dir) {
						continue
					}
					s.connect(i, i+dirDX[dir]+s.w*dirDY[dir])
					changed = true
				}
				continue
			}

			off := 0
			for dir := 0; dir < 4; dir++ {
				if !s.disconnected(x, y, dir) &&
					s.connected(i, i+dirDX[dir]+s.w*dirDY[dir]) {
					off++
				}
			}
			if int(ci) == 4-off {
				for dir := 0; dir < 4; dir++ {
					if !s.maybe(x, y, dir) {
						continue
					}
					s.disconnect(x, y, dir)
					changed = true
				}
			}
		}
	}
	return changed
}

// notTooBig draws a border wherever joining two regions would exceed k.
func (s *solver) notTooBig() bool {
	changed := false
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			i := y*s.w + x
			size := s.regions.Size(i)
			for dir := 0; dir < 4; dir++ {
				if !s.maybe(x, y, dir) {
					continue
				}
				j := i + dirDX[dir] + s.w*dirDY[dir]
				if size+s.regions.Size(j) <= s.k {
					continue
				}
				s.disconnect(x, y, dir)
				changed = true
			}
		}
	}
	return changed
}

// notTooSmall grows a region with a single way out into its one
// possible neighbour.
func (s *solver) notTooSmall() bool {
	wh := s.w * s.h
	outs := make([]int, wh)
	for i := range outs {
		outs[i] = -1
	}

	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			i := y*s.w + x
			ci := s.regions.Canonify(i)
			if s.regions.Size(ci) == s.k {
				continue
			}
			for dir := 0; dir < 4; dir++ {
				if !s.maybe(x, y, dir) {
					continue
				}
				cj := s.regions.Canonify(i + dirDX[dir] + s.w*dirDY[dir])
				if outs[ci] == -1 {
					outs[ci] = cj
				} else if outs[ci] != cj {
					outs[ci] = -2
				}
			}
		}
	}

	changed := false
	for i := 0; i < wh; i++ {
		if s.regions.Canonify(i) != i || outs[i] < 0 {
			continue
		}
		s.connect(i, outs[i])
		changed = true
	}
	return changed
}

// noDanglingEdges: at a vertex with exactly two edges still in play,
// a border on one forces a border on the other, since border lines
// cannot stop dead. (Three settled edges at a vertex decide the
// fourth through the DSF on their own.)
func (s *solver) noDanglingEdges() bool {
	changed := false
	for r := 1; r < s.h; r++ {
		for c := 1; c < s.w; c++ {
			i := r*s.w + c
			j := i - s.w - 1
			// Edge dir of square sq[dir] is incident to vertex (c,r).
			sq := [4]int{i, j, j, i}

			open, e, f, de, df := 0, -1, -1, -1, -1
			for dir := 0; dir < 4; dir++ {
				if !s.connected(sq[dir], sq[dir]+dirDX[dir]+s.w*dirDY[dir]) {
					open++
					f, df = sq[dir], dir
					if e == -1 {
						e, de = f, df
					}
				}
			}
			if open != 2 {
				continue
			}

			eOn := s.borders[e]&borderBit(de) != 0
			fOn := s.borders[f]&borderBit(df) != 0
			if eOn && !fOn {
				s.disconnect(f%s.w, f/s.w, df)
				changed = true
			} else if fOn && !eOn {
				s.disconnect(e%s.w, e/s.w, de)
				changed = true
			}
		}
	}
	return changed
}

// equivalentEdges: two open edges from a clue cell into the same
// region are both on or both off, so a clue that cannot afford both
// connects them, and one that cannot spare both draws them.
func (s *solver) equivalentEdges() bool {
	changed := false
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			i := y*s.w + x
			ci := s.clues[i]
			if ci < 1 || ci > 3 {
				continue
			}

			nOn, nOff := 0, 0
			if ci == 2 {
				for dir := 0; dir < 4; dir++ {
					if s.disconnected(x, y, dir) {
						nOn++
					} else if s.connected(i, i+dirDX[dir]+s.w*dirDY[dir]) {
						nOff++
					}
				}
			}

			for dj := 0; dj < 4; dj++ {
				if !s.maybe(x, y, dj) {
					continue
				}
				j := i + dirDX[dj] + s.w*dirDY[dj]
				for dk := dj + 1; dk < 4; dk++ {
					if !s.maybe(x, y, dk) {
						continue
					}
					k := i + dirDX[dk] + s.w*dirDY[dk]
					if !s.connected(j, k) {
						continue
					}

					if nOn+2 > int(ci) {
						s.connect(i, j)
						s.connect(i, k)
						changed = true
					} else if nOff+2 > 4-int(ci) {
						s.disconnect(x, y, dj)
						s.disconnect(x, y, dk)
						changed = true
					}
				}
			}
		}
	}
	return changed
}

// solveClues runs the deduction rules to a fixpoint over borders
// (which must start as the rim grid) and reports whether they reach a
// winning division. Drawn borders accumulate in borders.
func solveClues(p Params, clues []int8, borders []uint8) bool {
	s := newSolverState(p, clues, borders)

	s.adjacentCluePairs()
	for {
		changed := s.numberExhausted()
		changed = s.notTooBig() || changed
		changed = s.notTooSmall() || changed
		changed = s.noDanglingEdges() || changed
		changed = s.equivalentEdges() || changed
		if !changed {
			break
		}
	}

	st := &GameState{w: p.W, h: p.H, k: p.K, clues: clues, borders: borders}
	return st.isSolved()
}

// Solve reports how far deduction alone gets from a blank board.
func Solve(st *GameState) puzzle.Status {
	p := Params{W: st.w, H: st.h, K: st.k}
	if solveClues(p, st.clues, initBorders(st.w, st.h)) {
		return puzzle.Solved
	}
	return puzzle.Ambiguous
}

// SolveGame returns a solve move for the state. A non-empty aux
// string (the generator's recorded solution move) short-circuits the
// solver.
func SolveGame(st *GameState, aux string) (string, error) {
	wh := st.w * st.h
	if aux != "" {
		if len(aux) != wh+1 || aux[0] != 'S' {
			return "", fmt.Errorf("%w: malformed solution record", puzzle.ErrMove)
		}
		return aux, nil
	}
	p := Params{W: st.w, H: st.h, K: st.k}
	borders := initBorders(st.w, st.h)
	if !solveClues(p, st.clues, borders) {
		return "", fmt.Errorf("%w: no solution found by deduction", puzzle.ErrMove)
	}
	return solveMoveString(borders), nil
}

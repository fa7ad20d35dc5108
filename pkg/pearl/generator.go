package pearl

import (
	"context"
	"fmt"

	"github.com/gitrdm/gridlogic/internal/loopgen"
	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// GenerateDesc produces a puzzle descriptor at the target difficulty,
// plus an aux string holding the canonical solution grid. The loop
// retries rejected layouts indefinitely; cancellation is polled
// between attempts, and a cancelled context is reported as
// ErrGeneratorExhausted.
func GenerateDesc(ctx context.Context, p Params, rng *puzzle.Random) (desc, aux string, err error) {
	if err := p.Validate(); err != nil {
		return "", "", err
	}
	w, h := p.W, p.H
	scratch := make([]uint8, w*h)
	for {
		select {
		case <-ctx.Done():
			return "", "", fmt.Errorf("%w: %v", puzzle.ErrGeneratorExhausted, ctx.Err())
		default:
		}

		grid := generateLoop(w, h, rng)
		clues := deriveClues(w, h, grid)

		// Even the maximal clue set may defeat pure deduction; such
		// loops are thrown back.
		if solveGrid(w, h, clues, p.Diff, false, scratch) != puzzle.Solved {
			continue
		}
		if p.Diff > puzzle.Easy &&
			solveGrid(w, h, clues, puzzle.Easy, false, scratch) == puzzle.Solved {
			continue // too easy, try another loop
		}

		stripClues(w, h, clues, p.Diff, rng, scratch)

		out := make([]byte, w*h)
		for i, l := range grid {
			if l < 10 {
				out[i] = '0' + l
			} else {
				out[i] = 'A' + l - 10
			}
		}
		return encodeDesc(clues), string(out), nil
	}
}

// generateLoop lays a random closed loop through the cell centres:
// the cells are the dots of a (w-1) x (h-1) face grid, and the
// boundary of a grown region of faces is the loop.
func generateLoop(w, h int, rng *puzzle.Random) []uint8 {
	fw, fh := w-1, h-1
	lit := loopgen.GrowRegion(fw, fh, rng)
	litAt := func(fx, fy int) bool {
		return fx >= 0 && fx < fw && fy >= 0 && fy < fh && lit[fy*fw+fx]
	}

	lines := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x+1 < w; x++ {
			if litAt(x, y-1) != litAt(x, y) {
				lines[y*w+x] |= dirR
				lines[y*w+x+1] |= dirL
			}
		}
	}
	for y := 0; y+1 < h; y++ {
		for x := 0; x < w; x++ {
			if litAt(x-1, y) != litAt(x, y) {
				lines[y*w+x] |= dirD
				lines[(y+1)*w+x] |= dirU
			}
		}
	}
	return lines
}

// deriveClues builds the maximal clue set for a solution grid: every
// qualifying corner (all its neighbours straight) and every
// qualifying straight (at least one neighbour a corner) gets a clue.
func deriveClues(w, h int, grid []uint8) []Clue {
	clues := make([]Clue, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := grid[y*w+x]
			switch {
			case maskStraights&(1<<t) != 0:
				for d := dirR; d <= dirD; d <<= 1 {
					if t&d == 0 {
						continue
					}
					n := grid[(y+dy(d))*w+x+dx(d)]
					if maskCorners&(1<<n) != 0 {
						clues[y*w+x] = Straight
						break
					}
				}
			case maskCorners&(1<<t) != 0:
				qualifies := true
				for d := dirR; d <= dirD; d <<= 1 {
					if t&d == 0 {
						continue
					}
					n := grid[(y+dy(d))*w+x+dx(d)]
					if maskStraights&(1<<n) == 0 {
						qualifies = false
						break
					}
				}
				if qualifies {
					clues[y*w+x] = Corner
				}
			}
		}
	}
	return clues
}

// stripClues removes clues while the board stays solvable at the
// target tier. Removal alternates towards whichever clue type is
// currently overrepresented, to counter the generator's natural bias
// towards many straight clues.
func stripClues(w, h int, clues []Clue, diff puzzle.Difficulty, rng *puzzle.Random, scratch []uint8) {
	var straights, corners []int
	for i, c := range clues {
		switch c {
		case Straight:
			straights = append(straights, i)
		case Corner:
			corners = append(corners, i)
		}
	}
	rng.Shuffle(len(straights), func(i, j int) { straights[i], straights[j] = straights[j], straights[i] })
	rng.Shuffle(len(corners), func(i, j int) { corners[i], corners[j] = corners[j], corners[i] })
	nStraights, nCorners := len(straights), len(corners)

	for len(straights) > 0 || len(corners) > 0 {
		var i int
		fromStraights := len(corners) == 0 ||
			(len(straights) > 0 && nStraights >= nCorners)
		if fromStraights {
			i = straights[len(straights)-1]
			straights = straights[:len(straights)-1]
		} else {
			i = corners[len(corners)-1]
			corners = corners[:len(corners)-1]
		}

		saved := clues[i]
		clues[i] = NoClue
		if solveGrid(w, h, clues, diff, false, scratch) != puzzle.Solved {
			clues[i] = saved
		} else if saved == Straight {
			nStraights--
		} else {
			nCorners--
		}
	}
}

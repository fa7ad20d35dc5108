package palisade

import (
	"context"
	"fmt"

	"github.com/gitrdm/gridlogic/internal/divvy"
	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// GenerateDesc produces a puzzle descriptor, plus an aux string
// holding the solution as a ready-made solve move. Partitions whose
// full clue set defeats the solver are thrown back; cancellation is
// polled between attempts and reported as ErrGeneratorExhausted.
func GenerateDesc(ctx context.Context, p Params, rng *puzzle.Random) (desc, aux string, err error) {
	if err := p.Validate(); err != nil {
		return "", "", err
	}
	w, h := p.W, p.H
	wh := w * h

	order := make([]int, wh)
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(wh, func(i, j int) { order[i], order[j] = order[j], order[i] })

	rim := initBorders(w, h)
	clues := make([]int8, wh)
	soln := make([]uint8, wh)
	scratch := make([]uint8, wh)

	for {
		select {
		case <-ctx.Done():
			return "", "", fmt.Errorf("%w: %v", puzzle.ErrGeneratorExhausted, ctx.Err())
		default:
		}

		regions := divvy.Rectangle(w, h, p.K, rng)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				clues[i] = 0
				soln[i] = 0
				for dir := 0; dir < 4; dir++ {
					nx, ny := x+dirDX[dir], y+dirDY[dir]
					if nx < 0 || nx >= w || ny < 0 || ny >= h ||
						regions.Canonify(i) != regions.Canonify(ny*w+nx) {
						clues[i]++
						soln[i] |= borderBit(dir)
					}
				}
			}
		}

		copy(scratch, rim)
		if solveClues(p, clues, scratch) {
			break
		}
	}

	// Strip clues the solver can manage without.
	for _, i := range order {
		saved := clues[i]
		clues[i] = noClue
		copy(scratch, rim)
		if !solveClues(p, clues, scratch) {
			clues[i] = saved
		}
	}

	return encodeDesc(clues), solveMoveString(soln), nil
}

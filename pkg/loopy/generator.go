package loopy

import (
	"context"
	"fmt"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// GenerateDesc produces a puzzle descriptor at the target difficulty,
// plus an aux string holding the canonical solution move. The loop
// retries rejected layouts indefinitely; cancellation is polled
// between attempts, and a cancelled context is reported as
// ErrGeneratorExhausted.
func GenerateDesc(ctx context.Context, p Params, rng *puzzle.Random) (desc, aux string, err error) {
	if err := p.Validate(); err != nil {
		return "", "", err
	}
	g := geom{w: p.W, h: p.H}
	for {
		select {
		case <-ctx.Done():
			return "", "", fmt.Errorf("%w: %v", puzzle.ErrGeneratorExhausted, ctx.Err())
		default:
		}

		lines := generateLoop(g, rng)
		clues := deriveClues(g, lines)

		// A fully-clued board can still defeat pure deduction; such
		// loops are thrown back.
		if !solvableAt(g, clues, p.Diff) {
			continue
		}

		stripClues(g, clues, p.Diff, rng)

		// Reject instances that do not need target-tier reasoning.
		if p.Diff > puzzle.Easy && solvableAt(g, clues, p.Diff-1) {
			continue
		}
		return encodeDesc(clues), solveMoveString(lines), nil
	}
}

// deriveClues counts, for every face, the loop edges on its border.
func deriveClues(g geom, lines []line) []int8 {
	clues := make([]int8, g.numFaces())
	for e, l := range lines {
		if l != lineYes {
			continue
		}
		f1, f2 := g.edgeFaces(e)
		if f1 >= 0 {
			clues[f1]++
		}
		if f2 >= 0 {
			clues[f2]++
		}
	}
	return clues
}

// stripClues blanks clues one at a time in random order, keeping each
// removal only if the board stays solvable at the target tier.
func stripClues(g geom, clues []int8, diff puzzle.Difficulty, rng *puzzle.Random) {
	order := make([]int, len(clues))
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	for _, f := range order {
		saved := clues[f]
		clues[f] = noClue
		if !solvableAt(g, clues, diff) {
			clues[f] = saved
		}
	}
}

// solvableAt reports whether deduction alone (no trial and error)
// finds the unique solution at the given tier.
func solvableAt(g geom, clues []int8, diff puzzle.Difficulty) bool {
	st := &GameState{
		geom:  g,
		clues: clues,
		lines: make([]line, g.numEdges()),
	}
	status, _ := solveGrid(st, diff, 0, nil)
	return status == puzzle.Solved
}

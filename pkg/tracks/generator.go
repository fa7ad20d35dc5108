package tracks

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
	for {
		select {
		case <-ctx.Done():
			return "", "", fmt.Errorf("%w: %v", puzzle.ErrGeneratorExhausted, ctx.Err())
		default:
		}
		if desc, aux, ok := generateAttempt(p, rng); ok {
			return desc, aux, nil
		}
	}
}

// layout is a complete solution path with its derived line targets.
type layout struct {
	shapes   []dir
	rowT     []int
	colT     []int
	entryRow int
	exitCol  int
}

// generateAttempt runs one path/clue/verify cycle.
func generateAttempt(p Params, rng *puzzle.Random) (desc, aux string, ok bool) {
	lay, ok := layPath(p, rng)
	if !ok {
		return "", "", false
	}

	path := make([]int, 0, p.W*p.H)
	for i, s := range lay.shapes {
		if s != 0 {
			path = append(path, i)
		}
	}
	rng.Shuffle(len(path), func(i, j int) { path[i], path[j] = path[j], path[i] })

	// Reveal path squares as clues until the instance yields to the
	// target tier.
	clues := make([]dir, len(lay.shapes))
	next := 0
	for !solvableAs(p, clues, lay, p.Diff) {
		if next >= len(path) {
			return "", "", false
		}
		i := path[next]
		next++
		clues[i] = lay.shapes[i]
	}

	// Strip redundant clues in random order.
	order := append([]int(nil), path...)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	for _, i := range order {
		if clues[i] == 0 {
			continue
		}
		saved := clues[i]
		clues[i] = 0
		if !solvableAs(p, clues, lay, p.Diff) {
			clues[i] = saved
		}
	}

	// Reject instances that do not need target-tier reasoning.
	if prev, ok := previousTier(p.Diff); ok && solvableAs(p, clues, lay, prev) {
		return "", "", false
	}

	desc = encodeDesc(p, clues, lay.colT, lay.rowT, lay.entryRow, lay.exitCol)
	return desc, solveMoveString(lay.shapes), true
}

func previousTier(d puzzle.Difficulty) (puzzle.Difficulty, bool) {
	switch d {
	case puzzle.Tricky:
		return puzzle.Easy, true
	case puzzle.Hard:
		return puzzle.Tricky, true
	}
	return 0, false
}

// layPath walks a random self-avoiding path from the left border to
// below the bottom border. Dead ends, empty lines and adjacent
// single-square lines are all rejected; the caller simply retries.
func layPath(p Params, rng *puzzle.Random) (*layout, bool) {
	lay := &layout{
		shapes:   make([]dir, p.W*p.H),
		rowT:     make([]int, p.H),
		colT:     make([]int, p.W),
		entryRow: rng.UpTo(p.H),
	}
	visited := make([]bool, p.W*p.H)

	x, y := 0, lay.entryRow
	from := dirL
	steps := 0
	for {
		visited[y*p.W+x] = true
		lay.shapes[y*p.W+x] |= from
		lay.rowT[y]++
		lay.colT[x]++
		steps++

		// Leaving through the bottom border ends the walk; take the
		// chance with increasing eagerness as the path grows.
		if y == p.H-1 && steps > (p.W*p.H)/4 && rng.UpTo(4) == 0 {
			lay.shapes[y*p.W+x] |= dirD
			lay.exitCol = x
			break
		}

		var cands []dir
		for _, d := range allDirs {
			dx, dy := d.delta()
			nx, ny := x+dx, y+dy
			if p.inGrid(nx, ny) && !visited[ny*p.W+nx] {
				cands = append(cands, d)
			}
		}
		if len(cands) == 0 {
			if y == p.H-1 && steps > (p.W*p.H)/4 {
				lay.shapes[y*p.W+x] |= dirD
				lay.exitCol = x
				break
			}
			return nil, false
		}
		out := cands[rng.UpTo(len(cands))]
		lay.shapes[y*p.W+x] |= out
		dx, dy := out.delta()
		x, y = x+dx, y+dy
		from = out.opposite()
	}

	for _, n := range lay.rowT {
		if n == 0 {
			return nil, false
		}
	}
	for _, n := range lay.colT {
		if n == 0 {
			return nil, false
		}
	}
	for y := 0; y < p.H-1; y++ {
		if lay.rowT[y] == 1 && lay.rowT[y+1] == 1 {
			return nil, false
		}
	}
	for x := 0; x < p.W-1; x++ {
		if lay.colT[x] == 1 && lay.colT[x+1] == 1 {
			return nil, false
		}
	}
	return lay, true
}

func (p Params) inGrid(x, y int) bool { return x >= 0 && x < p.W && y >= 0 && y < p.H }

// solvableAs reports whether the clue layout is solvable at the given
// tier, with the propagation result matching the known solution.
func solvableAs(p Params, clues []dir, lay *layout, diff puzzle.Difficulty) bool {
	desc := encodeDesc(p, clues, lay.colT, lay.rowT, lay.entryRow, lay.exitCol)
	st, err := NewGame(p, desc)
	if err != nil {
		return false
	}
	status, got := solveGrid(st, diff)
	if status != puzzle.Solved {
		return false
	}
	for i := range got {
		if got[i] != lay.shapes[i] {
			return false
		}
	}
	return true
}

// SolveGame returns the canonical solve move for a state. If aux (the
// generator's solution string) is available it is used directly;
// otherwise the solver must fully determine the layout.
func SolveGame(st *GameState, aux string) (string, error) {
	if aux != "" {
		return aux, nil
	}
	status, shapes := solveGrid(st, puzzle.Hard)
	if status != puzzle.Solved {
		return "", fmt.Errorf("%w: solver returned %v", puzzle.ErrMove, status)
	}
	return solveMoveString(shapes), nil
}

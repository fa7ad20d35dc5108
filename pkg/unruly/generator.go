package unruly

import (
	"context"
	"fmt"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// GenerateDesc produces a puzzle descriptor at the target difficulty,
// plus an aux string holding the canonical solution move. The loop
// retries rejected seeds indefinitely; cancellation is polled between
// attempts, and a cancelled context is reported as
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

// generateAttempt runs one seed/strip/verify cycle.
func generateAttempt(p Params, rng *puzzle.Random) (desc, aux string, ok bool) {
	solution, ok := seedSolution(p, rng)
	if !ok {
		return "", "", false
	}

	// Start from the fully-clued grid and strip clues in random order,
	// keeping a removal only if the puzzle stays solvable at the
	// target difficulty.
	clues := append([]cell(nil), solution...)
	order := make([]int, len(clues))
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	for _, i := range order {
		saved := clues[i]
		clues[i] = cellEmpty
		if !solvableAs(p, clues, p.Diff, solution) {
			clues[i] = saved
		}
	}

	// Reject instances that do not need target-tier reasoning.
	if p.Diff > puzzle.Trivial && solvableAs(p, clues, p.Diff-1, solution) {
		return "", "", false
	}
	if !solvableAs(p, clues, p.Diff, solution) {
		return "", "", false
	}

	return encodeDesc(clues), solveMove(solution), true
}

// seedSolution builds a random full grid, letting the solver do as
// much of the filling as it can and guessing a random cell whenever it
// stalls. A guess that leads to contradiction abandons the attempt.
func seedSolution(p Params, rng *puzzle.Random) ([]cell, bool) {
	st := &GameState{
		w:      p.W,
		h:      p.H,
		unique: p.Unique,
		grid:   make([]cell, p.W*p.H),
	}
	for i := range st.grid {
		st.grid[i] = cellEmpty
	}

	for {
		s := newSolver(st, nil)
		s.run(puzzle.Normal)
		if s.inconsistent {
			return nil, false
		}
		copy(st.grid, s.grid)
		var empties []int
		for i, c := range st.grid {
			if c == cellEmpty {
				empties = append(empties, i)
			}
		}
		if len(empties) == 0 {
			break
		}
		i := empties[rng.UpTo(len(empties))]
		st.grid[i] = cell(rng.UpTo(2))
	}

	// The solver does not enforce uniqueness of lines while guessing,
	// so check the finished grid.
	full := &GameState{w: p.W, h: p.H, unique: p.Unique,
		grid: st.grid, errs: make([]bool, p.W*p.H)}
	full.updateErrors()
	if !full.completed {
		return nil, false
	}
	return st.grid, true
}

// solvableAs reports whether the clue grid is solvable at the given
// tier, with the propagation result matching the known solution.
func solvableAs(p Params, clues []cell, diff puzzle.Difficulty, solution []cell) bool {
	st := &GameState{w: p.W, h: p.H, unique: p.Unique,
		grid: append([]cell(nil), clues...)}
	status, got := solveGrid(st, diff, nil)
	if status != puzzle.Solved {
		return false
	}
	for i := range got {
		if got[i] != solution[i] {
			return false
		}
	}
	return true
}

// SolveGame returns the canonical solve move for a state. If aux (the
// generator's solution string) is available it is used directly;
// otherwise the solver must fully determine the grid.
func SolveGame(st *GameState, aux string) (string, error) {
	if aux != "" {
		return aux, nil
	}
	status, grid := solveGrid(st, puzzle.Normal, nil)
	if status != puzzle.Solved {
		return "", fmt.Errorf("%w: solver returned %v", puzzle.ErrMove, status)
	}
	return solveMove(grid), nil
}

package pearl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

func generate(t *testing.T, p Params, seed int64) (string, string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	desc, aux, err := GenerateDesc(ctx, p, puzzle.NewRandom(seed))
	if err != nil {
		t.Fatalf("GenerateDesc(%v, seed %d) failed: %v", p, seed, err)
	}
	return desc, aux
}

func TestGenerateDeterministic(t *testing.T) {
	p := Params{W: 6, H: 6, Diff: puzzle.Easy}
	desc1, aux1 := generate(t, p, 42)
	desc2, aux2 := generate(t, p, 42)
	if desc1 != desc2 || aux1 != aux2 {
		t.Errorf("same seed gave %q/%q and %q/%q", desc1, aux1, desc2, aux2)
	}
}

func TestGenerateEasy(t *testing.T) {
	p := Params{W: 6, H: 6, Diff: puzzle.Easy}
	desc, aux := generate(t, p, 1)

	st, err := NewGame(p, desc)
	if err != nil {
		t.Fatalf("generated descriptor %q rejected: %v", desc, err)
	}
	if status := Solve(st, puzzle.Easy); status != puzzle.Solved {
		t.Errorf("generated board solved as %v, want solved", status)
	}

	move, err := SolveGame(st, aux)
	if err != nil {
		t.Fatalf("SolveGame with recorded solution failed: %v", err)
	}
	next, err := st.ExecuteMove(move)
	if err != nil {
		t.Fatalf("ExecuteMove(solve move) failed: %v", err)
	}
	if !next.Completed() {
		t.Error("recorded solution did not complete the board")
	}
}

func TestGenerateTrickyNeedsItsTier(t *testing.T) {
	p := Params{W: 6, H: 6, Diff: puzzle.Tricky}
	desc, _ := generate(t, p, 7)

	st, err := NewGame(p, desc)
	if err != nil {
		t.Fatalf("generated descriptor %q rejected: %v", desc, err)
	}
	if status := Solve(st, puzzle.Tricky); status != puzzle.Solved {
		t.Errorf("board solved as %v at its own tier, want solved", status)
	}
	if status := Solve(st, puzzle.Easy); status == puzzle.Solved {
		t.Error("board should not fall to the tier below")
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := GenerateDesc(ctx, DefaultParams(), puzzle.NewRandom(3))
	if !errors.Is(err, puzzle.ErrGeneratorExhausted) {
		t.Errorf("cancelled generation returned %v, want ErrGeneratorExhausted", err)
	}
}

func TestGenerateRejectsBadParams(t *testing.T) {
	ctx := context.Background()
	p := Params{W: 3, H: 3, Diff: puzzle.Easy}
	if _, _, err := GenerateDesc(ctx, p, puzzle.NewRandom(0)); !errors.Is(err, puzzle.ErrParams) {
		t.Errorf("GenerateDesc(3x3) = %v, want ErrParams", err)
	}
}

func TestGenerateLoopIsSingleLoop(t *testing.T) {
	rng := puzzle.NewRandom(11)
	const w, h = 7, 7
	for trial := 0; trial < 10; trial++ {
		grid := generateLoop(w, h, rng)

		start := -1
		for i, l := range grid {
			switch degree(l) {
			case 0:
			case 2:
				if start == -1 {
					start = i
				}
			default:
				t.Fatalf("trial %d: cell %d has degree %d", trial, i, degree(l))
			}
			for d := dirR; d <= dirD; d <<= 1 {
				if l&d == 0 {
					continue
				}
				nx, ny := i%w+dx(d), i/w+dy(d)
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					t.Fatalf("trial %d: cell %d links off grid", trial, i)
				}
				if grid[ny*w+nx]&flip(d) == 0 {
					t.Fatalf("trial %d: cell %d link not reciprocated", trial, i)
				}
			}
		}
		if start == -1 {
			t.Fatalf("trial %d: no loop at all", trial)
		}

		// Walk the loop from start; it must visit every linked cell.
		visited := 0
		pos, came := start, uint8(0)
		for {
			visited++
			l := grid[pos] &^ came
			d := l & -l // lowest remaining direction bit
			pos = pos + dy(d)*w + dx(d)
			came = flip(d)
			if pos == start {
				break
			}
		}
		linked := 0
		for _, l := range grid {
			if l != 0 {
				linked++
			}
		}
		if visited != linked {
			t.Fatalf("trial %d: walk visited %d of %d linked cells", trial, visited, linked)
		}
	}
}

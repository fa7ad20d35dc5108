package unruly

import (
	"context"
	"testing"
	"time"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// TestGenerateNormal10x10 generates a 10x10 instance at Normal from a
// fixed seed and checks the difficulty contract: solvable at Normal,
// out of reach at Easy.
func TestGenerateNormal10x10(t *testing.T) {
	p := Params{W: 10, H: 10, Diff: puzzle.Normal}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	desc, aux, err := GenerateDesc(ctx, p, puzzle.NewRandom(42))
	if err != nil {
		t.Fatalf("GenerateDesc: %v", err)
	}
	st, err := NewGame(p, desc)
	if err != nil {
		t.Fatalf("NewGame(%q): %v", desc, err)
	}

	if status := Solve(st, puzzle.Normal, nil); status != puzzle.Solved {
		t.Fatalf("Normal solve = %v, want solved", status)
	}
	if status := Solve(st, puzzle.Easy, nil); status != puzzle.Incomplete {
		t.Fatalf("Easy solve = %v, want incomplete", status)
	}

	// The aux string is the canonical solution move: applying it wins
	// the game.
	solved, err := st.ExecuteMove(aux)
	if err != nil {
		t.Fatalf("aux move: %v", err)
	}
	if !solved.Completed() {
		t.Fatal("aux solution did not complete the game")
	}
}

func TestGenerateEasyDeterministic(t *testing.T) {
	p := Params{W: 6, H: 6, Diff: puzzle.Easy}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	d1, _, err := GenerateDesc(ctx, p, puzzle.NewRandom(7))
	if err != nil {
		t.Fatalf("GenerateDesc: %v", err)
	}
	d2, _, err := GenerateDesc(ctx, p, puzzle.NewRandom(7))
	if err != nil {
		t.Fatalf("GenerateDesc: %v", err)
	}
	if d1 != d2 {
		t.Fatalf("same seed produced different descriptors: %q vs %q", d1, d2)
	}

	st, err := NewGame(p, d1)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if status := Solve(st, puzzle.Easy, nil); status != puzzle.Solved {
		t.Fatalf("Easy solve = %v, want solved", status)
	}
}

func TestGenerateCancelled(t *testing.T) {
	p := Params{W: 10, H: 10, Diff: puzzle.Normal}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := GenerateDesc(ctx, p, puzzle.NewRandom(1))
	if err == nil {
		t.Fatal("GenerateDesc succeeded with a cancelled context")
	}
}

func TestSolveGameFromAux(t *testing.T) {
	st := fixtureState(t, [2]int{4, 0})
	move, err := SolveGame(st, "")
	if err != nil {
		t.Fatalf("SolveGame: %v", err)
	}
	solved, err := st.ExecuteMove(move)
	if err != nil {
		t.Fatalf("solve move: %v", err)
	}
	if !solved.Completed() {
		t.Fatal("solver's move did not complete the game")
	}
}

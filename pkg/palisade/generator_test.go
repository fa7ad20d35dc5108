package palisade

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
	p := DefaultParams()
	desc1, aux1 := generate(t, p, 42)
	desc2, aux2 := generate(t, p, 42)
	if desc1 != desc2 || aux1 != aux2 {
		t.Errorf("same seed gave %q/%q and %q/%q", desc1, aux1, desc2, aux2)
	}
}

func TestGenerateSolvable(t *testing.T) {
	p := Params{W: 8, H: 6, K: 6}
	desc, aux := generate(t, p, 1)

	st, err := NewGame(p, desc)
	if err != nil {
		t.Fatalf("generated descriptor %q rejected: %v", desc, err)
	}
	if status := Solve(st); status != puzzle.Solved {
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
	if !next.isSolved() {
		t.Error("recorded solution does not satisfy the win conditions")
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
	p := Params{W: 5, H: 5, K: 3}
	if _, _, err := GenerateDesc(ctx, p, puzzle.NewRandom(0)); !errors.Is(err, puzzle.ErrParams) {
		t.Errorf("GenerateDesc(5x5n3) = %v, want ErrParams", err)
	}
}

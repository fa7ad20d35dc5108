package rect

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
	p := DefaultParams()
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
	if !next.Completed() {
		t.Error("recorded solution does not satisfy the win conditions")
	}
}

func TestGenerateExpanded(t *testing.T) {
	p := Params{W: 9, H: 7, Expand: 1.5, Unique: true}
	desc, aux := generate(t, p, 7)

	st, err := NewGame(p, desc)
	if err != nil {
		t.Fatalf("generated descriptor %q rejected: %v", desc, err)
	}
	next, err := st.ExecuteMove(aux)
	if err != nil {
		t.Fatalf("ExecuteMove(recorded solution) failed: %v", err)
	}
	if !next.Completed() {
		t.Error("recorded solution does not satisfy the win conditions")
	}
}

func TestGenerateAnySolution(t *testing.T) {
	// Without the uniqueness requirement the layout is accepted as
	// generated; the recorded solution must still win.
	p := Params{W: 7, H: 7}
	desc, aux := generate(t, p, 4)

	st, err := NewGame(p, desc)
	if err != nil {
		t.Fatalf("generated descriptor %q rejected: %v", desc, err)
	}
	next, err := st.ExecuteMove(aux)
	if err != nil {
		t.Fatalf("ExecuteMove(recorded solution) failed: %v", err)
	}
	if !next.Completed() {
		t.Error("recorded solution does not satisfy the win conditions")
	}
}

func TestTransposeLayoutNonSquare(t *testing.T) {
	// 3x2 layout: a horizontal domino, a vertical domino on the right
	// column, and a second horizontal domino underneath.
	grid := []int{
		0, 0, 2,
		3, 3, 2,
	}
	got := transposeLayout(3, 2, grid)
	want := []int{
		0, 1,
		0, 1,
		4, 4,
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("transposed cell %d = %d, want %d (full grid %v)", i, got[i], want[i], got)
		}
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
	p := Params{W: 1, H: 1, Unique: true}
	if _, _, err := GenerateDesc(ctx, p, puzzle.NewRandom(0)); !errors.Is(err, puzzle.ErrParams) {
		t.Errorf("GenerateDesc(1x1) = %v, want ErrParams", err)
	}
}

package rect

import (
	"errors"
	"testing"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// fixtureDesc is a 3x3 board: a 3 at (0,1) and a 6 at (1,1). The 6
// only fits as the right-hand 2x3 block, which forces the 3 into the
// left column.
const fixtureDesc = "c3_6d"

// columnMove draws the single interior edge column of that solution.
const columnMove = "V1,0;V1,1;V1,2"

func params3x3() Params {
	return Params{W: 3, H: 3, Unique: true}
}

func mustGame(t *testing.T, p Params, desc string) *GameState {
	t.Helper()
	st, err := NewGame(p, desc)
	if err != nil {
		t.Fatalf("NewGame(%q) failed: %v", desc, err)
	}
	return st
}

func TestParseParams(t *testing.T) {
	for s, want := range map[string]Params{
		"7x7":      {7, 7, 0, true},
		"13":       {13, 13, 0, true},
		"9x11e1.5": {9, 11, 1.5, true},
		"9x11a":    {9, 11, 0, false},
		"5x7e0.5a": {5, 7, 0.5, false},
	} {
		got, err := ParseParams(s)
		if err != nil {
			t.Errorf("ParseParams(%q) failed: %v", s, err)
		} else if got != want {
			t.Errorf("ParseParams(%q) = %+v, want %+v", s, got, want)
		}
	}
	if s := (Params{W: 7, H: 7, Unique: true}).String(); s != "7x7" {
		t.Errorf("String() = %q, want \"7x7\"", s)
	}
	if s := (Params{W: 9, H: 11, Expand: 1.5}).String(); s != "9x11e1.5a" {
		t.Errorf("String() = %q, want \"9x11e1.5a\"", s)
	}
	for _, bad := range []string{
		"0x5",   // zero width
		"1x1",   // area too small
		"7x7e",  // missing expansion factor
		"7x7az", // trailing junk
		"x7",    // missing width
	} {
		if _, err := ParseParams(bad); !errors.Is(err, puzzle.ErrParams) {
			t.Errorf("ParseParams(%q) = %v, want ErrParams", bad, err)
		}
	}
}

func TestDescriptorRoundTrip(t *testing.T) {
	p := params3x3()
	for _, desc := range []string{fixtureDesc, "i", "9h", "3_6g"} {
		grid, err := decodeDesc(p, desc)
		if err != nil {
			t.Fatalf("decodeDesc(%q) failed: %v", desc, err)
		}
		if got := encodeDesc(p.W, p.H, grid); got != desc {
			t.Errorf("round trip of %q gave %q", desc, got)
		}
	}
	for _, bad := range []string{
		"",      // empty
		"c3_6c", // one cell short
		"c3_6e", // one cell over
		"c3!6d", // invalid character
		"c0_6d", // zero clue
	} {
		if err := ValidateDesc(p, bad); !errors.Is(err, puzzle.ErrDescriptor) {
			t.Errorf("ValidateDesc(%q) = %v, want ErrDescriptor", bad, err)
		}
	}
}

func TestSolverForcedPlacements(t *testing.T) {
	st := mustGame(t, params3x3(), fixtureDesc)
	if status := Solve(st); status != puzzle.Solved {
		t.Fatalf("solver returned %v, want solved", status)
	}

	move, err := SolveGame(st, "")
	if err != nil {
		t.Fatalf("SolveGame failed: %v", err)
	}
	next, err := st.ExecuteMove(move)
	if err != nil {
		t.Fatalf("ExecuteMove(solve move) failed: %v", err)
	}
	if !next.Completed() {
		t.Fatal("solve move did not complete the board")
	}
	for y := 0; y < 3; y++ {
		for x := 1; x < 3; x++ {
			want := uint8(0)
			if x == 1 {
				want = 1
			}
			if got := next.vedge[y*3+x]; got != want {
				t.Errorf("vedge(%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
	for y := 1; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if got := next.hedge[y*3+x]; got != 0 {
				t.Errorf("hedge(%d,%d) = %d, want 0", x, y, got)
			}
		}
	}
}

func TestSolverTrivialSquare(t *testing.T) {
	st := mustGame(t, Params{W: 2, H: 2, Unique: true}, "4c")
	if status := Solve(st); status != puzzle.Solved {
		t.Errorf("solver returned %v, want solved", status)
	}
}

func TestSolverAmbiguousDominoes(t *testing.T) {
	// Two 2s in opposite corners of a 2x2 grid: both the horizontal
	// and the vertical split work.
	st := mustGame(t, Params{W: 2, H: 2, Unique: true}, "2b2")
	if status := Solve(st); status != puzzle.Ambiguous {
		t.Errorf("solver returned %v, want ambiguous", status)
	}
}

func TestSolverInconsistent(t *testing.T) {
	// A 3 never fits in a 2x2 grid.
	st := mustGame(t, Params{W: 2, H: 2, Unique: true}, "3b1")
	if status := Solve(st); status != puzzle.Inconsistent {
		t.Errorf("unplaceable clue solved as %v, want inconsistent", status)
	}

	// Clue areas falling short of the grid leave uncoverable cells.
	st = mustGame(t, Params{W: 2, H: 2, Unique: true}, "2c")
	if status := Solve(st); status != puzzle.Inconsistent {
		t.Errorf("short clue set solved as %v, want inconsistent", status)
	}
}

func TestExecuteMoveCompletion(t *testing.T) {
	st := mustGame(t, params3x3(), fixtureDesc)
	next, err := st.ExecuteMove(columnMove)
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	if !next.Completed() {
		t.Fatal("drawing the edge column should complete the board")
	}
	if !next.CellDone(0, 0) || !next.CellDone(2, 2) {
		t.Error("all cells of a finished board should be marked done")
	}

	// Completion is sticky even after rubbing an edge out again.
	after, err := next.ExecuteMove("V1,1")
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	if !after.Completed() {
		t.Error("completion flag should survive later edits")
	}
	if after.CellDone(0, 0) {
		t.Error("a broken rectangle must not stay marked done")
	}
	if st.Completed() {
		t.Error("the original state must be unchanged")
	}
}

func TestExecuteMoveRectangle(t *testing.T) {
	st := mustGame(t, params3x3(), fixtureDesc)

	// Lay a stray edge inside the right-hand block, then stamp both
	// rectangles; stamping must clear the stray interior edge.
	next, err := st.ExecuteMove("H1,1;R0,0,1,3;R1,0,2,3")
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	if !next.Completed() {
		t.Error("stamping both rectangles should complete the board")
	}
}

func TestMoveRejections(t *testing.T) {
	st := mustGame(t, params3x3(), fixtureDesc)
	for _, bad := range []string{
		"V0,0",       // grid border
		"H1,0",       // grid border
		"V9,9",       // outside grid
		"V1",         // truncated
		"V1,0,0",     // too many coordinates
		"V1,0;;V1,1", // empty token
		"R0,0,0,1",   // degenerate rectangle
		"R2,2,2,2",   // rectangle off the grid
		"Q1,1",       // unknown command
		"S111",       // solution wrong length
	} {
		if _, err := st.ExecuteMove(bad); !errors.Is(err, puzzle.ErrMove) {
			t.Errorf("ExecuteMove(%q) = %v, want ErrMove", bad, err)
		}
	}
}

func TestGameText(t *testing.T) {
	st := mustGame(t, params3x3(), fixtureDesc)
	next, err := st.ExecuteMove(columnMove)
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	want := "+--+-----+\n" +
		"|  |     |\n" +
		"|  |     |\n" +
		"| 3| 6   |\n" +
		"|  |     |\n" +
		"|  |     |\n" +
		"+--+-----+\n"
	if got := next.GameText(); got != want {
		t.Errorf("GameText =\n%s\nwant\n%s", got, want)
	}
}

package palisade

import (
	"errors"
	"testing"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// fixtureDesc is a 4x2 board with regions of four: every cell carries
// a 2, which forces two 2x2 blocks split down the middle.
const fixtureDesc = "22222222"

// fixtureBorders is that solution, rim included.
var fixtureBorders = []uint8{
	borderU | borderL, borderU | borderR, borderU | borderL, borderU | borderR,
	borderD | borderL, borderD | borderR, borderD | borderL, borderD | borderR,
}

// splitMove draws the central border, both halves of each edge.
const splitMove = "F1,0,2F2,0,8F1,1,2F2,1,8"

func params4x2() Params {
	return Params{W: 4, H: 2, K: 4}
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
		"5x5n5": {5, 5, 5},
		"8x6n6": {8, 6, 6},
		"5":     {5, 5, 5},
		"9x4n6": {9, 4, 6},
	} {
		got, err := ParseParams(s)
		if err != nil {
			t.Errorf("ParseParams(%q) failed: %v", s, err)
		} else if got != want {
			t.Errorf("ParseParams(%q) = %+v, want %+v", s, got, want)
		}
	}
	if s := (Params{W: 10, H: 8, K: 8}).String(); s != "10x8n8" {
		t.Errorf("String() = %q, want \"10x8n8\"", s)
	}
	for _, bad := range []string{
		"5x5n3",  // region size does not divide the area
		"2x2n4",  // region is the whole grid
		"3x3n2",  // dominoes need a one-dimensional grid
		"0x5n5",  // zero width
		"5x5n5x", // trailing junk
		"x5",     // missing width
	} {
		if _, err := ParseParams(bad); !errors.Is(err, puzzle.ErrParams) {
			t.Errorf("ParseParams(%q) = %v, want ErrParams", bad, err)
		}
	}
}

func TestDescriptorRoundTrip(t *testing.T) {
	p := params4x2()
	for _, desc := range []string{fixtureDesc, "h", "a2f"} {
		clues, err := decodeDesc(p, desc)
		if err != nil {
			t.Fatalf("decodeDesc(%q) failed: %v", desc, err)
		}
		if got := encodeDesc(clues); got != desc {
			t.Errorf("round trip of %q gave %q", desc, got)
		}
	}
	for _, bad := range []string{"", "2222222", "222222222", "55555555", "2!222222"} {
		if err := ValidateDesc(p, bad); !errors.Is(err, puzzle.ErrDescriptor) {
			t.Errorf("ValidateDesc(%q) = %v, want ErrDescriptor", bad, err)
		}
	}
}

func TestSolverSplitsBlocks(t *testing.T) {
	st := mustGame(t, params4x2(), fixtureDesc)
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
	for i, want := range fixtureBorders {
		if got := next.borders[i] & borderMask; got != want {
			t.Errorf("cell %d solved with borders %d, want %d", i, got, want)
		}
	}
}

func TestSolverColumnOfDominoes(t *testing.T) {
	st := mustGame(t, Params{W: 1, H: 4, K: 2}, "3333")
	if status := Solve(st); status != puzzle.Solved {
		t.Errorf("solver returned %v, want solved", status)
	}
}

func TestSolverStuckWithoutClues(t *testing.T) {
	st := mustGame(t, params4x2(), "h")
	if status := Solve(st); status != puzzle.Ambiguous {
		t.Errorf("clueless board solved as %v, want ambiguous", status)
	}
}

func TestExecuteMoveCompletion(t *testing.T) {
	st := mustGame(t, params4x2(), fixtureDesc)
	next, err := st.ExecuteMove(splitMove)
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	if !next.Completed() {
		t.Fatal("drawing the central border should complete the board")
	}

	// Completion is sticky even after toggling the border back off.
	after, err := next.ExecuteMove(splitMove)
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	if !after.Completed() {
		t.Error("completion flag should survive later edits")
	}
	if st.Completed() {
		t.Error("the original state must be unchanged")
	}
}

func TestMoveRejections(t *testing.T) {
	st := mustGame(t, params4x2(), fixtureDesc)
	for _, bad := range []string{
		"F0,0,8",   // toggles the grid rim
		"F9,9,1",   // outside grid
		"F0,0",     // truncated
		"F0,0,2x",  // trailing junk
		"Q",        // unknown command
		"Sabc",     // solution grid too short
		"F0,0,999", // flag out of range
	} {
		if _, err := st.ExecuteMove(bad); !errors.Is(err, puzzle.ErrMove) {
			t.Errorf("ExecuteMove(%q) = %v, want ErrMove", bad, err)
		}
	}
}

func TestErrorFlags(t *testing.T) {
	st := mustGame(t, params4x2(), fixtureDesc)

	// Three borders around a 2 overshoot the clue.
	next, err := st.ExecuteMove("F1,0,2F2,0,8F1,0,4F1,1,1")
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	if !next.CellError(1, 0) {
		t.Error("overloaded clue should be flagged")
	}

	// Marking three edges border-free leaves the 2 unreachable.
	next, err = st.ExecuteMove("F1,0,128F0,0,32F1,0,32F2,0,128F1,0,64F1,1,16")
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	if !next.CellError(1, 0) {
		t.Error("starved clue should be flagged")
	}

	// A border stranded inside a finished region is a stray.
	solved, err := st.ExecuteMove(splitMove)
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	next, err = solved.ExecuteMove("F0,0,2F1,0,8")
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	if !next.CellError(0, 0) || !next.CellError(1, 0) {
		t.Error("stray border inside a region should be flagged on both cells")
	}
}

func TestGameText(t *testing.T) {
	st := mustGame(t, params4x2(), fixtureDesc)
	want := "+---+---+---+---+\n" +
		"| 2   2   2   2 |\n" +
		"+   +   +   +   +\n" +
		"| 2   2   2   2 |\n" +
		"+---+---+---+---+\n"
	if got := st.GameText(); got != want {
		t.Errorf("GameText =\n%s\nwant\n%s", got, want)
	}

	next, err := st.ExecuteMove(splitMove)
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	want = "+---+---+---+---+\n" +
		"| 2   2 | 2   2 |\n" +
		"+   +   +   +   +\n" +
		"| 2   2 | 2   2 |\n" +
		"+---+---+---+---+\n"
	if got := next.GameText(); got != want {
		t.Errorf("GameText after split =\n%s\nwant\n%s", got, want)
	}
}

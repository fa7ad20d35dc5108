package pearl

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// fixtureDesc is a 5x5 board whose unique solution is the loop
// through all sixteen border cells: corner clues in the four board
// corners, straight clues beside them.
const fixtureDesc = "BWaWBWcWeWcWBWaWB"

// fixtureLines is that solution, one direction pair per cell.
var fixtureLines = []uint8{
	dirR | dirD, dirL | dirR, dirL | dirR, dirL | dirR, dirL | dirD,
	dirU | dirD, 0, 0, 0, dirU | dirD,
	dirU | dirD, 0, 0, 0, dirU | dirD,
	dirU | dirD, 0, 0, 0, dirU | dirD,
	dirR | dirU, dirL | dirR, dirL | dirR, dirL | dirR, dirL | dirU,
}

func params5x5() Params {
	return Params{W: 5, H: 5, Diff: puzzle.Easy}
}

func mustGame(t *testing.T, p Params, desc string) *GameState {
	t.Helper()
	st, err := NewGame(p, desc)
	if err != nil {
		t.Fatalf("NewGame(%q) failed: %v", desc, err)
	}
	return st
}

func layMove(lines []uint8, w int) string {
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte(';')
		}
		fmt.Fprintf(&sb, "R%d,%d,%d", l, i%w, i/w)
	}
	return sb.String()
}

func TestParseParams(t *testing.T) {
	got, err := ParseParams("8x8dk")
	if err != nil {
		t.Fatalf("ParseParams failed: %v", err)
	}
	if got != (Params{W: 8, H: 8, Diff: puzzle.Tricky}) {
		t.Errorf("ParseParams(\"8x8dk\") = %+v", got)
	}
	if s := (Params{W: 6, H: 6, Diff: puzzle.Easy}).String(); s != "6x6de" {
		t.Errorf("String() = %q, want \"6x6de\"", s)
	}
	for _, bad := range []string{"4x5de", "5x5dk", "6x6dh", "6x6z", "x6"} {
		if _, err := ParseParams(bad); !errors.Is(err, puzzle.ErrParams) {
			t.Errorf("ParseParams(%q) = %v, want ErrParams", bad, err)
		}
	}
}

func TestDescriptorRoundTrip(t *testing.T) {
	p := params5x5()
	for _, desc := range []string{fixtureDesc, "lBl", "z"} {
		clues, err := decodeDesc(p, desc)
		if err != nil {
			t.Fatalf("decodeDesc(%q) failed: %v", desc, err)
		}
		if got := encodeDesc(clues); got != desc {
			t.Errorf("round trip of %q gave %q", desc, got)
		}
	}
	for _, bad := range []string{"", "BW", "x", "yB", "B!" + fixtureDesc} {
		if err := ValidateDesc(p, bad); !errors.Is(err, puzzle.ErrDescriptor) {
			t.Errorf("ValidateDesc(%q) = %v, want ErrDescriptor", bad, err)
		}
	}
}

func TestSolverBorderLoop(t *testing.T) {
	st := mustGame(t, params5x5(), fixtureDesc)
	if status := Solve(st, puzzle.Easy); status != puzzle.Solved {
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
	for i, want := range fixtureLines {
		if next.lines[i] != want {
			t.Errorf("cell %d solved as %d, want %d", i, next.lines[i], want)
		}
	}
}

func TestSolverAmbiguousWithoutClues(t *testing.T) {
	st := mustGame(t, params5x5(), "y")
	if status := Solve(st, puzzle.Tricky); status != puzzle.Ambiguous {
		t.Errorf("clueless board solved as %v, want ambiguous", status)
	}
}

func TestSolverInconsistentClue(t *testing.T) {
	// A straight clue in a board corner has nowhere to run.
	st := mustGame(t, params5x5(), "Wx")
	if status := Solve(st, puzzle.Easy); status != puzzle.Inconsistent {
		t.Errorf("solver returned %v, want inconsistent", status)
	}
}

func TestDeriveClues(t *testing.T) {
	clues := deriveClues(5, 5, fixtureLines)
	want, err := decodeDesc(params5x5(), fixtureDesc)
	if err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if clues[i] != want[i] {
			t.Errorf("cell %d derived as %v, want %v", i, clues[i], want[i])
		}
	}
}

func TestExecuteMoveCompletion(t *testing.T) {
	st := mustGame(t, params5x5(), fixtureDesc)
	next, err := st.ExecuteMove(layMove(fixtureLines, 5))
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	if !next.Completed() {
		t.Fatal("laying the full loop should complete the board")
	}

	// Completion is sticky even after erasing a segment.
	after, err := next.ExecuteMove("N1,0,0;N4,1,0")
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

func TestHintMove(t *testing.T) {
	st := mustGame(t, params5x5(), fixtureDesc)
	next, err := st.ExecuteMove("H")
	if err != nil {
		t.Fatalf("ExecuteMove(\"H\") failed: %v", err)
	}
	if !next.Completed() {
		t.Error("the hint fill should complete a fully deducible board")
	}
}

func TestMoveRejections(t *testing.T) {
	st := mustGame(t, params5x5(), fixtureDesc)
	for _, bad := range []string{
		"Q",             // unknown command
		"L5,9,9",        // outside grid
		"L16,0,0",       // segment set out of range
		"L5,0",          // truncated
		"L5,0,0x",       // bad separator
		"M1,0,0;L1,0,0", // line over a mark
		"L1,0,0",        // segment without its reciprocal half
	} {
		if _, err := st.ExecuteMove(bad); !errors.Is(err, puzzle.ErrMove) {
			t.Errorf("ExecuteMove(%q) = %v, want ErrMove", bad, err)
		}
	}
}

func TestErrorFlags(t *testing.T) {
	// A lone corner clue in the middle of the board.
	st := mustGame(t, params5x5(), "lBl")

	// Running straight through a corner clue contradicts it.
	next, err := st.ExecuteMove("R5,2,2;R1,1,2;R4,3,2")
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	if !next.CellError(2, 2) {
		t.Error("straight line through a corner clue should be flagged")
	}

	// A closed loop that misses the clue is not a win.
	next, err = st.ExecuteMove(fmt.Sprintf("R%d,0,0;R%d,1,0;R%d,0,1;R%d,1,1",
		dirR|dirD, dirL|dirD, dirR|dirU, dirL|dirU))
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	if next.Completed() {
		t.Error("a loop missing the clue must not complete the board")
	}
	if !next.CellError(2, 2) {
		t.Error("the missed clue should be flagged")
	}
}

func TestGameText(t *testing.T) {
	st := mustGame(t, params5x5(), fixtureDesc)
	next, err := st.ExecuteMove(fmt.Sprintf("R%d,0,0;R%d,1,0;M%d,0,1", dirR, dirL, dirU))
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	want := "B---W   +   W   B\n" +
		"x                \n" +
		"W   +   +   +   W\n" +
		"                 \n" +
		"+   +   +   +   +\n" +
		"                 \n" +
		"W   +   +   +   W\n" +
		"                 \n" +
		"B   W   +   W   B\n"
	if got := next.GameText(); got != want {
		t.Errorf("GameText =\n%s\nwant\n%s", got, want)
	}
}

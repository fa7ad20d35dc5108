package loopy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// fixtureDesc is a fully-clued 4x4 board whose unique solution is the
// loop around the centre 2x2 block of faces.
const fixtureDesc = "0110122112210110"

// fixtureYes lists the loop's edge indices on the 4x4 grid.
var fixtureYes = []int{5, 6, 13, 14, 26, 28, 31, 33}

func params4x4(d puzzle.Difficulty) Params {
	return Params{W: 4, H: 4, Diff: d}
}

func mustGame(t *testing.T, p Params, desc string) *GameState {
	t.Helper()
	st, err := NewGame(p, desc)
	if err != nil {
		t.Fatalf("NewGame(%q) failed: %v", desc, err)
	}
	return st
}

func yesEdges(lines []line) []int {
	var out []int
	for e, l := range lines {
		if l == lineYes {
			out = append(out, e)
		}
	}
	sort.Ints(out)
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestParseParams(t *testing.T) {
	got, err := ParseParams("7x7de")
	if err != nil {
		t.Fatalf("ParseParams failed: %v", err)
	}
	want := Params{W: 7, H: 7, Diff: puzzle.Easy}
	if got != want {
		t.Errorf("ParseParams(\"7x7de\") = %+v, want %+v", got, want)
	}

	got, err = ParseParams("10x8dhr3")
	if err != nil {
		t.Fatalf("ParseParams failed: %v", err)
	}
	want = Params{W: 10, H: 8, Diff: puzzle.Hard, Depth: 3}
	if got != want {
		t.Errorf("ParseParams(\"10x8dhr3\") = %+v, want %+v", got, want)
	}

	if s := (Params{W: 7, H: 7, Diff: puzzle.Hard, Depth: 2}).String(); s != "7x7dhr2" {
		t.Errorf("String() = %q, want \"7x7dhr2\"", s)
	}
	back, err := ParseParams("7x7dhr2")
	if err != nil || back != (Params{W: 7, H: 7, Diff: puzzle.Hard, Depth: 2}) {
		t.Errorf("round trip gave %+v, %v", back, err)
	}

	for _, bad := range []string{"3x5de", "7x7dx", "7x7q", "x7", "7x7dtr"} {
		if _, err := ParseParams(bad); !errors.Is(err, puzzle.ErrParams) {
			t.Errorf("ParseParams(%q) = %v, want ErrParams", bad, err)
		}
	}
}

func TestDescriptorRoundTrip(t *testing.T) {
	p := params4x4(puzzle.Easy)
	for _, desc := range []string{fixtureDesc, "e4j", "p"} {
		clues, err := decodeDesc(p, desc)
		if err != nil {
			t.Fatalf("decodeDesc(%q) failed: %v", desc, err)
		}
		if got := encodeDesc(clues); got != desc {
			t.Errorf("round trip of %q gave %q", desc, got)
		}
	}
}

func TestValidateDescRejections(t *testing.T) {
	p := params4x4(puzzle.Easy)
	for _, bad := range []string{
		"",                  // no cells at all
		"0110",              // too few cells
		"q",                 // run longer than the grid
		fixtureDesc + "a",   // data past the end
		"5" + fixtureDesc,   // clue out of range
		"01!0122112210110",  // illegal character
		"0110122112210110p", // trailing run past the end
	} {
		if err := ValidateDesc(p, bad); !errors.Is(err, puzzle.ErrDescriptor) {
			t.Errorf("ValidateDesc(%q) = %v, want ErrDescriptor", bad, err)
		}
	}
}

func TestSolverFullClues(t *testing.T) {
	st := mustGame(t, params4x4(puzzle.Easy), fixtureDesc)
	status, lines := solveGrid(st, puzzle.Easy, 0, t.Logf)
	if status != puzzle.Solved {
		t.Fatalf("solver returned %v, want solved", status)
	}
	if got := yesEdges(lines); !equalInts(got, fixtureYes) {
		t.Errorf("solution edges = %v, want %v", got, fixtureYes)
	}
}

func TestSolverSingleFourClue(t *testing.T) {
	// A lone 4 forces the unit loop around its face.
	st := mustGame(t, params4x4(puzzle.Easy), "e4j")
	status, lines := solveGrid(st, puzzle.Easy, 0, nil)
	if status != puzzle.Solved {
		t.Fatalf("solver returned %v, want solved", status)
	}
	if got := yesEdges(lines); !equalInts(got, []int{5, 9, 26, 27}) {
		t.Errorf("solution edges = %v, want unit loop around (1,1), got %v", got, got)
	}
}

func TestSolverInconsistentClues(t *testing.T) {
	// Adjacent 4 and 0 contradict: the shared edge must be both on
	// and off the loop.
	st := mustGame(t, params4x4(puzzle.Easy), "e40i")
	if status := Solve(st, puzzle.Easy, 0, t.Logf); status != puzzle.Inconsistent {
		t.Errorf("solver returned %v, want inconsistent", status)
	}
}

// presetAllNoExcept returns a position where every edge except the
// listed ones has been marked off.
func presetAllNoExcept(t *testing.T, st *GameState, keep []int) *GameState {
	t.Helper()
	keepSet := make(map[int]bool, len(keep))
	for _, e := range keep {
		keepSet[e] = true
	}
	var sb strings.Builder
	for e := 0; e < st.numEdges(); e++ {
		if !keepSet[e] {
			fmt.Fprintf(&sb, "%dn", e)
		}
	}
	next, err := st.ExecuteMove(sb.String())
	if err != nil {
		t.Fatalf("preset move failed: %v", err)
	}
	return next
}

func TestRecursionResolvesUniqueLoop(t *testing.T) {
	// Only the six edges of a 2x1 domino perimeter are left open, so
	// the loop around the domino is the only solution; propagation
	// alone cannot commit to it, one level of trial and error can.
	st := presetAllNoExcept(t, mustGame(t, params4x4(puzzle.Hard), "p"),
		[]int{5, 6, 9, 10, 26, 28})

	if status := Solve(st, puzzle.Hard, 0, nil); status != puzzle.Incomplete {
		t.Fatalf("depth 0 returned %v, want incomplete", status)
	}
	status, lines := solveGrid(st, puzzle.Hard, 1, t.Logf)
	if status != puzzle.Solved {
		t.Fatalf("depth 1 returned %v, want solved", status)
	}
	if got := yesEdges(lines); !equalInts(got, []int{5, 6, 9, 10, 26, 28}) {
		t.Errorf("solution edges = %v, want the domino perimeter", got)
	}
}

func TestRecursionDetectsAmbiguity(t *testing.T) {
	// Leaving the domino's middle edge open as well admits three
	// loops (either unit square, or the domino perimeter).
	st := presetAllNoExcept(t, mustGame(t, params4x4(puzzle.Hard), "p"),
		[]int{5, 6, 9, 10, 26, 27, 28})

	if status := Solve(st, puzzle.Hard, 0, nil); status != puzzle.Incomplete {
		t.Fatalf("depth 0 returned %v, want incomplete", status)
	}
	if status := Solve(st, puzzle.Hard, 2, t.Logf); status != puzzle.Ambiguous {
		t.Errorf("depth 2 returned %v, want ambiguous", status)
	}
}

func TestSevenBySevenDeduction(t *testing.T) {
	clueAt := map[[2]int]int8{
		{1, 0}: 0, {2, 0}: 1, {4, 0}: 2,
		{3, 1}: 2,
		{3, 2}: 2, {6, 2}: 1,
		{0, 3}: 2, {3, 3}: 2,
		{0, 4}: 2, {6, 4}: 1,
		{2, 5}: 1, {5, 5}: 2,
		{2, 6}: 2,
	}
	clues := make([]int8, 49)
	for i := range clues {
		clues[i] = noClue
	}
	for xy, c := range clueAt {
		clues[xy[1]*7+xy[0]] = c
	}

	p := Params{W: 7, H: 7, Diff: puzzle.Hard}
	st := mustGame(t, p, encodeDesc(clues))
	// Each trial level pins down at least one edge, so a budget of one
	// level per edge always suffices to settle uniqueness.
	if status := Solve(st, puzzle.Hard, st.numEdges(), nil); status != puzzle.Solved {
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
		t.Error("solve move did not complete the board")
	}
}

func TestExecuteMoveAndCompletion(t *testing.T) {
	st := mustGame(t, params4x4(puzzle.Easy), "e4j")

	next, err := st.ExecuteMove("5y9y26y27y")
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	if !next.Completed() {
		t.Fatal("unit loop around the 4 should complete the board")
	}

	// Completion is sticky even after undoing an edge.
	after, err := next.ExecuteMove("5u")
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
	st := mustGame(t, params4x4(puzzle.Easy), "e4j")
	for _, bad := range []string{"x", "5", "5z", "99y", "5y6", "-1y", "y"} {
		if _, err := st.ExecuteMove(bad); !errors.Is(err, puzzle.ErrMove) {
			t.Errorf("ExecuteMove(%q) = %v, want ErrMove", bad, err)
		}
	}
}

func TestErrorFlags(t *testing.T) {
	st := mustGame(t, params4x4(puzzle.Easy), "e4j")

	// Crossing off an edge of the 4 makes its clue unsatisfiable.
	next, err := st.ExecuteMove("5n")
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	if !next.FaceError(1, 1) {
		t.Error("face (1,1) should be flagged after losing an edge")
	}

	// Three lines into one dot flag all three.
	next, err = st.ExecuteMove("5y6y27y")
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	for _, e := range []int{5, 6, 27} {
		if !next.LineError(e) {
			t.Errorf("edge %d should carry a branch error", e)
		}
	}

	// A closed loop that is not a solution is flagged whole.
	next, err = st.ExecuteMove("6y10y27y28y")
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	if next.Completed() {
		t.Fatal("loop missing the clue must not complete the board")
	}
	for _, e := range []int{6, 10, 27, 28} {
		if !next.LineError(e) {
			t.Errorf("edge %d of the stray loop should be flagged", e)
		}
	}
}

func TestGameText(t *testing.T) {
	st := mustGame(t, params4x4(puzzle.Easy), "e4j")
	next, err := st.ExecuteMove("5y9y26y27y")
	if err != nil {
		t.Fatalf("ExecuteMove failed: %v", err)
	}
	want := "+ + + + +\n" +
		"         \n" +
		"+ +-+ + +\n" +
		"  |4|    \n" +
		"+ +-+ + +\n" +
		"         \n" +
		"+ + + + +\n" +
		"         \n" +
		"+ + + + +\n"
	if got := next.GameText(); got != want {
		t.Errorf("GameText =\n%s\nwant\n%s", got, want)
	}
}

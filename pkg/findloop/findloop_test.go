package findloop

import "testing"

// graph is a test helper: an undirected multigraph built from an edge
// list.
type graph struct {
	n   int
	adj [][]int
}

func newGraph(n int, edges [][2]int) *graph {
	g := &graph{n: n, adj: make([][]int, n)}
	for _, e := range edges {
		g.adj[e[0]] = append(g.adj[e[0]], e[1])
		g.adj[e[1]] = append(g.adj[e[1]], e[0])
	}
	return g
}

func (g *graph) neighbour(v int) []int { return g.adj[v] }

func TestTreeHasNoLoopEdges(t *testing.T) {
	// A path plus a branch: every edge is a bridge.
	edges := [][2]int{{0, 1}, {1, 2}, {2, 3}, {1, 4}}
	g := newGraph(5, edges)
	s := New(5)
	if s.Run(g.neighbour) {
		t.Fatal("Run reported a loop in a tree")
	}
	for _, e := range edges {
		if s.IsLoopEdge(e[0], e[1]) {
			t.Errorf("edge (%d,%d) reported as loop edge in a tree", e[0], e[1])
		}
	}
}

func TestSimpleCycle(t *testing.T) {
	edges := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
	g := newGraph(4, edges)
	s := New(4)
	if !s.Run(g.neighbour) {
		t.Fatal("Run missed the cycle")
	}
	for _, e := range edges {
		if !s.IsLoopEdge(e[0], e[1]) {
			t.Errorf("edge (%d,%d) of a pure cycle not reported as loop edge", e[0], e[1])
		}
	}
}

func TestCycleWithTail(t *testing.T) {
	// Triangle 0-1-2 with a tail 2-3-4.
	cycle := [][2]int{{0, 1}, {1, 2}, {2, 0}}
	tail := [][2]int{{2, 3}, {3, 4}}
	g := newGraph(5, append(append([][2]int{}, cycle...), tail...))
	s := New(5)
	if !s.Run(g.neighbour) {
		t.Fatal("Run missed the cycle")
	}
	for _, e := range cycle {
		if !s.IsLoopEdge(e[0], e[1]) {
			t.Errorf("cycle edge (%d,%d) not reported", e[0], e[1])
		}
	}
	for _, e := range tail {
		if s.IsLoopEdge(e[0], e[1]) {
			t.Errorf("tail edge (%d,%d) wrongly reported as loop edge", e[0], e[1])
		}
	}
}

func TestTwoCyclesJoinedByBridge(t *testing.T) {
	// Square 0-1-2-3 and square 5-6-7-8 joined by the bridge 3-5,
	// with vertex 4 dangling off vertex 0.
	left := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
	right := [][2]int{{5, 6}, {6, 7}, {7, 8}, {8, 5}}
	bridges := [][2]int{{3, 5}, {0, 4}}
	all := append(append(append([][2]int{}, left...), right...), bridges...)
	g := newGraph(9, all)
	s := New(9)
	if !s.Run(g.neighbour) {
		t.Fatal("Run missed the cycles")
	}
	for _, e := range append(append([][2]int{}, left...), right...) {
		if !s.IsLoopEdge(e[0], e[1]) {
			t.Errorf("cycle edge (%d,%d) not reported", e[0], e[1])
		}
	}
	for _, e := range bridges {
		if s.IsLoopEdge(e[0], e[1]) {
			t.Errorf("bridge (%d,%d) wrongly reported as loop edge", e[0], e[1])
		}
	}
}

func TestParallelEdgesFormLoop(t *testing.T) {
	// Two edges between the same pair of vertices form a cycle of
	// length two.
	g := newGraph(3, [][2]int{{0, 1}, {0, 1}, {1, 2}})
	s := New(3)
	if !s.Run(g.neighbour) {
		t.Fatal("Run missed the parallel-edge cycle")
	}
	if !s.IsLoopEdge(0, 1) {
		t.Error("parallel edge (0,1) not reported as loop edge")
	}
	if s.IsLoopEdge(1, 2) {
		t.Error("edge (1,2) wrongly reported as loop edge")
	}
}

func TestDisconnectedComponents(t *testing.T) {
	// One component is a triangle, the other a path; isolated vertex 6.
	tri := [][2]int{{0, 1}, {1, 2}, {2, 0}}
	path := [][2]int{{3, 4}, {4, 5}}
	g := newGraph(7, append(append([][2]int{}, tri...), path...))
	s := New(7)
	if !s.Run(g.neighbour) {
		t.Fatal("Run missed the triangle")
	}
	for _, e := range tri {
		if !s.IsLoopEdge(e[0], e[1]) {
			t.Errorf("triangle edge (%d,%d) not reported", e[0], e[1])
		}
	}
	for _, e := range path {
		if s.IsLoopEdge(e[0], e[1]) {
			t.Errorf("path edge (%d,%d) wrongly reported", e[0], e[1])
		}
	}
}

func TestGridWithSingleLoop(t *testing.T) {
	// A 3x3 grid of vertices where only the outer ring is connected,
	// plus one spur into the centre. The ring is a loop; the spur is
	// not.
	idx := func(x, y int) int { return y*3 + x }
	ring := [][2]int{
		{idx(0, 0), idx(1, 0)}, {idx(1, 0), idx(2, 0)},
		{idx(2, 0), idx(2, 1)}, {idx(2, 1), idx(2, 2)},
		{idx(2, 2), idx(1, 2)}, {idx(1, 2), idx(0, 2)},
		{idx(0, 2), idx(0, 1)}, {idx(0, 1), idx(0, 0)},
	}
	spur := [][2]int{{idx(1, 0), idx(1, 1)}}
	g := newGraph(9, append(append([][2]int{}, ring...), spur...))
	s := New(9)
	if !s.Run(g.neighbour) {
		t.Fatal("Run missed the ring")
	}
	for _, e := range ring {
		if !s.IsLoopEdge(e[0], e[1]) {
			t.Errorf("ring edge (%d,%d) not reported", e[0], e[1])
		}
	}
	if s.IsLoopEdge(spur[0][0], spur[0][1]) {
		t.Error("spur edge wrongly reported as loop edge")
	}
}

func TestSeparates(t *testing.T) {
	// Two triangles joined by the bridge 2-3; vertex 6 dangles off 3.
	//
	//	0-1   4-5
	//	 \|   |/
	//	  2 - 3 - 6
	edges := [][2]int{
		{0, 1}, {1, 2}, {2, 0},
		{4, 5}, {5, 3}, {3, 4},
		{2, 3}, {3, 6},
	}
	g := newGraph(7, edges)
	s := New(7)
	s.Run(g.neighbour)

	if !s.Separates(2, 3, 0, 5) {
		t.Error("bridge 2-3 should separate 0 from 5")
	}
	if !s.Separates(3, 2, 0, 5) {
		t.Error("Separates should accept either edge orientation")
	}
	if s.Separates(2, 3, 0, 1) {
		t.Error("bridge 2-3 should not separate 0 from 1")
	}
	if s.Separates(2, 3, 4, 6) {
		t.Error("bridge 2-3 should not separate 4 from 6")
	}
	if s.Separates(0, 1, 2, 5) {
		t.Error("cycle edge 0-1 separates nothing")
	}
	if !s.Separates(3, 6, 6, 0) {
		t.Error("bridge 3-6 should separate 6 from 0")
	}
}

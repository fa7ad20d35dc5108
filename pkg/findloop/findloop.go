// Package findloop identifies which edges of an undirected graph lie on
// at least one cycle. An edge lies on a cycle exactly when it is not a
// bridge, so the package computes the bridge set of the graph via a
// spanning-forest pass and a reachability pass over preorder indices.
//
// The graph is presented as a neighbour function rather than an
// explicit edge list, so callers with implicit grid topologies (loop
// puzzles, track layouts) can run it without materialising adjacency
// structures of their own.
package findloop

// State holds the per-vertex results of a bridge computation. A State
// may be reused across runs on graphs with the same vertex count.
type State struct {
	parent []int // spanning-forest parent, -1 for roots
	index  []int // preorder index within the forest
	size   []int // subtree size in the spanning forest
	minR   []int // least preorder index reachable from the subtree
	maxR   []int // greatest preorder index reachable from the subtree
}

// New returns a State for graphs on nvertices vertices, numbered from
// 0 to nvertices-1.
func New(nvertices int) *State {
	return &State{
		parent: make([]int, nvertices),
		index:  make([]int, nvertices),
		size:   make([]int, nvertices),
		minR:   make([]int, nvertices),
		maxR:   make([]int, nvertices),
	}
}

// Run computes the bridge set of the graph described by neighbour,
// which must return the adjacent vertices of v (an undirected edge
// appears in both endpoints' lists; parallel edges may be repeated).
// It returns true if the graph contains any loop edge at all.
func (s *State) Run(neighbour func(v int) []int) bool {
	n := len(s.parent)
	for v := 0; v < n; v++ {
		s.parent[v] = -1
		s.index[v] = -1
	}

	// Pass 1: build a spanning forest and assign preorder indices.
	// preorder[i] is the vertex with index i, so a reverse scan of it
	// visits children before parents.
	preorder := make([]int, 0, n)
	roots := 0
	halfEdges := 0
	type frame struct {
		v    int
		nbrs []int
		next int
	}
	var stack []frame
	for start := 0; start < n; start++ {
		if s.index[start] >= 0 {
			continue
		}
		roots++
		s.index[start] = len(preorder)
		preorder = append(preorder, start)
		stack = append(stack[:0], frame{v: start, nbrs: neighbour(start)})
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			if f.next >= len(f.nbrs) {
				stack = stack[:len(stack)-1]
				continue
			}
			w := f.nbrs[f.next]
			f.next++
			if s.index[w] >= 0 {
				continue
			}
			s.parent[w] = f.v
			s.index[w] = len(preorder)
			preorder = append(preorder, w)
			stack = append(stack, frame{v: w, nbrs: neighbour(w)})
		}
	}

	// Pass 2: subtree sizes, children before parents.
	for v := 0; v < n; v++ {
		s.size[v] = 1
	}
	for i := n - 1; i >= 0; i-- {
		v := preorder[i]
		if s.parent[v] >= 0 {
			s.size[s.parent[v]] += s.size[v]
		}
	}

	// Pass 3: least and greatest preorder index reachable from each
	// subtree without using the tree edge to its parent. Exactly one
	// neighbour-list occurrence of the parent is the tree edge; any
	// further occurrences are parallel edges and count as ordinary
	// reachability.
	for v := 0; v < n; v++ {
		s.minR[v] = s.index[v]
		s.maxR[v] = s.index[v]
		skippedParent := false
		for _, w := range neighbour(v) {
			halfEdges++
			if w == s.parent[v] && !skippedParent {
				skippedParent = true
				continue
			}
			if s.index[w] < s.minR[v] {
				s.minR[v] = s.index[w]
			}
			if s.index[w] > s.maxR[v] {
				s.maxR[v] = s.index[w]
			}
		}
	}
	for i := n - 1; i >= 0; i-- {
		v := preorder[i]
		p := s.parent[v]
		if p < 0 {
			continue
		}
		if s.minR[v] < s.minR[p] {
			s.minR[p] = s.minR[v]
		}
		if s.maxR[v] > s.maxR[p] {
			s.maxR[p] = s.maxR[v]
		}
	}

	// Every edge beyond the spanning forest closes a cycle.
	return halfEdges/2 > n-roots
}

// IsLoopEdge reports whether the edge between u and v lies on a cycle,
// i.e. is not a bridge. Run must have been called first, and (u, v)
// must be an edge of the graph it was given.
func (s *State) IsLoopEdge(u, v int) bool {
	// Orient the pair so that v is the spanning-tree child, if the
	// edge is a tree edge at all.
	if s.parent[u] == v {
		u, v = v, u
	}
	if s.parent[v] != u {
		// Not a tree edge, so it closed a cycle when discovered.
		return true
	}
	// A tree edge is a bridge exactly when nothing in v's subtree
	// reaches outside the subtree's preorder range.
	lo := s.index[v]
	hi := lo + s.size[v] - 1
	return s.minR[v] < lo || s.maxR[v] > hi
}

// Separates reports whether removing the edge between u and v would
// leave a and b in different components. It is false whenever the edge
// lies on a cycle, since removing such an edge disconnects nothing.
// Run must have been called first, and (u, v) must be an edge of the
// graph it was given.
func (s *State) Separates(u, v, a, b int) bool {
	if s.IsLoopEdge(u, v) {
		return false
	}
	if s.parent[u] == v {
		u, v = v, u
	}
	// Removing a bridge splits off exactly the child's subtree, which
	// occupies a contiguous preorder range.
	lo := s.index[v]
	hi := lo + s.size[v] - 1
	inA := s.index[a] >= lo && s.index[a] <= hi
	inB := s.index[b] >= lo && s.index[b] <= hi
	return inA != inB
}

// Package tree234 implements a counted 2-3-4 tree: a balanced B-tree of
// order 4 in which every child pointer carries the element count of the
// subtree it points to. The counts make positional access cheap, so the
// tree doubles as a sorted container (with a user-supplied ordering)
// and as an unsorted sequence addressed by index.
//
// Beyond the usual add/find/delete operations, the tree supports
// splitting at an arbitrary position and joining two trees, both in
// O(log n) amortised time per level; a puzzle generator can therefore
// keep a weighted candidate list in a tree and sample from it by index
// without linear scans.
//
// Balance, count accuracy, parent-pointer consistency and (in sorted
// mode) strict element ordering are maintained across every public
// operation; violating them is a programming error, and the test suite
// carries a verifier that checks all of them after every step.
package tree234

import "errors"

// Cmp is a total order over elements: negative if a < b, zero if
// equal, positive if a > b.
type Cmp[E any] func(a, b E) int

// Rel selects the kind of relational lookup performed by FindRel.
type Rel int

const (
	// Eq finds the element equal to the key.
	Eq Rel = iota
	// Lt finds the greatest element strictly less than the key.
	Lt
	// Gt finds the least element strictly greater than the key.
	Gt
	// Le finds the element equal to the key, or failing that the
	// greatest element less than it.
	Le
	// Ge finds the element equal to the key, or failing that the
	// least element greater than it.
	Ge
)

// ErrUnjoinable is returned by Join when the two trees' element orders
// are incompatible (some left element is >= some right element).
var ErrUnjoinable = errors.New("tree234: join would violate ordering")

type node[E any] struct {
	parent *node[E]
	kids   [4]*node[E]
	counts [4]int // counts[i] is the element count of kids[i]'s subtree
	elems  [3]E
	nelems int
}

// Tree is a counted 2-3-4 tree. The zero value is not usable; construct
// with New or NewUnsorted.
type Tree[E any] struct {
	root *node[E]
	cmp  Cmp[E] // nil for unsorted trees
}

// New returns an empty sorted tree using the given ordering. Inserting
// an element equal to an existing one is rejected; Add returns the
// element already present.
func New[E any](cmp Cmp[E]) *Tree[E] {
	if cmp == nil {
		panic("tree234: New requires a comparison function")
	}
	return &Tree[E]{cmp: cmp}
}

// NewUnsorted returns an empty unsorted tree, ordered purely by
// insertion position.
func NewUnsorted[E any]() *Tree[E] { return &Tree[E]{} }

func (n *node[E]) isLeaf() bool { return n.kids[0] == nil }

func (n *node[E]) nkids() int {
	if n.isLeaf() {
		return 0
	}
	return n.nelems + 1
}

// kidCount is the total element count of the subtree rooted at n.
func kidCount[E any](n *node[E]) int {
	if n == nil {
		return 0
	}
	total := n.nelems
	for i := 0; i < n.nkids(); i++ {
		total += n.counts[i]
	}
	return total
}

// Count returns the number of elements in the tree.
func (t *Tree[E]) Count() int { return kidCount(t.root) }

// Height returns the number of levels in the tree; an empty tree has
// height 0, a single node height 1.
func (t *Tree[E]) Height() int {
	h := 0
	for n := t.root; n != nil; n = n.kids[0] {
		h++
	}
	return h
}

func childIndex[E any](p, c *node[E]) int {
	for i := 0; i < p.nkids(); i++ {
		if p.kids[i] == c {
			return i
		}
	}
	panic("tree234: parent/child pointers inconsistent")
}

// fixCountsToRoot recomputes the counts arrays of n and all its
// ancestors. Children below n must already carry accurate counts.
func (t *Tree[E]) fixCountsToRoot(n *node[E]) {
	for m := n; m != nil; m = m.parent {
		for i := 0; i < m.nkids(); i++ {
			m.counts[i] = kidCount(m.kids[i])
		}
	}
}

// insertAt inserts element e into node n at element position pos, with
// newKid (possibly nil) becoming the child immediately to the right of
// e (or to the left, if kidOnLeft). Overfull nodes are split on the way
// up, and subtree counts are repaired afterwards.
func (t *Tree[E]) insertAt(n *node[E], pos int, e E, newKid *node[E], kidOnLeft bool) {
	carryE := e
	carryKid := newKid
	cur := n
	lowest := n

	for {
		kidPos := pos + 1
		if kidOnLeft {
			kidPos = pos
		}
		if cur.nelems < 3 {
			// Room in this node: shift elements and kids rightwards.
			for i := cur.nelems; i > pos; i-- {
				cur.elems[i] = cur.elems[i-1]
			}
			cur.elems[pos] = carryE
			if !cur.isLeaf() || carryKid != nil {
				for i := cur.nkids(); i > kidPos; i-- {
					cur.kids[i] = cur.kids[i-1]
					cur.counts[i] = cur.counts[i-1]
				}
				cur.kids[kidPos] = carryKid
				cur.counts[kidPos] = kidCount(carryKid)
				if carryKid != nil {
					carryKid.parent = cur
				}
			}
			cur.nelems++
			t.fixCountsToRoot(lowest)
			return
		}

		// Overfull: compose the 4-element, 5-child node and split it.
		var es [4]E
		var ks [5]*node[E]
		copy(es[:pos], cur.elems[:pos])
		es[pos] = carryE
		copy(es[pos+1:], cur.elems[pos:])
		if !cur.isLeaf() || carryKid != nil {
			copy(ks[:kidPos], cur.kids[:kidPos])
			ks[kidPos] = carryKid
			copy(ks[kidPos+1:], cur.kids[kidPos:])
		}

		right := &node[E]{}
		right.elems[0] = es[3]
		right.nelems = 1

		var zero [3]E
		cur.elems = zero
		cur.elems[0], cur.elems[1] = es[0], es[1]
		cur.nelems = 2

		var zk [4]*node[E]
		cur.kids, right.kids = zk, zk
		if ks[0] != nil {
			cur.kids[0], cur.kids[1], cur.kids[2] = ks[0], ks[1], ks[2]
			right.kids[0], right.kids[1] = ks[3], ks[4]
			for i := 0; i < 3; i++ {
				cur.kids[i].parent = cur
				cur.counts[i] = kidCount(cur.kids[i])
			}
			for i := 0; i < 2; i++ {
				right.kids[i].parent = right
				right.counts[i] = kidCount(right.kids[i])
			}
		}

		carryE = es[2]
		carryKid = right
		kidOnLeft = false

		parent := cur.parent
		if parent == nil {
			root := &node[E]{nelems: 1}
			root.elems[0] = carryE
			root.kids[0], root.kids[1] = cur, right
			cur.parent, right.parent = root, root
			root.counts[0] = kidCount(cur)
			root.counts[1] = kidCount(right)
			t.root = root
			t.fixCountsToRoot(lowest)
			return
		}
		pos = childIndex(parent, cur)
		cur = parent
		lowest = cur
	}
}

// Add inserts e into a sorted tree. If an equal element is already
// present, nothing is inserted and the existing element is returned
// with added == false.
func (t *Tree[E]) Add(e E) (existing E, added bool) {
	if t.cmp == nil {
		panic("tree234: Add on an unsorted tree; use AddPos")
	}
	if t.root == nil {
		t.root = &node[E]{nelems: 1}
		t.root.elems[0] = e
		return e, true
	}
	n := t.root
	for {
		i := 0
		for i < n.nelems && t.cmp(n.elems[i], e) < 0 {
			i++
		}
		if i < n.nelems && t.cmp(n.elems[i], e) == 0 {
			return n.elems[i], false
		}
		if n.isLeaf() {
			t.insertAt(n, i, e, nil, false)
			return e, true
		}
		n = n.kids[i]
	}
}

// AddPos inserts e into an unsorted tree so that it ends up at the
// given index, which must be in [0, Count()].
func (t *Tree[E]) AddPos(e E, index int) {
	if t.cmp != nil {
		panic("tree234: AddPos on a sorted tree; use Add")
	}
	if index < 0 || index > t.Count() {
		panic("tree234: AddPos index out of range")
	}
	if t.root == nil {
		t.root = &node[E]{nelems: 1}
		t.root.elems[0] = e
		return
	}
	n := t.root
	for {
		if n.isLeaf() {
			t.insertAt(n, index, e, nil, false)
			return
		}
		i := 0
		for {
			if index <= n.counts[i] {
				n = n.kids[i]
				break
			}
			index -= n.counts[i] + 1
			i++
		}
	}
}

// prefix returns the number of elements of n's subtree that precede
// n.elems[j].
func prefix[E any](n *node[E], j int) int {
	p := j
	if !n.isLeaf() {
		for i := 0; i <= j; i++ {
			p += n.counts[i]
		}
	}
	return p
}

// Index returns the element at the given 0-based position.
func (t *Tree[E]) Index(index int) (E, bool) {
	var zero E
	if index < 0 || index >= t.Count() {
		return zero, false
	}
	n := t.root
	for {
		if n.isLeaf() {
			return n.elems[index], true
		}
		i := 0
		for {
			if index < n.counts[i] {
				n = n.kids[i]
				break
			}
			index -= n.counts[i]
			if index == 0 {
				return n.elems[i], true
			}
			index--
			i++
		}
	}
}

// Find returns the element equal to e in a sorted tree.
func (t *Tree[E]) Find(e E) (E, bool) {
	el, _, ok := t.FindRel(e, Eq)
	return el, ok
}

// FindRel performs a relational lookup in a sorted tree, returning the
// matching element and its 0-based index.
func (t *Tree[E]) FindRel(e E, rel Rel) (found E, index int, ok bool) {
	var zero E
	if t.cmp == nil {
		panic("tree234: FindRel on an unsorted tree")
	}
	n := t.root
	base := 0
	predIdx, succIdx := -1, -1
	var pred, succ E

	for n != nil {
		j := 0
		for j < n.nelems && t.cmp(n.elems[j], e) < 0 {
			j++
		}
		if j < n.nelems && t.cmp(n.elems[j], e) == 0 {
			eqIdx := base + prefix(n, j)
			switch rel {
			case Eq, Le, Ge:
				return n.elems[j], eqIdx, true
			case Lt:
				if eqIdx == 0 {
					return zero, -1, false
				}
				el, _ := t.Index(eqIdx - 1)
				return el, eqIdx - 1, true
			case Gt:
				if eqIdx == t.Count()-1 {
					return zero, -1, false
				}
				el, _ := t.Index(eqIdx + 1)
				return el, eqIdx + 1, true
			}
		}
		if j > 0 {
			predIdx = base + prefix(n, j-1)
			pred = n.elems[j-1]
		}
		if j < n.nelems {
			succIdx = base + prefix(n, j)
			succ = n.elems[j]
		}
		if n.isLeaf() {
			break
		}
		for i := 0; i < j; i++ {
			base += n.counts[i] + 1
		}
		n = n.kids[j]
	}

	switch rel {
	case Lt, Le:
		if predIdx >= 0 {
			return pred, predIdx, true
		}
	case Gt, Ge:
		if succIdx >= 0 {
			return succ, succIdx, true
		}
	}
	return zero, -1, false
}

// Delete removes the element equal to e from a sorted tree, returning
// the element that was stored.
func (t *Tree[E]) Delete(e E) (E, bool) {
	var zero E
	_, idx, ok := t.FindRel(e, Eq)
	if !ok {
		return zero, false
	}
	return t.DeletePos(idx)
}

// DeletePos removes and returns the element at the given position.
func (t *Tree[E]) DeletePos(index int) (E, bool) {
	var zero E
	if index < 0 || index >= t.Count() {
		return zero, false
	}

	n := t.root
	for {
		if n.isLeaf() {
			removed := n.elems[index]
			for i := index; i < n.nelems-1; i++ {
				n.elems[i] = n.elems[i+1]
			}
			n.elems[n.nelems-1] = zero
			n.nelems--
			if n.nelems == 0 {
				// Only the root may empty out entirely.
				t.root = nil
			}
			if n.parent != nil {
				t.fixCountsToRoot(n.parent)
			}
			return removed, true
		}

		// Locate the position within this node.
		i, rem := 0, index
		onElem := false
		for {
			if rem < n.counts[i] {
				break
			}
			rem -= n.counts[i]
			if rem == 0 && i < n.nelems {
				onElem = true
				break
			}
			if i >= n.nelems {
				break
			}
			rem--
			i++
		}

		if onElem {
			// Deleting an element of an internal node: replace it by
			// its in-order predecessor (the maximum of kids[i]) and
			// delete that from the subtree instead. Ensure the child
			// we descend into is safe first.
			if n.kids[i].nelems == 1 {
				t.reinforce(n, i)
				if n.nelems == 0 {
					n = t.root
				}
				// Structure changed; re-locate from this node.
				continue
			}
			out := n.elems[i]
			n.elems[i] = t.deleteMaxOf(n.kids[i])
			t.fixCountsToRoot(n)
			return out, true
		}

		// Descending into kids[i]: make sure it cannot underflow.
		if n.kids[i].nelems == 1 {
			t.reinforce(n, i)
			if n.nelems == 0 {
				n = t.root
			}
			continue
		}
		index = rem
		n = n.kids[i]
	}
}

// deleteMaxOf removes and returns the greatest element of the subtree
// rooted at c, reinforcing 1-element nodes on the way down. c itself
// must already hold at least 2 elements.
func (t *Tree[E]) deleteMaxOf(c *node[E]) E {
	var zero E
	n := c
	for {
		if n.isLeaf() {
			el := n.elems[n.nelems-1]
			n.elems[n.nelems-1] = zero
			n.nelems--
			t.fixCountsToRoot(n.parent)
			return el
		}
		last := n.nkids() - 1
		if n.kids[last].nelems == 1 {
			t.reinforce(n, last)
			// n may have shrunk; recompute the last-kid index.
			continue
		}
		n = n.kids[last]
	}
}

// reinforce grows the 1-element child kids[i] of n to 2 or 3 elements,
// by borrowing from a sibling or merging with one. May shrink n and,
// if n is an emptied root, replace the tree root.
func (t *Tree[E]) reinforce(n *node[E], i int) {
	c := n.kids[i]
	var zero E

	if i > 0 && n.kids[i-1].nelems >= 2 {
		// Borrow from the left sibling: rotate right through the
		// separator.
		s := n.kids[i-1]
		for k := c.nelems; k > 0; k-- {
			c.elems[k] = c.elems[k-1]
		}
		c.elems[0] = n.elems[i-1]
		c.nelems++
		if !c.isLeaf() {
			for k := c.nkids() - 1; k > 0; k-- {
				c.kids[k] = c.kids[k-1]
				c.counts[k] = c.counts[k-1]
			}
			moved := s.kids[s.nkids()-1]
			c.kids[0] = moved
			c.counts[0] = s.counts[s.nkids()-1]
			moved.parent = c
			s.kids[s.nkids()-1] = nil
			s.counts[s.nkids()-1] = 0
		}
		n.elems[i-1] = s.elems[s.nelems-1]
		s.elems[s.nelems-1] = zero
		s.nelems--
		t.fixCountsToRoot(n)
		return
	}

	if i < n.nkids()-1 && n.kids[i+1].nelems >= 2 {
		// Borrow from the right sibling: rotate left.
		s := n.kids[i+1]
		c.elems[c.nelems] = n.elems[i]
		c.nelems++
		if !c.isLeaf() {
			moved := s.kids[0]
			c.kids[c.nkids()-1] = moved
			c.counts[c.nkids()-1] = s.counts[0]
			moved.parent = c
			for k := 0; k < s.nkids()-1; k++ {
				s.kids[k] = s.kids[k+1]
				s.counts[k] = s.counts[k+1]
			}
			s.kids[s.nkids()-1] = nil
			s.counts[s.nkids()-1] = 0
		}
		n.elems[i] = s.elems[0]
		for k := 0; k < s.nelems-1; k++ {
			s.elems[k] = s.elems[k+1]
		}
		s.elems[s.nelems-1] = zero
		s.nelems--
		t.fixCountsToRoot(n)
		return
	}

	// Merge with a sibling. Arrange for c to be the left of the pair.
	li := i
	if li == n.nkids()-1 {
		li = i - 1
	}
	l, r := n.kids[li], n.kids[li+1]

	l.elems[l.nelems] = n.elems[li]
	l.nelems++
	for k := 0; k < r.nelems; k++ {
		l.elems[l.nelems] = r.elems[k]
		l.nelems++
	}
	if !l.isLeaf() {
		base := l.nkids() - r.nkids()
		for k := 0; k < r.nkids(); k++ {
			l.kids[base+k] = r.kids[k]
			l.counts[base+k] = r.counts[k]
			r.kids[k].parent = l
		}
	}

	// Remove the separator and the right child from n.
	for k := li; k < n.nelems-1; k++ {
		n.elems[k] = n.elems[k+1]
	}
	n.elems[n.nelems-1] = zero
	for k := li + 1; k < n.nkids()-1; k++ {
		n.kids[k] = n.kids[k+1]
		n.counts[k] = n.counts[k+1]
	}
	n.kids[n.nkids()-1] = nil
	n.counts[n.nkids()-1] = 0
	n.nelems--

	if n.nelems == 0 {
		// n must be the root: collapse it.
		if n.parent != nil {
			panic("tree234: non-root node emptied during delete")
		}
		l.parent = nil
		t.root = l
		return
	}
	t.fixCountsToRoot(n)
}

// ForEach calls fn on every element in order, stopping early if fn
// returns false.
func (t *Tree[E]) ForEach(fn func(E) bool) {
	var walk func(n *node[E]) bool
	walk = func(n *node[E]) bool {
		if n == nil {
			return true
		}
		for i := 0; i < n.nelems; i++ {
			if !n.isLeaf() && !walk(n.kids[i]) {
				return false
			}
			if !fn(n.elems[i]) {
				return false
			}
		}
		if !n.isLeaf() {
			return walk(n.kids[n.nelems])
		}
		return true
	}
	walk(t.root)
}

// Copy returns a deep copy of the tree structure. If copyElem is nil,
// payloads are shared between the two trees; otherwise each element is
// passed through copyElem.
func (t *Tree[E]) Copy(copyElem func(E) E) *Tree[E] {
	var clone func(n *node[E], parent *node[E]) *node[E]
	clone = func(n, parent *node[E]) *node[E] {
		if n == nil {
			return nil
		}
		m := &node[E]{parent: parent, nelems: n.nelems, counts: n.counts}
		for i := 0; i < n.nelems; i++ {
			if copyElem != nil {
				m.elems[i] = copyElem(n.elems[i])
			} else {
				m.elems[i] = n.elems[i]
			}
		}
		for i := 0; i < n.nkids(); i++ {
			m.kids[i] = clone(n.kids[i], m)
		}
		return m
	}
	return &Tree[E]{root: clone(t.root, nil), cmp: t.cmp}
}

func height[E any](n *node[E]) int {
	h := 0
	for ; n != nil; n = n.kids[0] {
		h++
	}
	return h
}

// join2 joins left and right around the separator e: every element of
// left precedes e, which precedes every element of right. Either side
// may be nil. Returns the root of the joined tree.
func (t *Tree[E]) join2(left *node[E], e E, right *node[E]) *node[E] {
	hl, hr := height(left), height(right)

	switch {
	case hl == hr:
		n := &node[E]{nelems: 1}
		n.elems[0] = e
		if left != nil {
			n.kids[0], n.kids[1] = left, right
			left.parent, right.parent = n, n
			n.counts[0] = kidCount(left)
			n.counts[1] = kidCount(right)
		}
		return n
	case hl > hr:
		// Hang (e, right) off the right spine of left at the correct
		// depth.
		sub := &Tree[E]{root: left, cmp: t.cmp}
		n := left
		for height(n) > hr+1 {
			n = n.kids[n.nkids()-1]
		}
		sub.insertAt(n, n.nelems, e, right, false)
		return sub.root
	default:
		sub := &Tree[E]{root: right, cmp: t.cmp}
		n := right
		for height(n) > hl+1 {
			n = n.kids[0]
		}
		sub.insertAt(n, 0, e, left, true)
		return sub.root
	}
}

// SplitAt splits the tree at the given position, returning a tree
// holding the first pos elements and a tree holding the rest. The
// receiver must not be used afterwards.
func (t *Tree[E]) SplitAt(pos int) (left, right *Tree[E]) {
	if pos < 0 || pos > t.Count() {
		panic("tree234: SplitAt position out of range")
	}
	ln, rn := t.splitNode(t.root, pos)
	left = &Tree[E]{root: ln, cmp: t.cmp}
	right = &Tree[E]{root: rn, cmp: t.cmp}
	if left.root != nil {
		left.root.parent = nil
	}
	if right.root != nil {
		right.root.parent = nil
	}
	t.root = nil
	return left, right
}

// splitNode splits the subtree rooted at n so that the first pos
// elements end up in the left result. Both results are detached roots.
func (t *Tree[E]) splitNode(n *node[E], pos int) (*node[E], *node[E]) {
	if n == nil {
		return nil, nil
	}
	if n.isLeaf() {
		var l, r *node[E]
		if pos > 0 {
			l = &node[E]{nelems: pos}
			copy(l.elems[:], n.elems[:pos])
		}
		if pos < n.nelems {
			r = &node[E]{nelems: n.nelems - pos}
			copy(r.elems[:], n.elems[pos:n.nelems])
		}
		return l, r
	}

	// Find the child subtree containing the boundary.
	j, rem := 0, pos
	for rem > n.counts[j] {
		rem -= n.counts[j] + 1
		j++
	}
	for i := 0; i < n.nkids(); i++ {
		n.kids[i].parent = nil
	}
	subL, subR := t.splitNode(n.kids[j], rem)

	// Reassemble the left side: kids[0] e0 kids[1] ... e[j-1] subL.
	var left *node[E]
	if j == 0 {
		left = subL
	} else {
		left = n.kids[0]
		for i := 0; i < j; i++ {
			next := subL
			if i+1 < j {
				next = n.kids[i+1]
			}
			left = t.join2(left, n.elems[i], next)
		}
	}

	// And the right side: subR e[j] kids[j+1] ... e[m-1] kids[m].
	right := subR
	for i := j; i < n.nelems; i++ {
		right = t.join2(right, n.elems[i], n.kids[i+1])
	}
	if left != nil {
		left.parent = nil
	}
	if right != nil {
		right.parent = nil
	}
	return left, right
}

// Join concatenates two trees: the result contains every element of
// left followed by every element of right. In sorted mode all left
// elements must order strictly before all right elements; otherwise
// ErrUnjoinable is returned and neither input is modified. On success
// both inputs are consumed.
func Join[E any](left, right *Tree[E]) (*Tree[E], error) {
	if left.cmp != nil && left.Count() > 0 && right.Count() > 0 {
		lmax, _ := left.Index(left.Count() - 1)
		rmin, _ := right.Index(0)
		if left.cmp(lmax, rmin) >= 0 {
			return nil, ErrUnjoinable
		}
	}
	if right.Count() == 0 {
		return left, nil
	}
	if left.Count() == 0 {
		return right, nil
	}
	sep, _ := right.DeletePos(0)
	out := &Tree[E]{cmp: left.cmp}
	out.root = out.join2(left.root, sep, right.root)
	out.root.parent = nil
	left.root, right.root = nil, nil
	return out, nil
}

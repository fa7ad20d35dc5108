// Package dsf implements a disjoint set forest (union-find), a data
// structure useful in any solver which has to worry about avoiding
// closed loops, tracking connected regions, or reasoning about
// equivalence classes of grid elements.
//
// Three variants are provided, all sharing the same representation:
//
//   - the plain forest (New), supporting Canonify, Merge and Size;
//   - the edge-signed or "flip" forest (NewFlip), which additionally
//     tracks a parity bit between merged elements, so a solver can
//     assert "these two elements are equal" or "these two elements are
//     opposite" and later query the relation between any two elements
//     of a class;
//   - the minimum-tracking forest (NewMin), which can report the
//     smallest element index in each class, useful for choosing a
//     canonical representative that is stable under merges.
//
// All operations use union by size and path compression, giving the
// usual near-constant amortised cost.
package dsf

// DSF is a disjoint set forest over elements 0..n-1.
type DSF struct {
	// parentOrSize[n] is the negated class size if n is canonical,
	// otherwise the index of an element nearer the root of n's tree.
	parentOrSize []int

	// flip[n] records whether n's sense is inverted relative to its
	// parent. Only meaningful for non-canonical elements, and only
	// allocated for flip-tracking forests.
	flip []uint8

	// min[n] holds the smallest element of n's class if n is
	// canonical. Only allocated for minimum-tracking forests.
	min []int
}

func newInternal(size int, flip, min bool) *DSF {
	if size <= 0 {
		panic("dsf: size must be positive")
	}
	d := &DSF{parentOrSize: make([]int, size)}
	if flip {
		d.flip = make([]uint8, size)
	}
	if min {
		d.min = make([]int, size)
	}
	d.Reinit()
	return d
}

// New returns a plain disjoint set forest with all size elements in
// singleton classes.
func New(size int) *DSF { return newInternal(size, false, false) }

// NewFlip returns an edge-signed forest which tracks a parity bit
// between merged elements.
func NewFlip(size int) *DSF { return newInternal(size, true, false) }

// NewMin returns a forest which tracks the minimal element of each
// class.
func NewMin(size int) *DSF { return newInternal(size, false, true) }

// Size returns the number of elements in the forest (not the number of
// classes).
func (d *DSF) Len() int { return len(d.parentOrSize) }

// Reinit returns every element to a singleton class, reusing the
// existing storage.
func (d *DSF) Reinit() {
	for i := range d.parentOrSize {
		d.parentOrSize[i] = -1
	}
	if d.min != nil {
		for i := range d.min {
			d.min[i] = i
		}
	}
	// flip entries are only meaningful for non-root elements, of which
	// there are now none.
}

// Copy overwrites d with the contents of from. The two forests must be
// the same size and have the same variant flags.
func (d *DSF) Copy(from *DSF) {
	if len(d.parentOrSize) != len(from.parentOrSize) {
		panic("dsf: size mismatch in Copy")
	}
	copy(d.parentOrSize, from.parentOrSize)
	if d.flip != nil {
		if from.flip == nil {
			panic("dsf: copying a non-flip dsf to a flip one")
		}
		copy(d.flip, from.flip)
	}
	if d.min != nil {
		if from.min == nil {
			panic("dsf: copying a non-min dsf to a min one")
		}
		copy(d.min, from.min)
	}
}

func (d *DSF) findRoot(n int) int {
	for d.parentOrSize[n] >= 0 {
		n = d.parentOrSize[n]
	}
	return n
}

func (d *DSF) pathCompress(n, root int) {
	for d.parentOrSize[n] >= 0 {
		prev := n
		n = d.parentOrSize[n]
		d.parentOrSize[prev] = root
	}
}

// Canonify returns the canonical representative of n's class. The
// result is idempotent: Canonify(Canonify(n)) == Canonify(n).
func (d *DSF) Canonify(n int) int {
	root := d.findRoot(n)
	d.pathCompress(n, root)
	return root
}

// Merge unions the classes containing n1 and n2. The size of the
// combined class is the sum of the two input sizes. Merging two
// elements already in the same class is a no-op.
func (d *DSF) Merge(n1, n2 int) {
	if d.flip != nil {
		panic("dsf: Merge on a flip dsf; use MergeFlip")
	}
	r1 := d.findRoot(n1)
	r2 := d.findRoot(n2)

	root := r1
	if r1 != r2 {
		s1, s2 := -d.parentOrSize[r1], -d.parentOrSize[r2]
		if s1 > s2 {
			d.parentOrSize[r2] = r1
			root = r1
		} else {
			d.parentOrSize[r1] = r2
			root = r2
		}
		d.parentOrSize[root] = -(s1 + s2)
		if d.min != nil {
			m1, m2 := d.min[r1], d.min[r2]
			if m2 < m1 {
				m1 = m2
			}
			d.min[root] = m1
		}
	}

	d.pathCompress(n1, root)
	d.pathCompress(n2, root)
}

// Equivalent reports whether n1 and n2 are in the same class.
func (d *DSF) Equivalent(n1, n2 int) bool {
	return d.Canonify(n1) == d.Canonify(n2)
}

// Size returns the number of elements in the class containing n.
func (d *DSF) Size(n int) int {
	root := d.Canonify(n)
	return -d.parentOrSize[root]
}

// Minimal returns the smallest element index in the class containing
// n. Only valid on a forest created with NewMin.
func (d *DSF) Minimal(n int) int {
	if d.min == nil {
		panic("dsf: Minimal on a non-min dsf")
	}
	return d.min[d.Canonify(n)]
}

func (d *DSF) findRootFlip(n int) (root int, flip uint8) {
	for d.parentOrSize[n] >= 0 {
		flip ^= d.flip[n]
		n = d.parentOrSize[n]
	}
	return n, flip
}

func (d *DSF) pathCompressFlip(n, root int, flip uint8) {
	for d.parentOrSize[n] >= 0 {
		prev := n
		flipPrev := flip
		n = d.parentOrSize[n]
		flip ^= d.flip[prev]
		d.flip[prev] = flipPrev
		d.parentOrSize[prev] = root
	}
}

// CanonifyFlip returns the canonical representative of n's class, and
// whether n's sense is inverted relative to that representative.
func (d *DSF) CanonifyFlip(n int) (root int, inverse bool) {
	if d.flip == nil {
		panic("dsf: CanonifyFlip on a non-flip dsf")
	}
	r, f := d.findRootFlip(n)
	d.pathCompressFlip(n, r, f)
	return r, f != 0
}

// MergeFlip unions the classes containing n1 and n2, asserting that
// their senses differ iff inverse is true. If the two elements are
// already related with the opposite sign, the existing relation is
// kept and MergeFlip returns false; the caller should treat this as a
// contradiction. Otherwise it returns true.
func (d *DSF) MergeFlip(n1, n2 int, inverse bool) bool {
	if d.flip == nil {
		panic("dsf: MergeFlip on a non-flip dsf")
	}
	var inv uint8
	if inverse {
		inv = 1
	}

	r1, f1 := d.findRootFlip(n1)
	r2, f2 := d.findRootFlip(n2)

	root := r1
	consistent := true
	if r1 == r2 {
		consistent = f1^f2^inv == 0
	} else {
		s1, s2 := -d.parentOrSize[r1], -d.parentOrSize[r2]
		if s1 > s2 {
			d.parentOrSize[r2] = r1
			d.flip[r2] = f1 ^ f2 ^ inv
			f2 ^= d.flip[r2]
			root = r1
		} else {
			d.parentOrSize[r1] = r2
			d.flip[r1] = f1 ^ f2 ^ inv
			f1 ^= d.flip[r1]
			root = r2
		}
		d.parentOrSize[root] = -(s1 + s2)
		if d.min != nil {
			m1, m2 := d.min[r1], d.min[r2]
			if m2 < m1 {
				m1 = m2
			}
			d.min[root] = m1
		}
	}

	d.pathCompressFlip(n1, root, f1)
	d.pathCompressFlip(n2, root, f2)
	return consistent
}

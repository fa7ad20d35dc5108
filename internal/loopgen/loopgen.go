// Package loopgen grows the random simply-connected cell regions that
// the loop-drawing puzzles turn into solution loops: the boundary of a
// region produced here is always one closed loop.
package loopgen

import (
	"github.com/gitrdm/gridlogic/pkg/puzzle"
	"github.com/gitrdm/gridlogic/pkg/tree234"
)

// cellScore ranks a candidate expansion cell. Cells with more unlit
// orthogonal neighbours push the loop into empty territory, so they
// sort first; the random key breaks ties and is redrawn on every
// rescore so repeated growths from one seed still explore different
// shapes instead of creeping in a constant direction.
type cellScore struct {
	score  int
	random uint32
	index  int
}

func cmpCellScore(a, b *cellScore) int {
	if a.score != b.score {
		return b.score - a.score
	}
	if a.random != b.random {
		if a.random < b.random {
			return -1
		}
		return 1
	}
	return a.index - b.index
}

// The 8-neighbour ring, clockwise.
var (
	ringDX = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
	ringDY = [8]int{-1, -1, 0, 1, 1, 1, 0, -1}
)

// GrowRegion lights a random simply connected region of a w x h cell
// grid. Growth starts from a single random cell and stops once the
// region covers roughly 7/12 of the grid and touches all four sides,
// or no cell can be added without pinching the region.
func GrowRegion(w, h int, rng *puzzle.Random) []bool {
	lit := make([]bool, w*h)

	lit[rng.UpTo(w*h)] = true
	area := 1

	scores := make([]*cellScore, w*h)
	for i := range scores {
		scores[i] = &cellScore{random: rng.Bits(31), index: i}
	}
	candidates := tree234.New(cmpCellScore)

	inGrid := func(x, y int) bool { return x >= 0 && x < w && y >= 0 && y < h }
	litAt := func(x, y int) bool { return inGrid(x, y) && lit[y*w+x] }

	// A cell can join the region if it borders it orthogonally and
	// the lit cells in its 8-neighbour ring form one contiguous run;
	// anything else would pinch the region or close it around a hole.
	viable := func(c int) bool {
		if lit[c] {
			return false
		}
		x, y := c%w, c/w
		var ring [8]bool
		orth := false
		for i := 0; i < 8; i++ {
			ring[i] = litAt(x+ringDX[i], y+ringDY[i])
			if ring[i] && i%2 == 0 {
				orth = true
			}
		}
		if !orth {
			return false
		}
		runs := 0
		for i := 0; i < 8; i++ {
			if ring[i] && !ring[(i+1)&7] {
				runs++
			}
		}
		return runs == 1
	}

	unlitNeighbours := func(c int) int {
		x, y := c%w, c/w
		n := 0
		for i := 0; i < 8; i += 2 {
			if !litAt(x+ringDX[i], y+ringDY[i]) {
				n++
			}
		}
		return n
	}

	// Remove-then-rescore: the tree locates an element through its
	// stored score, so the score field must not change while the
	// element is inside.
	refresh := func(c int) {
		candidates.Delete(scores[c])
		if viable(c) {
			scores[c].score = unlitNeighbours(c)
			scores[c].random = rng.Bits(31)
			candidates.Add(scores[c])
		}
	}
	for c := range scores {
		refresh(c)
	}

	touchesAllSides := func() bool {
		var top, bottom, left, right bool
		for x := 0; x < w; x++ {
			top = top || lit[x]
			bottom = bottom || lit[(h-1)*w+x]
		}
		for y := 0; y < h; y++ {
			left = left || lit[y*w]
			right = right || lit[y*w+w-1]
		}
		return top && bottom && left && right
	}

	for candidates.Count() > 0 {
		fs, _ := candidates.Index(0)
		c := fs.index
		candidates.Delete(fs)
		lit[c] = true
		area++

		x, y := c%w, c/w
		for i := 0; i < 8; i++ {
			nx, ny := x+ringDX[i], y+ringDY[i]
			if inGrid(nx, ny) {
				refresh(ny*w + nx)
			}
		}

		limit := rng.UpTo(w*h) + 13*w*h
		if 24*area > limit && touchesAllSides() {
			break
		}
	}

	return lit
}

// DuplicationMap maps n target indices onto src source indices,
// monotonically, with every source hit at least once. Callers use it
// to stretch a region grown on a reduced grid back to full size.
func DuplicationMap(src, n int, rng *puzzle.Random) []int {
	count := make([]int, src)
	for i := range count {
		count[i] = 1
	}
	for i := src; i < n; i++ {
		count[rng.UpTo(src)]++
	}
	out := make([]int, 0, n)
	for s, c := range count {
		for i := 0; i < c; i++ {
			out = append(out, s)
		}
	}
	return out
}

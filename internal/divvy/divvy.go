// Package divvy divides a rectangle into equally sized polyominoes,
// chosen at random. Every omino in the result is simply connected: an
// omino never completely surrounds another, which keeps both the
// addition and the removal test down to a local examination of the
// eight surrounding squares.
package divvy

import (
	"github.com/gitrdm/gridlogic/pkg/dsf"
	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// ring8DX/ring8DY enumerate the eight neighbours of a square in
// cyclic order, starting west.
var (
	ring8DX = []int{-1, -1, 0, +1, +1, +1, 0, -1}
	ring8DY = []int{0, -1, -1, -1, 0, +1, +1, +1}
)

// canAddRemove reports whether (x,y) can join, or leave, the omino
// labelled val without breaking simple connectivity. Walking the
// 8-ring, the squares owned by val must form exactly one contiguous
// run, and at least one of them must be orthogonally adjacent.
func canAddRemove(w, h, x, y int, own []int, val int) bool {
	var ring [8]int
	for dir := 0; dir < 8; dir++ {
		sx, sy := x+ring8DX[dir], y+ring8DY[dir]
		if sx < 0 || sx >= w || sy < 0 || sy >= h {
			ring[dir] = -1
		} else {
			ring[dir] = own[sy*w+sx]
		}
	}

	if ring[0] != val && ring[2] != val && ring[4] != val && ring[6] != val {
		return false
	}

	transitions := 0
	for dir := 0; dir < 8; dir++ {
		if (ring[dir] == val) != (ring[(dir+1)&7] == val) {
			transitions++
		}
	}
	return transitions == 2
}

const (
	unclaimed = -1
	removed   = -3 // square temporarily lifted out of its omino
)

// attempt makes one pass at partitioning the grid; it reports false
// when some omino gets wedged with no way left to grow.
func attempt(w, h, k int, rng *puzzle.Random) ([]int, bool) {
	wh := w * h
	n := wh / k

	// A random iteration order for every grid search below, so the
	// result carries no directional bias.
	order := make([]int, wh)
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(wh, func(i, j int) { order[i], order[j] = order[j], order[i] })

	own := make([]int, wh)
	for i := range own {
		own[i] = unclaimed
	}
	sizes := make([]int, n)
	for i := 0; i < n; i++ {
		own[order[i]] = i
		sizes[i] = 1
	}

	addable := make([]int, wh*4)
	removable := make([]bool, wh)
	from := make([]int, n)   // bfs: omino we reached this one from
	stolen := make([]int, n) // bfs: square that omino stole from this one
	queue := make([]int, 0, n)

	for {
		// Which squares can currently be added to, or removed from,
		// which ominoes. Poaching is allowed: a square may be
		// addable to a neighbouring omino while owned by another.
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				yx := y*w + x
				curr := own[yx]
				switch {
				case curr < 0:
					removable[yx] = false
				case sizes[curr] == 1:
					removable[yx] = true
				default:
					removable[yx] = canAddRemove(w, h, x, y, own, curr)
				}

				for dir := 0; dir < 4; dir++ {
					addable[yx*4+dir] = -1
					sx, sy := x+ring8DX[dir*2], y+ring8DY[dir*2]
					if sx < 0 || sx >= w || sy < 0 || sy >= h {
						continue
					}
					nj := own[sy*w+sx]
					if nj < 0 || nj == curr {
						continue
					}
					if canAddRemove(w, h, x, y, own, nj) {
						addable[yx*4+dir] = nj
					}
				}
			}
		}

		start := -1
		{
			short := queue[:0]
			for i := 0; i < n; i++ {
				if sizes[i] < k {
					short = append(short, i)
				}
			}
			if len(short) == 0 {
				return own, true // every omino is complete
			}
			start = short[rng.UpTo(len(short))]
		}

		// Breadth-first search over ominoes: growing `start` may mean
		// stealing a square from a neighbour, which then re-grows,
		// until some omino in the chain reaches an unclaimed square.
		for i := 0; i < n; i++ {
			from[i], stolen[i] = -1, -1
		}
		queue = append(queue[:0], start)
		from[start], stolen[start] = -2, -2

		grown := false
		for qhead := 0; qhead < len(queue); qhead++ {
			j := queue[qhead]

			// If j itself lost a square on the way here, treat that
			// square as gone for the adjacency tests below.
			tmpsq := stolen[j]
			if tmpsq >= 0 {
				own[tmpsq] = removed
			}

			target := -1
			for _, sq := range order {
				if own[sq] != unclaimed {
					continue
				}
				// An omino robbed down to nothing may restart
				// anywhere.
				if sizes[j] == 1 && tmpsq >= 0 {
					target = sq
					break
				}
				ok := false
				for dir := 0; dir < 4; dir++ {
					if addable[sq*4+dir] == j &&
						canAddRemove(w, h, sq%w, sq/w, own, j) {
						ok = true
						break
					}
				}
				if ok {
					target = sq
					break
				}
			}
			if target >= 0 {
				if tmpsq >= 0 {
					own[tmpsq] = j
				}
				// Unwind the theft chain back to the starting omino.
				i, o := target, j
				for {
					own[i] = o
					if from[o] == -2 {
						break
					}
					i, o = stolen[o], from[o]
				}
				sizes[o]++
				grown = true
				break
			}

			// No free square; look for squares j could poach from
			// ominoes the search has not visited yet.
			for _, sq := range order {
				nj := own[sq]
				if nj < 0 || from[nj] != -1 || !removable[sq] {
					continue
				}
				for dir := 0; dir < 4; dir++ {
					if addable[sq*4+dir] != j {
						continue
					}
					if !canAddRemove(w, h, sq%w, sq/w, own, j) {
						continue
					}
					queue = append(queue, nj)
					from[nj], stolen[nj] = j, sq
					break
				}
			}

			if tmpsq >= 0 {
				own[tmpsq] = j
			}
		}

		if !grown {
			return nil, false // wedged; the caller starts over
		}
	}
}

// Rectangle partitions a w x h grid into k-ominoes and returns the
// partition as a DSF over the cells. k must divide w*h. Failed
// attempts are simply retried; the failure rate is low.
func Rectangle(w, h, k int, rng *puzzle.Random) *dsf.DSF {
	for {
		own, ok := attempt(w, h, k, rng)
		if !ok {
			continue
		}
		first := make([]int, w*h/k)
		for i := range first {
			first[i] = -1
		}
		d := dsf.New(w * h)
		for i, o := range own {
			if first[o] == -1 {
				first[o] = i
			} else {
				d.Merge(first[o], i)
			}
		}
		return d
	}
}

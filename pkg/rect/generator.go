package rect

import (
	"context"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// Layout grids during generation hold, in each cell, the index
// (y*w+x) of the top-left cell of the rectangle covering it, or -1
// for a cell not yet covered.

func findRect(w, h int, grid []int, x, y int) rectangle {
	idx := grid[y*w+x]
	if idx < 0 {
		return rectangle{x: x, y: y, w: 1, h: 1}
	}
	x, y = idx%w, idx/w
	rw, rh := 1, 1
	for x+rw < w && grid[y*w+x+rw] == idx {
		rw++
	}
	for y+rh < h && grid[(y+rh)*w+x] == idx {
		rh++
	}
	return rectangle{x: x, y: y, w: rw, h: rh}
}

func placeRect(w int, grid []int, r rectangle) {
	idx := r.y*w + r.x
	for y := r.y; y < r.y+r.h; y++ {
		for x := r.x; x < r.x+r.w; x++ {
			grid[y*w+x] = idx
		}
	}
}

// fillLayout covers a w x h grid with random rectangles. Rectangles
// larger than a sixth of the grid (but at least two cells) are never
// used, and leftover uncovered cells are resolved afterwards by
// resolveSingletons.
func fillLayout(w, h int, rng *puzzle.Random) []int {
	grid := make([]int, w*h)
	for i := range grid {
		grid[i] = -1
	}

	maxArea := w * h / 6
	if maxArea < 2 {
		maxArea = 2
	}

	var candidates []rectangle
	for rw := 1; rw <= w; rw++ {
		for rh := 1; rh <= h; rh++ {
			if rw*rh > maxArea || rw*rh == 1 {
				continue
			}
			for x := 0; x+rw <= w; x++ {
				for y := 0; y+rh <= h; y++ {
					candidates = append(candidates, rectangle{x: x, y: y, w: rw, h: rh})
				}
			}
		}
	}

	for len(candidates) > 0 {
		r := candidates[rng.UpTo(len(candidates))]
		placeRect(w, grid, r)

		// Keep only candidates disjoint from the placed rectangle.
		m := 0
		for _, s := range candidates {
			if s.x+s.w <= r.x || r.x+r.w <= s.x ||
				s.y+s.h <= r.y || r.y+r.h <= s.y {
				candidates[m] = s
				m++
			}
		}
		candidates = candidates[:m]
	}

	resolveSingletons(w, h, grid, rng)
	return grid
}

// resolveSingletons removes leftover 1x1 holes by local surgery: the
// singleton absorbs a neighbouring rectangle's end cell, extending
// into a 1xN while the neighbour shrinks by one layer. A singleton
// boxed in by four dominoes admits no such move; that pattern only
// arises inside a 3x3 area, which is replaced wholesale.
func resolveSingletons(w, h int, grid []int, rng *puzzle.Random) {
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			if grid[y*w+x] >= 0 {
				continue
			}

			// A direction is viable if the neighbouring rectangle
			// either loses a full end layer (we sit at one end of
			// the shared edge) or is a domino crossed on its short
			// side.
			var dirs []int
			if x < w-1 {
				r := findRect(w, h, grid, x+1, y)
				if (r.w*r.h > 2 && (r.y == y || r.y+r.h-1 == y)) || r.h == 1 {
					dirs = append(dirs, 0) // right
				}
			}
			if y > 0 {
				r := findRect(w, h, grid, x, y-1)
				if (r.w*r.h > 2 && (r.x == x || r.x+r.w-1 == x)) || r.w == 1 {
					dirs = append(dirs, 1) // up
				}
			}
			if x > 0 {
				r := findRect(w, h, grid, x-1, y)
				if (r.w*r.h > 2 && (r.y == y || r.y+r.h-1 == y)) || r.h == 1 {
					dirs = append(dirs, 2) // left
				}
			}
			if y < h-1 {
				r := findRect(w, h, grid, x, y+1)
				if (r.w*r.h > 2 && (r.x == x || r.x+r.w-1 == x)) || r.w == 1 {
					dirs = append(dirs, 3) // down
				}
			}

			if len(dirs) == 0 {
				placeRect(w, grid, rectangle{x: x - 1, y: y - 1, w: 3, h: 3})
				continue
			}

			var r1, r2 rectangle
			switch dirs[rng.UpTo(len(dirs))] {
			case 0: // right
				r1 = findRect(w, h, grid, x+1, y)
				r2 = rectangle{x: x, y: y, w: 1 + r1.w, h: 1}
				if r1.y == y {
					r1.y++
				}
				r1.h--
			case 1: // up
				r1 = findRect(w, h, grid, x, y-1)
				r2 = rectangle{x: x, y: r1.y, w: 1, h: 1 + r1.h}
				if r1.x == x {
					r1.x++
				}
				r1.w--
			case 2: // left
				r1 = findRect(w, h, grid, x-1, y)
				r2 = rectangle{x: r1.x, y: y, w: 1 + r1.w, h: 1}
				if r1.y == y {
					r1.y++
				}
				r1.h--
			case 3: // down
				r1 = findRect(w, h, grid, x, y+1)
				r2 = rectangle{x: x, y: y, w: 1, h: 1 + r1.h}
				if r1.x == x {
					r1.x++
				}
				r1.w--
			}
			if r1.w > 0 && r1.h > 0 {
				placeRect(w, grid, r1)
			}
			placeRect(w, grid, r2)
		}
	}
}

// expandRows stretches a w x h layout to w x nh rows. Extra rows are
// distributed at random among the horizontal seams; each rectangle
// edge running along a stretched seam is re-placed at a random level
// within the new band, with edge segments that meet at a shared
// corner kept aligned.
func expandRows(w, h, nh int, grid []int, rng *puzzle.Random) []int {
	out := make([]int, w*nh)
	expand := make([]int, h-1)
	for y := h; y < nh; y++ {
		expand[rng.UpTo(h-1)]++
	}
	where := make([]int, w)

	y2, y2last := 0, 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			val := grid[y*w+x]
			if val/w == y &&
				(y2 == 0 || out[(y2-1)*w+x]/w < y2last) {
				out[y2*w+x] = y2*w + val%w
			} else {
				out[y2*w+x] = out[(y2-1)*w+x]
			}
		}
		y2++
		if y2 == nh {
			break
		}
		y2last = y2

		yx := -1
		for x := 0; x < w; x++ {
			if grid[y*w+x] != grid[(y+1)*w+x] {
				if x == 0 ||
					(grid[y*w+x-1] != grid[y*w+x] &&
						grid[(y+1)*w+x-1] != grid[(y+1)*w+x]) {
					yx = rng.UpTo(expand[y] + 1)
				}
			} else {
				yx = -1
			}
			where[x] = yx
		}

		for band := 0; band < expand[y]; band++ {
			for x := 0; x < w; x++ {
				if band == where[x] {
					out[y2*w+x] = y2*w + grid[(y+1)*w+x]%w
				} else {
					out[y2*w+x] = out[(y2-1)*w+x]
				}
			}
			y2++
		}
	}
	return out
}

// transposeLayout turns a w x h layout into an h x w one, remapping
// the stored top-left indices.
func transposeLayout(w, h int, grid []int) []int {
	out := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := grid[y*w+x]
			out[x*h+y] = (v%w)*h + v/w
		}
	}
	return out
}

// GenerateDesc produces a puzzle descriptor and an aux solution
// string: a random rectangle layout (built at reduced size and
// stretched when p.Expand is set), with each rectangle's area written
// into one of its cells. With p.Unique the solver chooses the clue
// cells so that deduction alone pins every rectangle down; layouts
// where no such choice is found are thrown away.
func GenerateDesc(ctx context.Context, p Params, rng *puzzle.Random) (desc, aux string, err error) {
	if err := p.Validate(); err != nil {
		return "", "", err
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", "", puzzle.ErrGeneratorExhausted
		}

		// Build the layout on a smaller grid, then stretch rows,
		// transpose, stretch again and transpose back.
		w2 := int(float64(p.W) / (1 + p.Expand))
		h2 := int(float64(p.H) / (1 + p.Expand))
		if w2 < 2 && p.W >= 2 {
			w2 = 2
		}
		if h2 < 2 && p.H >= 2 {
			h2 = 2
		}
		if w2 < 1 {
			w2 = 1
		}
		if h2 < 1 {
			h2 = 1
		}

		grid := fillLayout(w2, h2, rng)
		gw, gh := w2, h2
		tw, th := p.W, p.H
		for pass := 0; pass < 2; pass++ {
			grid = expandRows(gw, gh, th, grid, rng)
			gh = th
			grid = transposeLayout(gw, gh, grid)
			gw, gh = gh, gw
			tw, th = th, tw
		}

		// Collect the rectangles; every cell of each one starts out
		// as a candidate home for its clue.
		var numbers []numberData
		for y := 0; y < p.H; y++ {
			for x := 0; x < p.W; x++ {
				if grid[y*p.W+x] != y*p.W+x {
					continue
				}
				r := findRect(p.W, p.H, grid, x, y)
				nd := numberData{area: r.w * r.h}
				for dy := 0; dy < r.h; dy++ {
					for dx := 0; dx < r.w; dx++ {
						nd.points = append(nd.points, point{x: r.x + dx, y: r.y + dy})
					}
				}
				numbers = append(numbers, nd)
			}
		}

		if p.Unique {
			s := newSolverState(p.W, p.H, numbers)
			if s.run(rng) != puzzle.Solved {
				continue
			}
			numbers = s.numbers
		}

		clues := make([]int, p.W*p.H)
		for _, nd := range numbers {
			pt := nd.points[rng.UpTo(len(nd.points))]
			clues[pt.y*p.W+pt.x] = nd.area
		}

		soln := &GameState{
			w:     p.W,
			h:     p.H,
			hedge: make([]uint8, p.W*p.H),
			vedge: make([]uint8, p.W*p.H),
		}
		for y := 0; y < p.H; y++ {
			for x := 1; x < p.W; x++ {
				if grid[y*p.W+x] != grid[y*p.W+x-1] {
					soln.vedge[y*p.W+x] = 1
				}
			}
		}
		for y := 1; y < p.H; y++ {
			for x := 0; x < p.W; x++ {
				if grid[y*p.W+x] != grid[(y-1)*p.W+x] {
					soln.hedge[y*p.W+x] = 1
				}
			}
		}

		desc = encodeDesc(p.W, p.H, clues)
		aux = solveMoveString(p.W, p.H, soln.hedge, soln.vedge)
		return desc, aux, nil
	}
}

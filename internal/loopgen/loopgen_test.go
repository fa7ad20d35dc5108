package loopgen

import (
	"testing"

	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

func TestGrowRegionConnected(t *testing.T) {
	const w, h = 6, 6
	rng := puzzle.NewRandom(5)
	for trial := 0; trial < 20; trial++ {
		lit := GrowRegion(w, h, rng)

		start, area := -1, 0
		for c, l := range lit {
			if l {
				area++
				if start < 0 {
					start = c
				}
			}
		}
		if area == 0 {
			t.Fatalf("trial %d: empty region", trial)
		}

		// Flood fill orthogonally; a simply connected region is
		// reached in full from any lit cell.
		seen := make([]bool, w*h)
		stack := []int{start}
		seen[start] = true
		reached := 0
		for len(stack) > 0 {
			c := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			reached++
			x, y := c%w, c/w
			for _, d := range [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				n := ny*w + nx
				if lit[n] && !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
		if reached != area {
			t.Fatalf("trial %d: region is disconnected (%d of %d cells reachable)", trial, reached, area)
		}
	}
}

func TestDuplicationMap(t *testing.T) {
	rng := puzzle.NewRandom(3)
	m := DuplicationMap(4, 9, rng)
	if len(m) != 9 {
		t.Fatalf("map has %d entries, want 9", len(m))
	}
	seen := make(map[int]bool)
	for i, src := range m {
		if src < 0 || src >= 4 {
			t.Fatalf("entry %d maps to %d, outside the source range", i, src)
		}
		if i > 0 && src < m[i-1] {
			t.Fatalf("map not monotonic at %d: %v", i, m)
		}
		seen[src] = true
	}
	if len(seen) != 4 {
		t.Errorf("map skips source cells: %v", m)
	}
}

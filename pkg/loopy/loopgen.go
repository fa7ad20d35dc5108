package loopy

import (
	"github.com/gitrdm/gridlogic/internal/loopgen"
	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// generateLoop lays a random closed loop over the grid edges. A
// region of lit cells is grown on a half-scale grid, then stretched
// back up by duplicating random rows and columns; the boundary of the
// lit region is the loop.
func generateLoop(g geom, rng *puzzle.Random) []line {
	sw, sh := (g.w+1)/2, (g.h+1)/2
	lit := loopgen.GrowRegion(sw, sh, rng)

	srcCol := loopgen.DuplicationMap(sw, g.w, rng)
	srcRow := loopgen.DuplicationMap(sh, g.h, rng)

	litFace := func(f int) bool {
		if f < 0 {
			return false
		}
		return lit[srcRow[f/g.w]*sw+srcCol[f%g.w]]
	}

	lines := make([]line, g.numEdges())
	for e := range lines {
		f1, f2 := g.edgeFaces(e)
		if litFace(f1) != litFace(f2) {
			lines[e] = lineYes
		} else {
			lines[e] = lineNo
		}
	}
	return lines
}

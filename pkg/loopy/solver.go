package loopy

import (
	"fmt"

	"github.com/gitrdm/gridlogic/pkg/dsf"
	"github.com/gitrdm/gridlogic/pkg/puzzle"
)

// diffMax is the sentinel a deduction pass returns when it made no
// progress at all.
const diffMax = puzzle.Hard + 1

func minDiff(a, b puzzle.Difficulty) puzzle.Difficulty {
	if b < a {
		return b
	}
	return a
}

// dline flag bits. A dline is an unordered pair of edges meeting at a
// dot, keyed by (first edge in the dot's clockwise cycle, endpoint).
const (
	atLeastOneBit = 1 << 0
	atMostOneBit  = 1 << 1
)

// solver carries the deduction scratch for one solve attempt. Counts
// are caches over lines, updated incrementally by setLine.
type solver struct {
	geom
	clues   []int8
	maxDiff puzzle.Difficulty
	depth   int
	logf    puzzle.Logf

	lines      []line
	dotEdgeSet [][]int

	dotYes, dotNo         []int
	faceYes, faceNo       []int
	dotSolved, faceSolved []bool

	// Loop tracking: equivalence classes of dots joined by YES edges,
	// with the number of dots in each chain held at the class root.
	dotDSF  *dsf.DSF
	looplen []int

	// Pair knowledge for adjacent edges at a dot.
	dlines []uint8

	// Edges known to be identical or opposite.
	lineDSF *dsf.DSF

	status puzzle.Status

	// When loop deductions close the loop without having deduced
	// every edge, alt holds the fork exploring the other assignment
	// of the closing edge; refuting it proves the found solution
	// unique.
	alt *solver
}

func newSolver(st *GameState, maxDiff puzzle.Difficulty, depth int, logf puzzle.Logf) *solver {
	g := st.geom
	s := &solver{
		geom:       g,
		clues:      st.clues,
		maxDiff:    maxDiff,
		depth:      depth,
		logf:       logf,
		lines:      append([]line(nil), st.lines...),
		dotEdgeSet: make([][]int, g.numDots()),
		dotYes:     make([]int, g.numDots()),
		dotNo:      make([]int, g.numDots()),
		faceYes:    make([]int, g.numFaces()),
		faceNo:     make([]int, g.numFaces()),
		dotSolved:  make([]bool, g.numDots()),
		faceSolved: make([]bool, g.numFaces()),
		dotDSF:     dsf.New(g.numDots()),
		looplen:    make([]int, g.numDots()),
		dlines:     make([]uint8, 2*g.numEdges()),
		lineDSF:    dsf.NewFlip(g.numEdges()),
		status:     puzzle.Incomplete,
	}
	for d := range s.dotEdgeSet {
		s.dotEdgeSet[d] = g.dotEdges(d)
		s.looplen[d] = 1
	}
	for e, l := range s.lines {
		if l != lineUnknown {
			s.countLine(e, l)
		}
	}
	return s
}

// fork clones the full scratch for a trial branch.
func (s *solver) fork() *solver {
	c := &solver{
		geom:       s.geom,
		clues:      s.clues,
		maxDiff:    s.maxDiff,
		depth:      s.depth,
		logf:       s.logf,
		lines:      append([]line(nil), s.lines...),
		dotEdgeSet: s.dotEdgeSet,
		dotYes:     append([]int(nil), s.dotYes...),
		dotNo:      append([]int(nil), s.dotNo...),
		faceYes:    append([]int(nil), s.faceYes...),
		faceNo:     append([]int(nil), s.faceNo...),
		dotSolved:  append([]bool(nil), s.dotSolved...),
		faceSolved: append([]bool(nil), s.faceSolved...),
		dotDSF:     dsf.New(s.numDots()),
		looplen:    append([]int(nil), s.looplen...),
		dlines:     append([]uint8(nil), s.dlines...),
		lineDSF:    dsf.NewFlip(s.numEdges()),
		status:     s.status,
	}
	c.dotDSF.Copy(s.dotDSF)
	c.lineDSF.Copy(s.lineDSF)
	return c
}

func (s *solver) log(format string, args ...any) {
	if s.logf != nil {
		s.logf(format, args...)
	}
}

func (s *solver) mistake(format string, args ...any) {
	s.log("contradiction: "+format, args...)
	s.status = puzzle.Inconsistent
}

// countLine folds one decided edge into the dot and face caches.
func (s *solver) countLine(e int, l line) {
	d1, d2 := s.edgeDots(e)
	f1, f2 := s.edgeFaces(e)
	if l == lineYes {
		s.dotYes[d1]++
		s.dotYes[d2]++
		if f1 >= 0 {
			s.faceYes[f1]++
		}
		if f2 >= 0 {
			s.faceYes[f2]++
		}
	} else {
		s.dotNo[d1]++
		s.dotNo[d2]++
		if f1 >= 0 {
			s.faceNo[f1]++
		}
		if f2 >= 0 {
			s.faceNo[f2]++
		}
	}
}

// setLine records a deduced edge state. It returns true if the state
// changed; deducing the opposite of a known state is a contradiction.
func (s *solver) setLine(e int, l line) bool {
	if s.lines[e] == l {
		return false
	}
	if s.lines[e] != lineUnknown {
		s.mistake("edge %d deduced both ways", e)
		return true
	}
	s.lines[e] = l
	s.countLine(e, l)
	return true
}

// dlineID keys the adjacent-edge pair whose first edge (in the dot's
// clockwise cycle) is e, meeting at dot d.
func (s *solver) dlineID(e, d int) int {
	d1, _ := s.edgeDots(e)
	if d1 == d {
		return 2*e + 1
	}
	return 2 * e
}

// faceDlineID keys the pair (face edge j, face edge j+1) at their
// common dot. Around that dot the second face edge comes first in the
// clockwise cycle, so the pair is keyed by it.
func (s *solver) faceDlineID(f, j int) int {
	fe := s.faceEdges(f)
	return s.dlineID(fe[(j+1)&3], s.faceDot(f, j))
}

func (s *solver) atMostOne(dl int) bool  { return s.dlines[dl]&atMostOneBit != 0 }
func (s *solver) atLeastOne(dl int) bool { return s.dlines[dl]&atLeastOneBit != 0 }

func (s *solver) setAtMostOne(dl int) bool {
	if s.dlines[dl]&atMostOneBit != 0 {
		return false
	}
	s.dlines[dl] |= atMostOneBit
	return true
}

func (s *solver) setAtLeastOne(dl int) bool {
	if s.dlines[dl]&atLeastOneBit != 0 {
		return false
	}
	s.dlines[dl] |= atLeastOneBit
	return true
}

// dotSetAll rewrites every old-state edge at a dot.
func (s *solver) dotSetAll(d int, old, new line) bool {
	changed := false
	for _, e := range s.dotEdgeSet[d] {
		if s.lines[e] == old {
			s.setLine(e, new)
			changed = true
		}
	}
	return changed
}

// faceSetAll rewrites every old-state edge around a face.
func (s *solver) faceSetAll(f int, old, new line) bool {
	changed := false
	for _, e := range s.faceEdges(f) {
		if s.lines[e] == old {
			s.setLine(e, new)
			changed = true
		}
	}
	return changed
}

// mergeDots joins the chain classes at the two ends of a YES edge,
// reporting true if they were already joined (the edge closes a loop).
func (s *solver) mergeDots(e int) bool {
	d1, d2 := s.edgeDots(e)
	c1 := s.dotDSF.Canonify(d1)
	c2 := s.dotDSF.Canonify(d2)
	if c1 == c2 {
		return true
	}
	n := s.looplen[c1] + s.looplen[c2]
	s.dotDSF.Merge(c1, c2)
	s.looplen[s.dotDSF.Canonify(c1)] = n
	return false
}

// mergeLines records that two edges are identical (inverse=false) or
// opposite (inverse=true). Returns true if this is new information.
func (s *solver) mergeLines(e1, e2 int, inverse bool) bool {
	c1, inv1 := s.lineDSF.CanonifyFlip(e1)
	c2, inv2 := s.lineDSF.CanonifyFlip(e2)
	inverse = inverse != inv1 != inv2
	if !s.lineDSF.MergeFlip(c1, c2, inverse) {
		s.mistake("edges %d and %d related both ways", e1, e2)
	}
	return c1 != c2
}

// trivialDeductions handles clue saturation and dot-degree limits.
func (s *solver) trivialDeductions() puzzle.Difficulty {
	diff := diffMax

faces:
	for f := 0; f < s.numFaces(); f++ {
		if s.faceSolved[f] {
			continue
		}
		yes, no := s.faceYes[f], s.faceNo[f]
		if yes+no == 4 {
			s.faceSolved[f] = true
			continue
		}
		if s.clues[f] < 0 {
			continue
		}
		clue := int(s.clues[f])

		if clue < yes {
			s.mistake("face %d has %d lines, clue %d", f, yes, clue)
			return puzzle.Easy
		}
		if clue == yes {
			if s.faceSetAll(f, lineUnknown, lineNo) {
				diff = minDiff(diff, puzzle.Easy)
			}
			s.faceSolved[f] = true
			continue
		}
		if 4-clue < no {
			s.mistake("face %d has %d crosses, clue %d", f, no, clue)
			return puzzle.Easy
		}
		if 4-clue == no {
			if s.faceSetAll(f, lineUnknown, lineYes) {
				diff = minDiff(diff, puzzle.Easy)
			}
			s.faceSolved[f] = true
			continue
		}

		if 4-clue == no+1 && 4-yes-no > 2 {
			// One refinement: an adjacent unknown pair sharing a dot
			// that already has a line elsewhere cannot both be YES,
			// which pins down the rest of the face.
			fe := s.faceEdges(f)
			for j := 0; j < 4; j++ {
				e1, e2 := fe[j], fe[(j+1)&3]
				if s.lines[e1] != lineUnknown || s.lines[e2] != lineUnknown {
					continue
				}
				if s.dotYes[s.faceDot(f, j)] == 0 {
					continue
				}
				for _, e := range fe {
					if s.lines[e] == lineUnknown && e != e1 && e != e2 {
						s.setLine(e, lineYes)
						diff = minDiff(diff, puzzle.Easy)
					}
				}
				continue faces
			}
		}
	}

	for d := 0; d < s.numDots(); d++ {
		if s.dotSolved[d] {
			continue
		}
		yes, no := s.dotYes[d], s.dotNo[d]
		unknown := len(s.dotEdgeSet[d]) - yes - no

		switch {
		case yes == 0:
			if unknown == 0 {
				s.dotSolved[d] = true
			} else if unknown == 1 {
				s.dotSetAll(d, lineUnknown, lineNo)
				diff = minDiff(diff, puzzle.Easy)
				s.dotSolved[d] = true
			}
		case yes == 1:
			if unknown == 0 {
				s.mistake("dot %d has a dangling line", d)
				return puzzle.Easy
			}
			if unknown == 1 {
				s.dotSetAll(d, lineUnknown, lineYes)
				diff = minDiff(diff, puzzle.Easy)
			}
		case yes == 2:
			if unknown > 0 {
				s.dotSetAll(d, lineUnknown, lineNo)
				diff = minDiff(diff, puzzle.Easy)
			}
			s.dotSolved[d] = true
		default:
			s.mistake("dot %d has %d lines", d, yes)
			return puzzle.Easy
		}
	}

	return diff
}

// dlineDeductions propagates at-most-one/at-least-one knowledge about
// adjacent edge pairs through faces and dots.
func (s *solver) dlineDeductions() puzzle.Difficulty {
	diff := diffMax

	// Face deductions: maxs[j][k] and mins[j][k] bound the number of
	// YES edges in the clockwise run from position j to k. The
	// (j,j+1) entries come from single edge states, the (j,j+2)
	// entries from dline flags, and longer runs by combining.
	for f := 0; f < s.numFaces(); f++ {
		if s.faceSolved[f] || s.clues[f] < 0 {
			continue
		}
		clue := int(s.clues[f])
		fe := s.faceEdges(f)

		var maxs, mins [4][4]int
		for j := 0; j < 4; j++ {
			k := (j + 1) & 3
			line1 := s.lines[fe[j]]
			line2 := s.lines[fe[k]]
			if line1 == lineNo {
				maxs[j][k] = 0
			} else {
				maxs[j][k] = 1
			}
			if line1 == lineYes {
				mins[j][k] = 1
			}

			dl := s.faceDlineID(f, j)
			kk := (k + 1) & 3
			tmp := 2
			if line1 == lineNo {
				tmp--
			}
			if line2 == lineNo {
				tmp--
			}
			if tmp == 2 && s.atMostOne(dl) {
				tmp = 1
			}
			maxs[j][kk] = tmp

			tmp = 0
			if line1 == lineYes {
				tmp++
			}
			if line2 == lineYes {
				tmp++
			}
			if tmp == 0 && s.atLeastOne(dl) {
				tmp = 1
			}
			mins[j][kk] = tmp
		}
		for j := 0; j < 4; j++ {
			k := (j + 3) & 3
			u := (j + 1) & 3
			v := (j + 2) & 3
			maxs[j][k] = maxs[j][u] + maxs[u][k]
			mins[j][k] = mins[j][u] + mins[u][k]
			if t := maxs[j][v] + maxs[v][k]; t < maxs[j][k] {
				maxs[j][k] = t
			}
			if t := mins[j][v] + mins[v][k]; t > mins[j][k] {
				mins[j][k] = t
			}
		}

		for j := 0; j < 4; j++ {
			if s.lines[fe[j]] != lineUnknown {
				continue
			}
			k := (j + 1) & 3

			// Bounds on YES edges in the complement of edge j.
			if mins[k][j] > clue {
				s.mistake("face %d cannot meet clue %d", f, clue)
				return puzzle.Easy
			}
			if mins[k][j] == clue {
				s.setLine(fe[j], lineNo)
				diff = minDiff(diff, puzzle.Easy)
			}
			if maxs[k][j] < clue-1 {
				s.mistake("face %d cannot meet clue %d", f, clue)
				return puzzle.Easy
			}
			if maxs[k][j] == clue-1 {
				s.setLine(fe[j], lineYes)
				diff = minDiff(diff, puzzle.Easy)
			}

			// Diagonal-chain propagation (3-2-...-2-3 patterns).
			if s.maxDiff >= puzzle.Tricky {
				if s.lines[fe[k]] != lineUnknown {
					continue
				}
				dl := s.faceDlineID(f, j)
				kk := (k + 1) & 3
				if mins[kk][j] > clue-2 {
					if s.setAtMostOne(dl) {
						diff = minDiff(diff, puzzle.Normal)
					}
				}
				if maxs[kk][j] < clue {
					if s.setAtLeastOne(dl) {
						diff = minDiff(diff, puzzle.Normal)
					}
				}
			}
		}
	}

	if diff < puzzle.Normal {
		return diff
	}

	// Dot deductions.
	for d := 0; d < s.numDots(); d++ {
		if s.dotSolved[d] {
			continue
		}
		edges := s.dotEdgeSet[d]
		n := len(edges)

		for j := 0; j < n; j++ {
			k := (j + 1) % n
			dl := s.dlineID(edges[j], d)
			e1, e2 := edges[j], edges[k]
			l1, l2 := s.lines[e1], s.lines[e2]

			if l1 == lineNo || l2 == lineNo {
				if s.setAtMostOne(dl) {
					diff = minDiff(diff, puzzle.Normal)
				}
			}
			if l1 == lineYes || l2 == lineYes {
				if s.setAtLeastOne(dl) {
					diff = minDiff(diff, puzzle.Normal)
				}
			}
			if s.atMostOne(dl) {
				if l1 == lineYes && l2 == lineUnknown {
					s.setLine(e2, lineNo)
					diff = minDiff(diff, puzzle.Easy)
				}
				if l2 == lineYes && l1 == lineUnknown {
					s.setLine(e1, lineNo)
					diff = minDiff(diff, puzzle.Easy)
				}
			}
			if s.atLeastOne(dl) {
				if l1 == lineNo && l2 == lineUnknown {
					s.setLine(e2, lineYes)
					diff = minDiff(diff, puzzle.Easy)
				}
				if l2 == lineNo && l1 == lineUnknown {
					s.setLine(e1, lineYes)
					diff = minDiff(diff, puzzle.Easy)
				}
			}
			if s.lines[e1] != lineUnknown || s.lines[e2] != lineUnknown {
				continue
			}

			yes := s.dotYes[d]
			unknown := n - yes - s.dotNo[d]

			if yes == 0 && unknown == 2 {
				// The two unknowns must be identical.
				if s.atMostOne(dl) {
					s.setLine(e1, lineNo)
					s.setLine(e2, lineNo)
					diff = minDiff(diff, puzzle.Easy)
				} else if s.atLeastOne(dl) {
					s.setLine(e1, lineYes)
					s.setLine(e2, lineYes)
					diff = minDiff(diff, puzzle.Easy)
				}
			}
			if yes == 1 {
				if s.setAtMostOne(dl) {
					diff = minDiff(diff, puzzle.Normal)
				}
				if unknown == 2 {
					if s.setAtLeastOne(dl) {
						diff = minDiff(diff, puzzle.Normal)
					}
				}
			}

			if s.maxDiff >= puzzle.Tricky && s.atLeastOne(dl) {
				for opp := 0; opp < n; opp++ {
					if opp == j || opp == k || opp == (j+n-1)%n {
						continue
					}
					if s.setAtMostOne(s.dlineID(edges[opp], d)) {
						diff = minDiff(diff, puzzle.Normal)
					}
				}
				if yes == 0 && s.atMostOne(dl) {
					// The pair holds exactly one YES and nothing else
					// at this dot does.
					if unknown == 3 {
						for opp := 0; opp < n; opp++ {
							if opp == j || opp == k {
								continue
							}
							if s.lines[edges[opp]] == lineUnknown {
								s.setLine(edges[opp], lineYes)
								diff = minDiff(diff, puzzle.Easy)
							}
						}
					} else if unknown == 4 {
						if s.oppositePairAtLeastOne(d, j) {
							diff = minDiff(diff, puzzle.Normal)
						}
					}
				}
			}
		}
	}
	return diff
}

// oppositePairAtLeastOne marks the pair opposite dline j at dot d as
// holding at least one YES; used when dline j holds exactly one.
func (s *solver) oppositePairAtLeastOne(d, j int) bool {
	edges := s.dotEdgeSet[d]
	n := len(edges)
	for opp := 0; opp < n; opp++ {
		if opp == j || opp == (j+1)%n || opp == (j+n-1)%n {
			continue
		}
		opp2 := (opp + 1) % n
		if s.lines[edges[opp]] != lineUnknown || s.lines[edges[opp2]] != lineUnknown {
			continue
		}
		return s.setAtLeastOne(s.dlineID(edges[opp], d))
	}
	return false
}

// linedsfDeductions relates edges known to be identical or opposite.
func (s *solver) linedsfDeductions() puzzle.Difficulty {
	diff := diffMax

	for f := 0; f < s.numFaces(); f++ {
		if s.faceSolved[f] || s.clues[f] < 0 {
			continue
		}
		clue := int(s.clues[f])

		if s.faceYes[f]+1 == clue {
			if s.faceSetAllIdentical(f, lineNo) {
				diff = minDiff(diff, puzzle.Easy)
			}
		}
		no := s.faceNo[f]
		if no+1 == 4-clue {
			if s.faceSetAllIdentical(f, lineYes) {
				diff = minDiff(diff, puzzle.Easy)
			}
		}

		yes := s.faceYes[f]
		unknown := 4 - no - yes
		parity := ((clue-yes)%2 + 2) % 2
		fe := s.faceEdges(f)
		diff = minDiff(diff, s.parityDeductions(fe[:], parity, unknown))
	}

	for d := 0; d < s.numDots(); d++ {
		edges := s.dotEdgeSet[d]
		n := len(edges)
		for j := 0; j < n; j++ {
			e1 := edges[j]
			if s.lines[e1] != lineUnknown {
				continue
			}
			e2 := edges[(j+1)%n]
			if s.lines[e2] != lineUnknown {
				continue
			}
			dl := s.dlineID(e1, d)
			can1, inv1 := s.lineDSF.CanonifyFlip(e1)
			can2, inv2 := s.lineDSF.CanonifyFlip(e2)
			if can1 == can2 && inv1 != inv2 {
				// Opposite edges carry exactly one YES between them.
				if s.setAtMostOne(dl) {
					diff = minDiff(diff, puzzle.Normal)
				}
				if s.setAtLeastOne(dl) {
					diff = minDiff(diff, puzzle.Normal)
				}
				continue
			}
			if s.atMostOne(dl) && s.atLeastOne(dl) {
				if s.mergeLines(e1, e2, true) {
					diff = minDiff(diff, puzzle.Hard)
				}
			}
		}

		yes, no := s.dotYes[d], s.dotNo[d]
		diff = minDiff(diff, s.parityDeductions(edges, yes%2, n-yes-no))
	}

	// Propagate known states between each edge and its canonical
	// representative.
	for e := 0; e < s.numEdges(); e++ {
		can, inv := s.lineDSF.CanonifyFlip(e)
		if can == e {
			continue
		}
		apply := func(l line) line {
			if inv {
				return opp(l)
			}
			return l
		}
		if l := s.lines[can]; l != lineUnknown {
			if s.setLine(e, apply(l)) {
				diff = minDiff(diff, puzzle.Easy)
			}
		} else if l := s.lines[e]; l != lineUnknown {
			if s.setLine(can, apply(l)) {
				diff = minDiff(diff, puzzle.Easy)
			}
		}
	}

	return diff
}

// faceSetAllIdentical sets every pair of unknown face edges known to
// be identical to the given state.
func (s *solver) faceSetAllIdentical(f int, l line) bool {
	changed := false
	fe := s.faceEdges(f)
	for i := 0; i < 4; i++ {
		if s.lines[fe[i]] != lineUnknown {
			continue
		}
		for j := i + 1; j < 4; j++ {
			if s.lines[fe[j]] != lineUnknown {
				continue
			}
			can1, inv1 := s.lineDSF.CanonifyFlip(fe[i])
			can2, inv2 := s.lineDSF.CanonifyFlip(fe[j])
			if can1 == can2 && inv1 == inv2 {
				s.setLine(fe[i], l)
				s.setLine(fe[j], l)
				changed = true
			}
		}
	}
	return changed
}

// parityDeductions exploits that the number of YES edges in a list has
// known parity when only a few edges are still unknown.
func (s *solver) parityDeductions(edgeList []int, parity, unknownCount int) puzzle.Difficulty {
	diff := diffMax
	if unknownCount < 2 || unknownCount > 4 {
		return diff
	}

	e := make([]int, 0, 4)
	for _, ei := range edgeList {
		if s.lines[ei] == lineUnknown {
			e = append(e, ei)
		}
	}
	if len(e) != unknownCount {
		return diff
	}

	can := make([]int, len(e))
	inv := make([]bool, len(e))
	for i, ei := range e {
		can[i], inv[i] = s.lineDSF.CanonifyFlip(ei)
	}
	odd := parity != 0

	switch unknownCount {
	case 2:
		if s.mergeLines(e[0], e[1], odd) {
			diff = minDiff(diff, puzzle.Hard)
		}
	case 3:
		set := func(target int, a, b int) {
			l := lineNo
			if odd != inv[a] != inv[b] {
				l = lineYes
			}
			if s.setLine(e[target], l) {
				diff = minDiff(diff, puzzle.Easy)
			}
		}
		if can[0] == can[1] {
			set(2, 0, 1)
		}
		if can[0] == can[2] {
			set(1, 0, 2)
		}
		if can[1] == can[2] {
			set(0, 1, 2)
		}
	case 4:
		merge := func(x, y, a, b int) {
			if s.mergeLines(e[x], e[y], odd != inv[a] != inv[b]) {
				diff = minDiff(diff, puzzle.Hard)
			}
		}
		switch {
		case can[0] == can[1]:
			merge(2, 3, 0, 1)
		case can[0] == can[2]:
			merge(1, 3, 0, 2)
		case can[0] == can[3]:
			merge(1, 2, 0, 3)
		case can[1] == can[2]:
			merge(0, 3, 1, 2)
		case can[1] == can[3]:
			merge(0, 2, 1, 3)
		case can[2] == can[3]:
			merge(0, 1, 2, 3)
		}
	}
	return diff
}

// loopDeductions tracks the chains formed by YES edges. It detects the
// finished loop, refuses edges that would close a short loop, and
// reports ambiguity when closing the loop early yields a full valid
// solution.
func (s *solver) loopDeductions() puzzle.Difficulty {
	edgecount := 0
	for e, l := range s.lines {
		if l == lineYes {
			s.mergeDots(e)
			edgecount++
		}
	}

	clues, satclues, sm1clues := 0, 0, 0
	for f, c := range s.clues {
		if c < 0 {
			continue
		}
		clues++
		switch s.faceYes[f] {
		case int(c):
			satclues++
		case int(c) - 1:
			sm1clues++
		}
	}

	shortest := s.numDots()
	for d := 0; d < s.numDots(); d++ {
		if n := s.looplen[s.dotDSF.Canonify(d)]; n > 1 && n < shortest {
			shortest = n
		}
	}

	if satclues == clues && shortest == edgecount {
		s.status = puzzle.Solved
		return puzzle.Easy
	}

	progress := false
	for e, l := range s.lines {
		if l != lineUnknown {
			continue
		}
		d1, d2 := s.edgeDots(e)
		class := s.dotDSF.Canonify(d1)
		if class != s.dotDSF.Canonify(d2) {
			continue
		}

		// The edge would close a loop. That is wrong unless the loop
		// takes in every line on the grid and satisfies every clue,
		// counting the two faces of this edge as getting one more.
		val := lineNo
		if s.looplen[class] == edgecount+1 {
			sm1Nearby := 0
			f1, f2 := s.edgeFaces(e)
			for _, f := range [2]int{f1, f2} {
				if f >= 0 && s.clues[f] >= 0 && s.faceYes[f] == int(s.clues[f])-1 {
					sm1Nearby++
				}
			}
			if sm1clues == sm1Nearby && sm1clues+satclues == clues {
				val = lineYes
			}
		}
		if val == lineYes {
			// A solution exists, but it was never deduced, so another
			// may exist elsewhere. With recursion budget left, keep a
			// fork of the opposite assignment: refuting it later
			// proves the found solution unique.
			if s.depth > 0 && s.maxDiff >= puzzle.Hard {
				alt := s.fork()
				alt.depth--
				alt.setLine(e, lineNo)
				s.alt = alt
			}
			s.setLine(e, val)
			s.status = puzzle.Ambiguous
			return puzzle.Easy
		}
		s.setLine(e, val)
		progress = true
	}

	if progress {
		return puzzle.Easy
	}
	return diffMax
}

type deduction struct {
	diff puzzle.Difficulty
	name string
	fn   func(*solver) puzzle.Difficulty
}

var deductions = []deduction{
	{puzzle.Easy, "trivial", (*solver).trivialDeductions},
	{puzzle.Normal, "dline", (*solver).dlineDeductions},
	{puzzle.Hard, "linedsf", (*solver).linedsfDeductions},
	{puzzle.Easy, "loop", (*solver).loopDeductions},
}

// run iterates the deduction passes to a fixed point. Passes cheaper
// than the last productive one are skipped until something at their
// level changes again.
func (s *solver) run() {
	thresholdDiff := puzzle.Trivial
	thresholdIndex := 0
	i := 0
	for i < len(deductions) {
		if s.status == puzzle.Inconsistent {
			return
		}
		if s.status == puzzle.Solved || s.status == puzzle.Ambiguous {
			break
		}
		r := deductions[i]
		if (r.diff >= thresholdDiff || i >= thresholdIndex) && r.diff <= s.maxDiff {
			if d := r.fn(s); d != diffMax {
				s.log("%s deductions progressed at %v", r.name, d)
				thresholdDiff = d
				thresholdIndex = i
				i = 0
				continue
			}
		}
		i++
	}

	if s.status == puzzle.Solved || s.status == puzzle.Ambiguous {
		for e, l := range s.lines {
			if l == lineUnknown {
				s.lines[e] = lineNo
			}
		}
	}
}

// branchEdge picks the edge to bifurcate on: an unknown edge hanging
// off a chain end if one exists, else any unknown edge.
func (s *solver) branchEdge() int {
	fallback := -1
	for e, l := range s.lines {
		if l != lineUnknown {
			continue
		}
		if fallback < 0 {
			fallback = e
		}
		d1, d2 := s.edgeDots(e)
		if s.dotYes[d1] == 1 || s.dotYes[d2] == 1 {
			return e
		}
	}
	return fallback
}

// hasSolution reports whether a finished branch found at least one
// solution.
func hasSolution(status puzzle.Status) bool {
	return status == puzzle.Solved || status == puzzle.Ambiguous
}

// solve runs the deduction engine, falling back to depth-limited
// trial and error when propagation stalls at the hardest tier. The
// outcome of a trial is read as solution evidence: Inconsistent means
// no solution under that assignment, Solved exactly one, Ambiguous at
// least one, Incomplete says nothing. Solved is only ever reported
// when every other assignment has been refuted.
func (s *solver) solve() puzzle.Status {
	for {
		s.run()

		if s.status == puzzle.Incomplete && s.branchEdge() < 0 {
			// Every edge is decided, yet the result was not
			// recognised as a solution. No solution extends this
			// position.
			s.status = puzzle.Inconsistent
		}
		if s.status == puzzle.Ambiguous && s.alt != nil {
			alt := s.alt
			s.alt = nil
			if alt.solve() == puzzle.Inconsistent {
				// The opposite assignment of the closing edge admits
				// no solution, so the loop we closed is the unique
				// one.
				s.status = puzzle.Solved
			}
		}
		if s.status != puzzle.Incomplete || s.maxDiff < puzzle.Hard || s.depth <= 0 {
			return s.status
		}
		e := s.branchEdge()
		s.log("branching on edge %d at depth %d", e, s.depth)

		yesBranch := s.fork()
		yesBranch.depth--
		yesBranch.setLine(e, lineYes)
		yesStatus := yesBranch.solve()
		if yesStatus == puzzle.Inconsistent {
			// The branch refuted itself, so the opposite is forced
			// and plain propagation can resume.
			s.setLine(e, lineNo)
			continue
		}

		noBranch := s.fork()
		noBranch.depth--
		noBranch.setLine(e, lineNo)
		noStatus := noBranch.solve()
		if noStatus == puzzle.Inconsistent {
			if yesStatus == puzzle.Solved {
				s.adopt(yesBranch)
				return s.status
			}
			// All solutions lie on the YES side, but the trial could
			// not settle how many. Force the edge and resume with the
			// full remaining budget.
			s.setLine(e, lineYes)
			continue
		}

		switch {
		case hasSolution(yesStatus) && hasSolution(noStatus):
			// Solutions on both sides of the edge.
			s.adopt(yesBranch)
			s.status = puzzle.Ambiguous
		case hasSolution(yesStatus):
			// A solution was found but the other side is unresolved,
			// so uniqueness stays unproven.
			s.adopt(yesBranch)
			s.status = puzzle.Ambiguous
		case hasSolution(noStatus):
			s.adopt(noBranch)
			s.status = puzzle.Ambiguous
		default:
			s.status = puzzle.Incomplete
		}
		return s.status
	}
}

// adopt takes over a finished branch's conclusion.
func (s *solver) adopt(branch *solver) {
	copy(s.lines, branch.lines)
	s.status = branch.status
}

// Solve runs the solver against a position and reports how it ended.
func Solve(st *GameState, maxDiff puzzle.Difficulty, depth int, logf puzzle.Logf) puzzle.Status {
	status, _ := solveGrid(st, maxDiff, depth, logf)
	return status
}

func solveGrid(st *GameState, maxDiff puzzle.Difficulty, depth int, logf puzzle.Logf) (puzzle.Status, []line) {
	s := newSolver(st, maxDiff, depth, logf)
	status := s.solve()
	return status, s.lines
}

// SolveGame returns a solve move for a position: the generator's
// stored solution when available, otherwise whatever the solver can
// derive with full deductions and a generous recursion budget.
func SolveGame(st *GameState, aux string) (string, error) {
	if aux != "" {
		return aux, nil
	}
	status, lines := solveGrid(st, puzzle.Hard, st.numEdges(), nil)
	if status != puzzle.Solved && status != puzzle.Ambiguous {
		return "", fmt.Errorf("%w: no solution found (%v)", puzzle.ErrMove, status)
	}
	return solveMoveString(lines), nil
}

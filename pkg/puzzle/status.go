package puzzle

// Status is the outcome of a solver run. It is a tagged value, not an
// error: Inconsistent and Ambiguous describe the instance, not a
// malfunction.
type Status int

const (
	// Incomplete means the solver ran out of deductions (or recursion
	// budget) without determining the grid.
	Incomplete Status = iota
	// Solved means a unique solution was found within the allowed
	// tiers.
	Solved
	// Inconsistent means propagation derived a contradiction; the
	// instance has no solution.
	Inconsistent
	// Ambiguous means at least two distinct solutions exist.
	Ambiguous
)

func (s Status) String() string {
	switch s {
	case Incomplete:
		return "incomplete"
	case Solved:
		return "solved"
	case Inconsistent:
		return "inconsistent"
	case Ambiguous:
		return "ambiguous"
	}
	return "unknown"
}

// Package puzzle provides the pieces shared by every puzzle package in
// this module: difficulty tiers, solver status values, a seedable
// random source, descriptor run-length helpers, and the error kinds
// surfaced by parameter, descriptor and move validation.
//
// Each puzzle package (unruly, tracks, loopy, pearl, palisade, rect)
// builds its solver and generator on these types. Solver outcomes are
// values of Status, never errors: an inconsistent or ambiguous
// instance is an expected result of constraint propagation, not a
// failure of the machinery.
package puzzle

// Logf is an optional diagnostic sink accepted by solvers and
// generators. A nil Logf disables diagnostics.
type Logf func(format string, args ...any)

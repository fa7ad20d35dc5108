package puzzle

import "errors"

// Sentinel error kinds returned by validation and generation. Callers
// classify with errors.Is; the wrapped message carries the detail.
var (
	// ErrParams rejects a parameter set: dimensions out of range,
	// uniqueness unsatisfiable, malformed parameter string.
	ErrParams = errors.New("invalid parameters")

	// ErrDescriptor rejects a game descriptor: wrong decoded length,
	// illegal character, missing mandatory fields.
	ErrDescriptor = errors.New("invalid game descriptor")

	// ErrMove rejects a move string that cannot be parsed or that
	// would clobber an immutable clue cell.
	ErrMove = errors.New("invalid move")

	// ErrGeneratorExhausted reports that the generation retry budget
	// was consumed without producing a valid instance.
	ErrGeneratorExhausted = errors.New("generator retry budget exhausted")
)

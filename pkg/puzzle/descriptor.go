package puzzle

// Descriptor run-length encoding. Runs of empty cells are written as
// lowercase letters: 'a' through 'y' encode 1 to 25 empties, 'z'
// encodes a full block of 25 with more of the run possibly following,
// so "zz" is 50 and "zb" is 27. The encoder emits 'z' for every full
// block of 25 and a terminating letter for any remainder.

// AppendEmptyRun appends the run-length encoding of n empty cells.
func AppendEmptyRun(dst []byte, n int) []byte {
	for n >= 25 {
		dst = append(dst, 'z')
		n -= 25
	}
	if n > 0 {
		dst = append(dst, byte('a'+n-1))
	}
	return dst
}

// EmptyRunLen returns the number of empty cells a run letter encodes,
// or 0 if c is not a run letter.
func EmptyRunLen(c byte) int {
	if c < 'a' || c > 'z' {
		return 0
	}
	if c == 'z' {
		return 25
	}
	return int(c-'a') + 1
}

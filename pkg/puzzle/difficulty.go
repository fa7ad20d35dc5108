package puzzle

// Difficulty is the maximum deduction-rule tier a solver is allowed to
// use. Generators use it as a complexity dial: an instance generated
// at tier D is solvable at D but not at D-1.
type Difficulty int

const (
	Trivial Difficulty = iota
	Easy
	Normal
	Tricky
	Hard
)

var difficultyNames = [...]string{"Trivial", "Easy", "Normal", "Tricky", "Hard"}
var difficultyCodes = [...]byte{'t', 'e', 'n', 'k', 'h'}

func (d Difficulty) String() string {
	if d < Trivial || d > Hard {
		return "Unknown"
	}
	return difficultyNames[d]
}

// Code returns the single-character code used in parameter strings.
func (d Difficulty) Code() byte {
	if d < Trivial || d > Hard {
		return '?'
	}
	return difficultyCodes[d]
}

// ParseDifficulty maps a parameter-string code back to its tier.
func ParseDifficulty(c byte) (Difficulty, bool) {
	for i, code := range difficultyCodes {
		if code == c {
			return Difficulty(i), true
		}
	}
	return 0, false
}
